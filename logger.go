package regiongc

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with collector-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithPause adds the pause sequence number to the logger.
func (l *Logger) WithPause(seq uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("pause", seq),
	}
}

// WithWorker adds a worker ID field to the logger.
func (l *Logger) WithWorker(workerID int) *Logger {
	return &Logger{
		Logger: l.Logger.With("worker", workerID),
	}
}

// WithRegion adds a region index field to the logger.
func (l *Logger) WithRegion(idx uint32) *Logger {
	return &Logger{
		Logger: l.Logger.With("region", idx),
	}
}

// LogPause logs one completed evacuation pause.
func (l *Logger) LogPause(ctx context.Context, seq uint64, duration time.Duration, regionsFailed uint32, failedBytes uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "evacuation pause failed",
			"pause", seq,
			"duration", duration,
			"error", err,
		)
		return
	}
	if regionsFailed > 0 {
		l.WarnContext(ctx, "evacuation pause completed with failed regions",
			"pause", seq,
			"duration", duration,
			"regions_failed", regionsFailed,
			"failed_bytes", failedBytes,
		)
	} else {
		l.DebugContext(ctx, "evacuation pause completed",
			"pause", seq,
			"duration", duration,
		)
	}
}

// LogRepair logs one completed repair phase.
func (l *Logger) LogRepair(ctx context.Context, seq uint64, duration time.Duration, regionsRepaired uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "region repair failed",
			"pause", seq,
			"duration", duration,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "region repair completed",
			"pause", seq,
			"duration", duration,
			"regions_repaired", regionsRepaired,
		)
	}
}

// LogHeapExpand logs a heap resize.
func (l *Logger) LogHeapExpand(ctx context.Context, oldRegions, newRegions uint32) {
	l.InfoContext(ctx, "heap expanded",
		"old_regions", oldRegions,
		"new_regions", newRegions,
	)
}
