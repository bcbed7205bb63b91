package regiongc

import (
	"github.com/gcforge/regiongc/pause"
	"github.com/gcforge/regiongc/pauselog"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	parallelism      int
	pauseLogPath     string
	pauseLogOptions  []func(*pauselog.Options)
	pacerConfig      *pause.PacerConfig
}

// Option configures Collector construction.
type Option func(*options)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithMetricsCollector sets the metrics sink. Defaults to
// NoopMetricsCollector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithParallelism sets the number of collector workers used for the
// evacuation and repair phases. Non-positive values default to
// GOMAXPROCS.
func WithParallelism(workers int) Option {
	return func(o *options) {
		o.parallelism = workers
	}
}

// WithPauseLog enables the on-disk pause log at path.
func WithPauseLog(path string, optFns ...func(*pauselog.Options)) Option {
	return func(o *options) {
		o.pauseLogPath = path
		o.pauseLogOptions = optFns
	}
}

// WithRepairPacing bounds the resources the repair phase may consume.
// Without it repair runs unpaced.
func WithRepairPacing(cfg pause.PacerConfig) Option {
	return func(o *options) {
		o.pacerConfig = &cfg
	}
}
