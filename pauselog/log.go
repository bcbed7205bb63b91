package pauselog

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sync"
)

// crc32cTable is pre-computed for the CRC32-Castagnoli polynomial.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// Frame layout:
//
//	[uncompressedSize uint32][compressedSize uint32][crc uint32][compression uint8][payload]
//
// crc covers the stored payload. A frame that fails length or crc
// checks ends replay (torn tail after a crash).
const frameHeaderSize = 4 + 4 + 4 + 1

// Options configures a pause log.
type Options struct {
	// Compression applied to report payloads.
	Compression Compression

	// SyncOnAppend fsyncs after every report. Pause reports are
	// observability data, so this defaults to off.
	SyncOnAppend bool
}

// DefaultOptions are used by Open when no option functions are given.
var DefaultOptions = Options{
	Compression:  CompressionZstd,
	SyncOnAppend: false,
}

// Log is an append-only file of pause reports.
type Log struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	opts   Options
	closed bool
}

// Open opens or creates the pause log at path, appending to existing
// content.
func Open(path string, optFns ...func(o *Options)) (*Log, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create pause log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // G304: Path is configurable
	if err != nil {
		return nil, fmt.Errorf("failed to open pause log: %w", err)
	}

	return &Log{
		file:   file,
		writer: bufio.NewWriter(file),
		opts:   opts,
	}, nil
}

// WithCompression sets the payload compression.
func WithCompression(c Compression) func(o *Options) {
	return func(o *Options) {
		o.Compression = c
	}
}

// WithSyncOnAppend enables fsync after every report.
func WithSyncOnAppend(enabled bool) func(o *Options) {
	return func(o *Options) {
		o.SyncOnAppend = enabled
	}
}

// Append writes one report frame.
func (l *Log) Append(r *Report) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fmt.Errorf("pause log is closed")
	}

	payload := r.encode()
	stored, compression, err := compressPayload(payload, l.opts.Compression)
	if err != nil {
		return err
	}

	var header [frameHeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(stored)))
	binary.LittleEndian.PutUint32(header[8:12], crc32.Checksum(stored, crc32cTable))
	header[12] = byte(compression)

	if _, err := l.writer.Write(header[:]); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}
	if _, err := l.writer.Write(stored); err != nil {
		return fmt.Errorf("failed to write frame payload: %w", err)
	}

	if l.opts.SyncOnAppend {
		return l.sync()
	}
	return nil
}

// Sync flushes buffered frames and fsyncs the file.
func (l *Log) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fmt.Errorf("pause log is closed")
	}
	return l.sync()
}

func (l *Log) sync() error {
	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush pause log: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync pause log: %w", err)
	}
	return nil
}

// Close flushes and closes the log. Idempotent.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if err := l.writer.Flush(); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("failed to flush pause log: %w", err)
	}
	return l.file.Close()
}
