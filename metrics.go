package regiongc

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordPause is called after each evacuation pause.
	// regionsFailed and failedBytes describe the failure set the pause
	// left behind; err is nil if every worker completed.
	RecordPause(duration time.Duration, regionsFailed uint32, failedBytes uint64, err error)

	// RecordRepair is called after each repair phase.
	RecordRepair(duration time.Duration, regionsRepaired uint32, err error)

	// RecordHeapExpand is called after each heap resize.
	RecordHeapExpand(oldRegions, newRegions uint32)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPause(time.Duration, uint32, uint64, error) {}
func (NoopMetricsCollector) RecordRepair(time.Duration, uint32, error)        {}
func (NoopMetricsCollector) RecordHeapExpand(uint32, uint32)                  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	PauseCount       atomic.Int64
	PauseErrors      atomic.Int64
	PauseTotalNanos  atomic.Int64
	RegionsFailed    atomic.Int64
	FailedBytes      atomic.Int64
	RepairCount      atomic.Int64
	RepairErrors     atomic.Int64
	RepairTotalNanos atomic.Int64
	RegionsRepaired  atomic.Int64
	HeapExpands      atomic.Int64
}

// RecordPause implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPause(duration time.Duration, regionsFailed uint32, failedBytes uint64, err error) {
	b.PauseCount.Add(1)
	b.PauseTotalNanos.Add(duration.Nanoseconds())
	b.RegionsFailed.Add(int64(regionsFailed))
	b.FailedBytes.Add(int64(failedBytes))
	if err != nil {
		b.PauseErrors.Add(1)
	}
}

// RecordRepair implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRepair(duration time.Duration, regionsRepaired uint32, err error) {
	b.RepairCount.Add(1)
	b.RepairTotalNanos.Add(duration.Nanoseconds())
	b.RegionsRepaired.Add(int64(regionsRepaired))
	if err != nil {
		b.RepairErrors.Add(1)
	}
}

// RecordHeapExpand implements MetricsCollector.
func (b *BasicMetricsCollector) RecordHeapExpand(uint32, uint32) {
	b.HeapExpands.Add(1)
}

// AveragePauseTime returns the mean pause duration, or 0 with no pauses.
func (b *BasicMetricsCollector) AveragePauseTime() time.Duration {
	n := b.PauseCount.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(b.PauseTotalNanos.Load() / n)
}
