package regiongc

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gcforge/regiongc/evacfail"
	"github.com/gcforge/regiongc/pause"
	"github.com/gcforge/regiongc/pauselog"
	"github.com/gcforge/regiongc/region"
	"github.com/gcforge/regiongc/snapshot"
)

// EvacuationFunc is the per-worker body of an evacuation pause. Each
// worker reports regions it could not evacuate through rec.Record.
type EvacuationFunc func(ctx context.Context, workerID int, rec *evacfail.EvacFailureRegions) error

// PauseReport summarizes one evacuation pause for the caller.
type PauseReport struct {
	// Sequence is the collector-wide pause counter, starting at 1.
	Sequence uint64

	// StartTime is when the pause began.
	StartTime time.Time

	// Duration is the wall time of the pause.
	Duration time.Duration

	// RegionsFailed is the number of regions that failed evacuation.
	RegionsFailed uint32

	// FailedBytes is the byte tally of those regions.
	FailedBytes uint64

	// Failed is the immutable snapshot of the failed region set.
	Failed *snapshot.FailedRegions
}

// Collector owns the region universe and the evacuation-failure
// machinery for one heap. It runs pauses on a fixed worker pool that
// lives as long as the collector.
type Collector struct {
	universe *region.Universe
	recorder *evacfail.EvacFailureRegions
	pool     *pause.WorkerPool
	driver   *pause.Driver
	pacer    *pause.Pacer
	log      *pauselog.Log

	logger  *Logger
	metrics MetricsCollector

	pauseSeq atomic.Uint64
	closed   atomic.Bool

	// pauseMu serializes pauses, repair, and heap resizes: these are
	// the collector's safepoint operations.
	pauseMu sync.Mutex
}

// NewCollector creates a collector for the given heap geometry.
func NewCollector(cfg region.Config, optFns ...Option) (*Collector, error) {
	opts := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	universe, err := region.NewUniverse(cfg)
	if err != nil {
		return nil, err
	}

	c := &Collector{
		universe: universe,
		recorder: evacfail.New(universe, universe.NumRegions()),
		pool:     pause.NewWorkerPool(opts.parallelism),
		logger:   opts.logger,
		metrics:  opts.metricsCollector,
	}
	c.driver = pause.NewDriver(c.pool)

	if opts.pacerConfig != nil {
		c.pacer = pause.NewPacer(*opts.pacerConfig)
	}

	if opts.pauseLogPath != "" {
		log, err := pauselog.Open(opts.pauseLogPath, opts.pauseLogOptions...)
		if err != nil {
			c.pool.Close()
			return nil, err
		}
		c.log = log
	}

	return c, nil
}

// Universe returns the region table.
func (c *Collector) Universe() *region.Universe {
	return c.universe
}

// Recorder returns the evacuation-failure recorder. Mutating it
// outside a running pause breaks the collector's invariants.
func (c *Collector) Recorder() *evacfail.EvacFailureRegions {
	return c.recorder
}

// Parallelism returns the worker count used per pause.
func (c *Collector) Parallelism() int {
	return c.pool.NumWorkers()
}

// RunPause executes one evacuation pause: clears last cycle's failure
// state, fans task out to every worker, waits for the barrier, then
// builds the post-pause report single-threaded.
func (c *Collector) RunPause(ctx context.Context, task EvacuationFunc) (*PauseReport, error) {
	if c.closed.Load() {
		return nil, ErrCollectorClosed
	}

	c.pauseMu.Lock()
	defer c.pauseMu.Unlock()

	seq := c.pauseSeq.Add(1)
	start := time.Now()

	c.recorder.Reset()
	c.universe.ClearEvacuationFailures()

	err := c.driver.RunEvacuation(ctx, func(ctx context.Context, workerID int) error {
		return task(ctx, workerID, c.recorder)
	})

	// Past the barrier: single-threaded from here.
	duration := time.Since(start)
	regionsFailed := c.recorder.NumRegionsFailed()
	failedBytes := c.recorder.FailedBytes()

	c.metrics.RecordPause(duration, regionsFailed, failedBytes, err)
	c.logger.LogPause(ctx, seq, duration, regionsFailed, failedBytes, err)

	if err != nil {
		return nil, err
	}

	if err := c.checkViewAgreement(regionsFailed); err != nil {
		return nil, err
	}

	report := &PauseReport{
		Sequence:      seq,
		StartTime:     start,
		Duration:      duration,
		RegionsFailed: regionsFailed,
		FailedBytes:   failedBytes,
		Failed:        c.snapshotFailed(),
	}

	if c.log != nil {
		if err := c.appendReport(report); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// checkViewAgreement verifies that the dense list and the region-local
// flags describe the same set. They are redundant by design; a
// mismatch means someone mutated one view behind the recorder's back.
func (c *Collector) checkViewAgreement(denseCount uint32) error {
	flagged := c.universe.FailedByFlag()
	if uint32(len(flagged)) != denseCount {
		return &ErrViewMismatch{DenseCount: denseCount, FlagCount: uint32(len(flagged))}
	}
	for _, idx := range flagged {
		if !c.recorder.Contains(idx) {
			return &ErrViewMismatch{DenseCount: denseCount, FlagCount: uint32(len(flagged))}
		}
	}
	return nil
}

func (c *Collector) snapshotFailed() *snapshot.FailedRegions {
	return snapshot.FromSeq(func(yield func(uint32) bool) {
		c.recorder.Iterate(yield)
	})
}

func (c *Collector) appendReport(report *PauseReport) error {
	snapBytes, err := report.Failed.Bytes()
	if err != nil {
		return err
	}
	return c.log.Append(&pauselog.Report{
		Sequence:      report.Sequence,
		StartTime:     report.StartTime,
		Duration:      report.Duration,
		RegionsFailed: report.RegionsFailed,
		FailedBytes:   report.FailedBytes,
		Snapshot:      snapBytes,
	})
}

// Repair drains the recorded failure set with the collector's workers,
// applying repair to each failed region and clearing its region-local
// flag. Paced when the collector was built with WithRepairPacing.
func (c *Collector) Repair(ctx context.Context, repair pause.RepairFunc) error {
	if c.closed.Load() {
		return ErrCollectorClosed
	}

	c.pauseMu.Lock()
	defer c.pauseMu.Unlock()

	start := time.Now()
	regions := c.recorder.NumRegionsFailed()

	err := c.driver.RunRepair(ctx, c.recorder, c.pacer,
		func(idx uint32) uint64 {
			return c.universe.RegionAt(idx).Bytes()
		},
		func(ctx context.Context, idx uint32) error {
			if err := repair(ctx, idx); err != nil {
				return err
			}
			c.universe.RegionAt(idx).ClearEvacuationFailure()
			return nil
		})

	duration := time.Since(start)
	c.metrics.RecordRepair(duration, regions, err)
	c.logger.LogRepair(ctx, c.pauseSeq.Load(), duration, regions, err)
	return err
}

// ExpandHeap grows the heap to newHeapBytes at a safepoint, resizing
// the region universe and the recorder with it. Failure state from the
// previous cycle is discarded.
func (c *Collector) ExpandHeap(newHeapBytes uint64) error {
	if c.closed.Load() {
		return ErrCollectorClosed
	}

	c.pauseMu.Lock()
	defer c.pauseMu.Unlock()

	oldRegions := c.universe.NumRegions()
	if err := c.universe.Expand(newHeapBytes); err != nil {
		return err
	}
	c.recorder.Initialize(c.universe.NumRegions())

	c.metrics.RecordHeapExpand(oldRegions, c.universe.NumRegions())
	c.logger.LogHeapExpand(context.Background(), oldRegions, c.universe.NumRegions())
	return nil
}

// Close stops the worker pool and closes the pause log. Idempotent.
func (c *Collector) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.pool.Close()
	if c.log != nil {
		return c.log.Close()
	}
	return nil
}
