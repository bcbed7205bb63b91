package pause

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gcforge/regiongc/evacfail"
)

// EvacuationTask is the per-worker body of the evacuation phase.
// Workers discover evacuation failures and report them through the
// recorder they were handed by the collector.
type EvacuationTask func(ctx context.Context, workerID int) error

// RepairFunc repairs one evacuation-failed region.
type RepairFunc func(ctx context.Context, regionIdx uint32) error

// Driver runs the two phases of an evacuation pause: the parallel
// evacuation phase ending in a barrier, and the paced repair phase
// over whatever the recorder collected.
type Driver struct {
	pool *WorkerPool
}

// NewDriver creates a driver running on the given worker pool.
func NewDriver(pool *WorkerPool) *Driver {
	return &Driver{pool: pool}
}

// Parallelism returns the number of workers per phase.
func (d *Driver) Parallelism() int {
	return d.pool.NumWorkers()
}

// RunEvacuation fans task out to every pool worker and blocks until
// all of them return: that return is the pause barrier, after which
// every Record side effect is visible to the single post-pause
// consumer.
func (d *Driver) RunEvacuation(ctx context.Context, task EvacuationTask) error {
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	submitErr := func() error {
		for w := 0; w < d.pool.NumWorkers(); w++ {
			workerID := w
			wg.Add(1)
			if err := d.pool.Submit(ctx, func() {
				defer wg.Done()
				if err := task(ctx, workerID); err != nil {
					errOnce.Do(func() { firstErr = err })
				}
			}); err != nil {
				wg.Done()
				return err
			}
		}
		return nil
	}()

	// The barrier: no Record side effect escapes the pause unordered.
	wg.Wait()

	if submitErr != nil {
		return submitErr
	}
	return firstErr
}

// RunRepair drains the recorder's dense list with the pool's
// parallelism: workers claim slots through a RegionClaimer, pace
// themselves through pacer, and apply repair to each claimed region.
// regionBytes supplies the per-region byte cost fed to the pacer. No
// recorder may be active.
func (d *Driver) RunRepair(
	ctx context.Context,
	rec *evacfail.EvacFailureRegions,
	pacer *Pacer,
	regionBytes func(idx uint32) uint64,
	repair RepairFunc,
) error {
	if !rec.HasFailedRegions() {
		return nil
	}

	claimer := NewRegionClaimer(rec.NumRegionsFailed())
	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < d.pool.NumWorkers(); w++ {
		g.Go(func() error {
			for {
				slot, ok := claimer.ClaimNext()
				if !ok {
					return nil
				}
				idx := rec.RegionAt(slot)

				if err := pacer.BeginRepair(gctx); err != nil {
					return err
				}
				err := pacer.WaitBytes(gctx, regionBytes(idx))
				if err == nil {
					err = repair(gctx, idx)
				}
				pacer.EndRepair()
				if err != nil {
					return err
				}
			}
		})
	}

	return g.Wait()
}
