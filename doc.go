// Package regiongc provides the evacuation-failure tracking machinery
// of a region-based garbage collector.
//
// During a parallel evacuation pause, worker threads copy live objects
// out of candidate regions. When a worker runs out of destination
// space, the region's evacuation fails and must be recorded, exactly
// once, without blocking other workers. That recording structure is
// the heart of this module, in package evacfail: a lock-free bitset
// gate feeding a dense slot-exclusive list.
//
// # Quick Start
//
//	ctx := context.Background()
//	gc, _ := regiongc.NewCollector(region.Config{
//		HeapBytes:   1 << 30,
//		RegionBytes: 4 << 20,
//	}, regiongc.WithParallelism(8))
//	defer gc.Close()
//
//	report, _ := gc.RunPause(ctx, func(ctx context.Context, workerID int, rec *evacfail.EvacFailureRegions) error {
//		// evacuate; on allocation failure for region idx:
//		rec.Record(idx)
//		return nil
//	})
//
//	if report.RegionsFailed > 0 {
//		_ = gc.Repair(ctx, func(ctx context.Context, idx uint32) error {
//			// re-mark and fix forwarding state of region idx
//			return nil
//		})
//	}
//
// Packages:
//   - evacfail: the concurrent exactly-once failure recorder
//   - region: heap geometry, region descriptors, the region universe
//   - pause: worker pool, pause driver, claim-based parallel iteration,
//     repair pacing
//   - snapshot: immutable roaring-bitmap views of the failed set
//   - pauselog: compressed on-disk log of per-pause reports
package regiongc
