package evacfail

import (
	"fmt"
	"sync/atomic"

	"github.com/gcforge/regiongc/internal/bitset"
)

// RegionNotifier is the capability the recorder needs from the region
// universe: mark a region as evacuation-failed and report its byte
// size for the tally. It is injected at construction so the recorder
// never depends on the concrete region representation.
type RegionNotifier interface {
	NoteEvacuationFailure(idx uint32) (regionBytes uint64)
}

// SlotClaimer hands out exclusive dense-list slots to parallel repair
// workers. Implemented by pause.RegionClaimer.
type SlotClaimer interface {
	ClaimNext() (slot uint32, ok bool)
}

// EvacFailureRegions records which regions failed evacuation during
// one pause.
//
// Many workers call Record concurrently; every other operation except
// Contains and NumRegionsFailed belongs to single-threaded phases. The
// structure itself establishes no cross-thread visibility beyond the
// per-bit and per-slot atomics: the pause barrier is what publishes
// recorded state to the post-pause consumer.
type EvacFailureRegions struct {
	notifier RegionNotifier

	failedBits *bitset.BitSet
	regions    []uint32
	length     atomic.Uint32

	failedBytes atomic.Uint64

	maxRegions uint32
}

// New creates a recorder over a universe of maxRegions region indices.
func New(notifier RegionNotifier, maxRegions uint32) *EvacFailureRegions {
	e := &EvacFailureRegions{notifier: notifier}
	e.Initialize(maxRegions)
	return e
}

// Initialize sizes the recorder for a universe of maxRegions indices,
// discarding prior content. Called at collector setup and again when
// the heap grows. Safepoint only: no recorder may be active.
func (e *EvacFailureRegions) Initialize(maxRegions uint32) {
	e.failedBits = bitset.New(maxRegions)
	e.regions = make([]uint32, maxRegions)
	e.length.Store(0)
	e.failedBytes.Store(0)
	e.maxRegions = maxRegions
}

// Record marks region idx as evacuation-failed. Safe for any number of
// concurrent callers; across all concurrent calls for the same index
// exactly one returns true, and only that call appends to the dense
// list, notifies the region, and adds to the byte tally.
//
// Out-of-range indices are a caller bug and panic.
func (e *EvacFailureRegions) Record(idx uint32) bool {
	if idx >= e.maxRegions {
		panic(fmt.Sprintf("evacfail: region index %d out of range [0, %d)", idx, e.maxRegions))
	}

	if !e.failedBits.SetIfClear(idx) {
		// Someone else already flagged it: the common race outcome.
		return false
	}

	slot := e.length.Add(1) - 1
	e.regions[slot] = idx

	bytes := e.notifier.NoteEvacuationFailure(idx)
	e.failedBytes.Add(bytes)
	return true
}

// NumRegionsFailed returns the number of regions recorded so far.
// Exact only at quiescent points; advisory while recorders run.
func (e *EvacFailureRegions) NumRegionsFailed() uint32 {
	return e.length.Load()
}

// HasFailedRegions reports whether any failure was recorded, letting
// the repair phase be skipped entirely on clean pauses.
func (e *EvacFailureRegions) HasFailedRegions() bool {
	return e.length.Load() > 0
}

// Contains reports whether region idx has been recorded this cycle.
func (e *EvacFailureRegions) Contains(idx uint32) bool {
	return e.failedBits.Test(idx)
}

// RegionAt returns the region index in dense-list slot i. Slots are
// ordered by recording, not by region index. Panics when
// i >= NumRegionsFailed().
func (e *EvacFailureRegions) RegionAt(i uint32) uint32 {
	if n := e.length.Load(); i >= n {
		panic(fmt.Sprintf("evacfail: slot %d out of range [0, %d)", i, n))
	}
	return e.regions[i]
}

// FailedBytes returns the byte tally of recorded regions.
func (e *EvacFailureRegions) FailedBytes() uint64 {
	return e.failedBytes.Load()
}

// MaxRegions returns the size of the region universe.
func (e *EvacFailureRegions) MaxRegions() uint32 {
	return e.maxRegions
}

// Iterate calls fn for each recorded region in dense-list order,
// stopping early when fn returns false. Post-pause single consumer
// only.
func (e *EvacFailureRegions) Iterate(fn func(idx uint32) bool) {
	n := e.length.Load()
	for i := uint32(0); i < n; i++ {
		if !fn(e.regions[i]) {
			return
		}
	}
}

// ParIterate drains claimer, calling fn for every claimed dense-list
// slot. Multiple repair workers may run it concurrently against the
// same claimer: slot exclusivity is the claimer's guarantee. No
// recorder may be active.
func (e *EvacFailureRegions) ParIterate(fn func(idx uint32, workerID int), claimer SlotClaimer, workerID int) {
	for {
		slot, ok := claimer.ClaimNext()
		if !ok {
			return
		}
		fn(e.RegionAt(slot), workerID)
	}
}

// Reset clears the recorder for the next cycle. Safepoint only: must
// not race with Record. Dense-list slots past the new zero length are
// left stale; they are unreachable through RegionAt.
func (e *EvacFailureRegions) Reset() {
	e.failedBits.ClearAll()
	e.length.Store(0)
	e.failedBytes.Store(0)
}
