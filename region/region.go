package region

import (
	"fmt"
	"sync/atomic"
)

// HeapRegion is one fixed-size subdivision of the managed heap.
//
// The evacuation-failure flag is the region-local view of failure
// state; the dense aggregate kept by evacfail.EvacFailureRegions is
// the collector-wide view. The two must agree at every quiescent
// point.
type HeapRegion struct {
	index uint32
	bytes uint64

	evacFailed atomic.Bool
	usedBytes  atomic.Uint64
}

// Index returns the region's position in the universe.
func (r *HeapRegion) Index() uint32 {
	return r.index
}

// Bytes returns the region's size in bytes.
func (r *HeapRegion) Bytes() uint64 {
	return r.bytes
}

// NoteEvacuationFailure marks the region as having failed evacuation.
// Safe to call concurrently; only the first call flips the flag.
func (r *HeapRegion) NoteEvacuationFailure() {
	r.evacFailed.Store(true)
}

// EvacuationFailed reports whether the region failed evacuation in the
// current cycle.
func (r *HeapRegion) EvacuationFailed() bool {
	return r.evacFailed.Load()
}

// ClearEvacuationFailure resets the region-local failure flag. Called
// by the repair phase once the region has been fixed up.
func (r *HeapRegion) ClearEvacuationFailure() {
	r.evacFailed.Store(false)
}

// SetUsedBytes records the live-byte occupancy of the region.
func (r *HeapRegion) SetUsedBytes(n uint64) {
	r.usedBytes.Store(n)
}

// UsedBytes returns the recorded live-byte occupancy.
func (r *HeapRegion) UsedBytes() uint64 {
	return r.usedBytes.Load()
}

// Universe is the fixed table of heap regions for one heap
// configuration. It is sized at collector initialization and only
// expands at safepoints (heap resize with no workers active).
type Universe struct {
	cfg     Config
	regions []*HeapRegion
}

// NewUniverse builds the region table for the given heap geometry.
func NewUniverse(cfg Config) (*Universe, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	u := &Universe{cfg: cfg}
	u.regions = makeRegions(cfg.NumRegions(), cfg.RegionBytes)
	return u, nil
}

func makeRegions(n uint32, regionBytes uint64) []*HeapRegion {
	regions := make([]*HeapRegion, n)
	for i := range regions {
		regions[i] = &HeapRegion{index: uint32(i), bytes: regionBytes}
	}
	return regions
}

// NumRegions returns the current universe size.
func (u *Universe) NumRegions() uint32 {
	return uint32(len(u.regions))
}

// RegionBytes returns the configured region size.
func (u *Universe) RegionBytes() uint64 {
	return u.cfg.RegionBytes
}

// RegionAt returns the region with the given index. Panics on an
// out-of-range index: callers are trusted collector code.
func (u *Universe) RegionAt(idx uint32) *HeapRegion {
	if idx >= uint32(len(u.regions)) {
		panic(fmt.Sprintf("region: index %d out of range [0, %d)", idx, len(u.regions)))
	}
	return u.regions[idx]
}

// Expand grows the universe to cover newHeapBytes. Existing regions
// keep their state. Safepoint only: no workers may be active.
func (u *Universe) Expand(newHeapBytes uint64) error {
	cfg := Config{HeapBytes: newHeapBytes, RegionBytes: u.cfg.RegionBytes}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.NumRegions() < uint32(len(u.regions)) {
		return &ErrInvalidHeapBytes{HeapBytes: newHeapBytes, RegionBytes: u.cfg.RegionBytes}
	}

	grown := makeRegions(cfg.NumRegions(), u.cfg.RegionBytes)
	copy(grown, u.regions)
	u.regions = grown
	u.cfg = cfg
	return nil
}

// NoteEvacuationFailure marks the region and returns its byte size for
// the recorder's tally. Implements evacfail.RegionNotifier.
func (u *Universe) NoteEvacuationFailure(idx uint32) uint64 {
	r := u.RegionAt(idx)
	r.NoteEvacuationFailure()
	return r.bytes
}

// FailedByFlag returns the indices of regions whose region-local flag
// is set, in numeric order. This is the redundant view used to check
// agreement with the dense aggregate.
func (u *Universe) FailedByFlag() []uint32 {
	var failed []uint32
	for _, r := range u.regions {
		if r.EvacuationFailed() {
			failed = append(failed, r.index)
		}
	}
	return failed
}

// ClearEvacuationFailures resets every region-local flag. Safepoint
// only; pairs with the recorder's Reset between cycles.
func (u *Universe) ClearEvacuationFailures() {
	for _, r := range u.regions {
		r.ClearEvacuationFailure()
	}
}
