package pause

import (
	"fmt"
	"sync/atomic"

	"github.com/gcforge/regiongc/internal/bitset"
)

// RegionClaimer partitions the recorder's dense list among parallel
// repair workers without locks. Each slot is claimed by exactly one
// worker, either in sequence via ClaimNext or directly via TryClaim;
// the two paths agree through a shared claim bitset.
type RegionClaimer struct {
	next    atomic.Uint32
	claimed *bitset.BitSet
	limit   uint32
}

// NewRegionClaimer creates a claimer over dense-list slots [0, limit).
func NewRegionClaimer(limit uint32) *RegionClaimer {
	return &RegionClaimer{
		claimed: bitset.New(limit),
		limit:   limit,
	}
}

// ClaimNext claims the next unclaimed slot. Returns false when the
// list is exhausted.
func (c *RegionClaimer) ClaimNext() (uint32, bool) {
	for {
		slot := c.next.Add(1) - 1
		if slot >= c.limit {
			return 0, false
		}
		if c.claimed.SetIfClear(slot) {
			return slot, true
		}
	}
}

// TryClaim claims a specific slot, reporting whether this caller got
// it. Panics on slots outside [0, limit).
func (c *RegionClaimer) TryClaim(slot uint32) bool {
	if slot >= c.limit {
		panic(fmt.Sprintf("pause: slot %d out of range [0, %d)", slot, c.limit))
	}
	return c.claimed.SetIfClear(slot)
}

// Limit returns the number of claimable slots.
func (c *RegionClaimer) Limit() uint32 {
	return c.limit
}
