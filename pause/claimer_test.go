package pause

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionClaimer(t *testing.T) {
	c := NewRegionClaimer(3)
	assert.Equal(t, uint32(3), c.Limit())

	seen := map[uint32]bool{}
	for i := 0; i < 3; i++ {
		slot, ok := c.ClaimNext()
		require.True(t, ok)
		assert.False(t, seen[slot])
		seen[slot] = true
	}

	_, ok := c.ClaimNext()
	assert.False(t, ok, "claimer exhausted")
}

func TestRegionClaimer_TryClaim(t *testing.T) {
	c := NewRegionClaimer(4)

	assert.True(t, c.TryClaim(2))
	assert.False(t, c.TryClaim(2), "slot already claimed")

	// ClaimNext skips directly-claimed slots.
	claimed := map[uint32]bool{2: true}
	for {
		slot, ok := c.ClaimNext()
		if !ok {
			break
		}
		assert.False(t, claimed[slot])
		claimed[slot] = true
	}
	assert.Len(t, claimed, 4)
}

func TestRegionClaimer_TryClaimOutOfRange(t *testing.T) {
	c := NewRegionClaimer(4)
	assert.Panics(t, func() { c.TryClaim(4) })
}

func TestRegionClaimer_Concurrent(t *testing.T) {
	const (
		slots   = 1000
		workers = 8
	)

	c := NewRegionClaimer(slots)

	var mu sync.Mutex
	counts := make(map[uint32]int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				slot, ok := c.ClaimNext()
				if !ok {
					return
				}
				mu.Lock()
				counts[slot]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, counts, slots)
	for slot, n := range counts {
		assert.Equal(t, 1, n, "slot %d claimed %d times", slot, n)
	}
}

func TestRegionClaimer_Empty(t *testing.T) {
	c := NewRegionClaimer(0)
	_, ok := c.ClaimNext()
	assert.False(t, ok)
}
