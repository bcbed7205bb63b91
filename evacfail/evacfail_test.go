package evacfail

import (
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingNotifier records how often each region is notified and
// returns a fixed region size.
type countingNotifier struct {
	regionBytes uint64
	calls       []atomic.Uint32
}

func newCountingNotifier(maxRegions uint32, regionBytes uint64) *countingNotifier {
	return &countingNotifier{
		regionBytes: regionBytes,
		calls:       make([]atomic.Uint32, maxRegions),
	}
}

func (n *countingNotifier) NoteEvacuationFailure(idx uint32) uint64 {
	n.calls[idx].Add(1)
	return n.regionBytes
}

// flagged returns the notified indices in numeric order, the
// region-local redundant view of the failed set.
func (n *countingNotifier) flagged() []uint32 {
	var out []uint32
	for i := range n.calls {
		if n.calls[i].Load() > 0 {
			out = append(out, uint32(i))
		}
	}
	return out
}

func TestRecord(t *testing.T) {
	notifier := newCountingNotifier(64, 1<<20)
	e := New(notifier, 64)

	assert.False(t, e.HasFailedRegions())
	assert.Equal(t, uint32(0), e.NumRegionsFailed())
	assert.Equal(t, uint32(64), e.MaxRegions())

	require.True(t, e.Record(5))
	assert.False(t, e.Record(5), "second recorder must lose the race")

	assert.True(t, e.HasFailedRegions())
	assert.True(t, e.Contains(5))
	assert.False(t, e.Contains(6))
	assert.Equal(t, uint32(1), e.NumRegionsFailed())
	assert.Equal(t, uint32(5), e.RegionAt(0))
	assert.Equal(t, uint64(1<<20), e.FailedBytes())
	assert.Equal(t, uint32(1), notifier.calls[5].Load(), "region notified exactly once")
}

func TestRecord_AtMostOnceConcurrent(t *testing.T) {
	const workers = 16

	notifier := newCountingNotifier(64, 4096)
	e := New(notifier, 64)

	var wins atomic.Uint32
	start := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if e.Record(5) {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, uint32(1), wins.Load(), "exactly one recorder wins")
	assert.Equal(t, uint32(1), e.NumRegionsFailed())
	assert.Equal(t, uint32(5), e.RegionAt(0))
	assert.Equal(t, uint64(4096), e.FailedBytes())
	assert.Equal(t, uint32(1), notifier.calls[5].Load())
}

func TestRecord_DisjointConcurrent(t *testing.T) {
	const workers = 16

	notifier := newCountingNotifier(workers, 4096)
	e := New(notifier, workers)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for w := uint32(0); w < workers; w++ {
		wg.Add(1)
		go func(idx uint32) {
			defer wg.Done()
			<-start
			assert.True(t, e.Record(idx))
		}(w)
	}
	close(start)
	wg.Wait()

	require.Equal(t, uint32(workers), e.NumRegionsFailed())
	assert.Equal(t, uint64(workers*4096), e.FailedBytes())

	// The dense list is ordered by recording, not numerically, but its
	// content must be the full set.
	got := make([]uint32, 0, workers)
	for i := uint32(0); i < workers; i++ {
		got = append(got, e.RegionAt(i))
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	for i := uint32(0); i < workers; i++ {
		assert.Equal(t, i, got[i])
	}
}

func TestRecord_ContendedMix(t *testing.T) {
	const (
		workers    = 8
		maxRegions = 128
		attempts   = 2000
	)

	notifier := newCountingNotifier(maxRegions, 1)
	e := New(notifier, maxRegions)

	var wins atomic.Uint32
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < attempts; i++ {
				if e.Record(uint32(rng.Intn(maxRegions))) {
					wins.Add(1)
				}
			}
		}(int64(w))
	}
	wg.Wait()

	// Every true return corresponds to exactly one dense-list entry.
	n := e.NumRegionsFailed()
	require.Equal(t, wins.Load(), n)

	seen := make(map[uint32]bool, n)
	for i := uint32(0); i < n; i++ {
		idx := e.RegionAt(i)
		assert.False(t, seen[idx], "region %d appears twice in dense list", idx)
		seen[idx] = true
		assert.True(t, e.Contains(idx))
		assert.Equal(t, uint32(1), notifier.calls[idx].Load())
	}

	// The dense list and the region-local flags are redundant views
	// that must agree.
	dense := make([]uint32, 0, n)
	e.Iterate(func(idx uint32) bool {
		dense = append(dense, idx)
		return true
	})
	sort.Slice(dense, func(i, j int) bool { return dense[i] < dense[j] })
	assert.Equal(t, notifier.flagged(), dense)

	assert.Equal(t, uint64(n), e.FailedBytes())
}

func TestReset(t *testing.T) {
	notifier := newCountingNotifier(16, 512)
	e := New(notifier, 16)

	require.True(t, e.Record(3))
	require.True(t, e.Record(7))

	e.Reset()

	assert.Equal(t, uint32(0), e.NumRegionsFailed())
	assert.False(t, e.HasFailedRegions())
	assert.False(t, e.Contains(3))
	assert.Equal(t, uint64(0), e.FailedBytes())

	// A previously recorded region is recordable again next cycle.
	assert.True(t, e.Record(3))
	assert.Equal(t, uint32(3), e.RegionAt(0))
}

func TestInitialize_GrowDiscards(t *testing.T) {
	notifier := newCountingNotifier(256, 512)
	e := New(notifier, 16)

	require.True(t, e.Record(1))

	e.Initialize(256)

	assert.Equal(t, uint32(256), e.MaxRegions())
	assert.Equal(t, uint32(0), e.NumRegionsFailed())
	assert.False(t, e.Contains(1))

	require.True(t, e.Record(200))
	assert.Equal(t, uint32(200), e.RegionAt(0))
}

func TestRegionAt_Bounds(t *testing.T) {
	e := New(newCountingNotifier(16, 512), 16)
	require.True(t, e.Record(2))

	assert.Panics(t, func() { e.RegionAt(1) })
	assert.Panics(t, func() { e.RegionAt(16) })
}

func TestRecord_OutOfRange(t *testing.T) {
	e := New(newCountingNotifier(16, 512), 16)
	assert.Panics(t, func() { e.Record(16) })
}

func TestIterate_EarlyStop(t *testing.T) {
	e := New(newCountingNotifier(16, 512), 16)
	for _, idx := range []uint32{4, 9, 11} {
		require.True(t, e.Record(idx))
	}

	var visited int
	e.Iterate(func(uint32) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}

// fetchAddClaimer is a minimal SlotClaimer for exercising ParIterate
// without the pause package.
type fetchAddClaimer struct {
	next  atomic.Uint32
	limit uint32
}

func (c *fetchAddClaimer) ClaimNext() (uint32, bool) {
	slot := c.next.Add(1) - 1
	if slot >= c.limit {
		return 0, false
	}
	return slot, true
}

func TestParIterate(t *testing.T) {
	const regions = 64

	e := New(newCountingNotifier(regions, 512), regions)
	for i := uint32(0); i < regions; i++ {
		require.True(t, e.Record(i))
	}

	claimer := &fetchAddClaimer{limit: e.NumRegionsFailed()}

	var mu sync.Mutex
	seen := make(map[uint32]int)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			e.ParIterate(func(idx uint32, _ int) {
				mu.Lock()
				seen[idx]++
				mu.Unlock()
			}, claimer, workerID)
		}(w)
	}
	wg.Wait()

	require.Len(t, seen, regions)
	for idx, times := range seen {
		assert.Equal(t, 1, times, "region %d visited more than once", idx)
	}
}
