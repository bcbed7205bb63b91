package bitset

import (
	"fmt"
	"math/bits"
	"sync/atomic"
)

const wordBits = 64

// BitSet is a lock-free bitset over a fixed universe of indices.
//
// Concurrent SetIfClear/Set/Test calls are safe. Grow and ClearAll are
// not: they may only run while no concurrent mutators are active.
type BitSet struct {
	words []atomic.Uint64
	size  uint32
}

// New creates a BitSet holding size bits, all clear.
func New(size uint32) *BitSet {
	return &BitSet{
		words: make([]atomic.Uint64, wordsFor(size)),
		size:  size,
	}
}

func wordsFor(size uint32) int {
	return (int(size) + wordBits - 1) / wordBits
}

func (b *BitSet) check(i uint32) {
	if i >= b.size {
		panic(fmt.Sprintf("bitset: index %d out of range [0, %d)", i, b.size))
	}
}

// SetIfClear sets the bit at i and reports whether this call was the
// one that set it. Exactly one of any set of concurrent callers for
// the same index observes true.
func (b *BitSet) SetIfClear(i uint32) bool {
	b.check(i)

	word := &b.words[i/wordBits]
	mask := uint64(1) << (i % wordBits)

	// Optimistic probe: the already-set race outcome must be cheap.
	if word.Load()&mask != 0 {
		return false
	}

	for {
		old := word.Load()
		if old&mask != 0 {
			return false
		}
		if word.CompareAndSwap(old, old|mask) {
			return true
		}
	}
}

// Set sets the bit at i.
func (b *BitSet) Set(i uint32) {
	b.check(i)
	b.words[i/wordBits].Or(uint64(1) << (i % wordBits))
}

// Test reports whether the bit at i is set.
func (b *BitSet) Test(i uint32) bool {
	b.check(i)
	return b.words[i/wordBits].Load()&(uint64(1)<<(i%wordBits)) != 0
}

// Count returns the number of set bits.
func (b *BitSet) Count() int {
	count := 0
	for i := range b.words {
		if v := b.words[i].Load(); v != 0 {
			count += bits.OnesCount64(v)
		}
	}
	return count
}

// NextSetBit returns the index of the first set bit at or after i.
// The second result is false when no set bit remains.
func (b *BitSet) NextSetBit(i uint32) (uint32, bool) {
	if i >= b.size {
		return 0, false
	}

	wordIdx := int(i / wordBits)
	v := b.words[wordIdx].Load()
	v &^= (uint64(1) << (i % wordBits)) - 1
	for {
		if v != 0 {
			idx := uint32(wordIdx*wordBits + bits.TrailingZeros64(v))
			if idx >= b.size {
				return 0, false
			}
			return idx, true
		}
		wordIdx++
		if wordIdx >= len(b.words) {
			return 0, false
		}
		v = b.words[wordIdx].Load()
	}
}

// ClearAll clears every bit. Single-threaded use only.
func (b *BitSet) ClearAll() {
	for i := range b.words {
		b.words[i].Store(0)
	}
}

// Grow resizes the universe to size bits, discarding prior content.
// Single-threaded use only; shrinking is not supported.
func (b *BitSet) Grow(size uint32) {
	if size < b.size {
		panic(fmt.Sprintf("bitset: cannot shrink from %d to %d bits", b.size, size))
	}
	b.words = make([]atomic.Uint64, wordsFor(size))
	b.size = size
}

// Len returns the size of the universe in bits.
func (b *BitSet) Len() uint32 {
	return b.size
}
