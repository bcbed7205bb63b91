package snapshot

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// FailedRegions is an immutable snapshot of the evacuation-failed
// region set, taken by the single post-pause consumer. It wraps a
// roaring bitmap: repair planning probes it, and the pause log
// serializes it.
type FailedRegions struct {
	rb *roaring.Bitmap
}

// New creates an empty snapshot.
func New() *FailedRegions {
	return &FailedRegions{rb: roaring.New()}
}

// FromSeq builds a snapshot from a region-index sequence, typically
// the recorder's dense list.
func FromSeq(indices iter.Seq[uint32]) *FailedRegions {
	s := New()
	for idx := range indices {
		s.rb.Add(idx)
	}
	return s
}

// Add inserts a region index. Only the building consumer may call it;
// a published snapshot is read-only.
func (s *FailedRegions) Add(idx uint32) {
	s.rb.Add(idx)
}

// Contains checks if a region index is in the snapshot.
func (s *FailedRegions) Contains(idx uint32) bool {
	return s.rb.Contains(idx)
}

// Cardinality returns the number of regions in the snapshot.
func (s *FailedRegions) Cardinality() uint64 {
	return s.rb.GetCardinality()
}

// IsEmpty returns true if no region failed evacuation.
func (s *FailedRegions) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// ToArray returns the region indices in ascending order.
func (s *FailedRegions) ToArray() []uint32 {
	return s.rb.ToArray()
}

// Iterator returns an iterator over the snapshot in ascending index
// order.
func (s *FailedRegions) Iterator() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// Bytes returns the roaring serialization of the snapshot.
func (s *FailedRegions) Bytes() ([]byte, error) {
	b, err := s.rb.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	return b, nil
}

// FromBytes deserializes a snapshot produced by Bytes.
func FromBytes(b []byte) (*FailedRegions, error) {
	rb := roaring.New()
	if _, err := rb.ReadFrom(bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("failed to deserialize snapshot: %w", err)
	}
	return &FailedRegions{rb: rb}, nil
}
