package region

import (
	"fmt"
	"math/bits"
)

const (
	// MinRegionBytes is the smallest supported region size.
	MinRegionBytes uint64 = 1 << 20 // 1 MiB

	// MaxRegionBytes is the largest supported region size.
	MaxRegionBytes uint64 = 32 << 20 // 32 MiB
)

// Config describes the heap geometry the collector manages.
//
// The region universe is derived from it: NumRegions = HeapBytes /
// RegionBytes.
type Config struct {
	// HeapBytes is the total managed heap size. Must be a positive
	// multiple of RegionBytes.
	HeapBytes uint64

	// RegionBytes is the size of every region. Must be a power of two
	// in [MinRegionBytes, MaxRegionBytes].
	RegionBytes uint64
}

// ErrInvalidRegionBytes indicates a region size outside the supported
// power-of-two range.
type ErrInvalidRegionBytes struct {
	RegionBytes uint64
}

func (e *ErrInvalidRegionBytes) Error() string {
	return fmt.Sprintf("invalid region size: %d bytes (power of two in [%d, %d] required)",
		e.RegionBytes, MinRegionBytes, MaxRegionBytes)
}

// ErrInvalidHeapBytes indicates a heap size that is not a positive
// multiple of the region size.
type ErrInvalidHeapBytes struct {
	HeapBytes   uint64
	RegionBytes uint64
}

func (e *ErrInvalidHeapBytes) Error() string {
	return fmt.Sprintf("invalid heap size: %d bytes (positive multiple of region size %d required)",
		e.HeapBytes, e.RegionBytes)
}

// Validate checks the heap geometry.
func (c Config) Validate() error {
	if c.RegionBytes < MinRegionBytes || c.RegionBytes > MaxRegionBytes ||
		bits.OnesCount64(c.RegionBytes) != 1 {
		return &ErrInvalidRegionBytes{RegionBytes: c.RegionBytes}
	}
	if c.HeapBytes == 0 || c.HeapBytes%c.RegionBytes != 0 {
		return &ErrInvalidHeapBytes{HeapBytes: c.HeapBytes, RegionBytes: c.RegionBytes}
	}
	return nil
}

// NumRegions returns the size of the region universe.
func (c Config) NumRegions() uint32 {
	return uint32(c.HeapBytes / c.RegionBytes)
}
