package snapshot

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailedRegions(t *testing.T) {
	s := New()
	assert.True(t, s.IsEmpty())

	s.Add(3)
	s.Add(17)
	s.Add(3)

	assert.False(t, s.IsEmpty())
	assert.Equal(t, uint64(2), s.Cardinality())
	assert.True(t, s.Contains(3))
	assert.True(t, s.Contains(17))
	assert.False(t, s.Contains(4))
	assert.Equal(t, []uint32{3, 17}, s.ToArray())
}

func TestFromSeq(t *testing.T) {
	// Dense-list order is recording order; the snapshot normalizes to
	// ascending index order.
	s := FromSeq(slices.Values([]uint32{42, 7, 19}))

	assert.Equal(t, uint64(3), s.Cardinality())
	assert.Equal(t, []uint32{7, 19, 42}, s.ToArray())

	var got []uint32
	for idx := range s.Iterator() {
		got = append(got, idx)
	}
	assert.Equal(t, []uint32{7, 19, 42}, got)
}

func TestIterator_EarlyStop(t *testing.T) {
	s := FromSeq(slices.Values([]uint32{1, 2, 3, 4}))

	var got []uint32
	for idx := range s.Iterator() {
		got = append(got, idx)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []uint32{1, 2}, got)
}

func TestBytesRoundTrip(t *testing.T) {
	s := FromSeq(slices.Values([]uint32{0, 1000, 65536}))

	b, err := s.Bytes()
	require.NoError(t, err)

	got, err := FromBytes(b)
	require.NoError(t, err)
	assert.Equal(t, s.ToArray(), got.ToArray())
}

func TestFromBytes_Corrupt(t *testing.T) {
	_, err := FromBytes([]byte{0xde, 0xad, 0xbe, 0xef})
	assert.Error(t, err)
}
