package pauselog

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Report is one pause's evacuation-failure summary, written by the
// post-pause consumer.
type Report struct {
	// Sequence is the collector's pause counter.
	Sequence uint64

	// StartTime is when the pause began.
	StartTime time.Time

	// Duration is the wall time of the whole pause.
	Duration time.Duration

	// RegionsFailed is the number of regions that failed evacuation.
	RegionsFailed uint32

	// FailedBytes is the byte tally of those regions.
	FailedBytes uint64

	// Snapshot is the serialized roaring snapshot of the failed set.
	// Empty on clean pauses.
	Snapshot []byte
}

// Fixed part of the payload: sequence, start nanos, duration nanos,
// regions failed, failed bytes, snapshot length.
const reportHeaderSize = 8 + 8 + 8 + 4 + 8 + 4

func (r *Report) encode() []byte {
	buf := make([]byte, reportHeaderSize+len(r.Snapshot))
	binary.LittleEndian.PutUint64(buf[0:8], r.Sequence)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(r.StartTime.UnixNano()))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(r.Duration))
	binary.LittleEndian.PutUint32(buf[24:28], r.RegionsFailed)
	binary.LittleEndian.PutUint64(buf[28:36], r.FailedBytes)
	binary.LittleEndian.PutUint32(buf[36:40], uint32(len(r.Snapshot)))
	copy(buf[reportHeaderSize:], r.Snapshot)
	return buf
}

func decodeReport(buf []byte) (*Report, error) {
	if len(buf) < reportHeaderSize {
		return nil, fmt.Errorf("report payload too short: %d bytes", len(buf))
	}

	r := &Report{
		Sequence:      binary.LittleEndian.Uint64(buf[0:8]),
		StartTime:     time.Unix(0, int64(binary.LittleEndian.Uint64(buf[8:16]))),
		Duration:      time.Duration(binary.LittleEndian.Uint64(buf[16:24])),
		RegionsFailed: binary.LittleEndian.Uint32(buf[24:28]),
		FailedBytes:   binary.LittleEndian.Uint64(buf[28:36]),
	}

	snapLen := binary.LittleEndian.Uint32(buf[36:40])
	if int(snapLen) != len(buf)-reportHeaderSize {
		return nil, fmt.Errorf("report snapshot length mismatch: header says %d, have %d",
			snapLen, len(buf)-reportHeaderSize)
	}
	if snapLen > 0 {
		r.Snapshot = make([]byte, snapLen)
		copy(r.Snapshot, buf[reportHeaderSize:])
	}
	return r, nil
}
