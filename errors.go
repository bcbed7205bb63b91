package regiongc

import (
	"errors"
	"fmt"
)

var (
	// ErrCollectorClosed is returned by operations on a closed Collector.
	ErrCollectorClosed = errors.New("collector closed")
)

// ErrViewMismatch indicates that the dense failure list and the
// region-local failure flags disagree at a quiescent point. The two
// are redundant views of the same set; disagreement means a caller
// bypassed the recorder.
type ErrViewMismatch struct {
	DenseCount uint32
	FlagCount  uint32
}

func (e *ErrViewMismatch) Error() string {
	return fmt.Sprintf("failure view mismatch: dense list has %d regions, region flags have %d",
		e.DenseCount, e.FlagCount)
}
