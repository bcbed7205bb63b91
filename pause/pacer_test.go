package pause

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_NilAdmitsEverything(t *testing.T) {
	var p *Pacer

	ctx := context.Background()
	assert.NoError(t, p.BeginRepair(ctx))
	assert.NoError(t, p.WaitBytes(ctx, 1<<30))
	p.EndRepair()
}

func TestPacer_ConcurrencyLimit(t *testing.T) {
	p := NewPacer(PacerConfig{MaxConcurrentRepairs: 1})

	ctx := context.Background()
	require.NoError(t, p.BeginRepair(ctx))

	// Second acquire must block until the first is released.
	blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.BeginRepair(blocked), context.DeadlineExceeded)

	p.EndRepair()
	require.NoError(t, p.BeginRepair(ctx))
	p.EndRepair()
}

func TestPacer_WaitBytesUnlimited(t *testing.T) {
	p := NewPacer(PacerConfig{MaxConcurrentRepairs: 2})
	assert.NoError(t, p.WaitBytes(context.Background(), 1<<40))
}

func TestPacer_WaitBytesExceedsBurst(t *testing.T) {
	// A region larger than the per-second budget is admitted in burst
	// chunks rather than rejected.
	p := NewPacer(PacerConfig{MaxConcurrentRepairs: 1, RepairBytesPerSec: 1 << 20})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, p.WaitBytes(ctx, (1<<20)+512))
}

func TestPacer_WaitBytesCancelled(t *testing.T) {
	p := NewPacer(PacerConfig{MaxConcurrentRepairs: 1, RepairBytesPerSec: 1024})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.WaitBytes(ctx, 1<<20))
}
