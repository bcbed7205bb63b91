package pause

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// PacerConfig bounds the resources repair work may consume. Repair
// runs after the pause proper and competes with the resuming mutator,
// so both its concurrency and its byte throughput are capped.
type PacerConfig struct {
	// MaxConcurrentRepairs is the number of regions repaired at once.
	// If 0, defaults to 1.
	MaxConcurrentRepairs int64

	// RepairBytesPerSec caps repaired bytes per second. If 0,
	// unlimited.
	RepairBytesPerSec int64
}

// Pacer throttles repair of evacuation-failed regions.
type Pacer struct {
	repairSem   *semaphore.Weighted
	byteLimiter *rate.Limiter
}

// NewPacer creates a pacer from cfg.
func NewPacer(cfg PacerConfig) *Pacer {
	if cfg.MaxConcurrentRepairs <= 0 {
		cfg.MaxConcurrentRepairs = 1
	}

	p := &Pacer{
		repairSem: semaphore.NewWeighted(cfg.MaxConcurrentRepairs),
	}
	if cfg.RepairBytesPerSec > 0 {
		p.byteLimiter = rate.NewLimiter(rate.Limit(cfg.RepairBytesPerSec), int(cfg.RepairBytesPerSec))
	}
	return p
}

// BeginRepair blocks until a repair slot is available or ctx is done.
// A nil pacer admits everything.
func (p *Pacer) BeginRepair(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.repairSem.Acquire(ctx, 1)
}

// EndRepair releases the slot taken by BeginRepair.
func (p *Pacer) EndRepair() {
	if p == nil {
		return
	}
	p.repairSem.Release(1)
}

// WaitBytes blocks until n repaired bytes fit the throughput budget.
func (p *Pacer) WaitBytes(ctx context.Context, n uint64) error {
	if p == nil || p.byteLimiter == nil || n == 0 {
		return nil
	}

	burst := uint64(p.byteLimiter.Burst())
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := p.byteLimiter.WaitN(ctx, int(chunk)); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
