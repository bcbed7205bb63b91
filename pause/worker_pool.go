package pause

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned when work is submitted to a closed pool.
var ErrPoolClosed = errors.New("worker pool closed")

// WorkerPool is the fixed pool of collector worker goroutines. It is
// created once with the collector and reused across pauses, the way a
// collector keeps its GC threads alive between cycles rather than
// spawning them per pause.
type WorkerPool struct {
	numWorkers int
	workCh     chan func()
	stopCh     chan struct{}
	wg         sync.WaitGroup
	closed     atomic.Bool
	submitMu   sync.RWMutex
}

// NewWorkerPool creates a pool with numWorkers goroutines. A
// non-positive numWorkers defaults to GOMAXPROCS, the usual choice for
// CPU-bound evacuation work.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	wp := &WorkerPool{
		numWorkers: numWorkers,
		workCh:     make(chan func(), numWorkers),
		stopCh:     make(chan struct{}),
	}

	wp.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go wp.worker()
	}

	return wp
}

// NumWorkers returns the pool's configured parallelism.
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.stopCh:
			// Drain already-accepted work before exiting.
			for {
				select {
				case task, ok := <-wp.workCh:
					if !ok {
						return
					}
					task()
				default:
					return
				}
			}
		case task, ok := <-wp.workCh:
			if !ok {
				return
			}
			task()
		}
	}
}

// Submit enqueues a task, returning once it is accepted. Returns
// ErrPoolClosed after Close, or the context error if ctx is done
// before the task is accepted.
func (wp *WorkerPool) Submit(ctx context.Context, task func()) error {
	wp.submitMu.RLock()
	defer wp.submitMu.RUnlock()

	if wp.closed.Load() {
		return ErrPoolClosed
	}

	select {
	case wp.workCh <- task:
		return nil
	case <-wp.stopCh:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts the pool down, waiting for accepted work to finish.
// Idempotent.
func (wp *WorkerPool) Close() {
	if !wp.closed.CompareAndSwap(false, true) {
		return
	}

	wp.submitMu.Lock()
	close(wp.stopCh)
	close(wp.workCh)
	wp.submitMu.Unlock()

	wp.wg.Wait()
}
