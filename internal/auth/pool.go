// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/samber/oops"
)

// Pool sizing defaults.
const (
	DefaultPoolWorkers   = 2
	DefaultPoolQueueSize = 64
)

// PoolOption configures a WorkerPool.
type PoolOption func(*WorkerPool)

// WithPoolLogger sets the logger used for recovered task panics.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *WorkerPool) {
		p.logger = logger
	}
}

// WithPoolRecorder sets the recorder that receives queue depth updates.
func WithPoolRecorder(r Recorder) PoolOption {
	return func(p *WorkerPool) {
		p.recorder = r
	}
}

// WorkerPool runs submitted tasks on a fixed set of goroutines.
// Tasks wait in a bounded FIFO queue while every worker is busy.
type WorkerPool struct {
	workers  int
	jobs     chan func()
	quit     chan struct{}
	mu       sync.RWMutex
	closed   bool
	once     sync.Once
	wg       sync.WaitGroup
	busy     atomic.Int64
	logger   *slog.Logger
	recorder Recorder
}

// PoolStats is a point-in-time view of a WorkerPool.
type PoolStats struct {
	Workers int
	Busy    int
	Queued  int
}

// NewWorkerPool starts workers goroutines sharing a queue of queueSize tasks.
func NewWorkerPool(workers, queueSize int, opts ...PoolOption) (*WorkerPool, error) {
	if workers < 1 {
		return nil, oops.Code("POOL_INVALID_CONFIG").With("workers", workers).Errorf("workers must be at least 1")
	}
	if queueSize < 0 {
		return nil, oops.Code("POOL_INVALID_CONFIG").With("queue_size", queueSize).Errorf("queue size cannot be negative")
	}

	p := &WorkerPool{
		workers:  workers,
		jobs:     make(chan func(), queueSize),
		quit:     make(chan struct{}),
		logger:   slog.Default(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p, nil
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for task := range p.jobs {
		p.recorder.SetHashQueueDepth(len(p.jobs))
		p.run(id, task)
	}
}

func (p *WorkerPool) run(id int, task func()) {
	p.busy.Add(1)
	defer p.busy.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker pool task panicked", "worker", id, "panic", fmt.Sprint(r))
		}
	}()
	task()
}

// Submit queues task for execution. It blocks while the queue is full and
// returns early only if ctx ends or the pool is closed.
func (p *WorkerPool) Submit(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return oops.Code("POOL_CLOSED").Wrap(ErrPoolClosed)
	}

	select {
	case p.jobs <- task:
		p.recorder.SetHashQueueDepth(len(p.jobs))
		return nil
	case <-ctx.Done():
		return oops.Code("POOL_SUBMIT_CANCELLED").Wrap(ctx.Err())
	case <-p.quit:
		return oops.Code("POOL_CLOSED").Wrap(ErrPoolClosed)
	}
}

// Close stops accepting tasks, runs everything already queued and waits for
// the workers to exit. It is safe to call more than once.
func (p *WorkerPool) Close() {
	p.once.Do(func() {
		close(p.quit)
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
	})
	p.wg.Wait()
}

// Stats returns the current worker, busy and queue counts.
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		Workers: p.workers,
		Busy:    int(p.busy.Load()),
		Queued:  len(p.jobs),
	}
}

type taskResult[T any] struct {
	val T
	err error
}

// runTask runs fn on the pool and waits for its result. A task whose context
// ends while it is still queued is skipped when a worker reaches it. A panic
// in fn is returned as an error.
func runTask[T any](ctx context.Context, p *WorkerPool, fn func() (T, error)) (T, error) {
	var zero T
	done := make(chan taskResult[T], 1)

	err := p.Submit(ctx, func() {
		var res taskResult[T]
		defer func() {
			if r := recover(); r != nil {
				res = taskResult[T]{err: oops.Code("POOL_TASK_PANIC").Errorf("task panicked: %v", r)}
			}
			done <- res
		}()
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.err = ctxErr
			return
		}
		res.val, res.err = fn()
	})
	if err != nil {
		return zero, err
	}

	select {
	case res := <-done:
		return res.val, res.err
	case <-ctx.Done():
		return zero, oops.Code("POOL_WAIT_CANCELLED").Wrap(ctx.Err())
	}
}
