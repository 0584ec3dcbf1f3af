// Package tasks runs fire-and-forget side effects behind writes: cache
// invalidation after a game lands, auxiliary cleanup after a merge. Tasks
// ride a bounded queue drained by a worker pool; a task failure is logged
// and counted, never surfaced to the write that spawned it.
package tasks

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/okian/shatranj/pkg/logger"
	"github.com/okian/shatranj/pkg/metrics"
)

const defaultQueueSize = 1_000

// Task is one named deferred side effect.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner owns the queue and its workers.
type Runner struct {
	queue   chan Task
	size    int
	workers int
	log     logger.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewRunner creates a stopped runner with configuration options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		size:    defaultQueueSize,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get().Named("tasks")
	}
	r.queue = make(chan Task, r.size)
	return r
}

// Start launches the worker pool. Workers drain the queue until it is
// closed or ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.work(ctx)
	}
}

func (r *Runner) work(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-r.queue:
			if !ok {
				return
			}
			r.execute(ctx, t)
			metrics.UpdateTaskQueueDepth(len(r.queue))
		}
	}
}

func (r *Runner) execute(ctx context.Context, t Task) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.RecordTaskFailure()
			r.log.Error(ctx, "task panicked",
				logger.String("task", t.Name),
				logger.Error(fmt.Errorf("%v", rec)),
			)
		}
	}()
	if err := t.Run(ctx); err != nil {
		metrics.RecordTaskFailure()
		r.log.Warn(ctx, "task failed",
			logger.String("task", t.Name),
			logger.Error(err),
		)
		return
	}
	metrics.RecordTaskExecuted()
}

// Submit queues a task without blocking. It returns false when the queue is
// full or the runner is closed; callers treat that as a logged miss, never
// an error, because every task's effect is also covered by TTL expiry or
// the next explicit recalculation.
func (r *Runner) Submit(ctx context.Context, t Task) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false
	}
	select {
	case r.queue <- t:
		metrics.UpdateTaskQueueDepth(len(r.queue))
		return true
	default:
		r.log.Warn(ctx, "task queue full, dropping task", logger.String("task", t.Name))
		return false
	}
}

// Len returns the number of queued tasks.
func (r *Runner) Len() int {
	return len(r.queue)
}

// Close stops intake and waits for in-flight tasks, or for ctx.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
