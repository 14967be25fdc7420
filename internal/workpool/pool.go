// Package workpool runs background jobs on a fixed set of goroutines fed by a
// bounded queue. Both pipelines schedule their work here so callers never do
// I/O on their own goroutine.
package workpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"mangashelf/internal/logging"
)

// Job is a unit of background work.
type Job func(ctx context.Context)

// ErrClosed is returned when submitting to a closed pool.
var ErrClosed = errors.New("worker pool closed")

// Pool is a fixed-size worker pool.
type Pool struct {
	name    string
	jobs    chan Job
	wg      sync.WaitGroup
	workers int
	logger  *slog.Logger

	closeMu sync.RWMutex
	closed  bool
}

// New creates a pool with the given worker count and queue capacity and
// starts its workers. Workers run until Close.
func New(name string, workers, queue int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = workers * 2
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pool{
		name:    name,
		jobs:    make(chan Job, queue),
		workers: workers,
		logger:  logger.With(logging.String("pool", name)),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

// Workers reports the pool's worker count.
func (p *Pool) Workers() int { return p.workers }

func (p *Pool) work() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(job)
	}
}

func (p *Pool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(p.logger, "worker job panicked", "worker_panic",
				logging.String(logging.FieldErrorHint, "report this as a bug"),
				logging.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	job(context.Background())
}

// Submit enqueues job, waiting for queue space until ctx ends.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (p *Pool) Close() {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.closeMu.Unlock()
	p.wg.Wait()
}

// Do runs fn on the pool and waits for its result. If ctx ends before a
// worker picks the job up, fn never runs. Once started, fn runs to completion
// under a context detached from ctx's cancellation; a caller whose ctx ends
// meanwhile gets ctx.Err() while the work still finishes.
func Do[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	var zero T
	done := make(chan result, 1)
	err := p.Submit(ctx, func(context.Context) {
		if err := ctx.Err(); err != nil {
			done <- result{err: err}
			return
		}
		value, err := fn(context.WithoutCancel(ctx))
		done <- result{value: value, err: err}
	})
	if err != nil {
		return zero, err
	}
	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
