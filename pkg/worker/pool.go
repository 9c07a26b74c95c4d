// Package worker runs pipeline jobs in-process with bounded concurrency.
package worker

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/feichai0017/document-summarizer/pkg/logger"
)

// ErrPoolStopped is returned by Go after Stop was called.
var ErrPoolStopped = errors.New("worker pool stopped")

// Pool limits how many tasks run at once. Tasks wait for a slot in their own
// goroutine, so Go never blocks the caller.
type Pool struct {
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
	logger logger.Logger
}

func NewPool(concurrency int, log logger.Logger) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pool{
		sem:    semaphore.NewWeighted(int64(concurrency)),
		logger: logger.OrNop(log).Named("worker"),
	}
}

// Go runs task once a slot is free. If ctx ends while waiting for a slot,
// task is skipped and skipped is called with the context error instead.
func (p *Pool) Go(ctx context.Context, task func(context.Context), skipped func(error)) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolStopped
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()

		if err := p.sem.Acquire(ctx, 1); err != nil {
			if skipped != nil {
				skipped(err)
			}
			return
		}
		defer p.sem.Release(1)

		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("task panicked", logger.Any("panic", r), logger.Stack())
			}
		}()
		task(ctx)
	}()
	return nil
}

// Stop rejects new tasks and waits for running and queued ones to finish,
// or for ctx to end.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
