// Package parallel runs independent solves on a bounded set of goroutines.
// Results keep input order, and the first failure cancels the rest.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ErrPoolShutdown is returned by Submit after Wait has been called.
var ErrPoolShutdown = errors.New("worker pool has been shutdown")

// WorkerPool limits how many tasks run at once. If a task fails, the pool
// context is canceled and no further tasks start. A WorkerPool is used once:
// Submit tasks, then Wait.
type WorkerPool struct {
	maxWorkers int
	g          *errgroup.Group
	ctx        context.Context
	closed     bool
}

// NewWorkerPool returns a pool bound to ctx. If maxWorkers is 0 or negative,
// it defaults to the number of CPU cores.
func NewWorkerPool(ctx context.Context, maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	return &WorkerPool{maxWorkers: maxWorkers, g: g, ctx: gctx}
}

// MaxWorkers returns the concurrency limit.
func (wp *WorkerPool) MaxWorkers() int { return wp.maxWorkers }

// Context is canceled once a task fails or the parent context ends.
func (wp *WorkerPool) Context() context.Context { return wp.ctx }

// Submit schedules task, blocking while maxWorkers tasks are running. It
// returns the pool context's error without scheduling once that context is
// done. Submit must not be called concurrently with Wait.
func (wp *WorkerPool) Submit(task func(ctx context.Context) error) error {
	if wp.closed {
		return ErrPoolShutdown
	}
	if err := wp.ctx.Err(); err != nil {
		return err
	}
	wp.g.Go(func() error { return task(wp.ctx) })
	return nil
}

// Wait blocks until every submitted task has returned and reports the first
// task error.
func (wp *WorkerPool) Wait() error {
	wp.closed = true
	return wp.g.Wait()
}

// Map runs fn for every item with at most workers concurrent calls and
// returns the results in input order. The first error cancels the remaining
// calls and is returned wrapped with the failing index.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	wp := NewWorkerPool(ctx, workers)
	for i, item := range items {
		err := wp.Submit(func(ctx context.Context) error {
			r, err := fn(ctx, item)
			if err != nil {
				return &IndexError{Index: i, Err: err}
			}
			out[i] = r
			return nil
		})
		if err != nil {
			break
		}
	}
	if err := wp.Wait(); err != nil {
		return nil, err
	}
	// The parent context may have ended before any task failed.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// IndexError is a task failure tagged with the position of its input.
type IndexError struct {
	Index int
	Err   error
}

func (e *IndexError) Error() string { return fmt.Sprintf("item %d: %v", e.Index, e.Err) }

func (e *IndexError) Unwrap() error { return e.Err }
