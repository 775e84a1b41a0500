// Package pool runs independent tasks with bounded concurrency.
//
// Every submission gets its own Task handle, so results never share a slot
// and callers can collect them in submission order.
package pool

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many tasks run at once.
//
// Thread Safety: Safe for concurrent use.
type Pool struct {
	sem   *semaphore.Weighted
	limit int
}

// New creates a pool running at most limit tasks at a time. A limit of zero
// or less means one goroutine per task with no bound.
func New(limit int) *Pool {
	p := &Pool{limit: limit}
	if limit > 0 {
		p.sem = semaphore.NewWeighted(int64(limit))
	}
	return p
}

// Limit returns the configured bound, zero or less when unbounded.
func (p *Pool) Limit() int { return p.limit }

// Task is the handle of one submitted function.
type Task[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Submit starts fn on p. When the pool is full Submit blocks until a slot
// frees up or ctx is done, in which case fn never runs and the error is
// returned.
func Submit[T any](ctx context.Context, p *Pool, fn func(context.Context) T) (*Task[T], error) {
	if p.sem != nil {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		if p.sem != nil {
			defer p.sem.Release(1)
		}
		defer func() {
			if r := recover(); r != nil {
				t.err = fmt.Errorf("pool: task panicked: %v", r)
			}
		}()
		t.val = fn(ctx)
	}()
	return t, nil
}

// Wait blocks until the task finishes or ctx is done.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed when the task has finished.
func (t *Task[T]) Done() <-chan struct{} { return t.done }
