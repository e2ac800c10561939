// Package async runs error-only functions in the background and lets the
// caller wait for them later, one by one or as a batch.
package async

import (
	"context"
	"errors"
	"sync"
)

// ErrNotComplete is returned by AwaitContext when ctx ends first.
var ErrNotComplete = errors.New("async: function still running")

// ExecFuture is the pending result of a function started by Exec.
type ExecFuture struct {
	err  error
	once sync.Once
	done chan struct{}
}

// Await blocks until the function returns and yields its error.
func (f *ExecFuture) Await() error {
	<-f.done
	return f.err
}

// AwaitContext is Await bounded by ctx. The function keeps running when ctx
// ends first.
func (f *ExecFuture) AwaitContext(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return errors.Join(ErrNotComplete, ctx.Err())
	}
}

// IsComplete reports without blocking whether the function has returned.
func (f *ExecFuture) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Exec runs fn(ctx, param) in a new goroutine. A context that is already
// done skips fn and completes the future with ctx.Err().
func Exec[T any](ctx context.Context, param T, fn func(context.Context, T) error) *ExecFuture {
	f := &ExecFuture{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}

		err := fn(ctx, param)
		f.once.Do(func() {
			f.err = err
		})
	}()

	return f
}

// WaitAll waits for every future, or until ctx ends, and joins their errors.
// Nil futures are skipped.
func WaitAll(ctx context.Context, futures ...*ExecFuture) error {
	var errs []error
	for _, f := range futures {
		if f == nil {
			continue
		}
		if err := f.AwaitContext(ctx); err != nil {
			errs = append(errs, err)
			if errors.Is(err, ErrNotComplete) {
				break
			}
		}
	}
	return errors.Join(errs...)
}
