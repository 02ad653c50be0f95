// Package future provides a value that is resolved exactly once.
//
// Callback based capabilities may report a result, an error, or both, and
// may keep reporting after the waiting side lost interest. A Future keeps
// the first resolution and silently drops every later one.
package future

import (
	"context"
	"sync"
)

// Future holds a single eventual value or error.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// New returns an unresolved Future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve completes the future with a value. It reports whether this call won.
func (f *Future[T]) Resolve(value T) bool {
	return f.complete(value, nil)
}

// Reject completes the future with an error. It reports whether this call won.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	return f.complete(zero, err)
}

func (f *Future[T]) complete(value T, err error) bool {
	won := false
	f.once.Do(func() {
		f.value = value
		f.err = err
		won = true
		close(f.done)
	})
	return won
}

// Done is closed once the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Resolved reports whether the future has completed.
func (f *Future[T]) Resolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the future resolves or ctx ends. A cancelled context
// rejects the future so that later resolutions are dropped.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		f.Reject(ctx.Err())
		<-f.done
	}
	return f.value, f.err
}
