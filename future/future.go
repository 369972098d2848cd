// Package future is the handle returned by the asynchronous half of the cache
// API. A Future resolves exactly once; Await may be called any number of
// times from any goroutine.
package future

import (
	"context"
	"fmt"
)

type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Lookup is the payload of asynchronous reads: Found is false when the key
// was absent.
type Lookup[T any] struct {
	Value T
	Found bool
}

// Go runs fn on a new goroutine.
func Go[T any](fn func() (T, error)) *Future[T] {
	return Submit(func(job func()) { go job() }, fn)
}

// Submit hands fn to a scheduler such as a worker pool.
func Submit[T any](schedule func(func()), fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	schedule(func() { f.run(fn) })
	return f
}

// Resolved returns a future that is already complete. Used for failures
// detected before any work is scheduled, such as an invalid key.
func Resolved[T any](v T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: v, err: err}
	close(f.done)
	return f
}

func (f *Future[T]) run(fn func() (T, error)) {
	defer close(f.done)
	defer func() {
		if r := recover(); r != nil {
			var zero T
			f.val, f.err = zero, fmt.Errorf("future: panic: %v", r)
		}
	}()
	f.val, f.err = fn()
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the future resolves or ctx ends. Giving up on ctx does
// not cancel the underlying operation.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
