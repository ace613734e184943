package gorelay

import "context"

// Deferred is a value produced on first Await. The producing function runs
// at most once; later awaits return the memoized result. Await points are
// the only places a resolution pass suspends, and awaiting a handle returned
// by Loader.Request is what flushes its batch.
//
// Deferred is not safe for concurrent use.
type Deferred[T any] struct {
	thunk func(context.Context) (T, error)
	done  bool
	value T
	err   error
}

// Defer wraps fn into a Deferred without running it.
func Defer[T any](fn func(context.Context) (T, error)) *Deferred[T] {
	return &Deferred[T]{thunk: fn}
}

// Resolved returns an already resolved Deferred.
func Resolved[T any](value T) *Deferred[T] {
	return &Deferred[T]{done: true, value: value}
}

// Rejected returns an already failed Deferred.
func Rejected[T any](err error) *Deferred[T] {
	return &Deferred[T]{done: true, err: err}
}

// Await produces the value, running the underlying function if it has not
// run yet.
func (d *Deferred[T]) Await(ctx context.Context) (T, error) {
	if !d.done {
		d.value, d.err = d.thunk(ctx)
		d.done = true
		d.thunk = nil
	}

	return d.value, d.err
}

// IsDone reports whether the value has already been produced.
func (d *Deferred[T]) IsDone() bool {
	return d.done
}

// Then chains fn after d. fn is not called if d fails.
func Then[T, U any](d *Deferred[T], fn func(context.Context, T) (U, error)) *Deferred[U] {
	return Defer(func(ctx context.Context) (U, error) {
		value, err := d.Await(ctx)
		if err != nil {
			var empty U
			return empty, err
		}

		return fn(ctx, value)
	})
}
