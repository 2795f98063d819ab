package task

import (
	"context"
	"fmt"
)

// Task is a single-assignment result delivered asynchronously.
//
// The zero value is not usable; construct tasks with [Go], [Completed],
// [Failed] or [Then].
type Task[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newTask[T any]() *Task[T] {
	return &Task[T]{done: make(chan struct{})}
}

func (t *Task[T]) complete(value T, err error) {
	t.value = value
	t.err = err
	close(t.done)
}

// Go runs fn on a new goroutine and returns a task that completes with its
// result. A panic inside fn fails the task instead of crashing the process.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	if ctx == nil {
		ctx = context.Background()
	}

	t := newTask[T]()
	go func() {
		var (
			value T
			err   error
		)
		defer func() {
			if r := recover(); r != nil {
				var zero T
				t.complete(zero, fmt.Errorf("task: panic: %v", r))
				return
			}
			t.complete(value, err)
		}()
		value, err = fn(ctx)
	}()

	return t
}

// Completed returns a task that has already succeeded with value.
func Completed[T any](value T) *Task[T] {
	t := newTask[T]()
	t.complete(value, nil)
	return t
}

// Failed returns a task that has already failed with err.
func Failed[T any](err error) *Task[T] {
	t := newTask[T]()
	var zero T
	t.complete(zero, err)
	return t
}

// Done is closed once the task has completed.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// IsCompleted reports whether the task has a result without blocking.
func (t *Task[T]) IsCompleted() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Await blocks until the task completes or ctx is done. When ctx ends first
// the task keeps running and ctx.Err() is returned.
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-t.done:
		return t.value, t.err
	default:
	}

	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then returns a task that completes with fn applied to the result of parent.
// fn runs once parent completes, regardless of whether it failed.
func Then[T, U any](parent *Task[T], fn func(T, error) (U, error)) *Task[U] {
	return Go(context.Background(), func(context.Context) (U, error) {
		<-parent.done
		return fn(parent.value, parent.err)
	})
}
