// Package task runs a blocking call in the background so its owner can
// abandon it. An abandoned task's result is dropped.
package task

import (
	"context"
	"sync"
)

// Task is one background call producing a T.
type Task[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	val       T
	err       error
	abandoned bool
}

// Start runs fn on a new goroutine with a context derived from parent.
// When fn returns and the task was not cancelled, onDone (if non-nil) is
// called with its result on the same goroutine.
func Start[T any](parent context.Context, fn func(ctx context.Context) (T, error), onDone func(T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(parent)
	t := &Task[T]{ctx: ctx, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)
		defer cancel()

		val, err := fn(ctx)

		t.mu.Lock()
		if t.abandoned {
			t.mu.Unlock()
			return
		}
		t.val, t.err = val, err
		t.mu.Unlock()

		if onDone != nil {
			onDone(val, err)
		}
	}()
	return t
}

// Cancel abandons the task: its context is cancelled and a result that
// arrives afterwards is discarded without calling onDone.
func (t *Task[T]) Cancel() {
	t.mu.Lock()
	t.abandoned = true
	t.mu.Unlock()
	t.cancel()
}

// Done is closed once the task's goroutine has exited.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx ends. An abandoned task
// reports context.Canceled.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.abandoned {
		var zero T
		return zero, context.Canceled
	}
	return t.val, t.err
}
