// Package task runs one operation in the background and reports exactly one
// outcome.
//
// A Task moves Idle -> Running -> Succeeded or Failed. Callers either block
// on Wait or select on Done; a panic in the operation becomes a Failed
// outcome rather than crashing the process.
package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/KrolPower/LocalVCS/internal/errors"
)

// State is the lifecycle position of a Task.
type State int

const (
	Idle State = iota
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed
}

// Task is a single background operation producing a T.
type Task[T any] struct {
	name string
	fn   func(context.Context) (T, error)

	mu     sync.Mutex
	state  State
	result T
	err    error

	once sync.Once
	done chan struct{}
}

// New returns an Idle task. Start runs it.
func New[T any](name string, fn func(context.Context) (T, error)) *Task[T] {
	return &Task[T]{name: name, fn: fn, done: make(chan struct{})}
}

// Go creates a task and starts it immediately.
func Go[T any](ctx context.Context, name string, fn func(context.Context) (T, error)) *Task[T] {
	t := New(name, fn)
	t.Start(ctx)
	return t
}

// Name returns the label given at creation.
func (t *Task[T]) Name() string {
	return t.name
}

// Start launches the operation. Calls after the first are ignored.
func (t *Task[T]) Start(ctx context.Context) {
	t.once.Do(func() {
		t.mu.Lock()
		t.state = Running
		t.mu.Unlock()

		go t.run(ctx)
	})
}

func (t *Task[T]) run(ctx context.Context) {
	var (
		res T
		err error
	)
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res = zero
			err = errors.Newf("%s panicked: %v", t.name, r)
		}
		t.finish(res, err)
	}()

	res, err = t.fn(ctx)
}

func (t *Task[T]) finish(res T, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.result = res
	t.err = err
	if err != nil {
		t.state = Failed
	} else {
		t.state = Succeeded
	}
	close(t.done)
}

// State returns the current state.
func (t *Task[T]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Done is closed once the task reaches a terminal state.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx ends. Waiting on a task that
// was never started returns an error immediately.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	if t.State() == Idle {
		var zero T
		return zero, errors.Newf("task %s was not started", t.name)
	}

	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.result, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
