package actorutil

import (
	"errors"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/primetalk/goio/io"
)

var ErrEmptyTaskResult = errors.New("background task returned no result")

// SafeBackgroundTask runs blocking work (storage calls, fan-out requests) off
// the actor goroutine and delivers exactly one message when it is done.
type SafeBackgroundTask[T any] struct {
	ctx     actor.Context
	fn      func() (*T, error)
	timeout time.Duration
	recover func(error) T
	deliver func(T)
}

func NewBackgroundTask[T any](ctx actor.Context, fn func() (*T, error)) *SafeBackgroundTask[T] {
	return &SafeBackgroundTask[T]{ctx: ctx, fn: fn}
}

func NewBackgroundTaskNoError[T any](ctx actor.Context, fn func() *T) *SafeBackgroundTask[T] {
	return NewBackgroundTask(ctx, func() (*T, error) {
		return fn(), nil
	})
}

// WithTimeout bounds the task, a zero duration means no bound
func (t *SafeBackgroundTask[T]) WithTimeout(timeout time.Duration) *SafeBackgroundTask[T] {
	t.timeout = timeout
	return t
}

// Recover turns a failure or a timeout into a deliverable value. Without it
// failed tasks deliver nothing.
func (t *SafeBackgroundTask[T]) Recover(fn func(error) T) *SafeBackgroundTask[T] {
	t.recover = fn
	return t
}

func (t *SafeBackgroundTask[T]) PipeTo(pid *actor.PID) {
	root := t.ctx.ActorSystem().Root
	t.deliver = func(value T) {
		root.Send(pid, value)
	}
	go t.Run()
}

func (t *SafeBackgroundTask[T]) Run() {
	value, err := t.eval()
	if err != nil {
		if t.recover == nil {
			return
		}
		value = t.recover(err)
	}
	if t.deliver != nil {
		t.deliver(value)
	}
}

func (t *SafeBackgroundTask[T]) eval() (T, error) {
	task := io.Eval(func() (T, error) {
		var zero T
		a, err := t.fn()
		if err != nil {
			return zero, err
		}
		if a == nil {
			return zero, ErrEmptyTaskResult
		}
		return *a, nil
	})
	if t.timeout > 0 {
		task = io.WithTimeout[T](t.timeout)(task)
	}
	result := io.RunSync(task)
	return result.Value, result.Error
}

func MapBackgroundTask[T, T2 any](bgt *SafeBackgroundTask[T], mapFn func(*T) *T2) *SafeBackgroundTask[T2] {
	return &SafeBackgroundTask[T2]{
		ctx: bgt.ctx,
		fn: func() (*T2, error) {
			r, err := bgt.fn()
			if err != nil {
				return nil, err
			}
			return mapFn(r), nil
		},
		timeout: bgt.timeout,
	}
}
