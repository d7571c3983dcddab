package actorutil

import (
	"errors"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
)

func runTask[T any](t *testing.T, build func(ctx actor.Context) *SafeBackgroundTask[T]) (any, bool) {
	as := actor.NewActorSystem()
	defer as.Shutdown()

	results := make(chan any, 1)
	sink := as.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		if _, ok := ctx.Message().(actor.SystemMessage); ok {
			return
		}
		if _, ok := ctx.Message().(actor.AutoReceiveMessage); ok {
			return
		}
		results <- ctx.Message()
	}))
	as.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		if _, ok := ctx.Message().(*actor.Started); ok {
			build(ctx).PipeTo(sink)
		}
	}))

	select {
	case res := <-results:
		return res, true
	case <-time.After(300 * time.Millisecond):
		return nil, false
	}
}

func TestBackgroundTaskDelivers(t *testing.T) {

	assert := assert.New(t)

	res, ok := runTask(t, func(ctx actor.Context) *SafeBackgroundTask[int] {
		return NewBackgroundTaskNoError(ctx, func() *int {
			v := 42
			return &v
		})
	})
	assert.True(ok)
	assert.Equal(42, res)
}

func TestBackgroundTaskRecovers(t *testing.T) {

	assert := assert.New(t)

	failed := errors.New("store down")
	res, ok := runTask(t, func(ctx actor.Context) *SafeBackgroundTask[string] {
		return NewBackgroundTask(ctx, func() (*string, error) {
			return nil, failed
		}).Recover(func(err error) string {
			return "recovered: " + err.Error()
		})
	})
	assert.True(ok)
	assert.Equal("recovered: store down", res)

	res, ok = runTask(t, func(ctx actor.Context) *SafeBackgroundTask[string] {
		return NewBackgroundTaskNoError(ctx, func() *string {
			return nil
		}).Recover(func(err error) string {
			return err.Error()
		})
	})
	assert.True(ok)
	assert.Equal(ErrEmptyTaskResult.Error(), res)
}

func TestBackgroundTaskWithoutRecoverIsSilent(t *testing.T) {

	assert := assert.New(t)

	_, ok := runTask(t, func(ctx actor.Context) *SafeBackgroundTask[int] {
		return NewBackgroundTask(ctx, func() (*int, error) {
			return nil, errors.New("boom")
		})
	})
	assert.False(ok)
}
