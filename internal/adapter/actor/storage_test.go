package actor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/internal/storage"
	"github.com/berfenger/furnace2mqtt/internal/util/actorutil"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingStore struct{}

func (failingStore) Save(context.Context, string, furnace.Record) error {
	return errors.New("read-only")
}

func (failingStore) Load(context.Context, string) (*furnace.Record, error) {
	return nil, errors.New("unreachable")
}

func (failingStore) Close() error {
	return nil
}

type slowStore struct {
	failingStore
}

func (slowStore) Load(ctx context.Context, _ string) (*furnace.Record, error) {
	<-time.After(time.Second)
	return nil, nil
}

func TestStorageActor(t *testing.T) {

	require := require.New(t)

	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	root := as.Root

	pid := root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewStorageActor(storage.NewMemoryStore(), time.Second, logger)
	}))

	result, err := root.RequestFuture(pid, domain.LoadFurnaceRecordRequest{Id: "furnace_1"}, time.Second).Result()
	require.NoError(err)
	loaded := result.(domain.LoadFurnaceRecordResponse)
	require.NoError(loaded.ResponseError)
	require.Nil(loaded.Record)

	record := furnace.Record{ElectricityStored: 10, SmeltingTicks: 5, Items: []furnace.SlotRecord{{Slot: 1, ID: "sand", Count: 4}}}
	result, err = root.RequestFuture(pid, domain.StoreFurnaceRecordRequest{Id: "furnace_1", Record: record}, time.Second).Result()
	require.NoError(err)
	require.NoError(result.(domain.StoreFurnaceRecordResponse).ResponseError)

	// queued requests are answered in order
	f1 := root.RequestFuture(pid, domain.LoadFurnaceRecordRequest{Id: "furnace_1"}, time.Second)
	f2 := root.RequestFuture(pid, domain.ActorHealthRequest{}, time.Second)
	result, err = f1.Result()
	require.NoError(err)
	loaded = result.(domain.LoadFurnaceRecordResponse)
	require.NotNil(loaded.Record)
	require.Equal(record, *loaded.Record)
	result, err = f2.Result()
	require.NoError(err)
	require.True(result.(domain.ActorHealthResponse).Healthy)

	as.Shutdown()
}

func TestStorageActorErrors(t *testing.T) {

	assert := assert.New(t)

	logger := zap.NewNop()
	as := actorutil.NewActorSystemWithZapLogger(logger)
	root := as.Root

	pid := root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewStorageActor(failingStore{}, time.Second, logger)
	}))

	result, err := root.RequestFuture(pid, domain.LoadFurnaceRecordRequest{Id: "furnace_1"}, 2*time.Second).Result()
	assert.NoError(err)
	assert.Error(result.(domain.LoadFurnaceRecordResponse).ResponseError)

	result, err = root.RequestFuture(pid, domain.StoreFurnaceRecordRequest{Id: "furnace_1"}, 2*time.Second).Result()
	assert.NoError(err)
	assert.ErrorContains(result.(domain.StoreFurnaceRecordResponse).ResponseError, "read-only")

	slow := root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewStorageActor(slowStore{}, 100*time.Millisecond, logger)
	}))
	result, err = root.RequestFuture(slow, domain.LoadFurnaceRecordRequest{Id: "furnace_1"}, 2*time.Second).Result()
	assert.NoError(err)
	assert.Error(result.(domain.LoadFurnaceRecordResponse).ResponseError)

	as.Shutdown()
}
