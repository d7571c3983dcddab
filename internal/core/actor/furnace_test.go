package actor

import (
	"sync"
	"testing"
	"time"

	adactor "github.com/berfenger/furnace2mqtt/internal/adapter/actor"
	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/internal/core/port"
	"github.com/berfenger/furnace2mqtt/internal/metrics"
	"github.com/berfenger/furnace2mqtt/internal/storage"
	"github.com/berfenger/furnace2mqtt/internal/util"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type furnaceFixture struct {
	as          *actor.ActorSystem
	cfg         config.Config
	furnaceCfg  config.FurnaceConfig
	store       port.FurnaceStore
	storage     *actor.PID
	eventStream *eventstream.EventStream
	logger      *zap.Logger

	mu     sync.Mutex
	events []any
}

func newFurnaceFixture(t *testing.T, furnaceCfg config.FurnaceConfig) *furnaceFixture {
	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())
	fx := &furnaceFixture{
		as:          actor.NewActorSystem(),
		cfg:         cfg,
		furnaceCfg:  furnaceCfg,
		store:       storage.NewMemoryStore(),
		eventStream: &eventstream.EventStream{},
		logger:      logger,
	}
	fx.storage = fx.as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewStorageActor(fx.store, time.Second, logger)
	}))
	fx.eventStream.Subscribe(func(evt any) {
		fx.mu.Lock()
		defer fx.mu.Unlock()
		fx.events = append(fx.events, evt)
	})
	t.Cleanup(fx.as.Shutdown)
	return fx
}

func (fx *furnaceFixture) spawn() *actor.PID {
	return fx.as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewFurnaceActor(&fx.cfg, fx.furnaceCfg, furnace.DefaultRecipes(), furnace.DefaultBatteries(),
			fx.storage, fx.eventStream, metrics.New(), fx.logger)
	}))
}

func (fx *furnaceFixture) overloads() []domain.FurnaceOverloadEvent {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	var res []domain.FurnaceOverloadEvent
	for _, evt := range fx.events {
		if ov, ok := evt.(domain.FurnaceOverloadEvent); ok {
			res = append(res, ov)
		}
	}
	return res
}

func (fx *furnaceFixture) request(t *testing.T, pid *actor.PID, msg any) any {
	res, err := fx.as.Root.RequestFuture(pid, msg, 2*time.Second).Result()
	require.NoError(t, err)
	return res
}

func (fx *furnaceFixture) state(t *testing.T, pid *actor.PID) furnace.Snapshot {
	res := fx.request(t, pid, domain.GetFurnaceStateRequest{FurnaceRequestMixIn: domain.ForFurnace(fx.furnaceCfg.Id)})
	return res.(domain.GetFurnaceStateResponse).Snapshot
}

func fastFurnace() config.FurnaceConfig {
	cfg := config.DefaultFurnace("furnace_1")
	cfg.Capacity = 100
	cfg.RequiredTicks = 4
	cfg.DrainModel = string(furnace.DrainFixedRate)
	return cfg
}

func TestFurnaceActorSmelts(t *testing.T) {

	require := require.New(t)

	fx := newFurnaceFixture(t, fastFurnace())
	pid := fx.spawn()
	id := domain.ForFurnace("furnace_1")

	set := fx.request(t, pid, domain.SetSlotRequest{FurnaceRequestMixIn: id, Slot: furnace.SlotInput, Stack: furnace.NewStack("iron_ore", 2)}).(domain.SetSlotResponse)
	require.NoError(set.ResponseError)
	require.Equal(2, set.Stack.Count)

	recv := fx.request(t, pid, domain.ReceiveEnergyRequest{FurnaceRequestMixIn: id, Amount: 150, Voltage: 120, Side: furnace.South}).(domain.ReceiveEnergyResponse)
	require.NoError(recv.ResponseError)
	require.False(recv.Overloaded)
	require.InDelta(50, recv.Rejected, 1e-9)

	require.Eventually(func() bool {
		return fx.state(t, pid).Slots[furnace.SlotOutput].Count == 1
	}, 2*time.Second, 20*time.Millisecond)

	snap := fx.state(t, pid)
	require.Equal("iron_ingot", string(snap.Slots[furnace.SlotOutput].Kind))
	require.Equal(1, snap.Slots[furnace.SlotInput].Count)

	taken := fx.request(t, pid, domain.TakeSlotRequest{FurnaceRequestMixIn: id, Slot: furnace.SlotOutput}).(domain.TakeSlotResponse)
	require.NoError(taken.ResponseError)
	require.Equal(furnace.NewStack("iron_ingot", 1), taken.Taken)
}

func TestFurnaceActorInvalidSlot(t *testing.T) {

	assert := assert.New(t)

	fx := newFurnaceFixture(t, fastFurnace())
	pid := fx.spawn()
	id := domain.ForFurnace("furnace_1")

	set := fx.request(t, pid, domain.SetSlotRequest{FurnaceRequestMixIn: id, Slot: furnace.Slot(7), Stack: furnace.NewStack("sand", 1)}).(domain.SetSlotResponse)
	assert.ErrorIs(set.ResponseError, domain.ErrInvalidSlot)

	take := fx.request(t, pid, domain.TakeSlotRequest{FurnaceRequestMixIn: id, Slot: furnace.Slot(-1)}).(domain.TakeSlotResponse)
	assert.ErrorIs(take.ResponseError, domain.ErrInvalidSlot)
}

func TestFurnaceActorDisable(t *testing.T) {

	require := require.New(t)

	cfg := fastFurnace()
	cfg.OverloadDisableTicks = 1000
	fx := newFurnaceFixture(t, cfg)
	pid := fx.spawn()
	id := domain.ForFurnace("furnace_1")

	resp := fx.request(t, pid, domain.DisableFurnaceRequest{FurnaceRequestMixIn: id, Disable: true}).(domain.DisableFurnaceResponse)
	require.NoError(resp.ResponseError)
	require.Equal(1000, resp.Ticks)

	recv := fx.request(t, pid, domain.ReceiveEnergyRequest{FurnaceRequestMixIn: id, Amount: 10, Voltage: 120, Side: furnace.South}).(domain.ReceiveEnergyResponse)
	require.Equal(10.0, recv.Rejected, "a disabled furnace rejects all energy")

	resp = fx.request(t, pid, domain.DisableFurnaceRequest{FurnaceRequestMixIn: id, Disable: false}).(domain.DisableFurnaceResponse)
	require.Equal(0, resp.Ticks)
	require.False(fx.state(t, pid).Disabled)
}

func TestFurnaceActorOverloadDisable(t *testing.T) {

	require := require.New(t)

	fx := newFurnaceFixture(t, fastFurnace())
	pid := fx.spawn()
	id := domain.ForFurnace("furnace_1")

	recv := fx.request(t, pid, domain.ReceiveEnergyRequest{FurnaceRequestMixIn: id, Amount: 10, Voltage: 480, Side: furnace.South}).(domain.ReceiveEnergyResponse)
	require.NoError(recv.ResponseError)
	require.True(recv.Overloaded)
	require.Equal(10.0, recv.Rejected)

	snap := fx.state(t, pid)
	require.True(snap.Disabled)
	require.False(snap.Removed)

	overloads := fx.overloads()
	require.Len(overloads, 1)
	require.Equal(480, overloads[0].Voltage)
	require.False(overloads[0].Destroyed)
}

func TestFurnaceActorOverloadDestroy(t *testing.T) {

	require := require.New(t)

	cfg := fastFurnace()
	cfg.OverloadPolicy = config.OVERLOAD_POLICY_DESTROY
	fx := newFurnaceFixture(t, cfg)
	pid := fx.spawn()
	id := domain.ForFurnace("furnace_1")

	fx.request(t, pid, domain.SetSlotRequest{FurnaceRequestMixIn: id, Slot: furnace.SlotInput, Stack: furnace.NewStack("sand", 3)})

	recv := fx.request(t, pid, domain.ReceiveEnergyRequest{FurnaceRequestMixIn: id, Amount: 10, Voltage: 480, Side: furnace.South}).(domain.ReceiveEnergyResponse)
	require.True(recv.Overloaded)

	snap := fx.state(t, pid)
	require.True(snap.Removed)
	require.True(snap.Slots[furnace.SlotInput].IsEmpty())

	recv = fx.request(t, pid, domain.ReceiveEnergyRequest{FurnaceRequestMixIn: id, Amount: 10, Voltage: 120, Side: furnace.South}).(domain.ReceiveEnergyResponse)
	require.ErrorIs(recv.ResponseError, domain.ErrFurnaceDestroyed)
	require.Equal(10.0, recv.Rejected)

	set := fx.request(t, pid, domain.SetSlotRequest{FurnaceRequestMixIn: id, Slot: furnace.SlotInput, Stack: furnace.NewStack("sand", 1)}).(domain.SetSlotResponse)
	require.ErrorIs(set.ResponseError, domain.ErrFurnaceDestroyed)

	overloads := fx.overloads()
	require.Len(overloads, 1)
	require.True(overloads[0].Destroyed)
}

func TestFurnaceActorPersistence(t *testing.T) {

	require := require.New(t)

	fx := newFurnaceFixture(t, fastFurnace())
	pid := fx.spawn()
	id := domain.ForFurnace("furnace_1")

	fx.request(t, pid, domain.SetSlotRequest{FurnaceRequestMixIn: id, Slot: furnace.SlotInput, Stack: furnace.NewStack("clay_ball", 5)})
	fx.request(t, pid, domain.ReceiveEnergyRequest{FurnaceRequestMixIn: id, Amount: 10, Voltage: 120, Side: furnace.South})

	saved := fx.request(t, pid, domain.SaveFurnaceRequest{FurnaceRequestMixIn: id}).(domain.SaveFurnaceResponse)
	require.NoError(saved.ResponseError)
	require.NoError(fx.as.Root.StopFuture(pid).Wait())

	restored := fx.spawn()
	snap := fx.state(t, restored)
	require.Equal(furnace.NewStack("clay_ball", 5), snap.Slots[furnace.SlotInput])
	require.Greater(snap.Stored, 0.0)
}
