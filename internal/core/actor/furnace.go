package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/internal/core/events"
	"github.com/berfenger/furnace2mqtt/internal/metrics"
	. "github.com/berfenger/furnace2mqtt/internal/util/actorutil"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// FurnaceActor is the single owner of one furnace.Device. Every call on the
// device happens on this actor's mailbox.
type FurnaceActor struct {
	ActorWithStates
	id           string
	furnaceCfg   config.FurnaceConfig
	sim          config.SimulationConfig
	storeTimeout time.Duration
	recipes      furnace.RecipeLookup
	electric     furnace.ElectricItems
	device       *furnace.Device
	storageActor *actor.PID
	eventStream  *eventstream.EventStream
	metrics      *metrics.Metrics
	scheduler    *scheduler.TimerScheduler
	cancelTick   scheduler.CancelFunc
	ticks        uint64
	destroyed    bool
	stash        *Stash

	logger *zap.Logger
}

type furnaceTick struct {
}

type furnaceSaved struct {
	replyTo *actor.PID
	err     error
}

func NewFurnaceActor(cfg *config.Config, furnaceCfg config.FurnaceConfig, recipes furnace.RecipeLookup, electric furnace.ElectricItems,
	storageActor *actor.PID, eventStream *eventstream.EventStream, m *metrics.Metrics, logger *zap.Logger) *FurnaceActor {
	act := &FurnaceActor{
		id:           furnaceCfg.Id,
		furnaceCfg:   furnaceCfg,
		sim:          cfg.Simulation,
		storeTimeout: time.Duration(cfg.Storage.TimeoutMillis) * time.Millisecond,
		recipes:      recipes,
		electric:     electric,
		storageActor: storageActor,
		eventStream:  eventStream,
		metrics:      m,
		stash:        &Stash{},
		logger:       ActorLogger(domain.FurnaceActorId(furnaceCfg.Id), logger),
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(FurnaceStartingState{
		actor: act,
	})
	return act
}

func (state *FurnaceActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Starting state

type FurnaceStartingState struct {
	ActorState
	actor *FurnaceActor
}

func (state FurnaceStartingState) Name() string {
	return "starting"
}

func (state FurnaceStartingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("furnace@starting started")

		deviceCfg, err := state.actor.furnaceCfg.DeviceConfig()
		if err != nil {
			panic(err)
		}
		state.actor.device = furnace.NewDevice(deviceCfg, state.actor.recipes,
			furnace.WithElectricItems(state.actor.electric),
			furnace.WithOverloadHandler(furnace.OverloadFunc(state.actor.onOverload)),
			furnace.WithLogger(state.actor.logger))
		state.actor.scheduler = scheduler.NewTimerScheduler(ctx)

		if state.actor.storageActor == nil {
			state.actor.Become(FurnaceRunningState{
				actor: state.actor,
			}.OnEnter(ctx))
			state.actor.stash.UnstashAll(ctx)
			return
		}

		id := state.actor.id
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.storageActor, domain.LoadFurnaceRecordRequest{Id: id}, state.actor.storeTimeout), func(err error) any {
			return domain.LoadFurnaceRecordResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
				Id: id,
			}
		})
		state.actor.Become(FurnaceLoadingState{
			actor: state.actor,
		})
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("furnace@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)), zap.Int("stashed", state.actor.stash.Len()+1))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Loading state

type FurnaceLoadingState struct {
	ActorState
	actor *FurnaceActor
}

func (state FurnaceLoadingState) Name() string {
	return "loading"
}

func (state FurnaceLoadingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.LoadFurnaceRecordResponse:
		if msg.HasResponseError() {
			state.actor.logger.Warn("furnace@loading could not load record, starting empty", zap.Error(msg.GetResponseError()))
		} else if msg.Record != nil {
			state.actor.logger.Debug("furnace@loading record loaded")
			state.actor.device.Deserialize(*msg.Record)
		} else {
			state.actor.logger.Debug("furnace@loading no record, starting empty")
		}
		state.actor.Become(FurnaceRunningState{
			actor: state.actor,
		}.OnEnter(ctx))
		state.actor.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.FurnaceActorId(state.actor.id),
			Healthy: true,
			State:   state.Name(),
		})
	case *actor.Stopping:
	default:
		state.actor.logger.Debug("furnace@loading: stash", zap.String("type", fmt.Sprintf("%T", msg)), zap.Int("stashed", state.actor.stash.Len()+1))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Running state

type FurnaceRunningState struct {
	ActorState
	actor *FurnaceActor
}

func (state FurnaceRunningState) Name() string {
	return "running"
}

func (state FurnaceRunningState) OnEnter(ctx actor.Context) FurnaceRunningState {
	tick := time.Duration(state.actor.sim.TickMillis) * time.Millisecond
	state.actor.cancelTick = state.actor.scheduler.SendRepeatedly(tick, tick, ctx.Self(), furnaceTick{})
	state.actor.publishState()
	return state
}

func (state FurnaceRunningState) Receive(ctx actor.Context) {
	a := state.actor
	switch msg := ctx.Message().(type) {
	case furnaceTick:
		a.onTick()
		if a.destroyed {
			a.Become(FurnaceDestroyedState{actor: a}.OnEnter(ctx))
		}
	case domain.ActorHealthRequest:
		a.logger.Debug("furnace@running: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.FurnaceActorId(a.id),
			Healthy: true,
			State:   a.StateName(),
		})
	case domain.GetFurnaceStateRequest:
		ForRequest(msg).Respond(ctx, a.stateResponse())
	case domain.ReceiveEnergyRequest:
		rejected, overloaded := a.device.ReceiveEnergy(msg.Amount, msg.Voltage, msg.Side)
		a.metrics.EnergyReceived(a.id, msg.Amount-rejected, rejected)
		ForRequest(msg).Respond(ctx, domain.ReceiveEnergyResponse{
			Rejected:   rejected,
			Overloaded: overloaded,
		})
		if a.destroyed {
			a.Become(FurnaceDestroyedState{actor: a}.OnEnter(ctx))
		}
	case domain.SetSlotRequest:
		if !msg.Slot.Valid() {
			ForRequest(msg).Respond(ctx, domain.SetSlotResponse{ActorResponseMixIn: errorMixIn(domain.ErrInvalidSlot)})
			return
		}
		a.device.Set(msg.Slot, msg.Stack)
		a.logger.Debug("furnace@running: slot set", zap.Stringer("slot", msg.Slot), zap.String("kind", string(msg.Stack.Kind)), zap.Int("count", msg.Stack.Count))
		ForRequest(msg).Respond(ctx, domain.SetSlotResponse{Stack: a.device.Get(msg.Slot)})
	case domain.TakeSlotRequest:
		if !msg.Slot.Valid() {
			ForRequest(msg).Respond(ctx, domain.TakeSlotResponse{ActorResponseMixIn: errorMixIn(domain.ErrInvalidSlot)})
			return
		}
		var taken furnace.ItemStack
		if msg.Count <= 0 {
			taken = a.device.TakeAll(msg.Slot)
		} else {
			taken = a.device.Take(msg.Slot, msg.Count)
		}
		ForRequest(msg).Respond(ctx, domain.TakeSlotResponse{Taken: taken})
	case domain.DisableFurnaceRequest:
		ticks := 0
		if msg.Disable {
			ticks = msg.Ticks
			if ticks <= 0 {
				ticks = a.furnaceCfg.OverloadDisableTicks
			}
		}
		a.logger.Info("furnace@running: disable", zap.Int("ticks", ticks))
		a.device.Disable(ticks)
		a.publish(events.FurnaceDisableSwitchUpdateEvent(a.id, a.device.IsDisabled()))
		ForRequest(msg).Respond(ctx, domain.DisableFurnaceResponse{Ticks: a.device.DisableTicks()})
	case domain.SaveFurnaceRequest:
		a.save(ctx, ForRequest(msg).ReplyTo(ctx))
	case furnaceSaved:
		a.onSaved(ctx, msg)
	case *actor.Stopping:
		a.stop(ctx)
	case *actor.Restarting:
		a.stop(ctx)
	default:
		a.logger.Debug("furnace@running: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Destroyed state

type FurnaceDestroyedState struct {
	ActorState
	actor *FurnaceActor
}

func (state FurnaceDestroyedState) Name() string {
	return "destroyed"
}

func (state FurnaceDestroyedState) OnEnter(ctx actor.Context) FurnaceDestroyedState {
	if state.actor.cancelTick != nil {
		state.actor.cancelTick()
		state.actor.cancelTick = nil
	}
	state.actor.publishState()
	return state
}

func (state FurnaceDestroyedState) Receive(ctx actor.Context) {
	a := state.actor
	destroyed := errorMixIn(domain.ErrFurnaceDestroyed)
	switch msg := ctx.Message().(type) {
	case furnaceTick:
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.FurnaceActorId(a.id),
			Healthy: true,
			State:   state.Name(),
		})
	case domain.GetFurnaceStateRequest:
		ForRequest(msg).Respond(ctx, a.stateResponse())
	case domain.ReceiveEnergyRequest:
		ForRequest(msg).Respond(ctx, domain.ReceiveEnergyResponse{
			ActorResponseMixIn: destroyed,
			Rejected:           msg.Amount,
		})
	case domain.SetSlotRequest:
		ForRequest(msg).Respond(ctx, domain.SetSlotResponse{ActorResponseMixIn: destroyed})
	case domain.TakeSlotRequest:
		ForRequest(msg).Respond(ctx, domain.TakeSlotResponse{ActorResponseMixIn: destroyed})
	case domain.DisableFurnaceRequest:
		ForRequest(msg).Respond(ctx, domain.DisableFurnaceResponse{ActorResponseMixIn: destroyed})
	case domain.SaveFurnaceRequest:
		a.save(ctx, ForRequest(msg).ReplyTo(ctx))
	case furnaceSaved:
		a.onSaved(ctx, msg)
	case *actor.Stopping:
		a.stop(ctx)
	default:
		a.logger.Debug("furnace@destroyed: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Actor helpers

func (a *FurnaceActor) onTick() {
	report := a.device.Advance()
	a.ticks++
	a.metrics.Tick(a.id, a.device.Stored(), a.device.Progress(), report.Completed)
	if report.Completed {
		a.logger.Debug("furnace: smelted", zap.String("item", string(report.Produced.Kind)), zap.Int("count", report.Produced.Count))
	}
	if a.destroyed {
		return
	}
	if a.sim.StateEveryTicks > 0 && a.ticks%uint64(a.sim.StateEveryTicks) == 0 {
		a.publishState()
	}
	if a.sim.SyncEveryTicks > 0 && a.ticks%uint64(a.sim.SyncEveryTicks) == 0 {
		a.publish(domain.SyncPacketEvent{
			FurnaceId: a.id,
			Payload:   a.device.EncodeSyncPacket(),
		})
	}
}

// onOverload runs inside Device.ReceiveEnergy, on the actor goroutine
func (a *FurnaceActor) onOverload(d *furnace.Device, voltage int) {
	a.metrics.Overload(a.id)
	destroy := a.furnaceCfg.OverloadPolicy == config.OVERLOAD_POLICY_DESTROY
	if destroy && !a.destroyed {
		for _, stack := range d.Invalidate() {
			a.logger.Warn("furnace: dropped on destruction", zap.String("item", string(stack.Kind)), zap.Int("count", stack.Count))
		}
		a.destroyed = true
		a.logger.Error("furnace: destroyed by overload", zap.Int("voltage", voltage))
	} else if !destroy {
		d.Disable(a.furnaceCfg.OverloadDisableTicks)
		a.logger.Warn("furnace: disabled by overload", zap.Int("voltage", voltage), zap.Int("ticks", a.furnaceCfg.OverloadDisableTicks))
	}
	a.publish(domain.FurnaceOverloadEvent{
		FurnaceId: a.id,
		Voltage:   voltage,
		Destroyed: a.destroyed,
	})
}

func (a *FurnaceActor) stateResponse() domain.GetFurnaceStateResponse {
	return domain.GetFurnaceStateResponse{
		Id:       a.id,
		Snapshot: a.device.Snapshot(),
	}
}

func (a *FurnaceActor) publishState() {
	snapshot := a.device.Snapshot()
	a.publish(domain.FurnaceStateEvent{
		FurnaceId: a.id,
		Snapshot:  snapshot,
	})
	for _, ev := range events.FurnaceSnapshotToUpdateEvents(a.id, snapshot) {
		a.publish(ev)
	}
}

func (a *FurnaceActor) publish(ev any) {
	if a.eventStream != nil {
		a.eventStream.Publish(ev)
	}
}

func (a *FurnaceActor) save(ctx actor.Context, replyTo *actor.PID) {
	if a.storageActor == nil {
		ctx.Send(replyTo, domain.SaveFurnaceResponse{})
		return
	}
	future := ctx.RequestFuture(a.storageActor, domain.StoreFurnaceRecordRequest{
		Id:     a.id,
		Record: a.device.Serialize(),
	}, a.storeTimeout)
	ctx.ReenterAfter(future, func(res any, err error) {
		if err == nil {
			if resp, ok := res.(domain.ActorResponse); ok {
				err = resp.GetResponseError()
			}
		}
		a.onSaved(ctx, furnaceSaved{replyTo: replyTo, err: err})
	})
}

func (a *FurnaceActor) onSaved(ctx actor.Context, msg furnaceSaved) {
	if msg.err != nil {
		a.logger.Error("furnace: save failed", zap.Error(msg.err))
	} else {
		a.logger.Debug("furnace: saved")
	}
	if msg.replyTo != nil {
		ctx.Send(msg.replyTo, domain.SaveFurnaceResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: msg.err,
			},
		})
	}
}

func (a *FurnaceActor) stop(ctx actor.Context) {
	if a.cancelTick != nil {
		a.cancelTick()
		a.cancelTick = nil
	}
	// best effort, the storage actor may already be gone
	if a.storageActor != nil && a.device != nil {
		ctx.Send(a.storageActor, domain.StoreFurnaceRecordRequest{
			Id:     a.id,
			Record: a.device.Serialize(),
		})
	}
}

func errorMixIn(err error) domain.ActorResponseMixIn {
	return domain.ActorResponseMixIn{
		ResponseError: err,
	}
}
