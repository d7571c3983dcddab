package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/internal/core/events"
	"github.com/berfenger/furnace2mqtt/internal/core/port"
	"github.com/berfenger/furnace2mqtt/internal/metrics"
	. "github.com/berfenger/furnace2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// GeneratorActor feeds one furnace with the output of an energy source, once per tick.
type GeneratorActor struct {
	ActorWithStates
	furnaceId    string
	sim          config.SimulationConfig
	source       port.EnergySource
	furnaceActor *actor.PID
	eventStream  *eventstream.EventStream
	metrics      *metrics.Metrics
	scheduler    *scheduler.TimerScheduler
	cancelTick   scheduler.CancelFunc
	ticks        uint64

	logger *zap.Logger
}

type generatorTick struct {
}

type generatorSettled struct {
	offered  float64
	rejected float64
	err      error
}

func NewGeneratorActor(cfg *config.Config, furnaceId string, source port.EnergySource, furnaceActor *actor.PID,
	eventStream *eventstream.EventStream, m *metrics.Metrics, logger *zap.Logger) *GeneratorActor {
	act := &GeneratorActor{
		furnaceId:    furnaceId,
		sim:          cfg.Simulation,
		source:       source,
		furnaceActor: furnaceActor,
		eventStream:  eventStream,
		metrics:      m,
		logger:       ActorLogger(domain.GeneratorActorId(furnaceId), logger),
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(GeneratorIdleState{
		actor: act,
	})
	return act
}

func (state *GeneratorActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Idle state

type GeneratorIdleState struct {
	ActorState
	actor *GeneratorActor
}

func (state GeneratorIdleState) Name() string {
	return "idle"
}

func (state GeneratorIdleState) Receive(ctx actor.Context) {
	a := state.actor
	switch ctx.Message().(type) {
	case *actor.Started:
		a.logger.Debug("generator@idle started")
		a.scheduler = scheduler.NewTimerScheduler(ctx)
		tick := time.Duration(a.sim.TickMillis) * time.Millisecond
		a.cancelTick = a.scheduler.SendRepeatedly(tick, tick, ctx.Self(), generatorTick{})
		a.publishOutput()
	case generatorTick:
		offered := a.source.Offer()
		future := ctx.RequestFuture(a.furnaceActor, domain.ReceiveEnergyRequest{
			FurnaceRequestMixIn: domain.ForFurnace(a.furnaceId),
			Amount:              offered,
			Voltage:             a.source.Voltage(),
			Side:                a.source.Side(),
		}, time.Duration(a.sim.TickMillis)*time.Millisecond*10)
		ctx.ReenterAfter(future, func(res any, err error) {
			settled := generatorSettled{offered: offered, rejected: offered, err: err}
			if resp, ok := res.(domain.ReceiveEnergyResponse); ok && err == nil {
				settled.rejected = resp.Rejected
				settled.err = resp.GetResponseError()
			}
			ctx.Send(ctx.Self(), settled)
		})
		a.BecomeStacked(GeneratorAwaitingState{
			actor: a,
		})
	case *actor.Stopping:
		a.stop()
	case *actor.Restarting:
		a.stop()
	default:
		a.receiveCommon(ctx)
	}
}

// Awaiting state, one delivery in flight

type GeneratorAwaitingState struct {
	ActorState
	actor *GeneratorActor
}

func (state GeneratorAwaitingState) Name() string {
	return "awaiting"
}

func (state GeneratorAwaitingState) Receive(ctx actor.Context) {
	a := state.actor
	switch msg := ctx.Message().(type) {
	case generatorTick:
		a.logger.Debug("generator@awaiting: tick dropped")
	case generatorSettled:
		a.settle(msg)
		a.UnbecomeStacked()
	case *actor.Stopping:
		a.stop()
	default:
		a.receiveCommon(ctx)
	}
}

// Actor helpers

func (a *GeneratorActor) receiveCommon(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.GeneratorActorId(a.furnaceId),
			Healthy: true,
			State:   a.StateName(),
		})
	case domain.SetGeneratorPowerRequest:
		err := a.source.SetOutput(msg.Watts)
		if err != nil {
			a.logger.Warn("generator: invalid output", zap.Error(err))
		} else {
			a.logger.Info("generator: output set", zap.Float64("watts", msg.Watts))
		}
		a.publishOutput()
		ForRequest(msg).Respond(ctx, domain.SetGeneratorPowerResponse{
			ActorResponseMixIn: errorMixIn(err),
			Watts:              a.source.Output(),
		})
	default:
		a.logger.Debug(fmt.Sprintf("generator@%s: recv", a.StateName()), zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (a *GeneratorActor) settle(msg generatorSettled) {
	if msg.err != nil {
		a.logger.Debug("generator: delivery failed", zap.Error(msg.err))
	}
	before := a.source.Stats()
	a.source.Settle(msg.offered, msg.rejected)
	after := a.source.Stats()
	a.metrics.Generator(a.furnaceId, after.Delivered-before.Delivered, after.Wasted-before.Wasted)

	a.ticks++
	if a.sim.StateEveryTicks > 0 && a.ticks%uint64(a.sim.StateEveryTicks) == 0 {
		a.publishOutput()
	}
}

func (a *GeneratorActor) publishOutput() {
	if a.eventStream == nil {
		return
	}
	for _, ev := range events.GeneratorUpdateEvents(a.furnaceId, a.source.Output(), a.source.Stats().Wasted) {
		a.eventStream.Publish(ev)
	}
}

func (a *GeneratorActor) stop() {
	if a.cancelTick != nil {
		a.cancelTick()
		a.cancelTick = nil
	}
}
