package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/internal/modbus"
	"github.com/berfenger/furnace2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	simmodbus "github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

// GetModbusRegistersRequest reads the input register block served for a unit
type GetModbusRegistersRequest struct {
	UnitId uint8
}

type GetModbusRegistersResponse struct {
	domain.ActorResponseMixIn
	Registers []uint16
}

// ModbusActor exposes the furnaces as a modbus TCP server. Register values come
// from the FurnaceStateEvents published on the event stream; coil writes are
// turned into DisableFurnaceRequests sent to the parent.
type ModbusActor struct {
	config         *config.Config
	behavior       actor.Behavior
	handler        *modbus.Handler
	server         *modbus.Server
	eventStream    *eventstream.EventStream
	eventStreamSub *eventstream.Subscription
	listen         bool
	logger         *zap.Logger
}

func NewModbusActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *ModbusActor {
	act := &ModbusActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		eventStream: eventStream,
		listen:      true,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MODBUS, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

// NewTestModbusActor keeps the register map without opening a listener
func NewTestModbusActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *ModbusActor {
	act := NewModbusActor(config, eventStream, logger)
	act.listen = false
	return act
}

func (state *ModbusActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *ModbusActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("modbus@default started")
		state.start(ctx)
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case OnEventStreamMessage:
		if ev, ok := msg.message.(domain.FurnaceStateEvent); ok {
			state.handler.Update(ev.FurnaceId, ev.Snapshot)
		}
	case domain.ActorHealthRequest:
		state.logger.Debug("modbus@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MODBUS,
			Healthy: true,
			State:   "serving",
		})
	case GetModbusRegistersRequest:
		regs, err := state.handler.HandleInputRegisters(&simmodbus.InputRegistersRequest{
			UnitId:   msg.UnitId,
			Quantity: modbus.INPUT_REGISTERS,
		})
		ctx.Respond(GetModbusRegistersResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			Registers:          regs,
		})
	default:
		state.logger.Debug("modbus@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *ModbusActor) start(ctx actor.Context) {
	ids := make([]string, 0, len(state.config.Furnaces))
	for _, f := range state.config.Furnaces {
		ids = append(ids, f.Id)
	}
	root := ctx.ActorSystem().Root
	parent := ctx.Parent()
	state.handler = modbus.NewHandler(ids, func(furnaceId string, disable bool) error {
		res, err := root.RequestFuture(parent, domain.DisableFurnaceRequest{
			FurnaceRequestMixIn: domain.ForFurnace(furnaceId),
			Disable:             disable,
		}, 2*time.Second).Result()
		if err != nil {
			return err
		}
		if resp, ok := res.(domain.ActorResponse); ok && resp.HasResponseError() {
			return resp.GetResponseError()
		}
		return nil
	}, state.logger)

	if state.listen {
		server, err := modbus.NewServer(state.config.Modbus.Host, state.config.Modbus.Port, state.handler)
		if err != nil {
			panic(err)
		}
		if err := server.Start(); err != nil {
			state.logger.Error("modbus@default could not listen", zap.Error(err))
			panic(err)
		}
		state.server = server
		state.logger.Info("modbus server listening", zap.String("host", state.config.Modbus.Host), zap.Uint("port", state.config.Modbus.Port))
	}

	if state.eventStream != nil {
		state.eventStreamSub = state.eventStream.Subscribe(func(value any) {
			if _, ok := value.(domain.FurnaceStateEvent); ok {
				ctx.Send(ctx.Self(), OnEventStreamMessage{message: value})
			}
		})
	}
}

func (state *ModbusActor) stop() {
	if state.eventStream != nil && state.eventStreamSub != nil {
		state.eventStream.Unsubscribe(state.eventStreamSub)
		state.eventStreamSub = nil
	}
	if state.server != nil {
		if err := state.server.Stop(); err != nil {
			state.logger.Warn("modbus: stop failed", zap.Error(err))
		}
		state.server = nil
	}
}
