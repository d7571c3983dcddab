package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/furnace2mqtt/internal/adapter/actor"
	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/internal/core/service"
	"github.com/berfenger/furnace2mqtt/internal/metrics"
	. "github.com/berfenger/furnace2mqtt/internal/util/actorutil"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

const (
	HEALTH_CHECK_TIMEOUT = 1 * time.Second
	SAVE_ALL_TIMEOUT     = 10 * time.Second
)

type StorageActorProvider func() *adactor.StorageActor

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

// ModbusActorProvider may be nil when the modbus slave is disabled
type ModbusActorProvider func(*eventstream.EventStream) *adactor.ModbusActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck   healthCheckResult
	eventStream          *eventstream.EventStream
	storageActor         *actor.PID
	modbusActor          *actor.PID
	mqttActor            *actor.PID
	furnaceActors        map[string]*actor.PID
	generatorActors      map[string]*actor.PID
	storageActorProvider StorageActorProvider
	modbusActorProvider  ModbusActorProvider
	mqttActorProvider    MQTTActorProvider
	recipes              furnace.RecipeLookup
	batteries            furnace.ElectricItems
	metrics              *metrics.Metrics
	logger               *zap.Logger
}

type healthCheckResult struct {
	expected  map[string]bool
	healthy   map[string]bool
	respondTo *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, storageActorProvider StorageActorProvider, modbusActorProvider ModbusActorProvider,
	mqttActorProvider MQTTActorProvider, m *metrics.Metrics, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:               config,
		behavior:             actor.NewBehavior(),
		stash:                &Stash{},
		logger:               ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:          &eventstream.EventStream{},
		furnaceActors:        map[string]*actor.PID{},
		generatorActors:      map[string]*actor.PID{},
		storageActorProvider: storageActorProvider,
		modbusActorProvider:  modbusActorProvider,
		mqttActorProvider:    mqttActorProvider,
		metrics:              m,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

// EventStream is shared by every child of the master
func (state *MasterOfPuppetsActor) EventStream() *eventstream.EventStream {
	return state.eventStream
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		recipes, err := service.BuildRecipeTable(state.config.Recipes)
		if err != nil {
			panic(err)
		}
		state.recipes = recipes
		state.batteries = service.BuildBatteryTable(state.config.Batteries)

		// start Storage child
		storageActorPID, err := state.startStorageActor(ctx)
		if err != nil {
			panic(err)
		}
		state.storageActor = storageActorPID

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start Modbus child
		if state.modbusActorProvider != nil {
			modbusActorPID, err := state.startModbusActor(ctx)
			if err != nil {
				panic(err)
			}
			state.modbusActor = modbusActorPID
		}

		// start one furnace and one generator per configured furnace
		for _, furnaceCfg := range state.config.Furnaces {
			furnacePID, err := state.startFurnaceActor(ctx, furnaceCfg)
			if err != nil {
				panic(err)
			}
			state.furnaceActors[furnaceCfg.Id] = furnacePID

			generatorPID, err := state.startGeneratorActor(ctx, furnaceCfg, furnacePID)
			if err != nil {
				panic(err)
			}
			state.generatorActors[furnaceCfg.Id] = generatorPID
		}

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ForRequest(msg).ReplyTo(ctx)
		for id, pid := range state.children() {
			state.currentHealthCheck.expected[id] = true
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, HEALTH_CHECK_TIMEOUT/2), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      id,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(HEALTH_CHECK_TIMEOUT)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.SaveAllFurnacesRequest:
		state.logger.Debug("master@default SaveAllFurnacesRequest")
		state.saveAll(ctx, ForRequest(msg).ReplyTo(ctx))
	case domain.FurnaceRequest:
		state.route(ctx, msg, true)
	case adactor.ParsedCommand:
		// redirect parsedCommand to actor
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			cmd, err := ParsedMQTTCommandToCommand(*msg.Command)
			if err != nil {
				state.logger.Warn("master@default invalid command", zap.Error(err))
				return
			}
			if pcmd, ok := cmd.(domain.FurnaceRequest); ok {
				state.route(ctx, pcmd, false)
			}
		}
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_STORAGE) {
			state.logger.Error("master@default storage error")
			panic(errors.New("storage terminated"))
		}
	default:
		state.logger.Debug("master@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		ctx.SetReceiveTimeout(0)
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy), zap.String("state", msg.State))
		state.currentHealthCheck.record(msg)
		if state.currentHealthCheck.allReceived() {
			ctx.SetReceiveTimeout(0)
			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// route hands a furnace request to its owner. When forward is set the current
// message is forwarded so the owner answers the requester.
func (state *MasterOfPuppetsActor) route(ctx actor.Context, req domain.FurnaceRequest, forward bool) {
	target := state.furnaceActors
	if _, ok := req.(domain.SetGeneratorPowerRequest); ok {
		target = state.generatorActors
	}
	pid, ok := target[req.FurnaceId()]
	if !ok {
		state.logger.Debug("master@default unknown furnace", zap.String("furnace", req.FurnaceId()))
		if forward {
			ForRequest(req).Respond(ctx, domain.NewErrorResponse(domain.ErrFurnaceNotFound))
		}
		return
	}
	if forward {
		ctx.Forward(pid)
	} else {
		ctx.Send(pid, req)
	}
}

func (state *MasterOfPuppetsActor) saveAll(ctx actor.Context, replyTo *actor.PID) {
	root := ctx.ActorSystem().Root
	furnaces := make([]*actor.PID, 0, len(state.furnaceActors))
	for _, pid := range state.furnaceActors {
		furnaces = append(furnaces, pid)
	}
	timeout := time.Duration(state.config.Storage.TimeoutMillis) * time.Millisecond
	NewBackgroundTaskNoError(ctx, func() *domain.SaveAllFurnacesResponse {
		var errs []error
		for _, pid := range furnaces {
			res, err := root.RequestFuture(pid, domain.SaveFurnaceRequest{}, timeout).Result()
			if err == nil {
				if resp, ok := res.(domain.ActorResponse); ok {
					err = resp.GetResponseError()
				}
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", pid.Id, err))
			}
		}
		return &domain.SaveAllFurnacesResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: errors.Join(errs...),
			},
			Requested: len(furnaces),
		}
	}).Recover(func(err error) domain.SaveAllFurnacesResponse {
		return domain.SaveAllFurnacesResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
			Requested: len(furnaces),
		}
	}).WithTimeout(SAVE_ALL_TIMEOUT).PipeTo(replyTo)
}

func (state *MasterOfPuppetsActor) children() map[string]*actor.PID {
	children := map[string]*actor.PID{
		domain.ACTOR_ID_STORAGE: state.storageActor,
		domain.ACTOR_ID_MQTT:    state.mqttActor,
	}
	if state.modbusActor != nil {
		children[domain.ACTOR_ID_MODBUS] = state.modbusActor
	}
	for id, pid := range state.furnaceActors {
		children[domain.FurnaceActorId(id)] = pid
	}
	for id, pid := range state.generatorActors {
		children[domain.GeneratorActorId(id)] = pid
	}
	return children
}

func (state *MasterOfPuppetsActor) startStorageActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	storageProps := actor.PropsFromProducer(func() actor.Actor {
		return state.storageActorProvider()
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(storageProps, domain.ACTOR_ID_STORAGE)
}

func (state *MasterOfPuppetsActor) startModbusActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	modbusProps := actor.PropsFromProducer(func() actor.Actor {
		return state.modbusActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	modbusActorPID, err := ctx.SpawnNamed(modbusProps, domain.ACTOR_ID_MODBUS)
	if err != nil {
		return nil, err
	}

	return modbusActorPID, nil
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *MasterOfPuppetsActor) startFurnaceActor(ctx actor.Context, furnaceCfg config.FurnaceConfig) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for furnace %s. reason: %v", furnaceCfg.Id, reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(3, 10*time.Second, decider)

	furnaceProps := actor.PropsFromProducer(func() actor.Actor {
		return NewFurnaceActor(&state.config, furnaceCfg, state.recipes, state.batteries, state.storageActor, state.eventStream, state.metrics, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(furnaceProps, domain.FurnaceActorId(furnaceCfg.Id))
}

func (state *MasterOfPuppetsActor) startGeneratorActor(ctx actor.Context, furnaceCfg config.FurnaceConfig, furnacePID *actor.PID) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for generator %s. reason: %v", furnaceCfg.Id, reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(3, 10*time.Second, decider)

	source, err := service.NewDefaultGenerator(furnaceCfg.Generator, state.logger)
	if err != nil {
		return nil, err
	}

	generatorProps := actor.PropsFromProducer(func() actor.Actor {
		return NewGeneratorActor(&state.config, furnaceCfg.Id, source, furnacePID, state.eventStream, state.metrics, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(generatorProps, domain.GeneratorActorId(furnaceCfg.Id))
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *healthCheckResult) reset() {
	state.expected = map[string]bool{}
	state.healthy = map[string]bool{}
	state.respondTo = nil
}

func (state *healthCheckResult) record(resp domain.ActorHealthResponse) {
	state.healthy[resp.Id] = resp.Healthy
}

func (state *healthCheckResult) allReceived() bool {
	return len(state.healthy) >= len(state.expected)
}

func (state *healthCheckResult) allHealthy() bool {
	for id := range state.expected {
		if !state.healthy[id] {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
