package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/internal/core/port"
	"github.com/berfenger/furnace2mqtt/internal/util/actorutil"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// StorageActor serializes furnace record I/O against a port.FurnaceStore.
// Each operation runs in the background while the actor stashes everything else.
type StorageActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	store    port.FurnaceStore
	timeout  time.Duration
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewStorageActor(store port.FurnaceStore, timeout time.Duration, logger *zap.Logger) *StorageActor {
	act := &StorageActor{
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		store:    store,
		timeout:  timeout,
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_STORAGE, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *StorageActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *StorageActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("storage@default started")
	case *actor.Stopping:
		state.close()
	case domain.ActorHealthRequest:
		state.logger.Debug("storage@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_STORAGE,
			Healthy: true,
			State:   "idle",
		})
	case domain.LoadFurnaceRecordRequest:
		state.logger.Debug("storage@default LoadFurnaceRecordRequest", zap.String("furnace", msg.Id))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		id := msg.Id
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.LoadFurnaceRecordResponse, error) {
			return state.load(id)
		}), mapTaskResult[domain.LoadFurnaceRecordResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.LoadFurnaceRecordResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
					Id: id,
				},
				replyTo: sender,
			}
		}).WithTimeout(state.timeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingStore)
	case domain.StoreFurnaceRecordRequest:
		state.logger.Debug("storage@default StoreFurnaceRecordRequest", zap.String("furnace", msg.Id))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		id := msg.Id
		record := msg.Record
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.StoreFurnaceRecordResponse, error) {
			return state.save(id, record)
		}), mapTaskResult[domain.StoreFurnaceRecordResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.StoreFurnaceRecordResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
					Id: id,
				},
				replyTo: sender,
			}
		}).WithTimeout(state.timeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingStore)
	default:
		state.logger.Debug("storage@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *StorageActor) WaitingStore(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("storage@waiting backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, msg.message)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.close()
	default:
		state.logger.Debug("storage@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *StorageActor) load(id string) (*domain.LoadFurnaceRecordResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), state.timeout)
	defer cancel()
	record, err := state.store.Load(ctx, id)
	if err != nil {
		state.logger.Error("storage: load failed", zap.String("furnace", id), zap.Error(err))
		return nil, err
	}
	return &domain.LoadFurnaceRecordResponse{Id: id, Record: record}, nil
}

func (state *StorageActor) save(id string, record furnace.Record) (*domain.StoreFurnaceRecordResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), state.timeout)
	defer cancel()
	if err := state.store.Save(ctx, id, record); err != nil {
		state.logger.Error("storage: save failed", zap.String("furnace", id), zap.Error(err))
		return nil, err
	}
	return &domain.StoreFurnaceRecordResponse{Id: id}, nil
}

func (state *StorageActor) close() {
	if err := state.store.Close(); err != nil {
		state.logger.Warn("storage: close failed", zap.Error(err))
	}
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
