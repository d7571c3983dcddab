package actorutil

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/internal/mqtt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel:
		slogLevel = slog.LevelError
	case zap.PanicLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {

		// create a new logger
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.ActorRequest, error) {
	switch cmd.Command {
	case mqtt.COMMAND_SWITCH:
		furnaceId, ok := strings.CutSuffix(cmd.DeviceId, "_"+domain.SWITCH_SUFFIX_DISABLE)
		if !ok || furnaceId == "" {
			return nil, nil
		}
		return domain.DisableFurnaceRequest{
			FurnaceRequestMixIn: domain.ForFurnace(furnaceId),
			Disable:             cmd.Payload == mqtt.MQTT_PAYLOAD_ON,
		}, nil
	case mqtt.COMMAND_NUMBER:
		furnaceId, ok := strings.CutSuffix(cmd.DeviceId, "_"+domain.INPUT_NUMBER_SUFFIX_GENERATOR_POW)
		if !ok || furnaceId == "" {
			return nil, nil
		}
		value, err := strconv.ParseFloat(cmd.Payload, 64)
		if err != nil {
			return nil, err
		}
		if value < 0 {
			return nil, fmt.Errorf("invalid generator power %v", value)
		}
		return domain.SetGeneratorPowerRequest{
			FurnaceRequestMixIn: domain.ForFurnace(furnaceId),
			Watts:               value,
		}, nil
	}
	return nil, nil
}
