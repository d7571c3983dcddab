package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/internal/mqtt"
	"github.com/berfenger/furnace2mqtt/internal/observer"

	pmqtt "github.com/eclipse/paho.mqtt.golang"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

const MQTT_TIMEOUT = 5 * time.Second

func main() {

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	obs, err := observer.New(cfg, logger)
	if err != nil {
		logger.Fatal("observer init failed", zap.Error(err))
	}

	var client *mqtt.MQTTClient
	onSync := func(_ pmqtt.Client, msg pmqtt.Message) {
		furnaceId, ok := client.SyncFurnaceId(msg.Topic())
		if !ok {
			return
		}
		if _, err := obs.Apply(furnaceId, msg.Payload()); err != nil {
			logger.Warn("observer: packet discarded", zap.String("topic", msg.Topic()), zap.Error(err))
		}
	}
	// subscriptions are lost on reconnect, so subscribe on every connect
	onConnect := func(pmqtt.Client) {
		logger.Info("observer: connected")
		client.SubscribeToSyncTopic(onSync, func(err error) {
			if err != nil {
				logger.Error("observer: subscribe failed", zap.Error(err))
			}
		}, MQTT_TIMEOUT)
	}
	onLost := func(_ pmqtt.Client, err error) {
		logger.Warn("observer: connection lost", zap.Error(err))
	}
	client = mqtt.CreateMQTTClient(cfg, mqtt.ObserverOptsFromConfig(cfg), onConnect, onLost)

	connected := make(chan error, 1)
	client.Connect(func(err error) { connected <- err }, MQTT_TIMEOUT)
	if err := <-connected; err != nil {
		logger.Fatal("observer: connect failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("observer: shutting down")
	client.Disconnect(time.Second)
}
