package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/furnace2mqtt/internal/adapter/actor"
	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/internal/core/actor"
	"github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/internal/core/port"
	"github.com/berfenger/furnace2mqtt/internal/metrics"
	"github.com/berfenger/furnace2mqtt/internal/scheduler"
	"github.com/berfenger/furnace2mqtt/internal/server"
	"github.com/berfenger/furnace2mqtt/internal/storage"
	"github.com/berfenger/furnace2mqtt/internal/util/actorutil"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	// open the furnace store before any furnace starts
	store, err := storage.New(context.Background(), cfg.Storage, logger)
	if err != nil {
		logger.Fatal("storage init failed", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}

	m := metrics.New()

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, storageActorProvider(cfg, store, logger),
			modbusActorProvider(cfg, logger), mqttActorProvider(cfg, logger), m, logger)
	})
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		logger.Error("could not spawn master actor", zap.Error(err))
		return
	}

	// periodic save
	storeTimeout := time.Duration(cfg.Storage.TimeoutMillis) * time.Millisecond
	autosave, err := scheduler.NewAutosave(cfg.Storage.AutosaveCron,
		scheduler.NewSaveAllJob(ctx, pid, actor.SAVE_ALL_TIMEOUT, logger), logger)
	if err != nil {
		logger.Fatal("autosave init failed", zap.Error(err))
	}
	schedCtx, cancelSched := context.WithCancel(context.Background())
	if err := autosave.Start(schedCtx); err != nil {
		logger.Fatal("autosave start failed", zap.Error(err))
	}

	server := server.NewServer(*cfg, ctx, pid, m, logger)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	stopCtx, cancelStop := context.WithTimeout(context.Background(), storeTimeout)
	autosave.Stop(stopCtx)
	cancelStop()
	cancelSched()

	// final save before the furnaces stop
	res, err := ctx.RequestFuture(pid, domain.SaveAllFurnacesRequest{}, actor.SAVE_ALL_TIMEOUT).Result()
	if err != nil {
		logger.Error("final save failed", zap.Error(err))
	} else if resp, ok := res.(domain.SaveAllFurnacesResponse); ok && resp.HasResponseError() {
		logger.Error("final save failed", zap.Error(resp.GetResponseError()))
	}

	if err := ctx.StopFuture(pid).Wait(); err != nil {
		logger.Warn("master stop timed out", zap.Error(err))
	}
	as.Shutdown()
}

func storageActorProvider(cfg *config.Config, store port.FurnaceStore, logger *zap.Logger) actor.StorageActorProvider {
	timeout := time.Duration(cfg.Storage.TimeoutMillis) * time.Millisecond
	return func() *adactor.StorageActor {
		return adactor.NewStorageActor(store, timeout, logger)
	}
}

func modbusActorProvider(cfg *config.Config, logger *zap.Logger) actor.ModbusActorProvider {
	if !cfg.Modbus.Enable {
		return nil
	}
	return func(es *eventstream.EventStream) *adactor.ModbusActor {
		return adactor.NewModbusActor(cfg, es, logger)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	if cfg.Storage.DSN != "" {
		cfg.Storage.DSN = "*redacted*"
	}
	slog.Info("Using", "config", cfg)
}
