package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/internal/metrics"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const REQUEST_TIMEOUT = 5 * time.Second

type Server struct {
	port        uint
	httpLog     bool
	furnaceIds  []string
	rootContext *actor.RootContext
	masterActor *actor.PID
	metrics     *metrics.Metrics
	timeout     time.Duration
	logger      *zap.Logger
}

func newServer(cfg config.Config, rootContext *actor.RootContext, masterActor *actor.PID, m *metrics.Metrics, logger *zap.Logger) *Server {
	ids := make([]string, 0, len(cfg.Furnaces))
	for _, f := range cfg.Furnaces {
		ids = append(ids, f.Id)
	}
	return &Server{
		port:        cfg.Port,
		rootContext: rootContext,
		masterActor: masterActor,
		httpLog:     cfg.HttpLog,
		furnaceIds:  ids,
		metrics:     m,
		timeout:     REQUEST_TIMEOUT,
		logger:      logger.With(zap.String("component", "http")),
	}
}

func NewServer(cfg config.Config, rootContext *actor.RootContext, masterActor *actor.PID, m *metrics.Metrics, logger *zap.Logger) *http.Server {
	NewServer := newServer(cfg, rootContext, masterActor, m, logger)

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
