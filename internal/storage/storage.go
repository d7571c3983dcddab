package storage

import (
	"context"
	"fmt"

	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/internal/core/port"

	"go.uber.org/zap"
)

// New opens the furnace store selected by storage.driver
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (port.FurnaceStore, error) {
	logger = logger.With(zap.String("storage", cfg.Driver))
	switch cfg.Driver {
	case "", config.STORAGE_DRIVER_MEMORY:
		return NewMemoryStore(), nil
	case config.STORAGE_DRIVER_FILE:
		return NewFileStore(cfg.Path, logger)
	case config.STORAGE_DRIVER_SQLITE:
		return NewSQLiteStore(ctx, cfg.Path, logger)
	case config.STORAGE_DRIVER_POSTGRES:
		return NewPostgresStore(ctx, cfg.DSN, logger)
	case config.STORAGE_DRIVER_S3:
		return NewS3Store(ctx, cfg.S3, logger)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
