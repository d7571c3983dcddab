package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/internal/core/port"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"go.uber.org/zap"
)

// FileStore writes one JSON document per furnace into a directory
type FileStore struct {
	dir    string
	logger *zap.Logger
}

func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store needs a directory")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) path(id string) (string, error) {
	if _, err := config.CheckMQTTTopic(id); err != nil {
		return "", fmt.Errorf("invalid furnace id %q", id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

func (s *FileStore) Save(ctx context.Context, id string, record furnace.Record) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	data, err := record.Marshal()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	// write and rename so a crash never leaves a truncated record
	tmp, err := os.CreateTemp(s.dir, id+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	s.logger.Debug("file store: save", zap.String("path", path))
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) Load(ctx context.Context, id string) (*furnace.Record, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func (s *FileStore) Close() error {
	return nil
}

// ensure interface compliance
var _ port.FurnaceStore = (*FileStore)(nil)
