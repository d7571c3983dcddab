package storage

import (
	"context"
	"sync"

	"github.com/berfenger/furnace2mqtt/internal/core/port"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"
)

// MemoryStore keeps encoded records in memory. Records do not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string][]byte{}}
}

func (s *MemoryStore) Save(_ context.Context, id string, record furnace.Record) error {
	data, err := record.Marshal()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = data
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (*furnace.Record, error) {
	s.mu.RLock()
	data, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decode(data)
}

func (s *MemoryStore) Close() error {
	return nil
}

func decode(data []byte) (*furnace.Record, error) {
	record, err := furnace.UnmarshalRecord(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ensure interface compliance
var _ port.FurnaceStore = (*MemoryStore)(nil)
