package port

import (
	"context"

	"github.com/berfenger/furnace2mqtt/pkg/furnace"
)

// FurnaceStore persists furnace records by furnace id. Load returns a nil record when none exists.
type FurnaceStore interface {
	Save(ctx context.Context, id string, record furnace.Record) error
	Load(ctx context.Context, id string) (*furnace.Record, error)
	Close() error
}
