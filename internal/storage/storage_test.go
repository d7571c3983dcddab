package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/internal/core/port"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleRecord() furnace.Record {
	return furnace.Record{
		ElectricityStored: 640.5,
		SmeltingTicks:     42,
		Items: []furnace.SlotRecord{
			{Slot: 0, ID: "iron_ore", Count: 12},
			{Slot: 2, ID: "battery", Count: 1, Charge: 3000},
		},
	}
}

// exerciseStore runs the contract every driver must honor
func exerciseStore(t *testing.T, store port.FurnaceStore) {
	require := require.New(t)
	ctx := context.Background()

	missing, err := store.Load(ctx, "furnace_missing")
	require.NoError(err)
	require.Nil(missing)

	require.NoError(store.Save(ctx, "furnace_1", sampleRecord()))
	loaded, err := store.Load(ctx, "furnace_1")
	require.NoError(err)
	require.NotNil(loaded)
	require.Equal(sampleRecord(), *loaded)

	// overwrite
	updated := sampleRecord()
	updated.ElectricityStored = -3
	updated.Items = []furnace.SlotRecord{}
	require.NoError(store.Save(ctx, "furnace_1", updated))
	loaded, err = store.Load(ctx, "furnace_1")
	require.NoError(err)
	require.Equal(-3.0, loaded.ElectricityStored)
	require.Empty(loaded.Items)
	require.Equal(int32(42), loaded.SmeltingTicks)

	require.NoError(store.Close())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {

	assert := assert.New(t)

	dir := filepath.Join(t.TempDir(), "state")
	store, err := NewFileStore(dir, zap.NewNop())
	require.NoError(t, err)
	exerciseStore(t, store)

	entries, err := os.ReadDir(dir)
	assert.NoError(err)
	assert.Len(entries, 1)
	assert.Equal("furnace_1.json", entries[0].Name())

	_, err = store.Load(context.Background(), "../escape")
	assert.Error(err)
}

func TestFileStoreCorruptRecord(t *testing.T) {

	assert := assert.New(t)

	dir := t.TempDir()
	store, err := NewFileStore(dir, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "furnace_1.json"), []byte("{not json"), 0o600))

	record, err := store.Load(context.Background(), "furnace_1")
	assert.Error(err)
	assert.Nil(record)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "furnaces.db")
	store, err := NewSQLiteStore(context.Background(), path, zap.NewNop())
	require.NoError(t, err)
	exerciseStore(t, store)

	// records survive reopening the database
	reopened, err := NewSQLiteStore(context.Background(), path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()
	loaded, err := reopened.Load(context.Background(), "furnace_1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, -3.0, loaded.ElectricityStored)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("FURNACE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FURNACE_TEST_POSTGRES_DSN not set")
	}
	store, err := NewPostgresStore(context.Background(), dsn, zap.NewNop())
	require.NoError(t, err)
	exerciseStore(t, store)
}

func TestPostgresStoreOpenError(t *testing.T) {

	assert := assert.New(t)

	_, err := NewPostgresStore(context.Background(), "", zap.NewNop())
	assert.Error(err)

	var openedDriver string
	orig := sqlOpen
	defer func() { sqlOpen = orig }()
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		openedDriver = driver
		return nil, errors.New("boom")
	}
	_, err = NewPostgresStore(context.Background(), "postgres://localhost/furnaces", zap.NewNop())
	assert.ErrorContains(err, "boom")
	assert.Equal("pgx", openedDriver)
}

func TestNew(t *testing.T) {

	assert := assert.New(t)
	ctx := context.Background()

	store, err := New(ctx, config.StorageConfig{Driver: config.STORAGE_DRIVER_MEMORY}, zap.NewNop())
	assert.NoError(err)
	assert.IsType(&MemoryStore{}, store)

	store, err = New(ctx, config.StorageConfig{Driver: config.STORAGE_DRIVER_FILE, Path: t.TempDir()}, zap.NewNop())
	assert.NoError(err)
	assert.IsType(&FileStore{}, store)

	_, err = New(ctx, config.StorageConfig{Driver: config.STORAGE_DRIVER_S3}, zap.NewNop())
	assert.Error(err)

	_, err = New(ctx, config.StorageConfig{Driver: "floppy"}, zap.NewNop())
	assert.Error(err)
}
