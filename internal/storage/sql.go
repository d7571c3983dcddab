package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/berfenger/furnace2mqtt/internal/core/port"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var sqlOpen = sql.Open

type dialect struct {
	driver string
	schema string
	upsert string
	query  string
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS furnace_state (
		id TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	upsert: `INSERT INTO furnace_state (id, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
	query: `SELECT payload FROM furnace_state WHERE id = ?`,
}

var postgresDialect = dialect{
	driver: "pgx",
	schema: `CREATE TABLE IF NOT EXISTS furnace_state (
		id TEXT PRIMARY KEY,
		payload BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	upsert: `INSERT INTO furnace_state (id, payload, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
	query: `SELECT payload FROM furnace_state WHERE id = $1`,
}

// SQLStore keeps one row per furnace with the encoded record as payload.
// It backs both the sqlite and the postgres drivers.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

func NewSQLiteStore(ctx context.Context, path string, logger *zap.Logger) (*SQLStore, error) {
	if path == "" {
		return nil, errors.New("sqlite store needs a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	return openSQLStore(ctx, sqliteDialect, path, logger)
}

func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres store needs a dsn")
	}
	return openSQLStore(ctx, postgresDialect, dsn, logger)
}

func openSQLStore(ctx context.Context, d dialect, dsn string, logger *zap.Logger) (*SQLStore, error) {
	db, err := sqlOpen(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if d.driver == sqliteDialect.driver {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	logger.Info("sql store ready", zap.String("driver", d.driver))
	return &SQLStore{db: db, dialect: d, logger: logger}, nil
}

func (s *SQLStore) Save(ctx context.Context, id string, record furnace.Record) error {
	data, err := record.Marshal()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.dialect.upsert, id, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save furnace %s: %w", id, err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, id string) (*furnace.Record, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, s.dialect.query, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load furnace %s: %w", id, err)
	}
	return decode(data)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// ensure interface compliance
var _ port.FurnaceStore = (*SQLStore)(nil)
