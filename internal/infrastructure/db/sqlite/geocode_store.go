package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

//go:embed schema.sql
var schemaSQL string

// GeocodeStore is a file-backed durable geocode tier.
// Uses SQLite in WAL mode with a single writer connection.
type GeocodeStore struct {
	db     *sql.DB
	prefix string
}

var _ ports.GeocodeStore = (*GeocodeStore)(nil)

// Open creates or opens the database at path and applies the schema.
// Keys are stored with prefix prepended so several caches can share a file.
func Open(path, prefix string) (*GeocodeStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlite %s: %w", path, err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &GeocodeStore{db: db, prefix: prefix}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func (s *GeocodeStore) Get(ctx context.Context, key string) (domain.Coordinates, bool, error) {
	var c domain.Coordinates
	err := s.db.QueryRowContext(ctx,
		`SELECT lat, lon FROM geocode_cache WHERE query_key = ?`,
		s.prefix+key,
	).Scan(&c.Lat, &c.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Coordinates{}, false, nil
	}
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("get geocode cache: %w", err)
	}
	return c, true, nil
}

func (s *GeocodeStore) Set(ctx context.Context, key string, c domain.Coordinates) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT OR REPLACE INTO geocode_cache (query_key, lat, lon, created_at)
	VALUES (?, ?, ?, ?);
	`, s.prefix+key, c.Lat, c.Lon, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert geocode cache key=%q: %w", key, err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *GeocodeStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *GeocodeStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
