package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS geocode_cache (
    query_key  TEXT PRIMARY KEY,
    lat        DOUBLE PRECISION NOT NULL,
    lon        DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Open connects to Postgres through the pgx stdlib driver and verifies the
// connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("verify postgres connection: %w", err)
	}
	return db, nil
}

// GeocodeStore is a SQL-backed durable geocode tier.
type GeocodeStore struct {
	DB     *sql.DB
	prefix string
}

var _ ports.GeocodeStore = (*GeocodeStore)(nil)

func NewGeocodeStore(db *sql.DB, prefix string) *GeocodeStore {
	return &GeocodeStore{DB: db, prefix: prefix}
}

// EnsureSchema creates the cache table when missing.
func (s *GeocodeStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create geocode_cache: %w", err)
	}
	return nil
}

func (s *GeocodeStore) Get(ctx context.Context, key string) (domain.Coordinates, bool, error) {
	if s.DB == nil {
		return domain.Coordinates{}, false, errors.New("geocode cache: db is nil")
	}

	var c domain.Coordinates
	err := s.DB.QueryRowContext(ctx,
		`SELECT lat, lon FROM geocode_cache WHERE query_key = $1`,
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
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO geocode_cache (query_key, lat, lon)
	VALUES ($1, $2, $3)
	ON CONFLICT (query_key) DO UPDATE
	SET lat = EXCLUDED.lat,
		lon = EXCLUDED.lon;
	`, s.prefix+key, c.Lat, c.Lon)
	if err != nil {
		return fmt.Errorf("insert geocode cache key=%q: %w", key, err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *GeocodeStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}
