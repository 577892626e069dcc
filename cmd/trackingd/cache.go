package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/99minutos/tracking-live/internal/api/handler"
	"github.com/99minutos/tracking-live/internal/core/ports"
	"github.com/99minutos/tracking-live/internal/infrastructure/db/postgres"
	"github.com/99minutos/tracking-live/internal/infrastructure/db/redis"
	"github.com/99minutos/tracking-live/internal/infrastructure/db/sqlite"
	"github.com/99minutos/tracking-live/internal/pkg/config"
)

// geocodeCache is the durable geocode tier selected by configuration. store
// is nil for the "none" backend.
type geocodeCache struct {
	store ports.GeocodeStore
	probe handler.Probe
	close func()
}

func openGeocodeCache(ctx context.Context, cfg config.CacheConfig, rdb *goredis.Client) (geocodeCache, error) {
	noop := func() {}

	switch cfg.Backend {
	case config.CacheRedis:
		return geocodeCache{store: redis.NewGeocodeStore(rdb, cfg.Prefix), close: noop}, nil

	case config.CacheSQLite:
		s, err := sqlite.Open(cfg.SQLitePath, cfg.Prefix)
		if err != nil {
			return geocodeCache{}, err
		}
		return geocodeCache{store: s, probe: s.Ping, close: func() { _ = s.Close() }}, nil

	case config.CachePostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return geocodeCache{}, err
		}
		s := postgres.NewGeocodeStore(db, cfg.Prefix)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return geocodeCache{}, err
		}
		return geocodeCache{store: s, probe: s.Ping, close: func() { _ = db.Close() }}, nil

	case config.CacheNone:
		return geocodeCache{close: noop}, nil
	}
	return geocodeCache{}, fmt.Errorf("unknown geocode cache backend %q", cfg.Backend)
}
