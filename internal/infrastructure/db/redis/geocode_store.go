package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

// DefaultGeocodePrefix namespaces geocode keys.
const DefaultGeocodePrefix = "geocode:"

// GeocodeStore is the durable geocode tier backed by Redis.
// Key format: <prefix><lower-cased place>; values are msgpack-encoded
// coordinates and never expire.
type GeocodeStore struct {
	client *redis.Client
	prefix string
}

var _ ports.GeocodeStore = (*GeocodeStore)(nil)

// NewGeocodeStore wraps client. An empty prefix selects DefaultGeocodePrefix.
func NewGeocodeStore(client *redis.Client, prefix string) *GeocodeStore {
	if prefix == "" {
		prefix = DefaultGeocodePrefix
	}
	return &GeocodeStore{client: client, prefix: prefix}
}

func (s *GeocodeStore) Get(ctx context.Context, key string) (domain.Coordinates, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Coordinates{}, false, nil
	}
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("geocode get: %w", err)
	}

	var c domain.Coordinates
	if err := msgpack.Unmarshal(raw, &c); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("geocode decode %q: %w", key, err)
	}
	return c, true, nil
}

func (s *GeocodeStore) Set(ctx context.Context, key string, c domain.Coordinates) error {
	raw, err := msgpack.Marshal(c)
	if err != nil {
		return fmt.Errorf("geocode encode: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key, raw, 0).Err(); err != nil {
		return fmt.Errorf("geocode set: %w", err)
	}
	return nil
}
