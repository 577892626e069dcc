package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/99minutos/tracking-live/internal/api/metrics"
	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

const (
	defaultLookupTimeout  = 10 * time.Second
	defaultLookupInterval = time.Second
)

// ResolverOptions tunes the network tier of a GeocodeResolver.
type ResolverOptions struct {
	// LookupTimeout bounds a single provider request. Defaults to 10s.
	LookupTimeout time.Duration
	// MinInterval separates consecutive network lookups issued by ResolveMany.
	// Defaults to 1s.
	MinInterval time.Duration
}

// GeocodeResolver resolves place names through a volatile in-process map,
// an optional durable store and finally the geocoding provider.
type GeocodeResolver struct {
	mu       sync.RWMutex
	volatile map[string]domain.Coordinates

	durable  ports.GeocodeStore
	provider ports.GeocodeProvider
	limiter  *rate.Limiter
	group    singleflight.Group
	timeout  time.Duration
	log      zerolog.Logger
}

var _ ports.GeocodeResolver = (*GeocodeResolver)(nil)

// NewGeocodeResolver wires a resolver. durable may be nil, in which case only
// the volatile tier caches results.
func NewGeocodeResolver(durable ports.GeocodeStore, provider ports.GeocodeProvider, opts ResolverOptions, log zerolog.Logger) *GeocodeResolver {
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = defaultLookupTimeout
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = defaultLookupInterval
	}
	return &GeocodeResolver{
		volatile: make(map[string]domain.Coordinates),
		durable:  durable,
		provider: provider,
		limiter:  rate.NewLimiter(rate.Every(opts.MinInterval), 1),
		timeout:  opts.LookupTimeout,
		log:      log,
	}
}

// Resolve returns coordinates for place. Every failure, including an empty
// place, is reported as domain.ErrNotFound.
func (r *GeocodeResolver) Resolve(ctx context.Context, place string) (domain.Resolution, error) {
	if isBlank(place) {
		return domain.Resolution{}, fmt.Errorf("resolve: empty place: %w", domain.ErrNotFound)
	}
	if res, ok := r.cached(ctx, place); ok {
		return res, nil
	}
	return r.network(ctx, place)
}

// ResolveMany lazily resolves places in order. Network lookups are paced by
// the resolver's limiter; cache hits are yielded without delay. The returned
// sequence can be ranged over once; later ranges yield nothing.
func (r *GeocodeResolver) ResolveMany(ctx context.Context, places []string) iter.Seq2[string, ports.PlaceResult] {
	places = slices.Clone(places)
	var consumed atomic.Bool

	return func(yield func(string, ports.PlaceResult) bool) {
		if !consumed.CompareAndSwap(false, true) {
			return
		}
		for _, place := range places {
			if ctx.Err() != nil {
				return
			}
			res, err := r.resolvePaced(ctx, place)
			if !yield(place, ports.PlaceResult{Resolution: res, Err: err}) {
				return
			}
		}
	}
}

// Fallback returns approximate coordinates for place without any lookup.
func (r *GeocodeResolver) Fallback(place string) domain.Coordinates {
	return domain.FallbackCoordinates(place)
}

func (r *GeocodeResolver) resolvePaced(ctx context.Context, place string) (domain.Resolution, error) {
	if isBlank(place) {
		return domain.Resolution{}, fmt.Errorf("resolve: empty place: %w", domain.ErrNotFound)
	}
	if res, ok := r.cached(ctx, place); ok {
		return res, nil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.Resolution{}, fmt.Errorf("resolve %q: %w: %w", place, domain.ErrNotFound, err)
	}
	return r.network(ctx, place)
}

// cached consults the volatile tier and then the durable tier, backfilling
// the volatile tier on a durable hit.
func (r *GeocodeResolver) cached(ctx context.Context, place string) (domain.Resolution, bool) {
	key := domain.GeocodeKey(place)

	r.mu.RLock()
	c, ok := r.volatile[place]
	r.mu.RUnlock()
	if ok {
		metrics.GeocodeLookupsTotal.WithLabelValues(string(domain.OriginMemory)).Inc()
		return domain.Resolution{QueryKey: key, Coordinates: c, Origin: domain.OriginMemory}, true
	}

	if r.durable == nil {
		return domain.Resolution{}, false
	}
	c, ok, err := r.durable.Get(ctx, key)
	if err != nil {
		r.log.Warn().Err(err).Str("place", place).Msg("durable geocode read failed")
		return domain.Resolution{}, false
	}
	if !ok {
		return domain.Resolution{}, false
	}
	r.remember(place, c)
	metrics.GeocodeLookupsTotal.WithLabelValues(string(domain.OriginPersistent)).Inc()
	return domain.Resolution{QueryKey: key, Coordinates: c, Origin: domain.OriginPersistent}, true
}

// network performs the provider lookup. Concurrent lookups of the same key
// share one request; a caller that gives up stops waiting but the request
// runs to completion and still fills the caches.
func (r *GeocodeResolver) network(ctx context.Context, place string) (domain.Resolution, error) {
	key := domain.GeocodeKey(place)
	if err := ctx.Err(); err != nil {
		return domain.Resolution{}, fmt.Errorf("resolve %q: %w: %w", place, domain.ErrNotFound, err)
	}

	ch := r.group.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.lookup(lookupCtx, place, key)
	})

	select {
	case <-ctx.Done():
		return domain.Resolution{}, fmt.Errorf("resolve %q: %w: %w", place, domain.ErrNotFound, ctx.Err())
	case out := <-ch:
		if out.Err != nil {
			metrics.GeocodeLookupsTotal.WithLabelValues("not_found").Inc()
			return domain.Resolution{}, out.Err
		}
		c := out.Val.(domain.Coordinates)
		r.remember(place, c)
		metrics.GeocodeLookupsTotal.WithLabelValues(string(domain.OriginNetwork)).Inc()
		return domain.Resolution{QueryKey: key, Coordinates: c, Origin: domain.OriginNetwork}, nil
	}
}

func (r *GeocodeResolver) lookup(ctx context.Context, place, key string) (domain.Coordinates, error) {
	start := time.Now()
	candidates, err := r.provider.Search(ctx, strings.TrimSpace(place))
	switch {
	case err != nil:
		metrics.GeocodeNetworkDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		r.log.Debug().Err(err).Str("place", place).Msg("geocode lookup failed")
		return domain.Coordinates{}, fmt.Errorf("resolve %q: %w: %w", place, domain.ErrNotFound, err)
	case len(candidates) == 0 || !validCoordinates(candidates[0]):
		metrics.GeocodeNetworkDuration.WithLabelValues("empty").Observe(time.Since(start).Seconds())
		return domain.Coordinates{}, fmt.Errorf("resolve %q: %w", place, domain.ErrNotFound)
	}
	metrics.GeocodeNetworkDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	c := candidates[0]
	r.remember(place, c)
	if r.durable != nil {
		if err := r.durable.Set(ctx, key, c); err != nil {
			metrics.GeocodeCacheWriteErrorsTotal.Inc()
			r.log.Warn().
				Err(errors.Join(domain.ErrCacheWrite, err)).
				Str("place", place).
				Msg("durable geocode write failed")
		}
	}
	return c, nil
}

func (r *GeocodeResolver) remember(place string, c domain.Coordinates) {
	r.mu.Lock()
	r.volatile[place] = c
	r.mu.Unlock()
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func validCoordinates(c domain.Coordinates) bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}
