package cli

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/99minutos/tracking-live/internal/core/ports"
	"github.com/99minutos/tracking-live/internal/core/service"
	"github.com/99minutos/tracking-live/internal/infrastructure/db/sqlite"
	"github.com/99minutos/tracking-live/internal/infrastructure/geocoding"
)

// geocoderOptions configures the local resolver used by resolve, distance
// and watch --locate.
type geocoderOptions struct {
	URL         string
	UserAgent   string
	Cache       string
	Timeout     time.Duration
	MinInterval time.Duration
}

func addGeocoderFlags(cmd *cobra.Command, g *geocoderOptions) {
	cmd.Flags().StringVar(&g.URL, "geocoder-url", geocoding.DefaultBaseURL, "Nominatim-compatible search endpoint")
	cmd.Flags().StringVar(&g.UserAgent, "user-agent", geocoding.DefaultUserAgent, "User-Agent sent to the geocoder")
	cmd.Flags().StringVar(&g.Cache, "cache", "", "sqlite file used as durable geocode cache (disabled when empty)")
	cmd.Flags().DurationVar(&g.Timeout, "timeout", 10*time.Second, "per-lookup timeout")
	cmd.Flags().DurationVar(&g.MinInterval, "min-interval", time.Second, "minimum spacing between network lookups")
}

// open builds a resolver. The returned func releases the cache.
func (g *geocoderOptions) open(log zerolog.Logger) (*service.GeocodeResolver, func(), error) {
	var (
		store   ports.GeocodeStore
		release = func() {}
	)
	if g.Cache != "" {
		s, err := sqlite.Open(g.Cache, "")
		if err != nil {
			return nil, nil, err
		}
		store = s
		release = func() { _ = s.Close() }
	}

	provider := geocoding.NewNominatim(geocoding.Options{
		BaseURL:     g.URL,
		UserAgent:   g.UserAgent,
		MaxAttempts: 2,
	})
	r := service.NewGeocodeResolver(store, provider, service.ResolverOptions{
		LookupTimeout: g.Timeout,
		MinInterval:   g.MinInterval,
	}, log)
	return r, release, nil
}
