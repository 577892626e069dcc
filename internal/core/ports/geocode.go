package ports

import (
	"context"
	"iter"

	"github.com/99minutos/tracking-live/internal/core/domain"
)

// GeocodeStore is one cache tier. Implementations must be safe for
// concurrent use.
type GeocodeStore interface {
	// Get reports found=false with a nil error on a miss.
	Get(ctx context.Context, key string) (domain.Coordinates, bool, error)
	Set(ctx context.Context, key string, c domain.Coordinates) error
}

// GeocodeProvider performs free-text place searches against a remote service.
// Candidates come back best match first; an empty slice means no match.
type GeocodeProvider interface {
	Search(ctx context.Context, query string) ([]domain.Coordinates, error)
}

// PlaceResult is one element yielded by ResolveMany.
type PlaceResult struct {
	Resolution domain.Resolution
	Err        error
}

// GeocodeResolver turns place names into coordinates.
type GeocodeResolver interface {
	Resolve(ctx context.Context, place string) (domain.Resolution, error)
	ResolveMany(ctx context.Context, places []string) iter.Seq2[string, PlaceResult]
	Fallback(place string) domain.Coordinates
}
