package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

type TimelineService struct {
	backend ports.ShipmentBackend
	logger  zerolog.Logger
}

var _ ports.TimelineService = (*TimelineService)(nil)

func NewTimelineService(backend ports.ShipmentBackend, logger zerolog.Logger) *TimelineService {
	return &TimelineService{backend: backend, logger: logger}
}

// Timeline fetches a shipment and its event history and reduces them into a
// view. History is collapsed unless expanded is set.
func (s *TimelineService) Timeline(ctx context.Context, trackingNumber string, expanded bool) (*domain.TrackingView, error) {
	shipment, err := loadShipment(ctx, s.backend, trackingNumber, s.logger)
	if err != nil {
		return nil, err
	}
	view := domain.BuildTrackingView(*shipment, expanded)
	return &view, nil
}

// loadShipment fetches the shipment and merges the audit trail into its
// embedded history. A failed history read is logged and the embedded history
// is used as-is.
func loadShipment(ctx context.Context, backend ports.ShipmentBackend, trackingNumber string, log zerolog.Logger) (*domain.Shipment, error) {
	key, ok := domain.NormalizeTrackingNumber(trackingNumber)
	if !ok {
		return nil, fmt.Errorf("load shipment %q: %w", trackingNumber, domain.ErrInvalidTrackingNumber)
	}

	shipment, err := backend.GetShipmentByTrackingNumber(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load shipment %s: %w", key, err)
	}

	events, err := backend.GetEventHistory(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("tracking", key).Msg("event history unavailable, using embedded history")
	}

	out := shipment.Clone()
	out.TrackingNumber = key
	out.History = domain.MergeHistory(out.History, events)
	return &out, nil
}
