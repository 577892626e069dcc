package ports

import (
	"context"

	"github.com/99minutos/tracking-live/internal/core/domain"
)

// ShipmentRepository fetches shipments from the backend that owns them.
type ShipmentRepository interface {
	// GetShipmentByTrackingNumber returns domain.ErrShipmentNotFound when no
	// shipment has the given tracking number.
	GetShipmentByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error)
}

// EventRepository reads the status event audit trail.
type EventRepository interface {
	GetEventHistory(ctx context.Context, trackingNumber string) ([]domain.HistoryEntry, error)
}

// ShipmentBackend is the full fetch contract consumed by the tracker.
type ShipmentBackend interface {
	ShipmentRepository
	EventRepository
}

// TimelineService builds timeline views straight from the backend.
type TimelineService interface {
	Timeline(ctx context.Context, trackingNumber string, expanded bool) (*domain.TrackingView, error)
}
