package ports

import (
	"context"
	"time"

	"github.com/99minutos/tracking-live/internal/core/domain"
)

// TrackingEventInput is the DTO passed from the transport layer to EventService.
type TrackingEventInput struct {
	TrackingNumber string
	Status         string
	Location       string
	Note           string
	Timestamp      time.Time
	Source         string
}

// Delta converts the input into the delta fanned out to subscribers.
func (in TrackingEventInput) Delta() domain.Delta {
	return domain.Delta{
		TrackingNumber: in.TrackingNumber,
		Status:         domain.ShipmentStatus(in.Status),
		Location:       in.Location,
		Note:           in.Note,
		Timestamp:      in.Timestamp,
	}
}

// EventService processes incoming tracking events.
type EventService interface {
	Process(ctx context.Context, event TrackingEventInput) error
}

// EventRecorder persists accepted events in the shipment backend.
type EventRecorder interface {
	// ApplyDelta updates the shipment projection and appends a history entry.
	// It returns domain.ErrShipmentNotFound for unknown tracking numbers.
	ApplyDelta(ctx context.Context, delta domain.Delta) error
	// InsertEvent writes the delta to the status event audit trail.
	InsertEvent(ctx context.Context, delta domain.Delta, source string) error
}

// DeltaPublisher delivers a delta to every subscriber of its tracking number.
type DeltaPublisher interface {
	Publish(ctx context.Context, delta domain.Delta) error
}
