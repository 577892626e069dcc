package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/tracking-live/internal/api/metrics"
	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

// DedupChecker abstracts the idempotency store (Redis).
type DedupChecker interface {
	IsDuplicate(ctx context.Context, trackingNumber, status string, ts time.Time) (bool, error)
	Mark(ctx context.Context, trackingNumber, status string, ts time.Time) error
}

type eventService struct {
	recorder  ports.EventRecorder
	publisher ports.DeltaPublisher
	dedup     DedupChecker
	log       zerolog.Logger
}

// NewEventService returns an EventService that records accepted events and
// fans them out through publisher. recorder and dedup may be nil.
func NewEventService(
	recorder ports.EventRecorder,
	publisher ports.DeltaPublisher,
	dedup DedupChecker,
	log zerolog.Logger,
) ports.EventService {
	return &eventService{
		recorder:  recorder,
		publisher: publisher,
		dedup:     dedup,
		log:       log,
	}
}

// Process normalizes, deduplicates, and publishes a single tracking event.
// Unknown statuses are rejected with domain.ErrInvalidStatus whatever the
// ingestion path.
func (s *eventService) Process(ctx context.Context, in ports.TrackingEventInput) error {
	start := time.Now()

	key, ok := domain.NormalizeTrackingNumber(in.TrackingNumber)
	if !ok {
		metrics.EventsErrorsTotal.WithLabelValues("invalid_tracking_number").Inc()
		return fmt.Errorf("process event: %w", domain.ErrInvalidTrackingNumber)
	}
	in.TrackingNumber = key
	if !domain.ShipmentStatus(in.Status).IsKnown() {
		metrics.EventsErrorsTotal.WithLabelValues("invalid_status").Inc()
		return fmt.Errorf("process event %s: status %q: %w", key, in.Status, domain.ErrInvalidStatus)
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = start
	}
	// Stored timestamps have millisecond precision; truncate so live deltas
	// and fetched history deduplicate against each other.
	in.Timestamp = in.Timestamp.UTC().Truncate(time.Millisecond)

	// Duplicates are skipped silently.
	if s.dedup != nil {
		isDup, err := s.dedup.IsDuplicate(ctx, key, in.Status, in.Timestamp)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("tracking", key).Msg("dedup check failed, processing anyway")
		case isDup:
			metrics.EventsDedupTotal.WithLabelValues("hit").Inc()
			s.log.Debug().Str("tracking", key).Str("status", in.Status).Msg("duplicate event skipped")
			return nil
		default:
			metrics.EventsDedupTotal.WithLabelValues("miss").Inc()
		}
	}

	delta := in.Delta()
	if s.recorder != nil {
		if err := s.recorder.ApplyDelta(ctx, delta); err != nil {
			reason := "update_failed"
			if errors.Is(err, domain.ErrShipmentNotFound) {
				reason = "shipment_not_found"
			}
			metrics.EventsErrorsTotal.WithLabelValues(reason).Inc()
			return fmt.Errorf("process event: %w", err)
		}
		if err := s.recorder.InsertEvent(ctx, delta, in.Source); err != nil {
			s.log.Warn().Err(err).Str("tracking", key).Msg("failed to insert audit event")
		}
	}

	// Mark before publishing so a retry of the same event is not fanned out twice.
	if s.dedup != nil {
		if err := s.dedup.Mark(ctx, key, in.Status, in.Timestamp); err != nil {
			s.log.Warn().Err(err).Str("tracking", key).Msg("failed to set dedup key")
		}
	}

	if err := s.publisher.Publish(ctx, delta); err != nil {
		metrics.EventsErrorsTotal.WithLabelValues("publish_failed").Inc()
		metrics.EventProcessingDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("process event: publish: %w", err)
	}

	metrics.EventsProcessedTotal.WithLabelValues(in.Status, in.Source).Inc()
	metrics.EventProcessingDuration.WithLabelValues(in.Status).Observe(time.Since(start).Seconds())

	s.log.Info().
		Str("tracking", key).
		Str("status", in.Status).
		Str("source", in.Source).
		Msg("event published")

	return nil
}
