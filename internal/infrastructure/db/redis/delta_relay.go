package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/99minutos/tracking-live/internal/api/metrics"
	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

// DefaultRelayChannel is the pub/sub channel other services publish events on.
const DefaultRelayChannel = "tracking:events"

// EventSink accepts events for ordered processing.
type EventSink interface {
	Enqueue(event ports.TrackingEventInput)
}

// RelayMessage is the JSON payload published on the relay channel.
type RelayMessage struct {
	TrackingNumber string    `json:"tracking_number"`
	Status         string    `json:"status"`
	Location       string    `json:"location,omitempty"`
	Note           string    `json:"note,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Source         string    `json:"source,omitempty"`
}

// DeltaRelay feeds events published on a Redis channel into an EventSink.
type DeltaRelay struct {
	client  *redis.Client
	channel string
	sink    EventSink
	log     zerolog.Logger
}

// NewDeltaRelay creates a relay on channel (DefaultRelayChannel when empty).
func NewDeltaRelay(client *redis.Client, channel string, sink EventSink, log zerolog.Logger) *DeltaRelay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	return &DeltaRelay{client: client, channel: channel, sink: sink, log: log}
}

// Run subscribes and forwards messages until ctx is cancelled. It returns an
// error only when the subscription cannot be established.
func (r *DeltaRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("relay subscribe %s: %w", r.channel, err)
	}
	r.log.Info().Str("channel", r.channel).Msg("delta relay subscribed")

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			r.forward(msg.Payload)
		}
	}
}

func (r *DeltaRelay) forward(payload string) {
	var m RelayMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		metrics.EventsErrorsTotal.WithLabelValues("decode_failed").Inc()
		r.log.Warn().Err(err).Msg("relay message dropped")
		return
	}
	if m.TrackingNumber == "" {
		metrics.EventsErrorsTotal.WithLabelValues("invalid_tracking_number").Inc()
		r.log.Warn().Msg("relay message without tracking number dropped")
		return
	}
	if !domain.ShipmentStatus(m.Status).IsKnown() {
		metrics.EventsErrorsTotal.WithLabelValues("invalid_status").Inc()
		r.log.Warn().Str("tracking", m.TrackingNumber).Str("status", m.Status).Msg("relay message with unknown status dropped")
		return
	}
	r.sink.Enqueue(ports.TrackingEventInput{
		TrackingNumber: m.TrackingNumber,
		Status:         m.Status,
		Location:       m.Location,
		Note:           m.Note,
		Timestamp:      m.Timestamp,
		Source:         m.Source,
	})
}

// Publish sends m on the relay channel.
func (r *DeltaRelay) Publish(ctx context.Context, m RelayMessage) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("relay encode: %w", err)
	}
	return r.client.Publish(ctx, r.channel, raw).Err()
}
