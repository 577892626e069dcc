package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

const positionTimeout = 30 * time.Second

// ShipmentTracker owns the shipment projections a client follows. It seeds
// them from the backend, keeps them current from channel deltas and
// re-subscribes after every reconnect.
type ShipmentTracker struct {
	backend  ports.ShipmentBackend
	channel  ports.TrackingChannel
	resolver ports.GeocodeResolver
	log      zerolog.Logger

	mu        sync.RWMutex
	tracked   map[string]*domain.Shipment
	positions map[string]domain.Coordinates
	handlers  []func(domain.TrackingView)
}

// NewShipmentTracker registers the tracker's handlers on channel. resolver is
// optional; without it positions are never computed.
func NewShipmentTracker(backend ports.ShipmentBackend, channel ports.TrackingChannel, resolver ports.GeocodeResolver, log zerolog.Logger) *ShipmentTracker {
	t := &ShipmentTracker{
		backend:   backend,
		channel:   channel,
		resolver:  resolver,
		log:       log,
		tracked:   make(map[string]*domain.Shipment),
		positions: make(map[string]domain.Coordinates),
	}
	channel.OnDelta(t.applyDelta)
	channel.OnStateChange(t.onStateChange)
	return t
}

// Track seeds the projection for trackingNumber and subscribes to its
// updates. While the channel is down the subscription is deferred until the
// next Connected transition.
func (t *ShipmentTracker) Track(ctx context.Context, trackingNumber string) (domain.TrackingView, error) {
	shipment, err := loadShipment(ctx, t.backend, trackingNumber, t.log)
	if err != nil {
		return domain.TrackingView{}, fmt.Errorf("track: %w", err)
	}
	key := shipment.TrackingNumber

	t.mu.Lock()
	if existing, ok := t.tracked[key]; ok {
		shipment.History = domain.MergeHistory(existing.History, shipment.History)
	}
	t.tracked[key] = shipment
	view := domain.BuildTrackingView(*shipment, false)
	t.mu.Unlock()

	if err := t.channel.Subscribe(ctx, key); err != nil {
		if !errors.Is(err, domain.ErrNotConnected) {
			return view, fmt.Errorf("track: %w", err)
		}
		t.log.Debug().Str("tracking", key).Msg("channel not connected, subscription deferred")
	}

	t.locate(key, shipment.CurrentLocation)
	return view, nil
}

// Untrack drops the projection and the subscription.
func (t *ShipmentTracker) Untrack(ctx context.Context, trackingNumber string) error {
	key, ok := domain.NormalizeTrackingNumber(trackingNumber)
	if !ok {
		return nil
	}
	t.mu.Lock()
	delete(t.tracked, key)
	delete(t.positions, key)
	t.mu.Unlock()
	return t.channel.Unsubscribe(ctx, key)
}

// View returns the current view of a tracked shipment.
func (t *ShipmentTracker) View(trackingNumber string, expanded bool) (domain.TrackingView, bool) {
	key, ok := domain.NormalizeTrackingNumber(trackingNumber)
	if !ok {
		return domain.TrackingView{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.tracked[key]
	if !ok {
		return domain.TrackingView{}, false
	}
	return domain.BuildTrackingView(*s, expanded), true
}

// Position returns the last resolved coordinates of the shipment's current
// location. Unresolvable places are approximated with the fallback table.
func (t *ShipmentTracker) Position(trackingNumber string) (domain.Coordinates, bool) {
	key, ok := domain.NormalizeTrackingNumber(trackingNumber)
	if !ok {
		return domain.Coordinates{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.positions[key]
	return c, ok
}

// Tracked lists the followed tracking numbers in sorted order.
func (t *ShipmentTracker) Tracked() []string {
	t.mu.RLock()
	out := make([]string, 0, len(t.tracked))
	for k := range t.tracked {
		out = append(out, k)
	}
	t.mu.RUnlock()
	slices.Sort(out)
	return out
}

// OnUpdate registers h, called with the new view after every applied delta.
func (t *ShipmentTracker) OnUpdate(h func(domain.TrackingView)) {
	t.mu.Lock()
	t.handlers = append(t.handlers, h)
	t.mu.Unlock()
}

func (t *ShipmentTracker) onStateChange(s domain.ConnState) {
	if s != domain.StateConnected {
		return
	}
	keys := t.Tracked()
	if len(keys) == 0 {
		return
	}
	go func() {
		ctx := context.Background()
		for _, key := range keys {
			if err := t.channel.Subscribe(ctx, key); err != nil {
				t.log.Warn().Err(err).Str("tracking", key).Msg("resubscribe failed")
			}
		}
	}()
}

func (t *ShipmentTracker) applyDelta(d domain.Delta) {
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now().UTC()
	}

	t.mu.Lock()
	s, ok := t.tracked[d.TrackingNumber]
	if !ok {
		t.mu.Unlock()
		return
	}
	entry := d.Entry()
	if entry.Status == "" {
		entry.Status = s.Status
	}
	if entry.Location == "" {
		entry.Location = s.CurrentLocation
	}
	if d.Status != "" {
		s.Status = d.Status
	}
	if d.Location != "" {
		s.CurrentLocation = d.Location
	}
	s.History = domain.MergeHistory(s.History, []domain.HistoryEntry{entry})
	view := domain.BuildTrackingView(*s, false)
	handlers := slices.Clone(t.handlers)
	t.mu.Unlock()

	for _, h := range handlers {
		h(view)
	}
	if d.Location != "" {
		t.locate(d.TrackingNumber, d.Location)
	}
}

// locate resolves place off the caller's goroutine and records the position.
func (t *ShipmentTracker) locate(key, place string) {
	if t.resolver == nil || isBlank(place) {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), positionTimeout)
		defer cancel()

		c := t.resolver.Fallback(place)
		if res, err := t.resolver.Resolve(ctx, place); err == nil {
			c = res.Coordinates
		} else {
			t.log.Debug().Err(err).Str("tracking", key).Str("place", place).Msg("using approximate position")
		}

		t.mu.Lock()
		if s, ok := t.tracked[key]; ok && s.CurrentLocation == place {
			t.positions[key] = c
		}
		t.mu.Unlock()
	}()
}
