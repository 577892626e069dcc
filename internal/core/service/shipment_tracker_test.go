package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func seededBackend() *stubBackend {
	b := newStubBackend()
	b.byTracking["TRK-1"] = &domain.Shipment{
		TrackingNumber:  "TRK-1",
		Status:          domain.StatusInTransit,
		CurrentLocation: "Dallas, TX",
		Origin:          "Houston, TX",
		Destination:     "New York, NY",
		History: []domain.HistoryEntry{
			{Status: domain.StatusPending, Location: "Houston, TX", Timestamp: t0},
			{Status: domain.StatusInTransit, Location: "Dallas, TX", Timestamp: t0.Add(2 * time.Hour)},
		},
	}
	b.history["TRK-1"] = []domain.HistoryEntry{
		{Status: domain.StatusPickedUp, Location: "Houston, TX", Timestamp: t0.Add(time.Hour)},
		{Status: domain.StatusInTransit, Location: "Dallas, TX", Timestamp: t0.Add(2 * time.Hour)},
	}
	return b
}

type trackerFixture struct {
	transport *stubTransport
	channel   *TrackingChannel
	tracker   *ShipmentTracker
}

func newTrackerFixture(t *testing.T, backend *stubBackend, resolver ports.GeocodeResolver) *trackerFixture {
	t.Helper()
	transport := &stubTransport{}
	ch := startedChannel(t, transport)
	return &trackerFixture{
		transport: transport,
		channel:   ch,
		tracker:   NewShipmentTracker(backend, ch, resolver, zerolog.Nop()),
	}
}

func TestShipmentTracker_TrackSeedsAndMergesHistory(t *testing.T) {
	f := newTrackerFixture(t, seededBackend(), nil)
	_ = f.channel.Open(context.Background(), "token")

	view, err := f.tracker.Track(context.Background(), "trk-1")
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if len(view.History) != 3 {
		t.Fatalf("history = %d entries, want 3 (merged, deduplicated)", len(view.History))
	}
	if view.History[0].Status != domain.StatusInTransit || view.History[2].Status != domain.StatusPending {
		t.Errorf("history not sorted descending: %+v", view.History)
	}
	if view.Step != 4 {
		t.Errorf("step = %d, want 4", view.Step)
	}
	if got := f.channel.Subscriptions(); len(got) != 1 || got[0].TrackingNumber != "TRK-1" {
		t.Errorf("subscriptions = %+v", got)
	}
}

func TestShipmentTracker_TrackUnknownShipment(t *testing.T) {
	f := newTrackerFixture(t, newStubBackend(), nil)

	_, err := f.tracker.Track(context.Background(), "NOPE")
	if !errors.Is(err, domain.ErrShipmentNotFound) {
		t.Errorf("err = %v, want ErrShipmentNotFound", err)
	}
}

func TestShipmentTracker_AppliesDeltas(t *testing.T) {
	f := newTrackerFixture(t, seededBackend(), nil)
	_ = f.channel.Open(context.Background(), "token")

	var mu sync.Mutex
	var views []domain.TrackingView
	f.tracker.OnUpdate(func(v domain.TrackingView) {
		mu.Lock()
		views = append(views, v)
		mu.Unlock()
	})

	if _, err := f.tracker.Track(context.Background(), "TRK-1"); err != nil {
		t.Fatalf("track: %v", err)
	}
	f.transport.last().inbound <- domain.Delta{
		TrackingNumber: "TRK-1",
		Status:         domain.StatusOutForDelivery,
		Location:       "Newark, NJ",
		Timestamp:      t0.Add(5 * time.Hour),
	}

	eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(views) == 1
	}, "update notification")

	v, ok := f.tracker.View("TRK-1", true)
	if !ok {
		t.Fatal("shipment should be tracked")
	}
	if v.Shipment.Status != domain.StatusOutForDelivery || v.Shipment.CurrentLocation != "Newark, NJ" {
		t.Errorf("projection not updated: %+v", v.Shipment)
	}
	if len(v.History) != 4 || v.History[0].Location != "Newark, NJ" {
		t.Errorf("history = %+v", v.History)
	}
	if v.Progress < 85 || v.Progress > 86 {
		t.Errorf("progress = %v, want ~85.71", v.Progress)
	}
}

func TestShipmentTracker_OutOfBandDoesNotBlockLaterUpdates(t *testing.T) {
	f := newTrackerFixture(t, seededBackend(), nil)
	_ = f.channel.Open(context.Background(), "token")
	_, _ = f.tracker.Track(context.Background(), "TRK-1")

	conn := f.transport.last()
	conn.inbound <- domain.Delta{TrackingNumber: "TRK-1", Status: domain.StatusOnHold, Timestamp: t0.Add(3 * time.Hour)}
	conn.inbound <- domain.Delta{TrackingNumber: "TRK-1", Status: domain.StatusDelivered, Timestamp: t0.Add(4 * time.Hour)}

	eventually(t, func() bool {
		v, _ := f.tracker.View("TRK-1", false)
		return v.Shipment.Status == domain.StatusDelivered
	}, "delivered after on hold")

	v, _ := f.tracker.View("TRK-1", false)
	if !v.Terminal || v.Progress != 100 {
		t.Errorf("view = terminal:%v progress:%v", v.Terminal, v.Progress)
	}
	if len(v.Visible) != domain.CollapsedWindow {
		t.Errorf("visible = %d, want %d", len(v.Visible), domain.CollapsedWindow)
	}
}

func TestShipmentTracker_ResubscribesOnConnect(t *testing.T) {
	f := newTrackerFixture(t, seededBackend(), nil)

	// Tracking while disconnected defers the subscription.
	if _, err := f.tracker.Track(context.Background(), "TRK-1"); err != nil {
		t.Fatalf("track while disconnected: %v", err)
	}
	if len(f.channel.Subscriptions()) != 0 {
		t.Fatal("no subscription expected while disconnected")
	}

	_ = f.channel.Open(context.Background(), "token")
	eventually(t, func() bool { return len(f.channel.Subscriptions()) == 1 }, "resubscribe after connect")

	// A dropped connection followed by a reconnect subscribes again.
	f.transport.last().fail <- errors.New("eof")
	eventually(t, func() bool { return f.channel.State() == domain.StateDisconnected }, "disconnect")
	_ = f.channel.Open(context.Background(), "token")
	eventually(t, func() bool {
		return len(f.transport.last().emitted(ports.EventJoin)) == 1
	}, "join on the new connection")
}

func TestShipmentTracker_Untrack(t *testing.T) {
	f := newTrackerFixture(t, seededBackend(), nil)
	_ = f.channel.Open(context.Background(), "token")
	_, _ = f.tracker.Track(context.Background(), "TRK-1")

	if err := f.tracker.Untrack(context.Background(), "TRK-1"); err != nil {
		t.Fatalf("untrack: %v", err)
	}
	if _, ok := f.tracker.View("TRK-1", false); ok {
		t.Error("view should be gone")
	}
	if len(f.tracker.Tracked()) != 0 || len(f.channel.Subscriptions()) != 0 {
		t.Error("tracker and channel should be empty")
	}
}

func TestShipmentTracker_PositionUsesResolverOrFallback(t *testing.T) {
	provider := &stubProvider{results: map[string][]domain.Coordinates{
		"Dallas, TX": {{Lat: 32.7767, Lon: -96.7970}},
	}}
	resolver := newResolver(nil, provider, time.Millisecond)
	f := newTrackerFixture(t, seededBackend(), resolver)
	_ = f.channel.Open(context.Background(), "token")

	if _, err := f.tracker.Track(context.Background(), "TRK-1"); err != nil {
		t.Fatalf("track: %v", err)
	}
	eventually(t, func() bool {
		c, ok := f.tracker.Position("TRK-1")
		return ok && c.Lat == 32.7767
	}, "resolved position")

	f.transport.last().inbound <- domain.Delta{TrackingNumber: "TRK-1", Location: "Unknown Depot 7", Timestamp: t0.Add(6 * time.Hour)}
	eventually(t, func() bool {
		c, ok := f.tracker.Position("TRK-1")
		return ok && c == domain.ContinentalCentroid
	}, "fallback position")
}
