package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

type stubDedup struct {
	dupResult bool
	dupErr    error
	markErr   error
	marked    []string
}

func (d *stubDedup) IsDuplicate(_ context.Context, tracking, status string, _ time.Time) (bool, error) {
	return d.dupResult, d.dupErr
}

func (d *stubDedup) Mark(_ context.Context, tracking, status string, _ time.Time) error {
	if d.markErr != nil {
		return d.markErr
	}
	d.marked = append(d.marked, tracking+":"+status)
	return nil
}

type stubRecorder struct {
	applyErr  error
	insertErr error
	applied   []domain.Delta
	inserted  []string // sources
}

func (r *stubRecorder) ApplyDelta(_ context.Context, d domain.Delta) error {
	if r.applyErr != nil {
		return r.applyErr
	}
	r.applied = append(r.applied, d)
	return nil
}

func (r *stubRecorder) InsertEvent(_ context.Context, _ domain.Delta, source string) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, source)
	return nil
}

func newEventSvc(pub *stubPublisher, dedup *stubDedup) ports.EventService {
	if dedup == nil {
		return NewEventService(nil, pub, nil, zerolog.Nop())
	}
	return NewEventService(nil, pub, dedup, zerolog.Nop())
}

func TestEventService_Process_HappyPath(t *testing.T) {
	pub := &stubPublisher{}
	dedup := &stubDedup{}

	err := newEventSvc(pub, dedup).Process(context.Background(), ports.TrackingEventInput{
		TrackingNumber: " trk-1 ",
		Status:         string(domain.StatusPickedUp),
		Location:       "Houston, TX",
		Timestamp:      t0,
		Source:         "driver_app",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.published))
	}
	d := pub.published[0]
	if d.TrackingNumber != "TRK-1" || d.Status != domain.StatusPickedUp || d.Location != "Houston, TX" {
		t.Errorf("unexpected delta: %+v", d)
	}
	if len(dedup.marked) != 1 || dedup.marked[0] != "TRK-1:Picked Up" {
		t.Errorf("dedup marks = %v", dedup.marked)
	}
}

func TestEventService_Process_DuplicateSkipped(t *testing.T) {
	pub := &stubPublisher{}
	err := newEventSvc(pub, &stubDedup{dupResult: true}).Process(context.Background(), ports.TrackingEventInput{
		TrackingNumber: "TRK-1",
		Status:         string(domain.StatusPickedUp),
		Timestamp:      t0,
	})
	if err != nil {
		t.Fatalf("expected no error for duplicate, got: %v", err)
	}
	if len(pub.published) != 0 {
		t.Error("duplicate must not be published")
	}
}

func TestEventService_Process_InvalidTrackingNumber(t *testing.T) {
	pub := &stubPublisher{}
	err := newEventSvc(pub, nil).Process(context.Background(), ports.TrackingEventInput{TrackingNumber: "  "})
	if !errors.Is(err, domain.ErrInvalidTrackingNumber) {
		t.Errorf("err = %v, want ErrInvalidTrackingNumber", err)
	}
}

func TestEventService_Process_DedupCheckError_ProcessesAnyway(t *testing.T) {
	pub := &stubPublisher{}
	err := newEventSvc(pub, &stubDedup{dupErr: errors.New("redis timeout")}).Process(context.Background(), ports.TrackingEventInput{
		TrackingNumber: "TRK-1",
		Status:         string(domain.StatusPickedUp),
		Timestamp:      t0,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(pub.published) != 1 {
		t.Error("expected publish to proceed when dedup check errors")
	}
}

func TestEventService_Process_PublishFailure(t *testing.T) {
	pub := &stubPublisher{err: errors.New("hub closed")}
	err := newEventSvc(pub, nil).Process(context.Background(), ports.TrackingEventInput{
		TrackingNumber: "TRK-1",
		Status:         string(domain.StatusDelivered),
	})
	if err == nil {
		t.Fatal("expected publish error")
	}
}

func TestEventService_Process_DefaultsTimestamp(t *testing.T) {
	pub := &stubPublisher{}
	before := time.Now().UTC().Truncate(time.Millisecond)
	_ = newEventSvc(pub, nil).Process(context.Background(), ports.TrackingEventInput{
		TrackingNumber: "TRK-1",
		Status:         string(domain.StatusInTransit),
	})
	if len(pub.published) != 1 || pub.published[0].Timestamp.Before(before) {
		t.Errorf("timestamp not defaulted: %+v", pub.published)
	}
}

func TestEventService_Process_RecordsBeforePublishing(t *testing.T) {
	pub := &stubPublisher{}
	rec := &stubRecorder{}
	svc := NewEventService(rec, pub, &stubDedup{}, zerolog.Nop())

	err := svc.Process(context.Background(), ports.TrackingEventInput{
		TrackingNumber: "TRK-1",
		Status:         string(domain.StatusInTransit),
		Timestamp:      t0.Add(123456789 * time.Nanosecond),
		Source:         "warehouse_scanner",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.applied) != 1 || len(rec.inserted) != 1 || rec.inserted[0] != "warehouse_scanner" {
		t.Errorf("recorder calls: applied=%d inserted=%v", len(rec.applied), rec.inserted)
	}
	if got := pub.published[0].Timestamp; got.Nanosecond()%int(time.Millisecond) != 0 {
		t.Errorf("timestamp %v not truncated to milliseconds", got)
	}
}

func TestEventService_Process_UnknownShipmentNotPublished(t *testing.T) {
	pub := &stubPublisher{}
	dedup := &stubDedup{}
	svc := NewEventService(&stubRecorder{applyErr: domain.ErrShipmentNotFound}, pub, dedup, zerolog.Nop())

	err := svc.Process(context.Background(), ports.TrackingEventInput{
		TrackingNumber: "TRK-404",
		Status:         string(domain.StatusInTransit),
		Timestamp:      t0,
	})
	if !errors.Is(err, domain.ErrShipmentNotFound) {
		t.Errorf("err = %v, want ErrShipmentNotFound", err)
	}
	if len(pub.published) != 0 || len(dedup.marked) != 0 {
		t.Error("rejected event must be neither published nor marked")
	}
}

func TestEventService_Process_AuditFailureIsNonFatal(t *testing.T) {
	pub := &stubPublisher{}
	svc := NewEventService(&stubRecorder{insertErr: errors.New("mongo unavailable")}, pub, nil, zerolog.Nop())

	err := svc.Process(context.Background(), ports.TrackingEventInput{
		TrackingNumber: "TRK-1",
		Status:         string(domain.StatusInTransit),
		Timestamp:      t0,
	})
	if err != nil {
		t.Fatalf("expected audit failure to be non-fatal, got: %v", err)
	}
	if len(pub.published) != 1 {
		t.Error("expected the delta to be published")
	}
}

func TestEventService_Process_UnknownStatusRejected(t *testing.T) {
	for _, status := range []string{"", "Exploded", "delivered"} {
		pub := &stubPublisher{}
		rec := &stubRecorder{}
		dedup := &stubDedup{}
		err := NewEventService(rec, pub, dedup, zerolog.Nop()).Process(context.Background(), ports.TrackingEventInput{
			TrackingNumber: "TRK-1",
			Status:         status,
			Timestamp:      t0,
		})
		if !errors.Is(err, domain.ErrInvalidStatus) {
			t.Errorf("status %q: err = %v, want ErrInvalidStatus", status, err)
		}
		if len(pub.published) != 0 || len(rec.applied) != 0 || len(dedup.marked) != 0 {
			t.Errorf("status %q: rejected event must not be recorded, marked or published", status)
		}
	}
}
