package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Backend
// ---------------------------------------------------------------------------

type stubBackend struct {
	byTracking map[string]*domain.Shipment
	history    map[string][]domain.HistoryEntry
	historyErr error
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		byTracking: make(map[string]*domain.Shipment),
		history:    make(map[string][]domain.HistoryEntry),
	}
}

func (b *stubBackend) GetShipmentByTrackingNumber(_ context.Context, tn string) (*domain.Shipment, error) {
	s, ok := b.byTracking[tn]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	clone := s.Clone()
	return &clone, nil
}

func (b *stubBackend) GetEventHistory(_ context.Context, tn string) ([]domain.HistoryEntry, error) {
	if b.historyErr != nil {
		return nil, b.historyErr
	}
	return b.history[tn], nil
}

// ---------------------------------------------------------------------------
// Geocode store and provider
// ---------------------------------------------------------------------------

type stubStore struct {
	mu     sync.Mutex
	data   map[string]domain.Coordinates
	getErr error
	setErr error
	gets   int
	sets   int
}

func newStubStore() *stubStore {
	return &stubStore{data: make(map[string]domain.Coordinates)}
}

func (s *stubStore) Get(_ context.Context, key string) (domain.Coordinates, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return domain.Coordinates{}, false, s.getErr
	}
	c, ok := s.data[key]
	return c, ok, nil
}

func (s *stubStore) Set(_ context.Context, key string, c domain.Coordinates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = c
	return nil
}

type stubProvider struct {
	mu      sync.Mutex
	results map[string][]domain.Coordinates
	err     error
	release chan struct{} // when set, Search blocks until closed
	calls   atomic.Int32
	times   []time.Time
}

func (p *stubProvider) Search(ctx context.Context, q string) ([]domain.Coordinates, error) {
	p.calls.Add(1)
	p.mu.Lock()
	p.times = append(p.times, time.Now())
	p.mu.Unlock()

	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.results[q], nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

type emitted struct {
	event   string
	payload any
}

type stubConn struct {
	mu      sync.Mutex
	emits   []emitted
	emitErr error
	// emitGate, when set, holds Emit until it is closed.
	emitGate chan struct{}
	inbound  chan domain.Delta
	fail     chan error
	closed   chan struct{}
	once     sync.Once
}

func newStubConn() *stubConn {
	return &stubConn{
		inbound: make(chan domain.Delta, 16),
		fail:    make(chan error, 1),
		closed:  make(chan struct{}),
	}
}

func (c *stubConn) Emit(_ context.Context, event string, payload any) error {
	c.mu.Lock()
	gate := c.emitGate
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.emitErr != nil {
		return c.emitErr
	}
	c.emits = append(c.emits, emitted{event: event, payload: payload})
	return nil
}

func (c *stubConn) Receive(ctx context.Context) (domain.Delta, error) {
	select {
	case d := <-c.inbound:
		return d, nil
	case err := <-c.fail:
		return domain.Delta{}, err
	case <-c.closed:
		return domain.Delta{}, errors.New("use of closed connection")
	case <-ctx.Done():
		return domain.Delta{}, ctx.Err()
	}
}

func (c *stubConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *stubConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *stubConn) emitted(event string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.emits {
		if e.event == event {
			out = append(out, e.payload.(ports.RoomRequest).TrackingNumber)
		}
	}
	return out
}

type stubTransport struct {
	mu      sync.Mutex
	conns   []*stubConn
	dialErr error
	dials   []string
}

func (t *stubTransport) Dial(_ context.Context, credential string) (ports.TransportConn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dials = append(t.dials, credential)
	if t.dialErr != nil {
		return nil, t.dialErr
	}
	c := newStubConn()
	t.conns = append(t.conns, c)
	return c, nil
}

func (t *stubTransport) last() *stubConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.conns) == 0 {
		return nil
	}
	return t.conns[len(t.conns)-1]
}

func (t *stubTransport) dialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.dials)
}

// ---------------------------------------------------------------------------
// Publisher
// ---------------------------------------------------------------------------

type stubPublisher struct {
	mu        sync.Mutex
	published []domain.Delta
	err       error
}

func (p *stubPublisher) Publish(_ context.Context, d domain.Delta) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, d)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}
