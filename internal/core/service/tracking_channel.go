package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

// TrackingChannel keeps one authenticated transport connection and the set of
// tracking numbers this client follows. Deltas and state changes are delivered
// to handlers in arrival order on a single loop goroutine started by Start.
type TrackingChannel struct {
	id        string
	transport ports.Transport
	log       zerolog.Logger

	mu         sync.Mutex
	state      domain.ConnState
	conn       ports.TransportConn
	credential string
	// epoch increments on every teardown so stale dials and read loops can
	// tell they were superseded.
	epoch uint64
	subs  map[string]domain.TrackingSubscription

	hmu           sync.RWMutex
	deltaHandlers []func(domain.Delta)
	stateHandlers []func(domain.ConnState)

	queue   *eventQueue
	started atomic.Bool
}

var _ ports.TrackingChannel = (*TrackingChannel)(nil)

// NewTrackingChannel returns a disconnected channel bound to transport.
func NewTrackingChannel(transport ports.Transport, log zerolog.Logger) *TrackingChannel {
	id := uuid.NewString()
	return &TrackingChannel{
		id:        id,
		transport: transport,
		log:       log.With().Str("channel_id", id).Logger(),
		subs:      make(map[string]domain.TrackingSubscription),
		queue:     newEventQueue(),
	}
}

func (c *TrackingChannel) ID() string { return c.id }

func (c *TrackingChannel) State() domain.ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start launches the delivery loop. It stops when ctx is cancelled; calling
// Start more than once has no effect.
func (c *TrackingChannel) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go c.run(ctx)
}

// Open connects with credential, tearing down any existing connection first.
// An empty credential is a logout and only closes the channel. Re-opening with
// the credential already in use while connected is a no-op.
func (c *TrackingChannel) Open(ctx context.Context, credential string) error {
	if credential == "" {
		c.Close()
		return nil
	}

	c.mu.Lock()
	if c.state == domain.StateConnected && c.credential == credential {
		c.mu.Unlock()
		return nil
	}
	stale := c.detachLocked()
	c.epoch++
	epoch := c.epoch
	c.credential = credential
	c.setStateLocked(domain.StateConnecting)
	c.mu.Unlock()
	c.closeConn(stale)

	conn, err := c.transport.Dial(ctx, credential)

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.closeConn(conn)
		return fmt.Errorf("open: connection superseded: %w", domain.ErrNotConnected)
	}
	if err != nil {
		c.setStateLocked(domain.StateDisconnected)
		c.mu.Unlock()
		return fmt.Errorf("open: %w: %w", domain.ErrTransport, err)
	}
	c.conn = conn
	c.setStateLocked(domain.StateConnected)
	c.mu.Unlock()

	go c.readLoop(conn, epoch)
	return nil
}

// Subscribe starts following trackingNumber. It is idempotent while
// connected and fails with domain.ErrNotConnected otherwise, without sending
// anything.
func (c *TrackingChannel) Subscribe(ctx context.Context, trackingNumber string) error {
	key, ok := domain.NormalizeTrackingNumber(trackingNumber)
	if !ok {
		return fmt.Errorf("subscribe %q: %w", trackingNumber, domain.ErrInvalidTrackingNumber)
	}

	c.mu.Lock()
	if c.state != domain.StateConnected || c.conn == nil {
		c.mu.Unlock()
		return fmt.Errorf("subscribe %s: %w", key, domain.ErrNotConnected)
	}
	if _, exists := c.subs[key]; exists {
		c.mu.Unlock()
		return nil
	}
	conn, epoch := c.conn, c.epoch
	c.mu.Unlock()

	if err := conn.Emit(ctx, ports.EventJoin, ports.RoomRequest{TrackingNumber: key}); err != nil {
		return fmt.Errorf("subscribe %s: %w: %w", key, domain.ErrTransport, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// The connection the join went out on is gone; its room membership went
	// with it.
	if c.epoch != epoch {
		return fmt.Errorf("subscribe %s: %w", key, domain.ErrNotConnected)
	}
	c.subs[key] = domain.TrackingSubscription{TrackingNumber: key, ChannelID: c.id, Active: true}
	c.log.Debug().Str("tracking", key).Msg("subscribed")
	return nil
}

// Unsubscribe stops following trackingNumber. Unknown numbers are ignored.
// A failed leave message is logged; the local subscription is dropped anyway.
func (c *TrackingChannel) Unsubscribe(ctx context.Context, trackingNumber string) error {
	key, ok := domain.NormalizeTrackingNumber(trackingNumber)
	if !ok {
		return nil
	}

	c.mu.Lock()
	if _, exists := c.subs[key]; !exists {
		c.mu.Unlock()
		return nil
	}
	delete(c.subs, key)
	var conn ports.TransportConn
	if c.state == domain.StateConnected {
		conn = c.conn
	}
	c.mu.Unlock()

	if conn != nil {
		if err := conn.Emit(ctx, ports.EventLeave, ports.RoomRequest{TrackingNumber: key}); err != nil {
			c.log.Warn().Err(err).Str("tracking", key).Msg("leave message failed")
		}
	}
	return nil
}

// Subscriptions returns the active subscriptions sorted by tracking number.
func (c *TrackingChannel) Subscriptions() []domain.TrackingSubscription {
	c.mu.Lock()
	out := make([]domain.TrackingSubscription, 0, len(c.subs))
	for _, s := range c.subs {
		out = append(out, s)
	}
	c.mu.Unlock()

	slices.SortFunc(out, func(a, b domain.TrackingSubscription) int {
		return strings.Compare(a.TrackingNumber, b.TrackingNumber)
	})
	return out
}

// OnDelta registers h for deltas of subscribed tracking numbers. Handlers run
// on the delivery loop and must not block.
func (c *TrackingChannel) OnDelta(h func(domain.Delta)) {
	c.hmu.Lock()
	c.deltaHandlers = append(c.deltaHandlers, h)
	c.hmu.Unlock()
}

// OnStateChange registers h for connection state transitions.
func (c *TrackingChannel) OnStateChange(h func(domain.ConnState)) {
	c.hmu.Lock()
	c.stateHandlers = append(c.stateHandlers, h)
	c.hmu.Unlock()
}

// Close tears down the connection and clears subscriptions. Safe in any state.
func (c *TrackingChannel) Close() {
	c.mu.Lock()
	c.epoch++
	conn := c.detachLocked()
	c.credential = ""
	c.mu.Unlock()
	c.closeConn(conn)
}

// detachLocked drops the connection and the subscriptions. The returned
// connection is closed by the caller after releasing c.mu.
func (c *TrackingChannel) detachLocked() ports.TransportConn {
	conn := c.conn
	c.conn = nil
	clear(c.subs)
	c.setStateLocked(domain.StateDisconnected)
	return conn
}

func (c *TrackingChannel) closeConn(conn ports.TransportConn) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		c.log.Debug().Err(err).Msg("close transport")
	}
}

func (c *TrackingChannel) setStateLocked(s domain.ConnState) {
	if c.state == s {
		return
	}
	c.state = s
	c.log.Info().Stringer("state", s).Msg("tracking channel state changed")
	c.queue.Enqueue(channelEvent{kind: eventState, state: s})
}

func (c *TrackingChannel) readLoop(conn ports.TransportConn, epoch uint64) {
	ctx := context.Background()
	for {
		d, err := conn.Receive(ctx)
		if err != nil {
			c.mu.Lock()
			if c.epoch != epoch {
				c.mu.Unlock()
				return
			}
			c.log.Warn().Err(err).Msg("tracking transport dropped")
			c.epoch++
			dropped := c.detachLocked()
			c.mu.Unlock()
			c.closeConn(dropped)
			return
		}

		key, ok := domain.NormalizeTrackingNumber(d.TrackingNumber)
		if !ok {
			continue
		}
		d.TrackingNumber = key

		c.mu.Lock()
		current := c.epoch == epoch
		c.mu.Unlock()
		if !current {
			return
		}
		c.queue.Enqueue(channelEvent{kind: eventDelta, delta: d})
	}
}

func (c *TrackingChannel) run(ctx context.Context) {
	defer c.queue.Close()
	for {
		for {
			e, ok := c.queue.TryDequeue()
			if !ok {
				break
			}
			c.deliver(e)
		}
		select {
		case <-ctx.Done():
			return
		case <-c.queue.Wait():
		}
	}
}

func (c *TrackingChannel) deliver(e channelEvent) {
	switch e.kind {
	case eventDelta:
		c.mu.Lock()
		sub, ok := c.subs[e.delta.TrackingNumber]
		c.mu.Unlock()
		if !ok || !sub.Active {
			return
		}
		c.hmu.RLock()
		handlers := slices.Clone(c.deltaHandlers)
		c.hmu.RUnlock()
		for _, h := range handlers {
			c.safeCall(func() { h(e.delta) })
		}
	case eventState:
		c.hmu.RLock()
		handlers := slices.Clone(c.stateHandlers)
		c.hmu.RUnlock()
		for _, h := range handlers {
			c.safeCall(func() { h(e.state) })
		}
	}
}

func (c *TrackingChannel) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("tracking handler panicked")
		}
	}()
	fn()
}
