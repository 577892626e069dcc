package ports

import (
	"context"

	"github.com/99minutos/tracking-live/internal/core/domain"
)

// Event names spoken over the tracking transport.
const (
	EventJoin    = "tracking:join"
	EventLeave   = "tracking:leave"
	EventJoined  = "tracking:joined"
	EventLeft    = "tracking:left"
	EventUpdate  = "tracking:update"
	EventError   = "error"
	EventPing    = "ping"
	EventPong    = "pong"
	EventConnect = "connected"
)

// RoomRequest is the payload of join and leave events.
type RoomRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"required"`
}

// Transport opens authenticated pub/sub connections.
type Transport interface {
	Dial(ctx context.Context, credential string) (TransportConn, error)
}

// TransportConn is a single live connection. Emit may be called concurrently
// with Receive; Receive has a single caller.
type TransportConn interface {
	Emit(ctx context.Context, event string, payload any) error
	// Receive blocks until the next inbound delta. Any error means the
	// connection is gone.
	Receive(ctx context.Context) (domain.Delta, error)
	Close() error
}

// TrackingChannel is the subscriber side of the transport as seen by the
// tracker.
type TrackingChannel interface {
	ID() string
	State() domain.ConnState
	Subscribe(ctx context.Context, trackingNumber string) error
	Unsubscribe(ctx context.Context, trackingNumber string) error
	OnDelta(func(domain.Delta))
	OnStateChange(func(domain.ConnState))
}
