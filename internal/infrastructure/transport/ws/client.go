package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

const handshakeTimeout = 10 * time.Second

// Transport dials a tracking hub. The credential is sent as a bearer token.
type Transport struct {
	url    string
	dialer *websocket.Dialer
	log    zerolog.Logger
}

var _ ports.Transport = (*Transport)(nil)

func NewTransport(url string, log zerolog.Logger) *Transport {
	return &Transport{
		url: url,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		log: log,
	}
}

// Dial connects and waits for the hub's welcome message.
func (t *Transport) Dial(ctx context.Context, credential string) (ports.TransportConn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+credential)

	ws, resp, err := t.dialer.DialContext(ctx, t.url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: status %d: %w", t.url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", t.url, err)
	}

	_ = ws.SetReadDeadline(time.Now().Add(handshakeTimeout))
	var hello Message
	if err := ws.ReadJSON(&hello); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}
	if hello.Type != ports.EventConnect {
		_ = ws.Close()
		return nil, fmt.Errorf("unexpected welcome message %q", hello.Type)
	}
	_ = ws.SetReadDeadline(time.Time{})

	var welcome ConnectedPayload
	_ = json.Unmarshal(hello.Payload, &welcome)
	t.log.Debug().Str("client_id", welcome.ClientID).Msg("connected to tracking hub")

	return &Conn{ws: ws, log: t.log}, nil
}

// Conn is one websocket session with the hub.
type Conn struct {
	ws  *websocket.Conn
	log zerolog.Logger

	wmu       sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Emit writes one message. Writes are serialized.
func (c *Conn) Emit(ctx context.Context, event string, payload any) error {
	msg, err := NewMessage(event, payload)
	if err != nil {
		return err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeWait)
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.ws.SetWriteDeadline(deadline)
	if err := c.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}
	return nil
}

// Receive blocks until the next tracking update. Acknowledgements and
// heartbeats are consumed silently. Cancelling ctx unblocks the read and
// leaves the connection unusable.
func (c *Conn) Receive(ctx context.Context) (domain.Delta, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = c.ws.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return domain.Delta{}, ctx.Err()
			}
			return domain.Delta{}, fmt.Errorf("receive: %w", err)
		}

		switch msg.Type {
		case ports.EventUpdate:
			var d domain.Delta
			if err := json.Unmarshal(msg.Payload, &d); err != nil {
				c.log.Warn().Err(err).Msg("malformed tracking update skipped")
				continue
			}
			return d, nil
		case ports.EventError:
			var p ErrorPayload
			_ = json.Unmarshal(msg.Payload, &p)
			c.log.Warn().Str("code", p.Code).Str("message", p.Message).Msg("hub reported an error")
		case ports.EventJoined, ports.EventLeft, ports.EventPong:
		default:
			c.log.Debug().Str("type", msg.Type).Msg("unhandled message")
		}
	}
}

// Close sends a close frame and releases the connection. It is safe to call
// more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		err := c.ws.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			c.closeErr = err
		}
	})
	return c.closeErr
}
