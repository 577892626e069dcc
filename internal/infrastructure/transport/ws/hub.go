package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/tracking-live/internal/api/metrics"
	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

type client struct {
	id       string
	username string
	conn     *websocket.Conn
	send     chan Message
	once     sync.Once
}

func (c *client) closeSend() {
	c.once.Do(func() { close(c.send) })
}

// Hub keeps the websocket clients and their rooms. A room is the set of
// clients that joined one tracking number.
type Hub struct {
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu      sync.RWMutex
	clients map[*client]map[string]struct{}
	rooms   map[string]map[*client]struct{}
	closed  bool
}

var _ ports.DeltaPublisher = (*Hub)(nil)

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		log:     log,
		clients: make(map[*client]map[string]struct{}),
		rooms:   make(map[string]map[*client]struct{}),
	}
}

// Handle upgrades the request and serves the client until it disconnects.
// Authentication happens in middleware before the upgrade.
func (h *Hub) Handle(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
	cl.username, _ = c.Get("username").(string)

	if !h.register(cl) {
		_ = conn.Close()
		return nil
	}
	defer h.unregister(cl)

	log := h.log.With().Str("client_id", cl.id).Str("username", cl.username).Logger()
	log.Info().Msg("tracking client connected")

	h.reply(cl, ports.EventConnect, ConnectedPayload{ClientID: cl.id})
	go h.writePump(cl, log)
	h.readPump(cl, log)

	log.Info().Msg("tracking client disconnected")
	return nil
}

// Publish sends d to every client in its room. Clients whose buffer is full
// miss the delta rather than stall the publisher.
func (h *Hub) Publish(_ context.Context, d domain.Delta) error {
	msg, err := NewMessage(ports.EventUpdate, d)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil
	}
	for cl := range h.rooms[d.TrackingNumber] {
		select {
		case cl.send <- msg:
		default:
			metrics.HubDeltasDroppedTotal.Inc()
			h.log.Warn().Str("client_id", cl.id).Str("tracking", d.TrackingNumber).Msg("client buffer full, delta dropped")
		}
	}
	return nil
}

// Members returns the number of clients in the room of trackingNumber.
func (h *Hub) Members(trackingNumber string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[trackingNumber])
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for cl := range h.clients {
		cl.closeSend()
	}
}

func (h *Hub) register(cl *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[cl] = make(map[string]struct{})
	metrics.HubConnections.Inc()
	return true
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.clients[cl]
	if !ok {
		return
	}
	for tn := range rooms {
		h.leaveLocked(cl, tn)
	}
	delete(h.clients, cl)
	cl.closeSend()
	metrics.HubConnections.Dec()
}

func (h *Hub) join(cl *client, tn string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.clients[cl]
	if !ok {
		return
	}
	if _, member := rooms[tn]; member {
		return
	}
	rooms[tn] = struct{}{}
	if h.rooms[tn] == nil {
		h.rooms[tn] = make(map[*client]struct{})
	}
	h.rooms[tn][cl] = struct{}{}
	metrics.HubSubscriptions.Inc()
}

func (h *Hub) leave(cl *client, tn string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(cl, tn)
}

func (h *Hub) leaveLocked(cl *client, tn string) {
	rooms, ok := h.clients[cl]
	if !ok {
		return
	}
	if _, member := rooms[tn]; !member {
		return
	}
	delete(rooms, tn)
	delete(h.rooms[tn], cl)
	if len(h.rooms[tn]) == 0 {
		delete(h.rooms, tn)
	}
	metrics.HubSubscriptions.Dec()
}

func (h *Hub) readPump(cl *client, log zerolog.Logger) {
	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := cl.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("tracking client read failed")
			}
			return
		}
		_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))

		switch msg.Type {
		case ports.EventPing:
			h.reply(cl, ports.EventPong, nil)
		case ports.EventJoin, ports.EventLeave:
			tn, ok := roomFrom(msg.Payload)
			if !ok {
				h.reply(cl, ports.EventError, ErrorPayload{Message: "invalid tracking number", Code: "INVALID_PAYLOAD"})
				continue
			}
			if msg.Type == ports.EventJoin {
				h.join(cl, tn)
				h.reply(cl, ports.EventJoined, ports.RoomRequest{TrackingNumber: tn})
				log.Debug().Str("tracking", tn).Msg("joined room")
			} else {
				h.leave(cl, tn)
				h.reply(cl, ports.EventLeft, ports.RoomRequest{TrackingNumber: tn})
				log.Debug().Str("tracking", tn).Msg("left room")
			}
		default:
			h.reply(cl, ports.EventError, ErrorPayload{Message: "unknown message type: " + msg.Type, Code: "INVALID_TYPE"})
		}
	}
}

func (h *Hub) writePump(cl *client, log zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := cl.conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("tracking client write failed")
				return
			}
		case <-ticker.C:
			if err := cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// reply queues a message for cl. It is a no-op once the client is gone.
func (h *Hub) reply(cl *client, typ string, payload any) {
	msg, err := NewMessage(typ, payload)
	if err != nil {
		h.log.Error().Err(err).Msg("encode reply")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[cl]; !ok || h.closed {
		return
	}
	select {
	case cl.send <- msg:
	default:
		h.log.Warn().Str("client_id", cl.id).Str("type", typ).Msg("client buffer full, reply dropped")
	}
}

func roomFrom(raw json.RawMessage) (string, bool) {
	var req ports.RoomRequest
	if len(raw) == 0 || json.Unmarshal(raw, &req) != nil {
		return "", false
	}
	return domain.NormalizeTrackingNumber(req.TrackingNumber)
}
