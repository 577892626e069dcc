// Package ws carries tracking deltas over websockets: Hub is the server side
// that fans deltas out to rooms keyed by tracking number, Transport is the
// client side used by a TrackingChannel.
package ws

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// ErrorPayload is sent with "error" messages.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ConnectedPayload is sent once, right after the upgrade.
type ConnectedPayload struct {
	ClientID string `json:"client_id"`
}

// NewMessage builds an envelope stamped with the current time. A nil payload
// produces a message without payload.
func NewMessage(typ string, payload any) (Message, error) {
	msg := Message{Type: typ, Timestamp: time.Now().UnixMilli()}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	msg.Payload = raw
	return msg, nil
}
