package domain

import (
	"strings"
	"time"
)

// ConnState is the lifecycle state of a tracking channel connection.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// TrackingSubscription is a channel's interest in one tracking number.
type TrackingSubscription struct {
	TrackingNumber string `json:"tracking_number"`
	ChannelID      string `json:"channel_id"`
	Active         bool   `json:"active"`
}

// Delta is an incremental status/location update pushed to subscribers.
type Delta struct {
	TrackingNumber string         `json:"tracking_number" msgpack:"tracking_number"`
	Status         ShipmentStatus `json:"status,omitempty" msgpack:"status"`
	Location       string         `json:"location,omitempty" msgpack:"location"`
	Note           string         `json:"note,omitempty" msgpack:"note"`
	Timestamp      time.Time      `json:"timestamp" msgpack:"timestamp"`
}

// Entry converts the delta into a history entry.
func (d Delta) Entry() HistoryEntry {
	return HistoryEntry{
		Status:    d.Status,
		Location:  d.Location,
		Note:      d.Note,
		Timestamp: d.Timestamp,
	}
}

// NormalizeTrackingNumber trims and upper-cases a tracking number and reports
// whether the result is usable as a room key.
func NormalizeTrackingNumber(tn string) (string, bool) {
	tn = strings.ToUpper(strings.TrimSpace(tn))
	if tn == "" || strings.ContainsAny(tn, " \t\r\n") {
		return "", false
	}
	return tn, true
}
