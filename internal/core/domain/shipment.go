package domain

import "time"

// ShipmentStatus represents the lifecycle state of a shipment as reported by
// the backend. Values are the display strings used on the wire.
type ShipmentStatus string

const (
	StatusPending        ShipmentStatus = "Pending"
	StatusProcessing     ShipmentStatus = "Processing"
	StatusConfirmed      ShipmentStatus = "Confirmed"
	StatusPickedUp       ShipmentStatus = "Picked Up"
	StatusInTransit      ShipmentStatus = "In Transit"
	StatusOutForDelivery ShipmentStatus = "Out for Delivery"
	StatusDelivered      ShipmentStatus = "Delivered"

	// Out-of-band states. They sit outside the canonical order and never
	// block a later status change coming from the backend.
	StatusCancelled ShipmentStatus = "Cancelled"
	StatusOnHold    ShipmentStatus = "On Hold"
)

// HistoryEntry records a single status change on a shipment.
// Entries are unique by (Status, Timestamp).
type HistoryEntry struct {
	Status    ShipmentStatus `json:"status" bson:"status"`
	Location  string         `json:"location" bson:"location"`
	Note      string         `json:"note,omitempty" bson:"note,omitempty"`
	Timestamp time.Time      `json:"timestamp" bson:"timestamp"`
}

// Shipment is the read-mostly projection of a backend shipment.
type Shipment struct {
	TrackingNumber    string         `json:"tracking_number" bson:"tracking_number"`
	Status            ShipmentStatus `json:"status" bson:"status"`
	CurrentLocation   string         `json:"current_location" bson:"current_location"`
	Origin            string         `json:"origin" bson:"origin"`
	Destination       string         `json:"destination" bson:"destination"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery,omitempty" bson:"estimated_delivery,omitempty"`
	History           []HistoryEntry `json:"status_history" bson:"status_history"`
}

// Clone returns a copy that shares no slices with s.
func (s Shipment) Clone() Shipment {
	out := s
	if s.History != nil {
		out.History = append([]HistoryEntry(nil), s.History...)
	}
	if s.EstimatedDelivery != nil {
		eta := *s.EstimatedDelivery
		out.EstimatedDelivery = &eta
	}
	return out
}
