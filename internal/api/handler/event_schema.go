package handler

import (
	"time"

	"github.com/99minutos/tracking-live/internal/core/ports"
)

// errorResponse is the body of every error reply.
type errorResponse struct {
	Error string `json:"error"`
}

type trackingEventRequest struct {
	TrackingNumber string    `json:"tracking_number" validate:"required,max=64"`
	Status         string    `json:"status"          validate:"required,shipment_status"`
	Location       string    `json:"location"        validate:"max=256"`
	Note           string    `json:"note"            validate:"max=512"`
	Timestamp      time.Time `json:"timestamp"`
	Source         string    `json:"source"          validate:"required"`
}

type acceptedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

func (r trackingEventRequest) input() ports.TrackingEventInput {
	return ports.TrackingEventInput{
		TrackingNumber: r.TrackingNumber,
		Status:         r.Status,
		Location:       r.Location,
		Note:           r.Note,
		Timestamp:      r.Timestamp,
		Source:         r.Source,
	}
}
