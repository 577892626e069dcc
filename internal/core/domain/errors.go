package domain

import "errors"

var (
	// ErrNotFound means a geocode lookup produced no usable result.
	// Callers should use FallbackCoordinates.
	ErrNotFound = errors.New("geocode: not found")

	// ErrNotConnected is returned by Subscribe while the channel is down.
	ErrNotConnected = errors.New("tracking channel: not connected")

	// ErrTransport wraps failures of the underlying pub/sub connection.
	ErrTransport = errors.New("tracking channel: transport error")

	// ErrCacheWrite marks a rejected durable cache write. It is logged, never
	// returned from a resolve.
	ErrCacheWrite = errors.New("geocode cache: write failed")

	ErrShipmentNotFound      = errors.New("shipment not found")
	ErrInvalidTrackingNumber = errors.New("invalid tracking number")
	ErrInvalidStatus         = errors.New("invalid shipment status")
	ErrForbidden             = errors.New("access forbidden")
)
