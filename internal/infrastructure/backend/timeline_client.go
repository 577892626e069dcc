// Package backend reads shipments from a running trackingd over HTTP, for
// processes that track without direct database access.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

// TimelineClient implements the shipment fetch contract on top of
// GET /v1/shipments/:tracking_number/timeline.
type TimelineClient struct {
	baseURL string
	token   string
	session *http.Client
}

var _ ports.ShipmentBackend = (*TimelineClient)(nil)

func NewTimelineClient(baseURL, token string, client *http.Client) *TimelineClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &TimelineClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		session: client,
	}
}

// GetShipmentByTrackingNumber returns the shipment with its full merged
// history.
func (c *TimelineClient) GetShipmentByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	endpoint := fmt.Sprintf("%s/v1/shipments/%s/timeline?expanded=true", c.baseURL, url.PathEscape(trackingNumber))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch timeline %s: %w", trackingNumber, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrShipmentNotFound
	case resp.StatusCode == http.StatusBadRequest:
		return nil, domain.ErrInvalidTrackingNumber
	case resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrForbidden
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch timeline %s: status %d: %s", trackingNumber, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var view domain.TrackingView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return nil, fmt.Errorf("decode timeline %s: %w", trackingNumber, err)
	}
	s := view.Shipment
	s.History = view.History
	return &s, nil
}

// GetEventHistory returns nothing: the timeline endpoint already merges the
// event trail into the shipment history.
func (c *TimelineClient) GetEventHistory(context.Context, string) ([]domain.HistoryEntry, error) {
	return nil, nil
}
