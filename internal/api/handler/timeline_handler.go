package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/tracking-live/internal/core/ports"
)

// TimelineHandler serves the rendered status timeline of a shipment.
type TimelineHandler struct {
	service ports.TimelineService
}

func NewTimelineHandler(service ports.TimelineService) *TimelineHandler {
	return &TimelineHandler{service: service}
}

// Get handles GET /v1/shipments/:tracking_number/timeline.
//
// @Summary      Shipment status timeline
// @Tags         shipments
// @Produce      json
// @Param        tracking_number  path      string  true   "Tracking number"
// @Param        expanded         query     bool    false  "Show the full history instead of the latest entries"
// @Success      200              {object}  domain.TrackingView
// @Failure      400              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Router       /v1/shipments/{tracking_number}/timeline [get]
func (h *TimelineHandler) Get(c echo.Context) error {
	expanded := false
	if raw := c.QueryParam("expanded"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "expanded must be a boolean")
		}
		expanded = v
	}

	view, err := h.service.Timeline(c.Request().Context(), c.Param("tracking_number"), expanded)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}
