package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

// GeocodeHandler exposes place resolution and distance estimates. Failed
// lookups are answered with fallback coordinates flagged as approximate, so
// map views can always render something.
type GeocodeHandler struct {
	resolver ports.GeocodeResolver
}

func NewGeocodeHandler(resolver ports.GeocodeResolver) *GeocodeHandler {
	return &GeocodeHandler{resolver: resolver}
}

// Resolve handles GET /v1/geocode.
//
// @Summary      Resolve a place name to coordinates
// @Tags         geocode
// @Produce      json
// @Param        place  query     string  true  "Free-text place name"
// @Success      200    {object}  geocodeResponse
// @Failure      400    {object}  errorResponse
// @Router       /v1/geocode [get]
func (h *GeocodeHandler) Resolve(c echo.Context) error {
	place := c.QueryParam("place")
	if strings.TrimSpace(place) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "place is required")
	}
	return c.JSON(http.StatusOK, h.resolve(c, place))
}

// ResolveBatch handles POST /v1/geocode/batch. Results keep request order.
// Network lookups are paced, so large batches of unseen places are slow.
//
// @Summary      Resolve several place names
// @Tags         geocode
// @Accept       json
// @Produce      json
// @Param        body  body      geocodeBatchRequest  true  "Places"
// @Success      200   {object}  geocodeBatchResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/geocode/batch [post]
func (h *GeocodeHandler) ResolveBatch(c echo.Context) error {
	var req geocodeBatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	resp := geocodeBatchResponse{Results: make([]geocodeResponse, 0, len(req.Places))}
	for place, res := range h.resolver.ResolveMany(c.Request().Context(), req.Places) {
		resp.Results = append(resp.Results, h.toResponse(place, res.Resolution, res.Err))
	}
	if err := c.Request().Context().Err(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Distance handles GET /v1/distance.
//
// @Summary      Great-circle distance between two places
// @Tags         geocode
// @Produce      json
// @Param        from  query     string  true  "Origin place"
// @Param        to    query     string  true  "Destination place"
// @Success      200   {object}  distanceResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/distance [get]
func (h *GeocodeHandler) Distance(c echo.Context) error {
	from, to := c.QueryParam("from"), c.QueryParam("to")
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "from and to are required")
	}

	a, b := h.resolve(c, from), h.resolve(c, to)
	return c.JSON(http.StatusOK, distanceResponse{
		From: a,
		To:   b,
		DistanceKm: domain.DistanceBetween(
			domain.Coordinates{Lat: a.Lat, Lon: a.Lon},
			domain.Coordinates{Lat: b.Lat, Lon: b.Lon},
		),
	})
}

func (h *GeocodeHandler) resolve(c echo.Context, place string) geocodeResponse {
	res, err := h.resolver.Resolve(c.Request().Context(), place)
	return h.toResponse(place, res, err)
}

func (h *GeocodeHandler) toResponse(place string, res domain.Resolution, err error) geocodeResponse {
	if err != nil {
		reason := "lookup failed"
		if errors.Is(err, domain.ErrNotFound) {
			reason = "not found"
		}
		fb := h.resolver.Fallback(place)
		return geocodeResponse{
			Place:       place,
			Lat:         fb.Lat,
			Lon:         fb.Lon,
			Origin:      string(domain.OriginFallback),
			Approximate: true,
			Error:       reason,
		}
	}
	return geocodeResponse{
		Place:  place,
		Lat:    res.Coordinates.Lat,
		Lon:    res.Coordinates.Lon,
		Origin: string(res.Origin),
	}
}
