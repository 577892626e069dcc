package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/tracking-live/docs"
	"github.com/99minutos/tracking-live/internal/api/handler"
	"github.com/99minutos/tracking-live/internal/api/middleware"
	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

// Dependencies are the collaborators the HTTP surface is built on.
type Dependencies struct {
	Resolver   ports.GeocodeResolver
	Timeline   ports.TimelineService
	Dispatcher handler.EventDispatcher
	// Stream serves the websocket upgrade on /ws.
	Stream echo.HandlerFunc
	Probes map[string]handler.Probe

	JWTSecret string
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("tracking"))

	authMiddleware := middleware.Auth(d.JWTSecret)
	ingest := middleware.RBAC(domain.RoleAdmin, domain.RoleCarrier)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler(d.Probes)
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Tracking stream ---
	if d.Stream != nil {
		e.GET("/ws", d.Stream, authMiddleware)
	}

	v1 := e.Group("/v1", authMiddleware)

	geocodeHandler := handler.NewGeocodeHandler(d.Resolver)
	v1.GET("/geocode", geocodeHandler.Resolve)
	v1.POST("/geocode/batch", geocodeHandler.ResolveBatch)
	v1.GET("/distance", geocodeHandler.Distance)

	if d.Timeline != nil {
		v1.GET("/shipments/:tracking_number/timeline", handler.NewTimelineHandler(d.Timeline).Get)
	}

	if d.Dispatcher != nil {
		eventHandler := handler.NewEventHandler(d.Dispatcher)
		v1.POST("/events", eventHandler.Receive, ingest)
		v1.POST("/events/batch", eventHandler.ReceiveBatch, ingest)
	}

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
