// Command trackingd serves live shipment tracking: the websocket hub, event
// ingestion, status timelines and cached geocoding.
//
// @title                       Tracking Live API
// @version                     1.0
// @description                 Live shipment tracking, status timelines and geocoding.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/tracking-live/internal/api"
	"github.com/99minutos/tracking-live/internal/api/handler"
	"github.com/99minutos/tracking-live/internal/core/service"
	"github.com/99minutos/tracking-live/internal/infrastructure/db/mongo"
	"github.com/99minutos/tracking-live/internal/infrastructure/db/redis"
	"github.com/99minutos/tracking-live/internal/infrastructure/geocoding"
	"github.com/99minutos/tracking-live/internal/infrastructure/queue"
	"github.com/99minutos/tracking-live/internal/infrastructure/transport/ws"
	"github.com/99minutos/tracking-live/internal/pkg/config"
	"github.com/99minutos/tracking-live/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "trackingd",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("trackingd stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "trackingd",
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	backend := mongo.NewBackend(db)
	if err := backend.ShipmentRepository.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := backend.EventRepository.EnsureIndexes(ctx); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	cache, err := openGeocodeCache(ctx, cfg.Cache, rdb)
	if err != nil {
		return err
	}
	defer cache.close()

	// --- Core services ---
	provider := geocoding.NewNominatim(geocoding.Options{
		BaseURL:     cfg.Geocoder.BaseURL,
		UserAgent:   cfg.Geocoder.UserAgent,
		MaxAttempts: cfg.Geocoder.MaxAttempts,
	})
	resolver := service.NewGeocodeResolver(cache.store, provider, service.ResolverOptions{
		LookupTimeout: cfg.Geocoder.Timeout,
		MinInterval:   cfg.Geocoder.MinInterval,
	}, logger.Component("geocode"))

	hub := ws.NewHub(logger.Component("hub"))
	events := service.NewEventService(backend.EventRepository, hub, redis.NewDedupChecker(rdb), logger.Component("events"))

	// Workers outlive ctx so queued events drain while the server shuts down.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Hub.Workers, events, logger.Component("dispatcher"))
	dispatcher.Start(workerCtx)
	defer func() {
		cancelWorkers()
		dispatcher.Wait()
	}()

	if cfg.Hub.RelayEnabled {
		relay := redis.NewDeltaRelay(rdb, cfg.Hub.RelayChannel, dispatcher, logger.Component("relay"))
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error().Err(err).Msg("delta relay stopped")
			}
		}()
	}

	// --- HTTP ---
	probes := map[string]handler.Probe{
		"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
		"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
	if cache.probe != nil {
		probes["geocode_cache"] = cache.probe
	}

	e := api.NewRouter(api.Dependencies{
		Resolver:   resolver,
		Timeline:   service.NewTimelineService(backend, logger.Component("timeline")),
		Dispatcher: dispatcher,
		Stream:     hub.Handle,
		Probes:     probes,
		JWTSecret:  cfg.JWTSecret,
		Log:        logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("cache", cfg.Cache.Backend).Msg("trackingd listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return err
	}

	hub.Close()
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
