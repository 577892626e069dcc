package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/tracking-live/internal/core/domain"
)

const (
	defaultReconnectMinBackoff = 500 * time.Millisecond
	defaultReconnectMaxBackoff = 30 * time.Second
)

// ReconnectOptions tunes a Reconnector.
type ReconnectOptions struct {
	MinBackoff time.Duration
	MaxBackoff time.Duration
	// MaxAttempts bounds consecutive failed dials after a drop. Zero retries
	// until the context ends.
	MaxAttempts int
}

type reopener interface {
	Open(ctx context.Context, credential string) error
	State() domain.ConnState
	OnStateChange(func(domain.ConnState))
}

// Reconnector re-opens a channel with the same credential whenever its
// transport drops. Subscriptions are not restored here; the ShipmentTracker
// re-issues them on the following Connected transition.
type Reconnector struct {
	channel    reopener
	credential string
	opts       ReconnectOptions
	log        zerolog.Logger
	drops      chan struct{}
}

// NewReconnector registers on channel's state changes. Call Run to act on them.
func NewReconnector(channel reopener, credential string, opts ReconnectOptions, log zerolog.Logger) *Reconnector {
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = defaultReconnectMinBackoff
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = max(defaultReconnectMaxBackoff, opts.MinBackoff)
	}
	r := &Reconnector{
		channel:    channel,
		credential: credential,
		opts:       opts,
		log:        log,
		drops:      make(chan struct{}, 1),
	}
	channel.OnStateChange(func(s domain.ConnState) {
		if s != domain.StateDisconnected {
			return
		}
		select {
		case r.drops <- struct{}{}:
		default:
		}
	})
	return r
}

// Run blocks until ctx ends, reconnecting after every drop. It returns an
// error once MaxAttempts consecutive dials have failed.
func (r *Reconnector) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.drops:
		}
		if r.channel.State() != domain.StateDisconnected {
			continue
		}
		if err := r.reconnect(ctx); err != nil {
			return err
		}
	}
}

func (r *Reconnector) reconnect(ctx context.Context) error {
	backoff := r.opts.MinBackoff
	for attempt := 1; ; attempt++ {
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		err := r.channel.Open(ctx, r.credential)
		if err == nil {
			r.log.Info().Int("attempt", attempt).Msg("tracking channel reconnected")
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		r.log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", backoff).Msg("reconnect failed")
		if r.opts.MaxAttempts > 0 && attempt >= r.opts.MaxAttempts {
			return fmt.Errorf("reconnect: gave up after %d attempts: %w", attempt, err)
		}
		backoff = min(backoff*2, r.opts.MaxBackoff)
	}
}
