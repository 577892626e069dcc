package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
	"github.com/99minutos/tracking-live/internal/core/service"
	"github.com/99minutos/tracking-live/internal/infrastructure/backend"
	"github.com/99minutos/tracking-live/internal/infrastructure/transport/ws"
)

type watchOptions struct {
	Count    int
	Expanded bool
	Locate   bool
	// Reconnects bounds consecutive failed reconnect attempts (0 = unlimited).
	Reconnects int
	Geocoder   geocoderOptions
}

type watchUpdate struct {
	View     domain.TrackingView `json:"view"`
	Position *domain.Coordinates `json:"position,omitempty"`
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch <tracking-number>...",
		Short: "Follow shipments live",
		Long: `Print the current timeline of each shipment, then every update pushed by
trackingd until interrupted or --count updates were received.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runWatch(ctx, cmd, rootOpts, opts, args)
		},
	}

	cmd.Flags().IntVarP(&opts.Count, "count", "n", 0, "exit after this many updates (0 = never)")
	cmd.Flags().BoolVar(&opts.Expanded, "expanded", false, "print the full history")
	cmd.Flags().BoolVar(&opts.Locate, "locate", false, "geocode the current location of each shipment")
	cmd.Flags().IntVar(&opts.Reconnects, "reconnect-attempts", 0, "give up after this many failed reconnects (0 = never)")
	addGeocoderFlags(cmd, &opts.Geocoder)
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, rootOpts *RootOptions, opts *watchOptions, trackingNumbers []string) error {
	if rootOpts.Token == "" {
		return errors.New("an access token is required (--token or $TRACKING_TOKEN)")
	}
	log := rootOpts.logger(cmd)

	var resolver ports.GeocodeResolver
	if opts.Locate {
		r, release, err := opts.Geocoder.open(log)
		if err != nil {
			return err
		}
		defer release()
		resolver = r
	}

	channel := service.NewTrackingChannel(ws.NewTransport(streamURL(rootOpts.Server), log), log)
	tracker := service.NewShipmentTracker(
		backend.NewTimelineClient(rootOpts.Server, rootOpts.Token, nil),
		channel,
		resolver,
		log,
	)

	updates := make(chan domain.TrackingView, 64)
	tracker.OnUpdate(func(v domain.TrackingView) {
		select {
		case updates <- v:
		default:
			log.Warn().Str("tracking", v.Shipment.TrackingNumber).Msg("output is falling behind, update skipped")
		}
	})
	channel.OnStateChange(func(s domain.ConnState) {
		log.Debug().Str("state", s.String()).Msg("tracking channel")
	})

	reconnector := service.NewReconnector(channel, rootOpts.Token, service.ReconnectOptions{MaxAttempts: opts.Reconnects}, log)

	channel.Start(ctx)
	defer channel.Close()
	if err := channel.Open(ctx, rootOpts.Token); err != nil {
		return err
	}

	// Cancelled before the deferred Close so the final teardown is not
	// mistaken for a drop.
	rctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lost := make(chan error, 1)
	go func() { lost <- reconnector.Run(rctx) }()

	p := rootOpts.printer(cmd)
	show := func(v domain.TrackingView) error {
		if opts.Expanded && !v.Expanded {
			v, _ = tracker.View(v.Shipment.TrackingNumber, true)
		}
		u := watchUpdate{View: v}
		if pos, ok := tracker.Position(v.Shipment.TrackingNumber); ok {
			u.Position = &pos
		}
		return p.print(u, func(w io.Writer) {
			writeView(w, u.View)
			if u.Position != nil {
				fmt.Fprintf(w, "  position %.5f, %.5f\n", u.Position.Lat, u.Position.Lon)
			}
		})
	}

	for _, tn := range trackingNumbers {
		view, err := tracker.Track(ctx, tn)
		if err != nil {
			return err
		}
		if err := show(view); err != nil {
			return err
		}
	}

	for n := 0; opts.Count == 0 || n < opts.Count; n++ {
		select {
		case <-ctx.Done():
			return nil
		case err := <-lost:
			return err
		case v := <-updates:
			if err := show(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// streamURL maps the server base URL to its websocket endpoint.
func streamURL(server string) string {
	u := strings.TrimRight(server, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}
