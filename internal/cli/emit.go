package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/infrastructure/db/redis"
)

type emitOptions struct {
	RedisAddr string
	Channel   string
	Location  string
	Note      string
	Source    string
}

// NewEmitCommand creates the emit command.
func NewEmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &emitOptions{}
	cmd := &cobra.Command{
		Use:   "emit <tracking-number> <status>",
		Short: "Publish a tracking event on the Redis relay",
		Long: `Publish a tracking event on the relay channel trackingd listens to. The
event goes through the same recording and fan-out as POST /v1/events.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tn, ok := domain.NormalizeTrackingNumber(args[0])
			if !ok {
				return fmt.Errorf("%q: %w", args[0], domain.ErrInvalidTrackingNumber)
			}
			status := domain.ShipmentStatus(args[1])
			if !status.IsKnown() {
				return fmt.Errorf("%q: %w", args[1], domain.ErrInvalidStatus)
			}

			ctx := cmd.Context()
			client, err := redis.Connect(ctx, redis.Config{Addr: opts.RedisAddr})
			if err != nil {
				return err
			}
			defer client.Close()

			msg := redis.RelayMessage{
				TrackingNumber: tn,
				Status:         string(status),
				Location:       opts.Location,
				Note:           opts.Note,
				Timestamp:      time.Now().UTC(),
				Source:         opts.Source,
			}
			relay := redis.NewDeltaRelay(client, opts.Channel, nil, rootOpts.logger(cmd))
			if err := relay.Publish(ctx, msg); err != nil {
				return err
			}
			return rootOpts.printer(cmd).print(msg, func(w io.Writer) {
				fmt.Fprintf(w, "published %s %s\n", tn, status)
			})
		},
	}

	cmd.Flags().StringVar(&opts.RedisAddr, "redis-addr", envOr("REDIS_ADDR", "localhost:6379"), "Redis address")
	cmd.Flags().StringVar(&opts.Channel, "channel", redis.DefaultRelayChannel, "relay channel")
	cmd.Flags().StringVar(&opts.Location, "location", "", "where the shipment is")
	cmd.Flags().StringVar(&opts.Note, "note", "", "free-text note")
	cmd.Flags().StringVar(&opts.Source, "source", "trackctl", "event source")
	return cmd
}
