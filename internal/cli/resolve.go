package cli

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	g := &geocoderOptions{}
	cmd := &cobra.Command{
		Use:   "resolve <place>...",
		Short: "Resolve place names to coordinates",
		Long: `Resolve place names in order. Network lookups are paced by --min-interval;
places that cannot be resolved are printed with approximate coordinates.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, release, err := g.open(rootOpts.logger(cmd))
			if err != nil {
				return err
			}
			defer release()

			p := rootOpts.printer(cmd)
			for place, res := range resolver.ResolveMany(cmd.Context(), args) {
				out := toPlaceOutput(resolver, place, res)
				if err := p.print(out, out.writeText); err != nil {
					return err
				}
			}
			return cmd.Context().Err()
		},
	}
	addGeocoderFlags(cmd, g)
	return cmd
}

// NewDistanceCommand creates the distance command.
func NewDistanceCommand(rootOpts *RootOptions) *cobra.Command {
	g := &geocoderOptions{}
	cmd := &cobra.Command{
		Use:   "distance <from> <to>",
		Short: "Great-circle distance between two places",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, release, err := g.open(rootOpts.logger(cmd))
			if err != nil {
				return err
			}
			defer release()

			var ends []placeOutput
			for place, res := range resolver.ResolveMany(cmd.Context(), args) {
				ends = append(ends, toPlaceOutput(resolver, place, res))
			}
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if len(ends) != 2 {
				return errors.New("distance: lookup interrupted")
			}

			from, to := ends[0], ends[1]
			out := struct {
				From       placeOutput `json:"from"`
				To         placeOutput `json:"to"`
				DistanceKm float64     `json:"distance_km"`
			}{
				From:       from,
				To:         to,
				DistanceKm: domain.DistanceKm(from.Lat, from.Lon, to.Lat, to.Lon),
			}
			return rootOpts.printer(cmd).print(out, func(w io.Writer) {
				from.writeText(w)
				to.writeText(w)
				approx := ""
				if from.Approximate || to.Approximate {
					approx = " (approximate)"
				}
				_, _ = io.WriteString(w, formatKm(out.DistanceKm)+approx+"\n")
			})
		},
	}
	addGeocoderFlags(cmd, g)
	return cmd
}

func toPlaceOutput(r ports.GeocodeResolver, place string, res ports.PlaceResult) placeOutput {
	if res.Err != nil {
		c := r.Fallback(place)
		return placeOutput{Place: place, Lat: c.Lat, Lon: c.Lon, Origin: string(domain.OriginFallback), Approximate: true}
	}
	return placeOutput{
		Place:  place,
		Lat:    res.Resolution.Coordinates.Lat,
		Lon:    res.Resolution.Coordinates.Lon,
		Origin: string(res.Resolution.Origin),
	}
}
