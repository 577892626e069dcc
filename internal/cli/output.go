package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/99minutos/tracking-live/internal/core/domain"
)

// printer renders command results as text or one JSON document per line.
type printer struct {
	format string
	w      io.Writer
}

func (p *printer) print(v any, text func(io.Writer)) error {
	if p.format == "json" {
		return json.NewEncoder(p.w).Encode(v)
	}
	text(p.w)
	return nil
}

type placeOutput struct {
	Place       string  `json:"place"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Origin      string  `json:"origin"`
	Approximate bool    `json:"approximate"`
}

func (o placeOutput) writeText(w io.Writer) {
	suffix := ""
	if o.Approximate {
		suffix = " (approximate)"
	}
	fmt.Fprintf(w, "%-32s %10.5f %11.5f  %s%s\n", o.Place, o.Lat, o.Lon, o.Origin, suffix)
}

func writeView(w io.Writer, v domain.TrackingView) {
	s := v.Shipment
	state := fmt.Sprintf("step %d/%d, %.0f%%", v.Step+1, len(domain.Steps()), v.Progress)
	if v.OutOfBand {
		state = "out of band"
	}
	fmt.Fprintf(w, "%s  %s  [%s]\n", s.TrackingNumber, s.Status, state)
	if s.CurrentLocation != "" {
		fmt.Fprintf(w, "  at %s\n", s.CurrentLocation)
	}
	for _, e := range v.Visible {
		line := fmt.Sprintf("  %s  %-16s %s", e.Timestamp.Local().Format("Jan 02 15:04"), e.Status, e.Location)
		if e.Note != "" {
			line += "  (" + e.Note + ")"
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	if hidden := len(v.History) - len(v.Visible); hidden > 0 {
		fmt.Fprintf(w, "  ... %d earlier\n", hidden)
	}
}

func formatKm(km float64) string {
	return fmt.Sprintf("%.1f km", km)
}
