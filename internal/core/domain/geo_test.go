package domain

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	nyLat, nyLon := 40.7128, -74.0060
	laLat, laLon := 34.0522, -118.2437

	d := DistanceKm(nyLat, nyLon, laLat, laLon)
	if d < 3930 || d > 3950 {
		t.Errorf("NY-LA = %.1f km, want ~3936", d)
	}
	if back := DistanceKm(laLat, laLon, nyLat, nyLon); math.Abs(back-d) > 1e-9 {
		t.Errorf("not symmetric: %v vs %v", d, back)
	}
	if z := DistanceKm(nyLat, nyLon, nyLat, nyLon); z != 0 {
		t.Errorf("identical points = %v, want 0", z)
	}
}

func TestDistanceBetween(t *testing.T) {
	a := Coordinates{Lat: 51.5074, Lon: -0.1278}
	b := Coordinates{Lat: 48.8566, Lon: 2.3522}
	if d := DistanceBetween(a, b); d < 340 || d > 346 {
		t.Errorf("London-Paris = %.1f km, want ~343", d)
	}
}

func TestFallbackCoordinates(t *testing.T) {
	tests := []struct {
		place string
		want  Coordinates
	}{
		{"Warehouse 4, NEW YORK, NY", Coordinates{Lat: 40.7128, Lon: -74.0060}},
		{"mexico city hub", Coordinates{Lat: 19.4326, Lon: -99.1332}},
		{"Nowhereville", ContinentalCentroid},
		{"", ContinentalCentroid},
	}
	for _, tt := range tests {
		if got := FallbackCoordinates(tt.place); got != tt.want {
			t.Errorf("FallbackCoordinates(%q) = %v, want %v", tt.place, got, tt.want)
		}
	}
}

func TestNormalizeTrackingNumber(t *testing.T) {
	if got, ok := NormalizeTrackingNumber("  trk-1 "); !ok || got != "TRK-1" {
		t.Errorf("got %q ok=%v", got, ok)
	}
	for _, bad := range []string{"", "   ", "TRK 1"} {
		if _, ok := NormalizeTrackingNumber(bad); ok {
			t.Errorf("%q should be rejected", bad)
		}
	}
}
