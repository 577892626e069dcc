package domain

import "strings"

// ContinentalCentroid is returned by FallbackCoordinates when no known city
// matches (geographic centre of the contiguous United States).
var ContinentalCentroid = Coordinates{Lat: 39.8283, Lon: -98.5795}

type knownCity struct {
	match  string
	coords Coordinates
}

// knownCities is matched in order; the first substring hit wins, so longer
// names that contain shorter ones must come first.
var knownCities = []knownCity{
	{"new york", Coordinates{Lat: 40.7128, Lon: -74.0060}},
	{"los angeles", Coordinates{Lat: 34.0522, Lon: -118.2437}},
	{"chicago", Coordinates{Lat: 41.8781, Lon: -87.6298}},
	{"houston", Coordinates{Lat: 29.7604, Lon: -95.3698}},
	{"phoenix", Coordinates{Lat: 33.4484, Lon: -112.0740}},
	{"philadelphia", Coordinates{Lat: 39.9526, Lon: -75.1652}},
	{"san antonio", Coordinates{Lat: 29.4241, Lon: -98.4936}},
	{"san diego", Coordinates{Lat: 32.7157, Lon: -117.1611}},
	{"dallas", Coordinates{Lat: 32.7767, Lon: -96.7970}},
	{"san francisco", Coordinates{Lat: 37.7749, Lon: -122.4194}},
	{"seattle", Coordinates{Lat: 47.6062, Lon: -122.3321}},
	{"denver", Coordinates{Lat: 39.7392, Lon: -104.9903}},
	{"boston", Coordinates{Lat: 42.3601, Lon: -71.0589}},
	{"atlanta", Coordinates{Lat: 33.7490, Lon: -84.3880}},
	{"miami", Coordinates{Lat: 25.7617, Lon: -80.1918}},
	{"washington", Coordinates{Lat: 38.9072, Lon: -77.0369}},
	{"toronto", Coordinates{Lat: 43.6532, Lon: -79.3832}},
	{"mexico city", Coordinates{Lat: 19.4326, Lon: -99.1332}},
	{"london", Coordinates{Lat: 51.5074, Lon: -0.1278}},
	{"paris", Coordinates{Lat: 48.8566, Lon: 2.3522}},
}

// FallbackCoordinates returns an approximate point for place without any
// lookup. It never fails.
func FallbackCoordinates(place string) Coordinates {
	p := strings.ToLower(place)
	for _, c := range knownCities {
		if strings.Contains(p, c.match) {
			return c.coords
		}
	}
	return ContinentalCentroid
}
