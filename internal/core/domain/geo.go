package domain

import (
	"math"
	"strings"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Coordinates represents a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat" msgpack:"lat"`
	Lon float64 `json:"lon" bson:"lon" msgpack:"lon"`
}

// GeocodeOrigin records which tier produced a resolution.
type GeocodeOrigin string

const (
	OriginMemory     GeocodeOrigin = "memory"
	OriginPersistent GeocodeOrigin = "persistent"
	OriginNetwork    GeocodeOrigin = "network"
	OriginFallback   GeocodeOrigin = "fallback"
)

// Resolution is the outcome of a successful geocode lookup.
type Resolution struct {
	QueryKey    string        `json:"query_key"`
	Coordinates Coordinates   `json:"coordinates"`
	Origin      GeocodeOrigin `json:"origin"`
}

// GeocodeKey normalizes a place name into the durable cache key.
func GeocodeKey(place string) string {
	return strings.ToLower(place)
}

// DistanceKm returns the haversine great-circle distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	la1 := lat1 * math.Pi / 180
	la2 := lat2 * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// DistanceBetween is DistanceKm for two Coordinates.
func DistanceBetween(a, b Coordinates) float64 {
	return DistanceKm(a.Lat, a.Lon, b.Lat, b.Lon)
}
