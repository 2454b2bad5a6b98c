package domain

import "math"

const earthRadiusMeters = 6371000

// Road distances exceed great-circle distances; the factor approximates the
// detour ratio of an urban road network. Used only when no provider legs are
// available.
const (
	roadFactor      = 1.3
	averageSpeedKmh = 40.0
)

// Immutable geographic coordinates (latitude, longitude).
type Coordinates struct {
	Lat float64
	Lng float64
}

// Haversine returns the great-circle distance between two points in meters.
func Haversine(a, b Coordinates) float64 {
	dLat := (b.Lat - a.Lat) * (math.Pi / 180.0)
	dLng := (b.Lng - a.Lng) * (math.Pi / 180.0)

	latA := a.Lat * (math.Pi / 180.0)
	latB := b.Lat * (math.Pi / 180.0)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(latA)*math.Cos(latB)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// EstimateLeg approximates a travel leg between two points when the routing
// provider is unavailable: haversine scaled by a road factor, at a fixed
// average speed.
func EstimateLeg(from, to Coordinates) Leg {
	meters := Haversine(from, to) * roadFactor
	minutes := meters / 1000.0 / averageSpeedKmh * 60.0

	return Leg{
		DistanceMeters:  int(math.Round(meters)),
		DurationMinutes: int(math.Ceil(minutes)),
	}
}
