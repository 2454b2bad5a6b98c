package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	bangkokCenter = Coordinates{Lat: 13.7563, Lng: 100.5018}
	donMueang     = Coordinates{Lat: 13.9126, Lng: 100.6068}
)

func TestHaversine(t *testing.T) {
	assert.Zero(t, Haversine(bangkokCenter, bangkokCenter))

	// City center to Don Mueang is roughly 21 km great-circle.
	d := Haversine(bangkokCenter, donMueang)
	assert.InDelta(t, 21000, d, 1000)

	// Symmetry.
	assert.InDelta(t, d, Haversine(donMueang, bangkokCenter), 1e-9)
}

func TestEstimateLeg(t *testing.T) {
	leg := EstimateLeg(bangkokCenter, donMueang)

	// Road factor inflates the great-circle distance.
	assert.Greater(t, float64(leg.DistanceMeters), Haversine(bangkokCenter, donMueang))

	// ~27 km of road at 40 km/h is ~41 minutes.
	expectedMinutes := float64(leg.DistanceMeters) / 1000.0 / 40.0 * 60.0
	assert.InDelta(t, expectedMinutes, float64(leg.DurationMinutes), 1.0)
}

func TestEstimateLegZeroDistance(t *testing.T) {
	leg := EstimateLeg(bangkokCenter, bangkokCenter)
	assert.Zero(t, leg.DistanceMeters)
	assert.Zero(t, leg.DurationMinutes)
}
