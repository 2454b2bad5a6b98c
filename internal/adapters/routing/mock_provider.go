package routing

import (
	"context"
	"errors"

	"field-route-service/internal/domain"
)

// MockProvider is a test double for the RoutingProvider port.
//
// It orders points by haversine nearest-neighbor from the origin and
// estimates legs, or fails every call when Fail is set.
type MockProvider struct {
	Fail  bool
	Calls int
}

var errMockProvider = errors.New("mock routing provider failure")

func (m *MockProvider) OptimizeOrder(_ context.Context, origin domain.Coordinates, points []domain.Coordinates) ([]int, []domain.Leg, error) {
	m.Calls++
	if m.Fail {
		return nil, nil, errMockProvider
	}

	remaining := make([]int, len(points))
	for i := range points {
		remaining[i] = i
	}

	order := make([]int, 0, len(points))
	legs := make([]domain.Leg, 0, len(points))
	current := origin

	for len(remaining) > 0 {
		best := 0
		bestDist := domain.Haversine(current, points[remaining[0]])
		for i := 1; i < len(remaining); i++ {
			if d := domain.Haversine(current, points[remaining[i]]); d < bestDist {
				best = i
				bestDist = d
			}
		}

		idx := remaining[best]
		legs = append(legs, domain.EstimateLeg(current, points[idx]))
		order = append(order, idx)
		current = points[idx]
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	return order, legs, nil
}

func (m *MockProvider) LegsForFixedOrder(_ context.Context, origin domain.Coordinates, points []domain.Coordinates) ([]domain.Leg, error) {
	m.Calls++
	if m.Fail {
		return nil, errMockProvider
	}

	legs := make([]domain.Leg, len(points))
	current := origin
	for i, pt := range points {
		legs[i] = domain.EstimateLeg(current, pt)
		current = pt
	}
	return legs, nil
}

func (m *MockProvider) NavigationURL(domain.Coordinates, []domain.Coordinates) string {
	return "https://example.test/navigate"
}
