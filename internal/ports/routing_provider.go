package ports

import (
	"context"

	"field-route-service/internal/domain"
)

// Contract for the external road-routing provider.
//
// Provider failures are recoverable: callers fall back to deterministic
// ordering and haversine leg estimates rather than failing the plan.
type RoutingProvider interface {
	// OptimizeOrder returns a visiting order (indices into points) and the
	// legs of the optimized sequence, origin -> points[order[0]] -> ... .
	OptimizeOrder(ctx context.Context, origin domain.Coordinates, points []domain.Coordinates) ([]int, []domain.Leg, error)

	// LegsForFixedOrder returns travel legs for an already-ordered sequence,
	// origin -> points[0] -> points[1] -> ... (no re-optimization).
	LegsForFixedOrder(ctx context.Context, origin domain.Coordinates, points []domain.Coordinates) ([]domain.Leg, error)

	// NavigationURL builds a deep link for driving the ordered sequence.
	NavigationURL(origin domain.Coordinates, orderedPoints []domain.Coordinates) string
}
