package ports

import (
	"context"

	"field-route-service/internal/domain"
)

// Optional persistent cache for travel legs between coordinate pairs.
//
// Best-effort: read and write failures are logged by callers and never fail a
// planning run.
type LegCache interface {
	// GetLeg returns the cached leg and whether it was present.
	GetLeg(ctx context.Context, from, to domain.Coordinates) (domain.Leg, bool, error)

	// PutLeg stores a leg for a coordinate pair.
	PutLeg(ctx context.Context, from, to domain.Coordinates, leg domain.Leg) error
}
