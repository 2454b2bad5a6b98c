package ports

import (
	"context"

	"field-route-service/internal/domain"
)

// Port: a boundary for retrieving planning inputs from a data source.
//
// Implementations must exclude (with a warning, not a hard failure) any
// waypoint record missing coordinates.
type WaypointRepository interface {
	// GetDepot returns the depot or domain.ErrDepotNotFound.
	GetDepot(ctx context.Context, id string) (*domain.Depot, error)

	// GetWaypointsForDate returns all waypoints scheduled on a YYYY-MM-DD date.
	GetWaypointsForDate(ctx context.Context, date string) ([]domain.Waypoint, error)

	// GetWaypointsByIDs returns the waypoints for an explicit id set.
	GetWaypointsByIDs(ctx context.Context, ids []string) ([]domain.Waypoint, error)
}
