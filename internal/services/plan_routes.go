package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
)

const (
	maxPerRouteFloor   = 1
	maxPerRouteCeiling = 50
)

// Planner drives a full planning run: repository fetch, clustering,
// balancing, per-route optimization and summary aggregation.
type Planner struct {
	Repo      ports.WaypointRepository
	Optimizer *RouteOptimizer
	TargetCV  float64
	Logger    zerolog.Logger

	// Seed feeds the clusterer's random source; nil seeds from wall clock.
	// Tests inject a fixed seed for reproducible clustering.
	Seed func() int64
}

func NewPlanner(repo ports.WaypointRepository, optimizer *RouteOptimizer, logger zerolog.Logger) *Planner {
	return &Planner{
		Repo:      repo,
		Optimizer: optimizer,
		TargetCV:  DefaultCVTarget,
		Logger:    logger,
	}
}

// ValidatePlanRequest rejects malformed requests before any computation and
// fills documented defaults for omitted optional fields.
func ValidatePlanRequest(req *domain.PlanRequest) error {
	if req.DepotID == "" {
		return domain.NewValidationError("depot_id", "is required")
	}

	hasDate := req.Date != ""
	hasIDs := len(req.WaypointIDs) > 0
	if hasDate == hasIDs {
		return domain.NewValidationError("date", "exactly one of date or waypoint_ids is required")
	}
	if hasDate {
		if _, err := time.Parse("2006-01-02", req.Date); err != nil {
			return domain.NewValidationError("date", "must be YYYY-MM-DD")
		}
	}

	if req.MaxPerRoute == 0 {
		req.MaxPerRoute = 10
	}
	if req.MaxPerRoute < maxPerRouteFloor || req.MaxPerRoute > maxPerRouteCeiling {
		return domain.NewValidationError("max_per_route", fmt.Sprintf("must be between %d and %d", maxPerRouteFloor, maxPerRouteCeiling))
	}

	if req.StartTime == 0 {
		req.StartTime = domain.MustClock("08:00")
	}

	switch req.BalanceMode {
	case "":
		req.BalanceMode = domain.BalanceHybrid
	case domain.BalanceGeography, domain.BalanceWorkload, domain.BalanceHybrid:
	default:
		return domain.NewValidationError("balance_mode", "must be geography, workload or balanced")
	}

	return nil
}

// Plan executes one full planning run for a validated request.
func (p *Planner) Plan(ctx context.Context, req domain.PlanRequest) (*domain.RoutePlan, error) {
	if err := ValidatePlanRequest(&req); err != nil {
		return nil, err
	}

	depot, err := p.Repo.GetDepot(ctx, req.DepotID)
	if err != nil {
		return nil, fmt.Errorf("plan: get depot %q: %w", req.DepotID, err)
	}

	var waypoints []domain.Waypoint
	if req.Date != "" {
		waypoints, err = p.Repo.GetWaypointsForDate(ctx, req.Date)
	} else {
		waypoints, err = p.Repo.GetWaypointsByIDs(ctx, req.WaypointIDs)
	}
	if err != nil {
		return nil, fmt.Errorf("plan: fetch waypoints: %w", err)
	}
	if len(waypoints) == 0 {
		return nil, domain.ErrNoWaypoints
	}

	groups := p.buildGroups(waypoints, *depot, req)

	routes := make([]domain.Route, 0, len(groups))
	for i, g := range groups {
		route, err := p.Optimizer.Optimize(ctx, *depot, g.Waypoints, req.StartTime, i+1)
		if err != nil {
			return nil, fmt.Errorf("plan: route %d: %w", i+1, err)
		}
		routes = append(routes, route)
	}

	plan := &domain.RoutePlan{Routes: routes}
	plan.Summary = p.summarize(routes, req.StartTime)

	p.Logger.Info().
		Int("routes", len(routes)).
		Int("stops", plan.Summary.TotalStops).
		Float64("cv", plan.Summary.Balance.CoefficientOfVariation).
		Msg("planning run complete")

	return plan, nil
}

// buildGroups clusters and balances the working set, then orders groups by
// centroid distance to the depot so route numbers follow proximity.
func (p *Planner) buildGroups(waypoints []domain.Waypoint, depot domain.Depot, req domain.PlanRequest) []Cluster {
	if !req.SplitRoutes && len(waypoints) <= req.MaxPerRoute {
		c := Cluster{Waypoints: waypoints}
		c.recomputeCentroid()
		return []Cluster{c}
	}

	k := int(math.Ceil(float64(len(waypoints)) / float64(req.MaxPerRoute)))

	rng := rand.New(rand.NewSource(p.seed()))
	clusters := ClusterWaypoints(waypoints, k, rng)
	groups := BalanceClusters(clusters, req.MaxPerRoute, req.BalanceMode, p.targetCV())

	slices.SortFunc(groups, func(a, b Cluster) int {
		da := domain.Haversine(a.Centroid, depot.Coordinates)
		db := domain.Haversine(b.Centroid, depot.Coordinates)
		if da < db {
			return -1
		}
		if da > db {
			return 1
		}
		return 0
	})

	return groups
}

func (p *Planner) summarize(routes []domain.Route, startTime domain.Clock) domain.PlanSummary {
	s := domain.PlanSummary{LatestEndTime: startTime}

	workloads := make([]float64, 0, len(routes))
	for _, r := range routes {
		s.TotalStops += len(r.Stops)
		s.TotalDistanceM += r.DistanceMeters
		s.TotalTravelMinutes += r.TravelMinutes
		s.TotalWorkMinutes += r.WorkMinutes
		s.OvertimeStopCount += r.OvertimeStopCount
		if r.EndTime.After(s.LatestEndTime) {
			s.LatestEndTime = r.EndTime
		}
		workloads = append(workloads, float64(r.WorkMinutes))
	}

	s.Balance = ComputeBalanceMetrics(workloads, p.targetCV())
	return s
}

func (p *Planner) targetCV() float64 {
	if p.TargetCV <= 0 {
		return DefaultCVTarget
	}
	return p.TargetCV
}

func (p *Planner) seed() int64 {
	if p.Seed != nil {
		return p.Seed()
	}
	return time.Now().UnixNano()
}
