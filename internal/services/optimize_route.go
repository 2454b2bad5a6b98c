package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
)

// lateToleranceMinutes is how late past an appointment window's end the
// fallback ordering still treats a waypoint as reachable.
const lateToleranceMinutes = 15

// RouteOptimizer produces the ordered schedule for a single route.
//
// Ordering sources, in preference order: the AI assistant, the routing
// provider's optimizer, and a deterministic greedy fallback. The optimizer
// always returns a complete route even when every external dependency fails;
// provider and assistant errors are recovered locally, never propagated.
type RouteOptimizer struct {
	Provider  ports.RoutingProvider // nil disables provider ordering and legs
	Assistant ports.RouteAssistant  // nil disables the assistant path
	Lunch     LunchConfig
	Logger    zerolog.Logger
}

func NewRouteOptimizer(provider ports.RoutingProvider, assistant ports.RouteAssistant, logger zerolog.Logger) *RouteOptimizer {
	return &RouteOptimizer{
		Provider:  provider,
		Assistant: assistant,
		Lunch:     DefaultLunch,
		Logger:    logger,
	}
}

// Optimize orders and schedules one route's waypoints from the depot.
func (o *RouteOptimizer) Optimize(ctx context.Context, depot domain.Depot, waypoints []domain.Waypoint, startTime domain.Clock, routeNumber int) (domain.Route, error) {
	if len(waypoints) == 0 {
		return domain.Route{}, fmt.Errorf("optimize route %d: %w", routeNumber, domain.ErrNoWaypoints)
	}

	order, legs, reasoning, suggestions := o.resolveOrder(ctx, depot, waypoints, startTime)

	ordered := make([]domain.Waypoint, len(order))
	for i, idx := range order {
		ordered[i] = waypoints[idx]
	}

	if legs == nil {
		legs = estimateLegs(depot.Coordinates, ordered)
	}

	stops := SimulateStops(ordered, legs, startTime, o.Lunch)

	route := domain.Route{
		RouteNumber: routeNumber,
		Stops:       stops,
		StartTime:   startTime,
		EndTime:     startTime,
		Reasoning:   reasoning,
		Suggestions: suggestions,
	}
	for _, s := range stops {
		route.DistanceMeters += s.DistanceMeters
		route.TravelMinutes += s.TravelMinutes
		route.WorkMinutes += s.WorkMinutes
		if s.IsOvertime {
			route.OvertimeStopCount++
		}
		route.EndTime = s.EstimatedDeparture
	}

	if o.Provider != nil {
		points := make([]domain.Coordinates, len(ordered))
		for i, wp := range ordered {
			points[i] = wp.Coordinates
		}
		route.NavigationURL = o.Provider.NavigationURL(depot.Coordinates, points)
	}

	return route, nil
}

// resolveOrder tries the assistant, then the provider optimizer, then the
// deterministic fallback. Returned legs may be nil, meaning the caller should
// estimate them.
func (o *RouteOptimizer) resolveOrder(ctx context.Context, depot domain.Depot, waypoints []domain.Waypoint, startTime domain.Clock) (order []int, legs []domain.Leg, reasoning string, suggestions []domain.TimeSuggestion) {
	if o.Assistant != nil {
		req := ports.AssistantRequest{
			Depot:     depot,
			Waypoints: waypoints,
			StartTime: startTime,
			Simulate: func(candidate []int) []domain.Stop {
				if !isPermutation(candidate, len(waypoints)) {
					return nil
				}
				ordered := make([]domain.Waypoint, len(candidate))
				for i, idx := range candidate {
					ordered[i] = waypoints[idx]
				}
				return SimulateStops(ordered, estimateLegs(depot.Coordinates, ordered), startTime, o.Lunch)
			},
		}

		result, err := o.Assistant.OptimizeRoute(ctx, req)
		switch {
		case err == nil && isPermutation(result.Order, len(waypoints)):
			return result.Order, o.legsForOrder(ctx, depot, waypoints, result.Order), result.Reasoning, result.Suggestions
		case err == nil:
			o.Logger.Warn().Msg("assistant returned invalid permutation, falling back")
		case errors.Is(err, domain.ErrAssistantUnavailable):
			o.Logger.Debug().Msg("assistant unavailable, falling back")
		default:
			o.Logger.Warn().Err(err).Msg("assistant failed, falling back")
		}
	}

	if o.Provider != nil {
		points := make([]domain.Coordinates, len(waypoints))
		for i, wp := range waypoints {
			points[i] = wp.Coordinates
		}

		provOrder, provLegs, err := o.Provider.OptimizeOrder(ctx, depot.Coordinates, points)
		if err == nil && isPermutation(provOrder, len(waypoints)) {
			return provOrder, provLegs, "", nil
		}
		if err != nil {
			o.Logger.Warn().Err(err).Msg("routing provider optimize failed, using greedy fallback")
		}
	}

	return fallbackOrder(depot.Coordinates, waypoints, startTime), nil, "", nil
}

// legsForOrder fetches provider legs for a fixed order, estimating on failure.
func (o *RouteOptimizer) legsForOrder(ctx context.Context, depot domain.Depot, waypoints []domain.Waypoint, order []int) []domain.Leg {
	if o.Provider == nil {
		return nil
	}

	points := make([]domain.Coordinates, len(order))
	for i, idx := range order {
		points[i] = waypoints[idx].Coordinates
	}

	legs, err := o.Provider.LegsForFixedOrder(ctx, depot.Coordinates, points)
	if err != nil || len(legs) != len(points) {
		o.Logger.Warn().Err(err).Msg("routing provider legs failed, estimating")
		return nil
	}
	return legs
}

// fallbackOrder is the deterministic greedy construction used when every
// external ordering source fails: at each step take the closest unvisited
// waypoint reachable without being more than lateToleranceMinutes late to its
// appointment; when none qualifies, advance to the remaining waypoint with
// the earliest appointment, accepting lateness, which guarantees termination.
func fallbackOrder(origin domain.Coordinates, waypoints []domain.Waypoint, startTime domain.Clock) []int {
	remaining := make([]int, len(waypoints))
	for i := range waypoints {
		remaining[i] = i
	}

	order := make([]int, 0, len(waypoints))
	current := origin
	now := startTime

	for len(remaining) > 0 {
		best := -1
		bestDist := 0.0

		for _, idx := range remaining {
			wp := waypoints[idx]
			d := domain.Haversine(current, wp.Coordinates)

			if w := wp.Appointment; w != nil {
				arrival := now.Add(domain.EstimateLeg(current, wp.Coordinates).DurationMinutes)
				if arrival.Sub(w.End) > lateToleranceMinutes {
					continue
				}
			}

			// Index tie-break keeps the fallback fully deterministic.
			if best == -1 || d < bestDist || (d == bestDist && idx < best) {
				best = idx
				bestDist = d
			}
		}

		if best == -1 {
			best = earliestAppointment(waypoints, remaining)
		}

		wp := waypoints[best]
		leg := domain.EstimateLeg(current, wp.Coordinates)
		arrival := now.Add(leg.DurationMinutes)
		workStart := arrival
		if w := wp.Appointment; w != nil && arrival.Before(w.Start) {
			workStart = w.Start
		}
		now = workStart.Add(wp.WorkDurationMinutes)
		current = wp.Coordinates

		order = append(order, best)
		remaining = removeIndex(remaining, best)
	}

	return order
}

func earliestAppointment(waypoints []domain.Waypoint, remaining []int) int {
	best := remaining[0]
	for _, idx := range remaining[1:] {
		bw, iw := waypoints[best].Appointment, waypoints[idx].Appointment
		switch {
		case bw == nil && iw != nil:
			best = idx
		case bw != nil && iw != nil && iw.Start.Before(bw.Start):
			best = idx
		case bw != nil && iw != nil && iw.Start == bw.Start && idx < best:
			best = idx
		}
	}
	return best
}

func estimateLegs(origin domain.Coordinates, ordered []domain.Waypoint) []domain.Leg {
	legs := make([]domain.Leg, len(ordered))
	current := origin
	for i, wp := range ordered {
		legs[i] = domain.EstimateLeg(current, wp.Coordinates)
		current = wp.Coordinates
	}
	return legs
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

func removeIndex(s []int, v int) []int {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
