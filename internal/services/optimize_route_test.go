package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-route-service/internal/adapters/routing"
	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
)

var testDepot = domain.Depot{
	ID:          "depot-1",
	Name:        "Central",
	Coordinates: domain.Coordinates{Lat: 13.75, Lng: 100.50},
}

type fakeAssistant struct {
	result *ports.AssistantResult
	err    error
	calls  int
}

func (f *fakeAssistant) OptimizeRoute(_ context.Context, _ ports.AssistantRequest) (*ports.AssistantResult, error) {
	f.calls++
	return f.result, f.err
}

func stopWaypointIDs(route domain.Route) []string {
	out := make([]string, len(route.Stops))
	for i, s := range route.Stops {
		out[i] = s.WaypointID
	}
	return out
}

func TestOptimizeEmptyWaypoints(t *testing.T) {
	o := NewRouteOptimizer(nil, nil, zerolog.Nop())

	_, err := o.Optimize(context.Background(), testDepot, nil, domain.MustClock("08:00"), 1)
	assert.ErrorIs(t, err, domain.ErrNoWaypoints)
}

func TestOptimizeWithProviderOrder(t *testing.T) {
	waypoints := []domain.Waypoint{
		wpAt("far", 13.90, 100.60, 30),
		wpAt("near", 13.76, 100.51, 30),
	}

	provider := &routing.MockProvider{}
	o := NewRouteOptimizer(provider, nil, zerolog.Nop())

	route, err := o.Optimize(context.Background(), testDepot, waypoints, domain.MustClock("08:00"), 1)
	require.NoError(t, err)

	// Mock provider orders nearest-neighbor from the depot.
	assert.Equal(t, []string{"near", "far"}, stopWaypointIDs(route))
	assert.Equal(t, 1, route.RouteNumber)
	assert.NotEmpty(t, route.NavigationURL)
	assert.Positive(t, provider.Calls)
}

func TestOptimizeFallsBackWhenProviderFails(t *testing.T) {
	waypoints := []domain.Waypoint{
		wpAt("c", 13.90, 100.60, 30),
		wpAt("a", 13.76, 100.51, 30),
		wpAt("b", 13.80, 100.55, 30),
	}

	provider := &routing.MockProvider{Fail: true}
	o := NewRouteOptimizer(provider, nil, zerolog.Nop())

	route, err := o.Optimize(context.Background(), testDepot, waypoints, domain.MustClock("08:00"), 1)
	require.NoError(t, err)

	// Greedy fallback still visits every waypoint exactly once, nearest first.
	assert.ElementsMatch(t, []string{"a", "b", "c"}, stopWaypointIDs(route))
	assert.Equal(t, []string{"a", "b", "c"}, stopWaypointIDs(route))
}

func TestOptimizeFallbackDeterministic(t *testing.T) {
	waypoints := []domain.Waypoint{
		wpAt("e", 13.82, 100.58, 45),
		wpAt("b", 13.77, 100.52, 30),
		wpAt("d", 13.79, 100.56, 60),
		wpAt("a", 13.76, 100.51, 30),
		wpAt("c", 13.78, 100.54, 30),
	}

	o := NewRouteOptimizer(&routing.MockProvider{Fail: true}, nil, zerolog.Nop())

	first, err := o.Optimize(context.Background(), testDepot, waypoints, domain.MustClock("08:00"), 1)
	require.NoError(t, err)
	second, err := o.Optimize(context.Background(), testDepot, waypoints, domain.MustClock("08:00"), 1)
	require.NoError(t, err)

	assert.Equal(t, stopWaypointIDs(first), stopWaypointIDs(second))
}

func TestOptimizeFallbackHonorsAppointments(t *testing.T) {
	// The nearest waypoint's window is long gone; the fallback skips it while
	// anything reachable remains and only comes back to it at the end.
	missed := wpAt("missed", 13.76, 100.51, 30)
	missed.Appointment = &domain.AppointmentWindow{
		Start: domain.MustClock("06:00"),
		End:   domain.MustClock("07:00"),
	}
	open := wpAt("open", 13.85, 100.58, 30)

	o := NewRouteOptimizer(nil, nil, zerolog.Nop())

	route, err := o.Optimize(context.Background(), testDepot, []domain.Waypoint{missed, open}, domain.MustClock("08:00"), 1)
	require.NoError(t, err)
	require.Len(t, route.Stops, 2)

	assert.Equal(t, "open", route.Stops[0].WaypointID)
	assert.Equal(t, "missed", route.Stops[1].WaypointID)
	assert.Equal(t, domain.AppointmentLate, route.Stops[1].AppointmentStatus)
}

func TestOptimizeUsesAssistantOrder(t *testing.T) {
	waypoints := []domain.Waypoint{
		wpAt("x", 13.76, 100.51, 30),
		wpAt("y", 13.80, 100.55, 30),
	}

	assistant := &fakeAssistant{result: &ports.AssistantResult{
		Order:     []int{1, 0},
		Reasoning: "y closes earlier",
		Suggestions: []domain.TimeSuggestion{
			{WaypointID: "x", CurrentTime: "09:00", SuggestedTime: "14:00", Reason: "avoids idle time", SavingsMinutes: 25},
		},
	}}

	o := NewRouteOptimizer(&routing.MockProvider{}, assistant, zerolog.Nop())

	route, err := o.Optimize(context.Background(), testDepot, waypoints, domain.MustClock("08:00"), 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"y", "x"}, stopWaypointIDs(route))
	assert.Equal(t, "y closes earlier", route.Reasoning)
	require.Len(t, route.Suggestions, 1)
	assert.Equal(t, "x", route.Suggestions[0].WaypointID)
	assert.Equal(t, 1, assistant.calls)
}

func TestOptimizeRejectsInvalidAssistantOrder(t *testing.T) {
	waypoints := []domain.Waypoint{
		wpAt("far", 13.90, 100.60, 30),
		wpAt("near", 13.76, 100.51, 30),
	}

	assistant := &fakeAssistant{result: &ports.AssistantResult{Order: []int{0, 0}}}
	o := NewRouteOptimizer(&routing.MockProvider{}, assistant, zerolog.Nop())

	route, err := o.Optimize(context.Background(), testDepot, waypoints, domain.MustClock("08:00"), 1)
	require.NoError(t, err)

	// A non-permutation is discarded and the provider ordering wins.
	assert.Equal(t, []string{"near", "far"}, stopWaypointIDs(route))
	assert.Empty(t, route.Reasoning)
}

func TestOptimizeSurvivesAssistantUnavailable(t *testing.T) {
	waypoints := []domain.Waypoint{wpAt("a", 13.76, 100.51, 30)}

	assistant := &fakeAssistant{err: domain.ErrAssistantUnavailable}
	o := NewRouteOptimizer(nil, assistant, zerolog.Nop())

	route, err := o.Optimize(context.Background(), testDepot, waypoints, domain.MustClock("08:00"), 1)
	require.NoError(t, err)
	assert.Len(t, route.Stops, 1)
}

func TestOptimizeSurvivesAssistantError(t *testing.T) {
	waypoints := []domain.Waypoint{wpAt("a", 13.76, 100.51, 30)}

	assistant := &fakeAssistant{err: errors.New("model overloaded")}
	o := NewRouteOptimizer(nil, assistant, zerolog.Nop())

	route, err := o.Optimize(context.Background(), testDepot, waypoints, domain.MustClock("08:00"), 1)
	require.NoError(t, err)
	assert.Len(t, route.Stops, 1)
}

func TestOptimizeAggregatesTotals(t *testing.T) {
	waypoints := []domain.Waypoint{
		wpAt("a", 13.76, 100.51, 30),
		wpAt("b", 13.80, 100.55, 45),
	}

	o := NewRouteOptimizer(nil, nil, zerolog.Nop())

	route, err := o.Optimize(context.Background(), testDepot, waypoints, domain.MustClock("08:00"), 2)
	require.NoError(t, err)

	assert.Equal(t, 75, route.WorkMinutes)
	assert.Positive(t, route.TravelMinutes)
	assert.Positive(t, route.DistanceMeters)
	assert.Equal(t, domain.MustClock("08:00"), route.StartTime)
	assert.Equal(t, route.Stops[len(route.Stops)-1].EstimatedDeparture, route.EndTime)
	assert.Empty(t, route.NavigationURL)
}
