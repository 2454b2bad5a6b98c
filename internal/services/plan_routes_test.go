package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-route-service/internal/domain"
)

type fakeRepo struct {
	depot     *domain.Depot
	waypoints []domain.Waypoint
	err       error
}

func (f *fakeRepo) GetDepot(_ context.Context, id string) (*domain.Depot, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.depot == nil || f.depot.ID != id {
		return nil, domain.ErrDepotNotFound
	}
	return f.depot, nil
}

func (f *fakeRepo) GetWaypointsForDate(_ context.Context, _ string) ([]domain.Waypoint, error) {
	return f.waypoints, f.err
}

func (f *fakeRepo) GetWaypointsByIDs(_ context.Context, ids []string) ([]domain.Waypoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Waypoint
	for _, wp := range f.waypoints {
		for _, id := range ids {
			if wp.ID == id {
				out = append(out, wp)
			}
		}
	}
	return out, nil
}

func newTestPlanner(repo *fakeRepo) *Planner {
	p := NewPlanner(repo, NewRouteOptimizer(nil, nil, zerolog.Nop()), zerolog.Nop())
	p.Seed = func() int64 { return 42 }
	return p
}

func validRequest() domain.PlanRequest {
	return domain.PlanRequest{
		DepotID: "depot-1",
		Date:    "2025-07-01",
	}
}

func TestValidatePlanRequestDefaults(t *testing.T) {
	req := validRequest()
	require.NoError(t, ValidatePlanRequest(&req))

	assert.Equal(t, 10, req.MaxPerRoute)
	assert.Equal(t, domain.MustClock("08:00"), req.StartTime)
	assert.Equal(t, domain.BalanceHybrid, req.BalanceMode)
}

func TestValidatePlanRequestRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.PlanRequest)
		field  string
	}{
		{"missing depot", func(r *domain.PlanRequest) { r.DepotID = "" }, "depot_id"},
		{"neither date nor ids", func(r *domain.PlanRequest) { r.Date = "" }, "date"},
		{"both date and ids", func(r *domain.PlanRequest) { r.WaypointIDs = []string{"wp-1"} }, "date"},
		{"malformed date", func(r *domain.PlanRequest) { r.Date = "01-07-2025" }, "date"},
		{"max per route too high", func(r *domain.PlanRequest) { r.MaxPerRoute = 51 }, "max_per_route"},
		{"negative max per route", func(r *domain.PlanRequest) { r.MaxPerRoute = -1 }, "max_per_route"},
		{"unknown balance mode", func(r *domain.PlanRequest) { r.BalanceMode = "chaotic" }, "balance_mode"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)

			err := ValidatePlanRequest(&req)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestPlanSingleRouteWhenUnderCapacity(t *testing.T) {
	repo := &fakeRepo{
		depot: &testDepot,
		waypoints: []domain.Waypoint{
			wpAt("wp-1", 13.76, 100.51, 30),
			wpAt("wp-2", 13.77, 100.52, 45),
			wpAt("wp-3", 13.78, 100.53, 30),
		},
	}

	plan, err := newTestPlanner(repo).Plan(context.Background(), validRequest())
	require.NoError(t, err)

	require.Len(t, plan.Routes, 1)
	assert.Len(t, plan.Routes[0].Stops, 3)
	assert.Equal(t, 3, plan.Summary.TotalStops)
	assert.Equal(t, 105, plan.Summary.TotalWorkMinutes)
	assert.True(t, plan.Summary.Balance.IsBalanced)
}

func TestPlanSplitsWhenOverCapacity(t *testing.T) {
	repo := &fakeRepo{depot: &testDepot}
	for i := 0; i < 6; i++ {
		repo.waypoints = append(repo.waypoints, wpAt(
			string(rune('a'+i)),
			13.70+float64(i)*0.05,
			100.50+float64(i)*0.05,
			30,
		))
	}

	req := validRequest()
	req.MaxPerRoute = 2

	plan, err := newTestPlanner(repo).Plan(context.Background(), req)
	require.NoError(t, err)

	// Capacity is enforced even without split_routes.
	assert.GreaterOrEqual(t, len(plan.Routes), 3)

	seen := map[string]int{}
	for _, r := range plan.Routes {
		assert.LessOrEqual(t, len(r.Stops), 2)
		for _, s := range r.Stops {
			seen[s.WaypointID]++
		}
	}
	require.Len(t, seen, 6)
	for id, n := range seen {
		assert.Equal(t, 1, n, "waypoint %s", id)
	}
}

func TestPlanNumbersRoutesByDepotProximity(t *testing.T) {
	repo := &fakeRepo{depot: &testDepot}

	// One blob next to the depot, one far north.
	for i := 0; i < 3; i++ {
		repo.waypoints = append(repo.waypoints,
			wpAt(string(rune('a'+i)), 13.75+float64(i)*0.002, 100.50, 30),
			wpAt(string(rune('x'+i)), 13.95+float64(i)*0.002, 100.60, 30),
		)
	}

	req := validRequest()
	req.MaxPerRoute = 3
	req.SplitRoutes = true

	plan, err := newTestPlanner(repo).Plan(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, plan.Routes, 2)

	assert.Equal(t, 1, plan.Routes[0].RouteNumber)
	assert.Equal(t, 2, plan.Routes[1].RouteNumber)

	// Route 1 is the near blob.
	for _, s := range plan.Routes[0].Stops {
		assert.Contains(t, []string{"a", "b", "c"}, s.WaypointID)
	}
}

func TestPlanByWaypointIDs(t *testing.T) {
	repo := &fakeRepo{
		depot: &testDepot,
		waypoints: []domain.Waypoint{
			wpAt("wp-1", 13.76, 100.51, 30),
			wpAt("wp-2", 13.77, 100.52, 45),
		},
	}

	req := domain.PlanRequest{DepotID: "depot-1", WaypointIDs: []string{"wp-2"}}

	plan, err := newTestPlanner(repo).Plan(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, plan.Routes, 1)
	require.Len(t, plan.Routes[0].Stops, 1)
	assert.Equal(t, "wp-2", plan.Routes[0].Stops[0].WaypointID)
}

func TestPlanDepotNotFound(t *testing.T) {
	repo := &fakeRepo{depot: &testDepot}

	req := validRequest()
	req.DepotID = "nope"

	_, err := newTestPlanner(repo).Plan(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrDepotNotFound)
}

func TestPlanNoWaypoints(t *testing.T) {
	repo := &fakeRepo{depot: &testDepot}

	_, err := newTestPlanner(repo).Plan(context.Background(), validRequest())
	assert.ErrorIs(t, err, domain.ErrNoWaypoints)
}
