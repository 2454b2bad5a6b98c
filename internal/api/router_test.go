package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-route-service/internal/adapters/repositories"
	"field-route-service/internal/api/dto"
	"field-route-service/internal/domain"
	"field-route-service/internal/services"
)

type stubRepo struct {
	depot     *domain.Depot
	waypoints []domain.Waypoint
}

func (s *stubRepo) GetDepot(_ context.Context, id string) (*domain.Depot, error) {
	if s.depot == nil || s.depot.ID != id {
		return nil, domain.ErrDepotNotFound
	}
	return s.depot, nil
}

func (s *stubRepo) GetWaypointsForDate(_ context.Context, _ string) ([]domain.Waypoint, error) {
	return s.waypoints, nil
}

func (s *stubRepo) GetWaypointsByIDs(_ context.Context, _ []string) ([]domain.Waypoint, error) {
	return s.waypoints, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *services.JobRunner) {
	t.Helper()

	repo := &stubRepo{
		depot: &domain.Depot{
			ID:          "depot-1",
			Name:        "Central",
			Coordinates: domain.Coordinates{Lat: 13.75, Lng: 100.50},
		},
		waypoints: []domain.Waypoint{
			{ID: "wp-1", Coordinates: domain.Coordinates{Lat: 13.76, Lng: 100.51}, WorkDurationMinutes: 30},
			{ID: "wp-2", Coordinates: domain.Coordinates{Lat: 13.77, Lng: 100.52}, WorkDurationMinutes: 45},
		},
	}

	optimizer := services.NewRouteOptimizer(nil, nil, zerolog.Nop())
	planner := services.NewPlanner(repo, optimizer, zerolog.Nop())
	planner.Seed = func() int64 { return 1 }
	runner := services.NewJobRunner(repositories.NewMemoryJobStore(), planner, zerolog.Nop())

	srv := httptest.NewServer(NewRouter(planner, runner, zerolog.Nop(), []string{"*"}))
	t.Cleanup(srv.Close)

	return srv, runner
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPlanEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/route-plans", `{"depot_id": "depot-1", "date": "2025-07-01"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var plan dto.PlanResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&plan))

	require.Len(t, plan.Routes, 1)
	assert.Len(t, plan.Routes[0].Stops, 2)
	assert.Equal(t, 2, plan.Summary.TotalStops)
	assert.Equal(t, 75, plan.Summary.TotalWorkMinutes)
}

func TestPlanEndpointValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/route-plans", `{"date": "2025-07-01"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "validation failed", body.Error)
	assert.Contains(t, body.Details, "depot_id")
}

func TestPlanEndpointRejectsUnknownFields(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/route-plans", `{"depot_id": "depot-1", "date": "2025-07-01", "bogus": 1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPlanEndpointDepotNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/route-plans", `{"depot_id": "missing", "date": "2025-07-01"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJobEndpoints(t *testing.T) {
	srv, runner := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/route-plans/jobs", `{"depot_id": "depot-1", "date": "2025-07-01"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var submitted dto.SubmitJobResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitted))
	require.NotEmpty(t, submitted.JobID)
	assert.Equal(t, "pending", submitted.Status)

	runner.Wait()

	statusResp, err := http.Get(srv.URL + "/api/v1/route-plans/jobs/" + submitted.JobID)
	require.NoError(t, err)
	defer statusResp.Body.Close()
	require.Equal(t, http.StatusOK, statusResp.StatusCode)

	var status dto.JobStatusResponse
	require.NoError(t, json.NewDecoder(statusResp.Body).Decode(&status))
	assert.Equal(t, "completed", status.Status)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.Result)
	assert.Len(t, status.Result.Routes, 1)
}

func TestJobEndpointUnknownID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/route-plans/jobs/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
