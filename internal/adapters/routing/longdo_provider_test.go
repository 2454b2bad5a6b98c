package routing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-route-service/internal/domain"
)

type memLegCache struct {
	legs map[string]domain.Leg
	gets int
	puts int
}

func newMemLegCache() *memLegCache {
	return &memLegCache{legs: make(map[string]domain.Leg)}
}

func (m *memLegCache) GetLeg(_ context.Context, from, to domain.Coordinates) (domain.Leg, bool, error) {
	m.gets++
	leg, ok := m.legs[legKeyFor(from, to)]
	return leg, ok, nil
}

func (m *memLegCache) PutLeg(_ context.Context, from, to domain.Coordinates, leg domain.Leg) error {
	m.puts++
	m.legs[legKeyFor(from, to)] = leg
	return nil
}

func legKeyFor(from, to domain.Coordinates) string {
	b, _ := json.Marshal([]domain.Coordinates{from, to})
	return string(b)
}

func newTestProvider(t *testing.T, handler http.Handler) *LongdoProvider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewLongdoProvider("test-key", nil, zerolog.Nop())
	require.NoError(t, err)
	p.baseURL = srv.URL

	return p
}

func TestOptimizeOrderSingleChunk(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/optimize", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req optimizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Points, 2)

		_ = json.NewEncoder(w).Encode(optimizeResponse{
			Order: []int{1, 0},
			Legs: []wireLeg{
				{DistanceMeters: 5000, DurationSeconds: 600},
				{DistanceMeters: 3000, DurationSeconds: 359},
			},
		})
	})

	p := newTestProvider(t, handler)

	order, legs, err := p.OptimizeOrder(context.Background(),
		domain.Coordinates{Lat: 13.75, Lng: 100.50},
		[]domain.Coordinates{
			{Lat: 13.80, Lng: 100.55},
			{Lat: 13.76, Lng: 100.51},
		},
	)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 0}, order)
	require.Len(t, legs, 2)
	assert.Equal(t, 10, legs[0].DurationMinutes)
	// Seconds round up to whole minutes.
	assert.Equal(t, 6, legs[1].DurationMinutes)
}

func TestOptimizeOrderChunksLargeSets(t *testing.T) {
	var sizes []int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req optimizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		sizes = append(sizes, len(req.Points))

		resp := optimizeResponse{
			Order: make([]int, len(req.Points)),
			Legs:  make([]wireLeg, len(req.Points)),
		}
		for i := range req.Points {
			resp.Order[i] = i
			resp.Legs[i] = wireLeg{DistanceMeters: 1000, DurationSeconds: 120}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	p := newTestProvider(t, handler)

	points := make([]domain.Coordinates, 100)
	for i := range points {
		points[i] = domain.Coordinates{Lat: 13.70 + float64(i)*0.001, Lng: 100.50}
	}

	order, legs, err := p.OptimizeOrder(context.Background(), domain.Coordinates{Lat: 13.75, Lng: 100.50}, points)
	require.NoError(t, err)

	assert.Equal(t, []int{96, 4}, sizes)
	require.Len(t, order, 100)
	require.Len(t, legs, 100)

	// Indices from the second chunk are offset back into the full set.
	assert.Equal(t, 0, order[0])
	assert.Equal(t, 96, order[96])
	assert.Equal(t, 99, order[99])
}

func TestOptimizeOrderEmpty(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	order, legs, err := p.OptimizeOrder(context.Background(), domain.Coordinates{}, nil)
	require.NoError(t, err)
	assert.Nil(t, order)
	assert.Nil(t, legs)
}

func TestOptimizeOrderRejectsSizeMismatch(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(optimizeResponse{Order: []int{0}, Legs: []wireLeg{{}}})
	})

	p := newTestProvider(t, handler)

	_, _, err := p.OptimizeOrder(context.Background(), domain.Coordinates{},
		[]domain.Coordinates{{Lat: 13.75, Lng: 100.50}, {Lat: 13.76, Lng: 100.51}})
	assert.ErrorContains(t, err, "size mismatch")
}

func TestDoWithRetryRecoversFromTransientErrors(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(wireLeg{DistanceMeters: 5000, DurationSeconds: 600})
	})

	p := newTestProvider(t, handler)

	legs, err := p.LegsForFixedOrder(context.Background(),
		domain.Coordinates{Lat: 13.75, Lng: 100.50},
		[]domain.Coordinates{{Lat: 13.80, Lng: 100.55}},
	)
	require.NoError(t, err)
	require.Len(t, legs, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoWithRetryGivesUpOnClientError(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	p := newTestProvider(t, handler)

	_, err := p.LegsForFixedOrder(context.Background(),
		domain.Coordinates{Lat: 13.75, Lng: 100.50},
		[]domain.Coordinates{{Lat: 13.80, Lng: 100.55}},
	)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLegsForFixedOrderUsesCache(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(wireLeg{DistanceMeters: 5000, DurationSeconds: 600})
	})

	p := newTestProvider(t, handler)
	mem := newMemLegCache()
	p.legCache = mem

	origin := domain.Coordinates{Lat: 13.75, Lng: 100.50}
	points := []domain.Coordinates{{Lat: 13.80, Lng: 100.55}}

	first, err := p.LegsForFixedOrder(context.Background(), origin, points)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, mem.puts)

	second, err := p.LegsForFixedOrder(context.Background(), origin, points)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second run must be served from cache")
	assert.Equal(t, first, second)
}

func TestNavigationURL(t *testing.T) {
	p, err := NewLongdoProvider("test-key", nil, zerolog.Nop())
	require.NoError(t, err)

	u := p.NavigationURL(
		domain.Coordinates{Lat: 13.75, Lng: 100.50},
		[]domain.Coordinates{{Lat: 13.80, Lng: 100.55}},
	)
	assert.Contains(t, u, "map.longdo.com/route")
	assert.Contains(t, u, "13.750000")
}
