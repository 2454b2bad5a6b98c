package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"field-route-service/internal/domain"
	"field-route-service/internal/platform/obs"
	"field-route-service/internal/ports"
)

// maxWaypointsPerRequest is the provider's native ceiling on points per
// optimization call. Larger sets are chunked into sequential sub-requests,
// each chunk starting from the last optimized waypoint of the previous one.
// Ordering across chunk boundaries is therefore not globally optimal; this is
// an accepted scaling approximation.
const maxWaypointsPerRequest = 96

// LongdoProvider implements RoutingProvider against the Longdo Map routing
// API.
//
// It coordinates the persistent leg cache, external calls with
// retry/backoff, and chunking above the provider's waypoint ceiling.
// Safe for concurrent use.
type LongdoProvider struct {
	session  *http.Client
	apiKey   string
	baseURL  string
	legCache ports.LegCache // may be nil
	logger   zerolog.Logger
}

func NewLongdoProvider(apiKey string, legCache ports.LegCache, logger zerolog.Logger) (*LongdoProvider, error) {
	if apiKey == "" {
		return nil, errors.New("longdo api key is empty")
	}

	return &LongdoProvider{
		session:  &http.Client{Timeout: 15 * time.Second},
		apiKey:   apiKey,
		baseURL:  "https://api.longdo.com/RouteService",
		legCache: legCache,
		logger:   logger,
	}, nil
}

type optimizeRequest struct {
	Origin coordinate   `json:"origin"`
	Points []coordinate `json:"points"`
}

type optimizeResponse struct {
	Order []int     `json:"order"`
	Legs  []wireLeg `json:"legs"`
}

type coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type wireLeg struct {
	DistanceMeters  int `json:"distance"`
	DurationSeconds int `json:"interval"`
}

func (l wireLeg) toDomain() domain.Leg {
	return domain.Leg{
		DistanceMeters:  l.DistanceMeters,
		DurationMinutes: int(math.Ceil(float64(l.DurationSeconds) / 60.0)),
	}
}

// OptimizeOrder asks the provider for a visiting order over all points,
// chunking sequentially when the set exceeds the provider ceiling.
func (p *LongdoProvider) OptimizeOrder(ctx context.Context, origin domain.Coordinates, points []domain.Coordinates) (_ []int, _ []domain.Leg, err error) {
	defer obs.Time(p.logger, "longdo_optimize_order")(&err)

	if len(points) == 0 {
		return nil, nil, nil
	}

	order := make([]int, 0, len(points))
	legs := make([]domain.Leg, 0, len(points))

	chunkOrigin := origin
	for start := 0; start < len(points); start += maxWaypointsPerRequest {
		end := start + maxWaypointsPerRequest
		if end > len(points) {
			end = len(points)
		}
		chunk := points[start:end]

		chunkOrder, chunkLegs, err := p.optimizeChunk(ctx, chunkOrigin, chunk)
		if err != nil {
			return nil, nil, fmt.Errorf("optimize order: chunk at %d: %w", start, err)
		}

		for _, idx := range chunkOrder {
			order = append(order, start+idx)
		}
		legs = append(legs, chunkLegs...)

		chunkOrigin = chunk[chunkOrder[len(chunkOrder)-1]]
	}

	return order, legs, nil
}

func (p *LongdoProvider) optimizeChunk(ctx context.Context, origin domain.Coordinates, points []domain.Coordinates) ([]int, []domain.Leg, error) {
	body := optimizeRequest{
		Origin: coordinate{Lat: origin.Lat, Lon: origin.Lng},
		Points: make([]coordinate, len(points)),
	}
	for i, pt := range points {
		body.Points[i] = coordinate{Lat: pt.Lat, Lon: pt.Lng}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal optimize request: %w", err)
	}

	endpoint := p.baseURL + "/optimize"
	resp, err := p.doWithRetry(ctx, func() (*http.Request, error) {
		return p.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, nil, fmt.Errorf("optimize request: %w", err)
	}
	defer resp.Body.Close()

	var decoded optimizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, nil, fmt.Errorf("decode optimize response: %w", err)
	}

	if len(decoded.Order) != len(points) || len(decoded.Legs) != len(points) {
		return nil, nil, fmt.Errorf(
			"optimize response size mismatch: order=%d legs=%d points=%d",
			len(decoded.Order), len(decoded.Legs), len(points),
		)
	}

	legs := make([]domain.Leg, len(decoded.Legs))
	for i, l := range decoded.Legs {
		legs[i] = l.toDomain()
	}

	return decoded.Order, legs, nil
}

// LegsForFixedOrder returns travel legs for an already-ordered sequence,
// consulting the leg cache pair by pair before calling the provider.
func (p *LongdoProvider) LegsForFixedOrder(ctx context.Context, origin domain.Coordinates, points []domain.Coordinates) (_ []domain.Leg, err error) {
	defer obs.Time(p.logger, "longdo_legs_for_fixed_order")(&err)

	legs := make([]domain.Leg, len(points))

	from := origin
	for i, to := range points {
		leg, err := p.legBetween(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("legs for fixed order: leg %d: %w", i, err)
		}
		legs[i] = leg
		from = to
	}

	return legs, nil
}

func (p *LongdoProvider) legBetween(ctx context.Context, from, to domain.Coordinates) (domain.Leg, error) {
	if p.legCache != nil {
		leg, ok, err := p.legCache.GetLeg(ctx, from, to)
		if err != nil {
			p.logger.Warn().Err(err).Msg("leg cache read failed")
		} else if ok {
			return leg, nil
		}
	}

	endpoint := fmt.Sprintf(
		"%s/guide?flat=%f&flon=%f&tlat=%f&tlon=%f",
		p.baseURL, from.Lat, from.Lng, to.Lat, to.Lng,
	)

	resp, err := p.doWithRetry(ctx, func() (*http.Request, error) {
		return p.newRequest(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return domain.Leg{}, fmt.Errorf("guide request: %w", err)
	}
	defer resp.Body.Close()

	var decoded wireLeg
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Leg{}, fmt.Errorf("decode guide response: %w", err)
	}

	leg := decoded.toDomain()

	if p.legCache != nil {
		if err := p.legCache.PutLeg(ctx, from, to, leg); err != nil {
			p.logger.Warn().Err(err).Msg("leg cache write failed")
		}
	}

	return leg, nil
}

// NavigationURL builds a Longdo Map deep link for the ordered sequence.
func (p *LongdoProvider) NavigationURL(origin domain.Coordinates, orderedPoints []domain.Coordinates) string {
	parts := make([]string, 0, len(orderedPoints)+1)
	parts = append(parts, fmt.Sprintf("%f,%f", origin.Lat, origin.Lng))
	for _, pt := range orderedPoints {
		parts = append(parts, fmt.Sprintf("%f,%f", pt.Lat, pt.Lng))
	}

	return "https://map.longdo.com/route?waypoints=" + url.QueryEscape(strings.Join(parts, ";"))
}
