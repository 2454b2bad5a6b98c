package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"field-route-service/internal/domain"
)

// RedisLegCache is a Redis-backed cache for travel legs between coordinate
// pairs.
//
// Keys round coordinates to five decimals (~1m) so repeated lookups for the
// same sites hit regardless of float noise. Entries expire so stale road
// timings age out.
type RedisLegCache struct {
	Client *redis.Client
	TTL    time.Duration
}

const defaultLegTTL = 7 * 24 * time.Hour

func NewRedisLegCache(client *redis.Client) *RedisLegCache {
	return &RedisLegCache{Client: client, TTL: defaultLegTTL}
}

type cachedLeg struct {
	DistanceMeters  int `json:"distance_meters"`
	DurationMinutes int `json:"duration_minutes"`
}

func (c *RedisLegCache) GetLeg(ctx context.Context, from, to domain.Coordinates) (domain.Leg, bool, error) {
	raw, err := c.Client.Get(ctx, legKey(from, to)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Leg{}, false, nil
	}
	if err != nil {
		return domain.Leg{}, false, fmt.Errorf("leg cache get: %w", err)
	}

	var leg cachedLeg
	if err := json.Unmarshal([]byte(raw), &leg); err != nil {
		return domain.Leg{}, false, fmt.Errorf("leg cache decode: %w", err)
	}

	return domain.Leg{DistanceMeters: leg.DistanceMeters, DurationMinutes: leg.DurationMinutes}, true, nil
}

func (c *RedisLegCache) PutLeg(ctx context.Context, from, to domain.Coordinates, leg domain.Leg) error {
	raw, err := json.Marshal(cachedLeg{
		DistanceMeters:  leg.DistanceMeters,
		DurationMinutes: leg.DurationMinutes,
	})
	if err != nil {
		return fmt.Errorf("leg cache encode: %w", err)
	}

	if err := c.Client.Set(ctx, legKey(from, to), raw, c.TTL).Err(); err != nil {
		return fmt.Errorf("leg cache set: %w", err)
	}
	return nil
}

func legKey(from, to domain.Coordinates) string {
	return fmt.Sprintf("leg:%.5f,%.5f:%.5f,%.5f", from.Lat, from.Lng, to.Lat, to.Lng)
}
