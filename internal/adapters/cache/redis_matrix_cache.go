package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gas-route-service/internal/domain"
	"gas-route-service/internal/ports"
)

// Redis-backed leg cache shared across processes and concurrent planning
// runs. Same key scheme as the in-memory cache; the TTL is enforced by
// Redis key expiry so concurrent writers of the same pair simply redo
// bounded, idempotent work.
type RedisMatrixCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisMatrixCache(client *redis.Client, ttl time.Duration) *RedisMatrixCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisMatrixCache{client: client, ttl: ttl, prefix: "leg:"}
}

func (c *RedisMatrixCache) key(origin, destination domain.Coordinates) string {
	return c.prefix + legKey(origin, destination)
}

func (c *RedisMatrixCache) Get(ctx context.Context, origin, destination domain.Coordinates) (ports.LegEstimate, bool, error) {
	if c.client == nil {
		return ports.LegEstimate{}, false, errors.New("redis matrix cache: client is nil")
	}

	raw, err := c.client.Get(ctx, c.key(origin, destination)).Result()
	if errors.Is(err, redis.Nil) {
		return ports.LegEstimate{}, false, nil
	}
	if err != nil {
		return ports.LegEstimate{}, false, fmt.Errorf("redis matrix cache: get: %w", err)
	}

	var leg ports.LegEstimate
	if _, err := fmt.Sscanf(raw, "%d|%d", &leg.DistanceMeters, &leg.DurationSeconds); err != nil {
		return ports.LegEstimate{}, false, fmt.Errorf("redis matrix cache: parse entry %q: %w", raw, err)
	}
	return leg, true, nil
}

func (c *RedisMatrixCache) Put(ctx context.Context, origin, destination domain.Coordinates, leg ports.LegEstimate) error {
	if c.client == nil {
		return errors.New("redis matrix cache: client is nil")
	}

	value := fmt.Sprintf("%d|%d", leg.DistanceMeters, leg.DurationSeconds)
	if err := c.client.Set(ctx, c.key(origin, destination), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis matrix cache: set: %w", err)
	}
	return nil
}
