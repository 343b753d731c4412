package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"gas-route-service/internal/domain"
	"gas-route-service/internal/ports"
)

func newTestRedisCache(t *testing.T) (*RedisMatrixCache, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisMatrixCache(client, 15*time.Minute), srv
}

func TestRedisMatrixCachePutGet(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	a := domain.Coordinates{Lat: 25.0330, Lon: 121.5654}
	b := domain.Coordinates{Lat: 25.0478, Lon: 121.5170}
	leg := ports.LegEstimate{DistanceMeters: 5200, DurationSeconds: 780}

	if err := c.Put(ctx, a, b, leg); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := c.Get(ctx, a, b)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != leg {
		t.Fatalf("got %+v, want %+v", got, leg)
	}
}

func TestRedisMatrixCacheMiss(t *testing.T) {
	c, _ := newTestRedisCache(t)

	_, ok, err := c.Get(context.Background(),
		domain.Coordinates{Lat: 25.0330, Lon: 121.5654},
		domain.Coordinates{Lat: 25.0478, Lon: 121.5170},
	)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected miss on empty cache")
	}
}

func TestRedisMatrixCacheTTLExpiry(t *testing.T) {
	c, srv := newTestRedisCache(t)
	ctx := context.Background()

	a := domain.Coordinates{Lat: 25.0330, Lon: 121.5654}
	b := domain.Coordinates{Lat: 25.0478, Lon: 121.5170}

	if err := c.Put(ctx, a, b, ports.LegEstimate{DistanceMeters: 1, DurationSeconds: 1}); err != nil {
		t.Fatalf("put: %v", err)
	}

	srv.FastForward(16 * time.Minute)

	if _, ok, _ := c.Get(ctx, a, b); ok {
		t.Fatal("expected miss after TTL expiry")
	}
}
