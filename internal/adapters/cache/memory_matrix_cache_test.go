package cache

import (
	"context"
	"testing"
	"time"

	"gas-route-service/internal/domain"
	"gas-route-service/internal/ports"
)

func TestMemoryMatrixCachePutGet(t *testing.T) {
	c := NewMemoryMatrixCache(time.Minute)
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

	// Reverse direction is a distinct key.
	if _, ok, _ := c.Get(ctx, b, a); ok {
		t.Fatal("expected miss for reversed pair")
	}
}

func TestMemoryMatrixCacheRoundsNearbyCoordinates(t *testing.T) {
	c := NewMemoryMatrixCache(time.Minute)
	ctx := context.Background()

	a := domain.Coordinates{Lat: 25.03301, Lon: 121.56542}
	b := domain.Coordinates{Lat: 25.0478, Lon: 121.5170}
	leg := ports.LegEstimate{DistanceMeters: 5200, DurationSeconds: 780}

	if err := c.Put(ctx, a, b, leg); err != nil {
		t.Fatalf("put: %v", err)
	}

	// ~5 m away: rounds to the same key.
	nearby := domain.Coordinates{Lat: 25.03303, Lon: 121.56544}
	if _, ok, _ := c.Get(ctx, nearby, b); !ok {
		t.Fatal("expected hit for coordinates within rounding precision")
	}
}

func TestMemoryMatrixCacheTTLExpiry(t *testing.T) {
	c := NewMemoryMatrixCache(10 * time.Minute)

	current := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	ctx := context.Background()
	a := domain.Coordinates{Lat: 25.0330, Lon: 121.5654}
	b := domain.Coordinates{Lat: 25.0478, Lon: 121.5170}

	if err := c.Put(ctx, a, b, ports.LegEstimate{DistanceMeters: 1, DurationSeconds: 1}); err != nil {
		t.Fatalf("put: %v", err)
	}

	current = current.Add(9 * time.Minute)
	if _, ok, _ := c.Get(ctx, a, b); !ok {
		t.Fatal("expected hit before TTL")
	}

	current = current.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, a, b); ok {
		t.Fatal("expected miss after TTL")
	}
}
