package services

import (
	"context"
	"testing"

	"gas-route-service/internal/adapters/cache"
	"gas-route-service/internal/adapters/matrix"
	"gas-route-service/internal/domain"
	"gas-route-service/internal/ports"
)

var travelTestPoints = []domain.Coordinates{
	{Lat: 25.0330, Lon: 121.5654},
	{Lat: 25.0478, Lon: 121.5319},
	{Lat: 25.0139, Lon: 121.5413},
}

func urbanZones(n int) []domain.Zone {
	zones := make([]domain.Zone, n)
	for i := range zones {
		zones[i] = domain.ZoneUrban
	}
	return zones
}

func travelTestLegs() []matrix.MockLeg {
	legs := make([]matrix.MockLeg, 0, 6)
	for i, from := range travelTestPoints {
		for j, to := range travelTestPoints {
			if i == j {
				continue
			}
			legs = append(legs, matrix.MockLeg{
				From:    from,
				To:      to,
				Meters:  1000 * (i + j),
				Seconds: 60 * (i + j),
			})
		}
	}
	return legs
}

func TestTableProviderOutageUsesFallback(t *testing.T) {
	provider := matrix.NewFailingMatrixProvider(ports.ErrProviderUnavailable)
	tm := &TravelModel{
		Provider: provider,
		Fallback: NewFallbackEstimator(0, 0),
	}

	table, err := tm.Table(context.Background(), travelTestPoints, urbanZones(len(travelTestPoints)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !table.Degraded {
		t.Fatal("expected table to be marked degraded")
	}

	for i := range travelTestPoints {
		for j := range travelTestPoints {
			leg := table.Leg(i, j)
			if i == j {
				if leg.DistanceMeters != 0 {
					t.Fatalf("diagonal leg (%d,%d) = %+v, want zero", i, j, leg)
				}
				continue
			}
			if leg.DistanceMeters <= 0 || leg.DurationSeconds <= 0 {
				t.Fatalf("fallback leg (%d,%d) = %+v, want positive", i, j, leg)
			}
		}
	}
}

func TestTableCacheHitSkipsProvider(t *testing.T) {
	provider := matrix.NewMockMatrixProvider(travelTestLegs())
	tm := &TravelModel{
		Provider: provider,
		Cache:    cache.NewMemoryMatrixCache(0),
		Fallback: NewFallbackEstimator(0, 0),
	}

	if _, err := tm.Table(context.Background(), travelTestPoints, urbanZones(len(travelTestPoints))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Calls() != 1 {
		t.Fatalf("cold table: provider calls = %d, want 1", provider.Calls())
	}

	table, err := tm.Table(context.Background(), travelTestPoints, urbanZones(len(travelTestPoints)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Calls() != 1 {
		t.Fatalf("warm table: provider calls = %d, want 1", provider.Calls())
	}
	if table.Degraded {
		t.Fatal("cached legs should not mark the table degraded")
	}
	if got := table.Leg(0, 1).DistanceMeters; got != 1000 {
		t.Fatalf("leg(0,1) distance = %d, want 1000", got)
	}
}

func TestTableWithoutProviderIsDegraded(t *testing.T) {
	tm := &TravelModel{Fallback: NewFallbackEstimator(0, 0)}

	table, err := tm.Table(context.Background(), travelTestPoints, urbanZones(len(travelTestPoints)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !table.Degraded {
		t.Fatal("provider-less table should be degraded")
	}
}

func TestLegProviderOutageUsesFallback(t *testing.T) {
	tm := &TravelModel{
		Provider: matrix.NewFailingMatrixProvider(ports.ErrProviderTimeout),
		Fallback: NewFallbackEstimator(0, 0),
	}

	leg, degraded := tm.Leg(context.Background(), travelTestPoints[0], travelTestPoints[1], domain.ZoneUrban)
	if !degraded {
		t.Fatal("expected fallback-sourced leg to report degraded")
	}
	if leg.DistanceMeters <= 0 {
		t.Fatalf("leg distance = %d, want positive", leg.DistanceMeters)
	}
}

func TestLegCacheHit(t *testing.T) {
	c := cache.NewMemoryMatrixCache(0)
	want := ports.LegEstimate{DistanceMeters: 4200, DurationSeconds: 630}
	if err := c.Put(context.Background(), travelTestPoints[0], travelTestPoints[1], want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	provider := matrix.NewFailingMatrixProvider(ports.ErrProviderUnavailable)
	tm := &TravelModel{Provider: provider, Cache: c, Fallback: NewFallbackEstimator(0, 0)}

	leg, degraded := tm.Leg(context.Background(), travelTestPoints[0], travelTestPoints[1], domain.ZoneUrban)
	if degraded {
		t.Fatal("cache hit should not be degraded")
	}
	if leg != want {
		t.Fatalf("leg = %+v, want %+v", leg, want)
	}
	if provider.Calls() != 0 {
		t.Fatalf("provider calls = %d, want 0", provider.Calls())
	}
}
