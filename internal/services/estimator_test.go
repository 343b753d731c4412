package services

import (
	"context"
	"testing"

	"gas-route-service/internal/domain"
)

func TestFallbackEstimatorKnownDistance(t *testing.T) {
	e := NewFallbackEstimator(0, 0)

	// One degree of longitude on the equator is a known great-circle arc.
	origin := domain.Coordinates{Lat: 0, Lon: 0}
	dest := domain.Coordinates{Lat: 0, Lon: 1}

	leg := e.EstimateLeg(origin, dest, domain.ZoneUrban)

	if leg.DistanceMeters != 111195 {
		t.Fatalf("distance = %d, want 111195", leg.DistanceMeters)
	}
	// 111.195 km at 25 km/h urban speed.
	if leg.DurationSeconds != 16012 {
		t.Fatalf("duration = %d, want 16012", leg.DurationSeconds)
	}
}

func TestFallbackEstimatorRuralIsFaster(t *testing.T) {
	e := NewFallbackEstimator(0, 0)

	origin := domain.Coordinates{Lat: 25.0330, Lon: 121.5654}
	dest := domain.Coordinates{Lat: 25.1276, Lon: 121.7392}

	urban := e.EstimateLeg(origin, dest, domain.ZoneUrban)
	rural := e.EstimateLeg(origin, dest, domain.ZoneRural)

	if urban.DistanceMeters != rural.DistanceMeters {
		t.Fatalf("zone changed distance: urban=%d rural=%d", urban.DistanceMeters, rural.DistanceMeters)
	}
	if rural.DurationSeconds >= urban.DurationSeconds {
		t.Fatalf("rural duration %d should be below urban %d", rural.DurationSeconds, urban.DurationSeconds)
	}
}

func TestFallbackEstimatorSamePoint(t *testing.T) {
	e := NewFallbackEstimator(0, 0)
	p := domain.Coordinates{Lat: 25.0330, Lon: 121.5654}

	leg := e.EstimateLeg(p, p, domain.ZoneUrban)
	if leg.DistanceMeters != 0 || leg.DurationSeconds != 0 {
		t.Fatalf("same-point leg = %+v, want zero", leg)
	}
}

func TestFallbackEstimatorNeverFails(t *testing.T) {
	e := NewFallbackEstimator(30, 60)

	_, err := e.Estimate(context.Background(), domain.Coordinates{Lat: -89.9, Lon: 179.9}, domain.Coordinates{Lat: 89.9, Lon: -179.9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
