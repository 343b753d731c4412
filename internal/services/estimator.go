package services

import (
	"context"
	"math"

	"gas-route-service/internal/domain"
	"gas-route-service/internal/ports"
)

const earthRadiusMeters = 6371000.0

// Dependency-free distance/duration estimator used whenever the external
// matrix provider fails. Distances are great-circle; durations come from a
// deliberately conservative average speed so degraded plans never
// over-promise arrival times.
type FallbackEstimator struct {
	UrbanSpeedKmh float64
	RuralSpeedKmh float64
}

const (
	defaultUrbanSpeedKmh = 25.0
	defaultRuralSpeedKmh = 50.0
)

func NewFallbackEstimator(urbanKmh, ruralKmh float64) *FallbackEstimator {
	if urbanKmh <= 0 {
		urbanKmh = defaultUrbanSpeedKmh
	}
	if ruralKmh <= 0 {
		ruralKmh = defaultRuralSpeedKmh
	}
	return &FallbackEstimator{UrbanSpeedKmh: urbanKmh, RuralSpeedKmh: ruralKmh}
}

// EstimateLeg is the pure core: haversine distance plus speed-derived
// duration. It always succeeds and never returns a negative distance.
func (e *FallbackEstimator) EstimateLeg(origin, destination domain.Coordinates, zone domain.Zone) ports.LegEstimate {
	meters := haversineMeters(origin, destination)

	speedKmh := e.UrbanSpeedKmh
	if zone == domain.ZoneRural {
		speedKmh = e.RuralSpeedKmh
	}
	seconds := meters / (speedKmh / 3.6)

	return ports.LegEstimate{
		DistanceMeters:  int(math.Round(meters)),
		DurationSeconds: int(math.Round(seconds)),
	}
}

// Estimate implements ports.LegEstimator. Without a zone tag it assumes
// urban speed, the slower of the two.
func (e *FallbackEstimator) Estimate(ctx context.Context, origin, destination domain.Coordinates) (ports.LegEstimate, error) {
	return e.EstimateLeg(origin, destination, domain.ZoneUrban), nil
}

func haversineMeters(a, b domain.Coordinates) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}
