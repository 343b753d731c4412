package ports

import (
	"context"
	"errors"
	"time"

	"gas-route-service/internal/domain"
)

// Travel distance and duration for one leg between two points.
type LegEstimate struct {
	DistanceMeters  int
	DurationSeconds int
}

func (e LegEstimate) Duration() time.Duration {
	return time.Duration(e.DurationSeconds) * time.Second
}

// Provider failure kinds. The adapter surfaces these to the caller rather
// than degrading silently; choosing the fallback estimator is the travel
// model's decision.
var (
	ErrProviderUnavailable = errors.New("matrix provider: unavailable")
	ErrProviderTimeout     = errors.New("matrix provider: timeout")
)

// Contract for retrieving a full pairwise travel matrix from an external
// routing service. Implementations are stateless beyond their HTTP client
// and must honor the context deadline.
type MatrixProvider interface {
	// Return an N×N matrix of leg estimates for the given points, where
	// entry [i][j] is the leg from points[i] to points[j].
	Matrix(ctx context.Context, points []domain.Coordinates) ([][]LegEstimate, error)
}

// Contract for estimating a single leg. The fallback estimator implements
// this and never fails.
type LegEstimator interface {
	Estimate(ctx context.Context, origin, destination domain.Coordinates) (LegEstimate, error)
}
