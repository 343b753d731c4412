package matrix

import (
	"context"
	"sync/atomic"

	"gas-route-service/internal/domain"
	"gas-route-service/internal/ports"
)

type MockLeg struct {
	From, To domain.Coordinates
	Meters   int
	Seconds  int
}

// MockMatrixProvider serves canned legs keyed by coordinate pair, or fails
// every call with a configured error. Calls counts invocations so tests can
// assert cache behavior.
type MockMatrixProvider struct {
	m     map[string]ports.LegEstimate
	fail  error
	calls atomic.Int64
}

func NewMockMatrixProvider(legs []MockLeg) *MockMatrixProvider {
	m := make(map[string]ports.LegEstimate, len(legs))
	for _, l := range legs {
		m[l.From.CacheKey()+"|"+l.To.CacheKey()] = ports.LegEstimate{
			DistanceMeters:  l.Meters,
			DurationSeconds: l.Seconds,
		}
	}
	return &MockMatrixProvider{m: m}
}

// NewFailingMatrixProvider fails every Matrix call with err.
func NewFailingMatrixProvider(err error) *MockMatrixProvider {
	return &MockMatrixProvider{fail: err}
}

func (p *MockMatrixProvider) Calls() int64 { return p.calls.Load() }

func (p *MockMatrixProvider) Matrix(ctx context.Context, points []domain.Coordinates) ([][]ports.LegEstimate, error) {
	p.calls.Add(1)
	if p.fail != nil {
		return nil, p.fail
	}

	out := make([][]ports.LegEstimate, len(points))
	for i := range points {
		out[i] = make([]ports.LegEstimate, len(points))
		for j := range points {
			if i == j {
				continue
			}
			out[i][j] = p.m[points[i].CacheKey()+"|"+points[j].CacheKey()]
		}
	}
	return out, nil
}
