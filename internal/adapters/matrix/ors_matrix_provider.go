package matrix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"gas-route-service/internal/domain"
	"gas-route-service/internal/platform/obs"
	"gas-route-service/internal/ports"
)

// ORSMatrixProvider implements MatrixProvider using the OpenRouteService
// matrix endpoint.
//
// The adapter is stateless beyond its HTTP client and safe for concurrent
// use. It reports failures to the caller as ErrProviderUnavailable or
// ErrProviderTimeout; it never substitutes estimates of its own. Degrading
// to the fallback estimator is the travel model's decision.
type ORSMatrixProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
}

func NewORSMatrixProvider(apiKey string) (*ORSMatrixProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	return &ORSMatrixProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		profile: "driving-car",
	}, nil
}

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// Matrix fetches the full N×N distance/duration table for the given points.
// The context carries the caller's deadline; on expiry the call fails with
// ErrProviderTimeout rather than retrying indefinitely.
func (o *ORSMatrixProvider) Matrix(ctx context.Context, points []domain.Coordinates) (_ [][]ports.LegEstimate, err error) {
	defer obs.Time(ctx, "ors.Matrix")(&err)

	if len(points) == 0 {
		return [][]ports.LegEstimate{}, nil
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	locations := make([][]float64, 0, len(points))
	for _, p := range points {
		locations = append(locations, p.CoordsToList())
	}

	payload, err := json.Marshal(matrixRequest{
		Locations: locations,
		Metrics:   []string{"distance", "duration"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, classifyFailure(err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("%w: decode matrix response: %v", ports.ErrProviderUnavailable, err)
	}

	n := len(points)
	if len(mr.Distances) != n || len(mr.Durations) != n {
		return nil, fmt.Errorf(
			"%w: expected %d matrix rows; got distances=%d durations=%d",
			ports.ErrProviderUnavailable, n, len(mr.Distances), len(mr.Durations),
		)
	}

	out := make([][]ports.LegEstimate, n)
	for i := 0; i < n; i++ {
		if len(mr.Distances[i]) != n || len(mr.Durations[i]) != n {
			return nil, fmt.Errorf("%w: row %d length mismatch", ports.ErrProviderUnavailable, i)
		}
		out[i] = make([]ports.LegEstimate, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			metersPtr := mr.Distances[i][j]
			secondsPtr := mr.Durations[i][j]
			if metersPtr == nil || secondsPtr == nil {
				return nil, fmt.Errorf("%w: matrix returned no metrics for leg %d -> %d", ports.ErrProviderUnavailable, i, j)
			}

			// ORS returns float metrics; round to nearest integer for
			// domain consistency.
			out[i][j] = ports.LegEstimate{
				DistanceMeters:  int(math.Round(*metersPtr)),
				DurationSeconds: int(math.Round(*secondsPtr)),
			}
		}
	}

	return out, nil
}

// classifyFailure maps transport errors onto the provider error taxonomy.
func classifyFailure(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ports.ErrProviderTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ports.ErrProviderUnavailable, err)
}
