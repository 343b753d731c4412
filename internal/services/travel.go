package services

import (
	"context"
	"log"
	"time"

	"gas-route-service/internal/domain"
	"gas-route-service/internal/platform/obs"
	"gas-route-service/internal/ports"
)

// TravelModel resolves leg costs for the optimizer: cache first, then the
// external matrix provider, then the fallback estimator. Selecting the
// fallback on provider failure happens here, never inside the adapter, so
// a flaky external dependency degrades a plan instead of aborting it.
//
// Provider and Cache may both be nil; a nil provider runs fallback-only.
type TravelModel struct {
	Provider ports.MatrixProvider
	Cache    ports.MatrixCache
	Fallback *FallbackEstimator

	// Deadline for one full-matrix provider call; single-pair lookups use
	// the shorter PairTimeout.
	MatrixTimeout time.Duration
	PairTimeout   time.Duration
}

const (
	defaultMatrixTimeout = 5 * time.Second
	defaultPairTimeout   = 2 * time.Second
)

// CostTable is a resolved pairwise leg table over an ordered point list.
// Degraded marks that at least one leg came from the fallback estimator.
type CostTable struct {
	Points   []domain.Coordinates
	Legs     [][]ports.LegEstimate
	Degraded bool
}

func (t *CostTable) Leg(from, to int) ports.LegEstimate { return t.Legs[from][to] }

// Table resolves all pairwise legs for the given points. zones[i] tags the
// service area of points[i] for fallback duration estimates.
func (tm *TravelModel) Table(ctx context.Context, points []domain.Coordinates, zones []domain.Zone) (_ *CostTable, err error) {
	defer obs.Time(ctx, "travel.Table")(&err)

	n := len(points)
	table := &CostTable{Points: points, Legs: make([][]ports.LegEstimate, n)}
	for i := range table.Legs {
		table.Legs[i] = make([]ports.LegEstimate, n)
	}

	type pair struct{ from, to int }
	misses := make([]pair, 0, n*n)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if tm.Cache == nil {
				misses = append(misses, pair{i, j})
				continue
			}
			leg, ok, cerr := tm.Cache.Get(ctx, points[i], points[j])
			if cerr != nil {
				log.Printf("matrix cache read failed: %v", cerr)
				misses = append(misses, pair{i, j})
				continue
			}
			if !ok {
				misses = append(misses, pair{i, j})
				continue
			}
			table.Legs[i][j] = leg
		}
	}

	if len(misses) == 0 {
		return table, nil
	}

	if tm.Provider != nil {
		timeout := tm.MatrixTimeout
		if timeout <= 0 {
			timeout = defaultMatrixTimeout
		}
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		fetched, perr := tm.Provider.Matrix(callCtx, points)
		cancel()

		if perr == nil {
			for _, p := range misses {
				leg := fetched[p.from][p.to]
				table.Legs[p.from][p.to] = leg
				if tm.Cache != nil {
					if cerr := tm.Cache.Put(ctx, points[p.from], points[p.to], leg); cerr != nil {
						log.Printf("matrix cache write failed: %v", cerr)
					}
				}
			}
			return table, nil
		}

		log.Printf("matrix provider failed, using fallback estimates: %v", perr)
	}

	// Provider absent or down: estimate the remaining legs locally. The
	// destination's zone picks the average speed.
	for _, p := range misses {
		table.Legs[p.from][p.to] = tm.Fallback.EstimateLeg(points[p.from], points[p.to], zones[p.to])
	}
	table.Degraded = true

	return table, nil
}

// Leg resolves one leg for incremental adjustment work. The boolean reports
// whether the estimate came from the fallback.
func (tm *TravelModel) Leg(ctx context.Context, origin, destination domain.Coordinates, zone domain.Zone) (ports.LegEstimate, bool) {
	if origin == destination {
		return ports.LegEstimate{}, false
	}

	if tm.Cache != nil {
		leg, ok, err := tm.Cache.Get(ctx, origin, destination)
		if err != nil {
			log.Printf("matrix cache read failed: %v", err)
		} else if ok {
			return leg, false
		}
	}

	if tm.Provider != nil {
		timeout := tm.PairTimeout
		if timeout <= 0 {
			timeout = defaultPairTimeout
		}
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		fetched, err := tm.Provider.Matrix(callCtx, []domain.Coordinates{origin, destination})
		cancel()

		if err == nil {
			leg := fetched[0][1]
			if tm.Cache != nil {
				if cerr := tm.Cache.Put(ctx, origin, destination, leg); cerr != nil {
					log.Printf("matrix cache write failed: %v", cerr)
				}
			}
			return leg, false
		}
		log.Printf("matrix provider failed for single leg, using fallback estimate: %v", err)
	}

	return tm.Fallback.EstimateLeg(origin, destination, zone), true
}
