package services

import (
	"time"

	"gas-route-service/internal/domain"
)

// problem is the immutable snapshot one planning run computes over.
// Point indices address the cost table: 0 is the depot, i>=1 is stops[i-1].
type problem struct {
	depot    domain.Coordinates
	stops    []*domain.Stop
	vehicles []*domain.Vehicle
	table    *CostTable
	opts     Options
	depart   time.Time
}

func (p *problem) stopAt(point int) *domain.Stop { return p.stops[point-1] }

// maxDurFor resolves the duration cap for a vehicle: a run-level override
// wins, otherwise the vehicle's own limit applies. Zero means uncapped.
func (p *problem) maxDurFor(v *domain.Vehicle) time.Duration {
	if p.opts.MaxRouteDuration > 0 {
		return p.opts.MaxRouteDuration
	}
	return v.MaxRouteDuration
}

// pathSchedule is the result of propagating arrival estimates along an
// ordered stop sequence.
type pathSchedule struct {
	arrivals        []time.Time
	distanceMeters  int
	elapsed         time.Duration
	violations      []domain.WindowViolation
	exceedsDuration bool
	// feasible under the run's enforcement mode: strict treats window
	// misses as hard, advisory only the duration cap.
	feasible bool
}

// schedulePath walks order (point indices) from a start point and time.
// Arrival waits at a window's open; past its close the stop is late, which
// is infeasible under strict enforcement and a recorded violation under
// advisory. baseElapsed carries already-consumed route time so in-progress
// suffixes still respect the duration cap.
func (p *problem) schedulePath(start int, startAt time.Time, baseElapsed time.Duration, order []int, maxDur time.Duration) pathSchedule {
	s := pathSchedule{
		arrivals: make([]time.Time, 0, len(order)),
		elapsed:  baseElapsed,
		feasible: true,
	}

	cur := start
	t := startAt

	for _, point := range order {
		leg := p.table.Leg(cur, point)
		t = t.Add(leg.Duration())
		s.elapsed += leg.Duration()
		s.distanceMeters += leg.DistanceMeters

		stop := p.stopAt(point)
		if stop.Window != nil {
			if t.Before(stop.Window.Earliest) {
				wait := stop.Window.Earliest.Sub(t)
				t = stop.Window.Earliest
				s.elapsed += wait
			}
			if t.After(stop.Window.Latest) {
				lateness := t.Sub(stop.Window.Latest)
				s.violations = append(s.violations, domain.WindowViolation{
					StopID:   stop.StopID,
					Lateness: lateness,
				})
				if p.opts.Enforcement == EnforcementStrict {
					s.feasible = false
				}
			}
		}

		s.arrivals = append(s.arrivals, t)
		t = t.Add(stop.ServiceDuration)
		s.elapsed += stop.ServiceDuration
		cur = point
	}

	if maxDur > 0 && s.elapsed > maxDur {
		s.exceedsDuration = true
		s.feasible = false
	}

	return s
}

// pathCost is the weighted objective: travel distance plus the configured
// penalty per minute of window lateness.
func (p *problem) pathCost(s pathSchedule) float64 {
	cost := float64(s.distanceMeters)
	for _, v := range s.violations {
		cost += p.opts.LatenessPenaltyPerMinute * v.Lateness.Minutes()
	}
	return cost
}

// orderDemand sums stop demand over point indices.
func (p *problem) orderDemand(order []int) int {
	total := 0
	for _, point := range order {
		total += p.stopAt(point).Demand
	}
	return total
}
