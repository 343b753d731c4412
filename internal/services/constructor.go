package services

import (
	"slices"
	"time"

	"gas-route-service/internal/domain"
)

// One vehicle's working route during optimization: an ordered list of point
// indices plus its current schedule.
//
// The start fields locate the first open position: fresh plans start at the
// depot at the run's departure time, in-progress routes at the last
// completed stop with time and demand already consumed by the prefix.
type vehicleRoute struct {
	vehicle *domain.Vehicle
	order   []int
	sched   pathSchedule

	startPoint  int
	startAt     time.Time
	baseElapsed time.Duration
	baseDemand  int
}

// scheduleRoute propagates arrivals for a trial order of vr's open suffix.
func (p *problem) scheduleRoute(vr *vehicleRoute, order []int) pathSchedule {
	startAt := vr.startAt
	if startAt.IsZero() {
		startAt = p.depart
	}
	return p.schedulePath(vr.startPoint, startAt, vr.baseElapsed, order, p.maxDurFor(vr.vehicle))
}

// construct builds an initial feasible solution by greedy cheapest
// insertion.
//
// Vehicles are filled in ascending identifier order. Each round inserts the
// unassigned stop whose cheapest feasible position adds the least weighted
// cost, with ties broken by earlier time-window deadline and then ascending
// stop identifier so runs are fully reproducible. Urgent stops are
// considered before normal ones in every round. Stops that fit nowhere are
// returned as unassigned rather than failing the run.
func (p *problem) construct() ([]*vehicleRoute, []int) {
	vehicles := slices.Clone(p.vehicles)
	slices.SortFunc(vehicles, func(a, b *domain.Vehicle) int {
		if a.VehicleID < b.VehicleID {
			return -1
		}
		if a.VehicleID > b.VehicleID {
			return 1
		}
		return 0
	})

	// Candidate scan order is by stop identifier; combined with the
	// explicit tie-break comparisons below this makes selection
	// deterministic regardless of input order.
	remaining := make([]int, 0, len(p.stops))
	for i := range p.stops {
		remaining = append(remaining, i+1)
	}
	slices.SortFunc(remaining, func(a, b int) int {
		if p.stopAt(a).StopID < p.stopAt(b).StopID {
			return -1
		}
		if p.stopAt(a).StopID > p.stopAt(b).StopID {
			return 1
		}
		return 0
	})

	routes := make([]*vehicleRoute, 0, len(vehicles))

	for _, v := range vehicles {
		vr := &vehicleRoute{vehicle: v}

		for len(remaining) > 0 {
			point, pos, sched, ok := p.bestInsertion(vr, remaining)
			if !ok {
				break
			}

			vr.order = slices.Insert(vr.order, pos, point)
			vr.sched = sched
			remaining = slices.DeleteFunc(remaining, func(q int) bool { return q == point })
		}

		routes = append(routes, vr)
	}

	return routes, remaining
}

// bestInsertion finds the (stop, position) pair with the lowest added cost
// among feasible insertions into vr. Urgent candidates pre-empt normal ones
// while any of them still has a feasible position; an urgent stop that fits
// nowhere must not strand insertable normal stops, so the search falls
// through to the normal candidates in the same round.
func (p *problem) bestInsertion(vr *vehicleRoute, candidates []int) (int, int, pathSchedule, bool) {
	urgent := make([]int, 0, len(candidates))
	normal := make([]int, 0, len(candidates))
	for _, point := range candidates {
		if p.stopAt(point).Urgent() {
			urgent = append(urgent, point)
		} else {
			normal = append(normal, point)
		}
	}

	if point, pos, sched, ok := p.bestInsertionAmong(vr, urgent); ok {
		return point, pos, sched, ok
	}
	return p.bestInsertionAmong(vr, normal)
}

// bestInsertionAmong scans one candidate tier; among equals the earlier
// deadline and then the smaller stop identifier win.
func (p *problem) bestInsertionAmong(vr *vehicleRoute, candidates []int) (int, int, pathSchedule, bool) {
	curCost := p.pathCost(vr.sched)
	curDemand := vr.baseDemand + p.orderDemand(vr.order)

	var (
		found     bool
		bestPoint int
		bestPos   int
		bestSched pathSchedule
		bestCost  float64
	)

	for _, point := range candidates {
		stop := p.stopAt(point)
		if curDemand+stop.Demand > vr.vehicle.Capacity {
			continue
		}

		for pos := 0; pos <= len(vr.order); pos++ {
			trial := make([]int, 0, len(vr.order)+1)
			trial = append(trial, vr.order[:pos]...)
			trial = append(trial, point)
			trial = append(trial, vr.order[pos:]...)

			sched := p.scheduleRoute(vr, trial)
			if !sched.feasible {
				continue
			}

			added := p.pathCost(sched) - curCost
			if !found || p.insertionLess(added, stop, bestCost, p.stopAt(bestPoint)) {
				found = true
				bestPoint = point
				bestPos = pos
				bestSched = sched
				bestCost = added
			}
		}
	}

	return bestPoint, bestPos, bestSched, found
}

// insertionLess orders candidate insertions: lower added cost, then earlier
// time-window deadline, then ascending stop identifier.
func (p *problem) insertionLess(cost float64, stop *domain.Stop, bestCost float64, bestStop *domain.Stop) bool {
	if cost != bestCost {
		return cost < bestCost
	}
	ad, bd := stop.Deadline(), bestStop.Deadline()
	if !ad.Equal(bd) {
		return ad.Before(bd)
	}
	return stop.StopID < bestStop.StopID
}
