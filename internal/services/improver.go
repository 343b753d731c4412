package services

import (
	"slices"

	"gas-route-service/internal/domain"
)

// Cost deltas smaller than this never count as improvements; guards against
// float drift making the loop spin on no-op moves.
const costEps = 1e-9

// Outcome of one local search run.
type ImproveResult struct {
	Termination domain.Termination
	Iterations  int
}

// improve applies bounded local search to the constructed solution: 2-opt
// segment reversal inside a route and single-stop relocation between
// routes.
//
// A move is accepted only if it strictly reduces total weighted cost, or if
// it reduces the number of infeasible routes without raising cost beyond
// the configured tolerance. The budget is checked before every move
// attempt; the loop also stops after a full pass with no accepted move (a
// local optimum). Termination reports which of the two ended the run.
func (p *problem) improve(routes []*vehicleRoute, budget Budget) ImproveResult {
	state := newBudgetState(budget)
	term := domain.TerminationConverged

	improved := true
	for improved {
		improved = false

		if !p.twoOptPass(routes, state, &improved) || !p.relocatePass(routes, state, &improved) {
			term = domain.TerminationBudgetExhausted
			break
		}
	}

	return ImproveResult{Termination: term, Iterations: state.used}
}

// twoOptPass reverses contiguous segments of each route's open suffix.
// Returns false when the budget ran out mid-pass.
func (p *problem) twoOptPass(routes []*vehicleRoute, state *budgetState, improved *bool) bool {
	for _, vr := range routes {
		n := len(vr.order)
		for i := 0; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				if !state.allow() {
					return false
				}

				trial := slices.Clone(vr.order)
				slices.Reverse(trial[i : k+1])

				sched := p.scheduleRoute(vr, trial)
				if p.acceptMove(vr.sched, sched) {
					vr.order = trial
					vr.sched = sched
					*improved = true
				}
			}
		}
	}
	return true
}

// relocatePass moves one stop from its route to a feasible position in
// another route. Returns false when the budget ran out mid-pass.
func (p *problem) relocatePass(routes []*vehicleRoute, state *budgetState, improved *bool) bool {
	for ai, from := range routes {
		i := 0
		for i < len(from.order) {
			moved, ok := p.tryRelocate(routes, ai, i, state)
			if !ok {
				return false
			}
			if moved {
				// from.order shrank; index i now holds the next stop.
				*improved = true
				continue
			}
			i++
		}
	}
	return true
}

// tryRelocate attempts to move from.order[i] into any other route. The
// second return value is false when the budget ran out.
func (p *problem) tryRelocate(routes []*vehicleRoute, ai, i int, state *budgetState) (bool, bool) {
	from := routes[ai]
	point := from.order[i]
	stop := p.stopAt(point)

	for bi, to := range routes {
		if ai == bi {
			continue
		}
		if to.baseDemand+p.orderDemand(to.order)+stop.Demand > to.vehicle.Capacity {
			continue
		}

		for pos := 0; pos <= len(to.order); pos++ {
			if !state.allow() {
				return false, false
			}

			fromTrial := slices.Delete(slices.Clone(from.order), i, i+1)
			toTrial := slices.Insert(slices.Clone(to.order), pos, point)

			fromSched := p.scheduleRoute(from, fromTrial)
			toSched := p.scheduleRoute(to, toTrial)

			if p.acceptPairMove(from.sched, to.sched, fromSched, toSched) {
				from.order = fromTrial
				from.sched = fromSched
				to.order = toTrial
				to.sched = toSched
				return true, true
			}
		}
	}
	return false, true
}

// acceptMove decides a single-route move: strictly cheaper, or repairs
// infeasibility within the tolerance.
func (p *problem) acceptMove(cur, next pathSchedule) bool {
	curCost := p.pathCost(cur)
	nextCost := p.pathCost(next)

	if !cur.feasible && next.feasible {
		return nextCost <= curCost+p.opts.InfeasibilityTolerance
	}
	if cur.feasible && !next.feasible {
		return false
	}
	return nextCost < curCost-costEps
}

// acceptPairMove applies the same rule to the combined cost and feasibility
// of the two routes touched by a relocation.
func (p *problem) acceptPairMove(curA, curB, nextA, nextB pathSchedule) bool {
	curCost := p.pathCost(curA) + p.pathCost(curB)
	nextCost := p.pathCost(nextA) + p.pathCost(nextB)

	curInfeas := boolToInt(!curA.feasible) + boolToInt(!curB.feasible)
	nextInfeas := boolToInt(!nextA.feasible) + boolToInt(!nextB.feasible)

	if nextInfeas < curInfeas {
		return nextCost <= curCost+p.opts.InfeasibilityTolerance
	}
	if nextInfeas > curInfeas {
		return false
	}
	return nextCost < curCost-costEps
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
