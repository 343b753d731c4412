package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"gas-route-service/internal/domain"
	"gas-route-service/internal/platform/obs"
)

type AdjustmentStatus string

const (
	AdjustmentApplied            AdjustmentStatus = "Applied"
	AdjustmentNoFeasiblePosition AdjustmentStatus = "NoFeasiblePosition"
	AdjustmentRouteNotAdjustable AdjustmentStatus = "RouteNotAdjustable"
)

// Outcome of one live adjustment. Plan and Route are set when Applied;
// Unassigned carries the stop back to the pool on NoFeasiblePosition.
type AdjustmentResult struct {
	Status     AdjustmentStatus
	Plan       *domain.RoutePlan
	Route      *domain.Route
	Unassigned *domain.Stop
}

// Adjuster inserts and cancels stops on dispatched routes without
// invalidating completed work.
//
// A route is owned by one driver execution context at a time, so the
// adjuster serializes adjustments per route through a keyed mutex;
// adjustments against different routes proceed in parallel. Both operations
// touch only the pending suffix of the single affected route and never
// re-run multi-vehicle optimization.
type Adjuster struct {
	Travel  *TravelModel
	Options Options

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAdjuster(travel *TravelModel, opts Options) *Adjuster {
	return &Adjuster{
		Travel:  travel,
		Options: opts.normalized(),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (a *Adjuster) routeLock(vehicleID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[vehicleID]
	if !ok {
		l = &sync.Mutex{}
		a.locks[vehicleID] = l
	}
	return l
}

// suffixSchedule mirrors pathSchedule for the pending portion of a live
// route, resolved leg by leg through the travel model.
type suffixSchedule struct {
	etas           []time.Time
	distanceMeters int
	elapsed        time.Duration
	violations     []domain.WindowViolation
	feasible       bool
	degraded       bool
}

// InsertStop places a new stop at the minimum-added-cost feasible position
// strictly after the route's completion cursor. It never searches other
// vehicles' routes: reassigning across vehicles mid-dispatch is an
// operational decision outside this core.
//
// On success it returns a new plan version; the input plan is not mutated.
func (a *Adjuster) InsertStop(ctx context.Context, plan *domain.RoutePlan, vehicle *domain.Vehicle, stop *domain.Stop) (_ AdjustmentResult, err error) {
	defer obs.Time(ctx, "adjuster.InsertStop")(&err)

	if err := stop.Validate(); err != nil {
		return AdjustmentResult{}, fmt.Errorf("insert stop: %w", err)
	}
	route := plan.RouteFor(vehicle.VehicleID)
	if route == nil {
		return AdjustmentResult{}, fmt.Errorf("insert stop: plan %s has no route for vehicle %s", plan.PlanID, vehicle.VehicleID)
	}

	lock := a.routeLock(vehicle.VehicleID)
	lock.Lock()
	defer lock.Unlock()

	if !route.State.Adjustable() {
		return AdjustmentResult{Status: AdjustmentRouteNotAdjustable, Route: route}, nil
	}
	if route.Demand()+stop.Demand > vehicle.Capacity {
		return AdjustmentResult{Status: AdjustmentNoFeasiblePosition, Route: route, Unassigned: stop}, nil
	}

	anchor, anchorAt := routeAnchor(route, plan.Depot)
	baseElapsed := anchorAt.Sub(route.DepartAt)
	maxDur := vehicle.MaxRouteDuration
	if a.Options.MaxRouteDuration > 0 {
		maxDur = a.Options.MaxRouteDuration
	}

	pending := pendingStops(route)
	before := a.scheduleSuffix(ctx, anchor, anchorAt, baseElapsed, pending, maxDur)
	beforeCost := a.suffixCost(before)

	var (
		found     bool
		bestPos   int
		bestSched suffixSchedule
		bestAdded float64
	)
	for pos := 0; pos <= len(pending); pos++ {
		trial := make([]*domain.Stop, 0, len(pending)+1)
		trial = append(trial, pending[:pos]...)
		trial = append(trial, stop)
		trial = append(trial, pending[pos:]...)

		sched := a.scheduleSuffix(ctx, anchor, anchorAt, baseElapsed, trial, maxDur)
		if !sched.feasible {
			continue
		}

		added := a.suffixCost(sched) - beforeCost
		if !found || added < bestAdded {
			found = true
			bestPos = pos
			bestSched = sched
			bestAdded = added
		}
	}

	if !found {
		return AdjustmentResult{Status: AdjustmentNoFeasiblePosition, Route: route, Unassigned: stop}, nil
	}

	next := a.newVersion(plan)
	updated := next.RouteFor(vehicle.VehicleID)
	if err := updated.InsertAt(route.Cursor+bestPos, domain.RouteStop{Stop: stop}); err != nil {
		return AdjustmentResult{}, fmt.Errorf("insert stop: %w", err)
	}
	stop.Status = domain.StopAssigned

	applySuffix(updated, bestSched, before)
	rebuildViolations(next, append(pending, stop), bestSched.violations)
	if bestSched.degraded {
		next.Degraded = true
	}
	next.Recalculate()

	return AdjustmentResult{Status: AdjustmentApplied, Plan: next, Route: updated}, nil
}

// CancelStop marks the stop CANCELLED, removes it from the pending
// sequence, and recomputes downstream arrival estimates. Stops before the
// completion cursor are never touched.
func (a *Adjuster) CancelStop(ctx context.Context, plan *domain.RoutePlan, vehicle *domain.Vehicle, stopID string) (_ AdjustmentResult, err error) {
	defer obs.Time(ctx, "adjuster.CancelStop")(&err)

	route := plan.RouteFor(vehicle.VehicleID)
	if route == nil {
		return AdjustmentResult{}, fmt.Errorf("cancel stop: plan %s has no route for vehicle %s", plan.PlanID, vehicle.VehicleID)
	}

	lock := a.routeLock(vehicle.VehicleID)
	lock.Lock()
	defer lock.Unlock()

	if !route.State.Adjustable() {
		return AdjustmentResult{Status: AdjustmentRouteNotAdjustable, Route: route}, nil
	}

	anchor, anchorAt := routeAnchor(route, plan.Depot)
	baseElapsed := anchorAt.Sub(route.DepartAt)
	maxDur := vehicle.MaxRouteDuration
	if a.Options.MaxRouteDuration > 0 {
		maxDur = a.Options.MaxRouteDuration
	}

	pendingBefore := pendingStops(route)
	before := a.scheduleSuffix(ctx, anchor, anchorAt, baseElapsed, pendingBefore, maxDur)

	next := a.newVersion(plan)
	updated := next.RouteFor(vehicle.VehicleID)
	removed, rerr := updated.RemovePending(stopID)
	if rerr != nil {
		return AdjustmentResult{}, fmt.Errorf("cancel stop: %w", rerr)
	}
	removed.Status = domain.StopCancelled

	after := a.scheduleSuffix(ctx, anchor, anchorAt, baseElapsed, pendingStops(updated), maxDur)
	applySuffix(updated, after, before)
	rebuildViolations(next, pendingBefore, after.violations)
	if after.degraded {
		next.Degraded = true
	}
	next.Recalculate()

	return AdjustmentResult{Status: AdjustmentApplied, Plan: next, Route: updated}, nil
}

// newVersion clones the plan into a fresh version linked to its parent.
func (a *Adjuster) newVersion(plan *domain.RoutePlan) *domain.RoutePlan {
	next := plan.Clone()
	next.ParentPlanID = plan.PlanID
	next.PlanID = uuid.NewString()
	next.CreatedAt = time.Now()
	return next
}

// scheduleSuffix propagates arrivals over the pending stops, waiting at
// window opens and recording lateness past closes. Under strict enforcement
// lateness is infeasible; the duration cap counts time already consumed
// before the cursor.
func (a *Adjuster) scheduleSuffix(ctx context.Context, start domain.Coordinates, startAt time.Time, baseElapsed time.Duration, stops []*domain.Stop, maxDur time.Duration) suffixSchedule {
	s := suffixSchedule{etas: make([]time.Time, 0, len(stops)), elapsed: baseElapsed, feasible: true}

	cur := start
	t := startAt
	for _, stop := range stops {
		leg, degraded := a.Travel.Leg(ctx, cur, stop.Coord, stop.Zone)
		if degraded {
			s.degraded = true
		}
		t = t.Add(leg.Duration())
		s.elapsed += leg.Duration()
		s.distanceMeters += leg.DistanceMeters

		if stop.Window != nil {
			if t.Before(stop.Window.Earliest) {
				wait := stop.Window.Earliest.Sub(t)
				t = stop.Window.Earliest
				s.elapsed += wait
			}
			if t.After(stop.Window.Latest) {
				s.violations = append(s.violations, domain.WindowViolation{
					StopID:   stop.StopID,
					Lateness: t.Sub(stop.Window.Latest),
				})
				if a.Options.Enforcement == EnforcementStrict {
					s.feasible = false
				}
			}
		}

		s.etas = append(s.etas, t)
		t = t.Add(stop.ServiceDuration)
		s.elapsed += stop.ServiceDuration
		cur = stop.Coord
	}

	if maxDur > 0 && s.elapsed > maxDur {
		s.feasible = false
	}

	return s
}

func (a *Adjuster) suffixCost(s suffixSchedule) float64 {
	cost := float64(s.distanceMeters)
	for _, v := range s.violations {
		cost += a.Options.LatenessPenaltyPerMinute * v.Lateness.Minutes()
	}
	return cost
}

// applySuffix writes recomputed ETAs into the pending stops and shifts the
// route totals by the suffix delta, leaving the completed prefix untouched.
func applySuffix(route *domain.Route, after, before suffixSchedule) {
	for i := range after.etas {
		route.Stops[route.Cursor+i].ETA = after.etas[i]
	}
	route.TotalDistanceMeters += after.distanceMeters - before.distanceMeters
	route.TotalDuration += after.elapsed - before.elapsed
}

// rebuildViolations replaces the plan's violation entries for the
// rescheduled stops with the freshly computed suffix entries, keeping
// entries that belong to other routes or to the completed prefix. A
// violation for a removed stop disappears with it. Feasibility is
// refreshed from the remaining violations and unassigned work.
func rebuildViolations(plan *domain.RoutePlan, rescheduled []*domain.Stop, fresh []domain.WindowViolation) {
	stale := make(map[string]bool, len(rescheduled))
	for _, s := range rescheduled {
		stale[s.StopID] = true
	}

	kept := plan.Violations[:0]
	for _, v := range plan.Violations {
		if !stale[v.StopID] {
			kept = append(kept, v)
		}
	}
	plan.Violations = append(kept, fresh...)
	plan.Feasible = len(plan.Violations) == 0 && len(plan.Unassigned) == 0
}

// routeAnchor locates the first open position: the last completed stop once
// service there finishes, or the depot at departure when nothing is done.
func routeAnchor(route *domain.Route, depot domain.Coordinates) (domain.Coordinates, time.Time) {
	if route.Cursor == 0 {
		return depot, route.DepartAt
	}
	last := route.Stops[route.Cursor-1]
	return last.Stop.Coord, last.ETA.Add(last.Stop.ServiceDuration)
}

// pendingStops flattens the pending suffix to plain stops, skipping
// cancelled entries.
func pendingStops(route *domain.Route) []*domain.Stop {
	pending := route.Pending()
	out := make([]*domain.Stop, 0, len(pending))
	for _, rs := range pending {
		if rs.Stop.Status == domain.StopCancelled {
			continue
		}
		out = append(out, rs.Stop)
	}
	return out
}
