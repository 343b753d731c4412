package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gas-route-service/internal/domain"
	"gas-route-service/internal/platform/obs"
)

// One planning run's input: an immutable snapshot of depot, fleet, stops
// and knobs. Budget nil means the default local search budget; an explicit
// zero budget runs construction only.
type OptimizationRequest struct {
	Depot    domain.Coordinates
	Vehicles []*domain.Vehicle
	Stops    []*domain.Stop
	DepartAt time.Time
	Options  Options
	Budget   *Budget
}

// Planner runs full optimization: construct an initial feasible solution,
// then refine it with budgeted local search. Planners are stateless; the
// travel model's cache is the only shared state, so concurrent runs are
// safe.
type Planner struct {
	Travel *TravelModel
}

func NewPlanner(travel *TravelModel) *Planner {
	return &Planner{Travel: travel}
}

// Plan produces a RoutePlan for the request. Stops that fit no vehicle land
// in the plan's unassigned set; only malformed input is an error.
func (pl *Planner) Plan(ctx context.Context, req OptimizationRequest) (_ *domain.RoutePlan, err error) {
	defer obs.Time(ctx, "planner.Plan")(&err)

	if err := req.Depot.Validate(); err != nil {
		return nil, fmt.Errorf("plan: depot: %w", err)
	}
	if len(req.Vehicles) == 0 {
		return nil, fmt.Errorf("plan: vehicle list must not be empty")
	}
	for _, v := range req.Vehicles {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("plan: %w", err)
		}
	}
	for _, s := range req.Stops {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("plan: %w", err)
		}
	}

	depart := req.DepartAt
	if depart.IsZero() {
		depart = time.Now()
	}

	points := make([]domain.Coordinates, 0, 1+len(req.Stops))
	zones := make([]domain.Zone, 0, 1+len(req.Stops))
	points = append(points, req.Depot)
	zones = append(zones, domain.ZoneUrban)
	for _, s := range req.Stops {
		points = append(points, s.Coord)
		zones = append(zones, s.Zone)
	}

	table, err := pl.Travel.Table(ctx, points, zones)
	if err != nil {
		return nil, fmt.Errorf("plan: resolve cost table: %w", err)
	}

	p := &problem{
		depot:    req.Depot,
		stops:    req.Stops,
		vehicles: req.Vehicles,
		table:    table,
		opts:     req.Options.normalized(),
		depart:   depart,
	}

	routes, unassigned := p.construct()

	budget := DefaultBudget()
	if req.Budget != nil {
		budget = *req.Budget
	}
	improveRes := p.improve(routes, budget)

	return p.assemble(routes, unassigned, depart, table.Degraded, improveRes), nil
}

// assemble converts the index-based solution back into a RoutePlan.
func (p *problem) assemble(routes []*vehicleRoute, unassigned []int, depart time.Time, degraded bool, improveRes ImproveResult) *domain.RoutePlan {
	plan := &domain.RoutePlan{
		PlanID:      uuid.NewString(),
		CreatedAt:   time.Now(),
		Depot:       p.depot,
		Degraded:    degraded,
		Termination: improveRes.Termination,
		Feasible:    true,
	}

	for _, vr := range routes {
		route := &domain.Route{
			VehicleID:           vr.vehicle.VehicleID,
			State:               domain.RouteOptimized,
			DepartAt:            depart,
			Stops:               make([]domain.RouteStop, 0, len(vr.order)),
			TotalDistanceMeters: vr.sched.distanceMeters,
			TotalDuration:       vr.sched.elapsed,
		}
		for i, point := range vr.order {
			stop := p.stopAt(point)
			stop.Status = domain.StopAssigned
			route.Stops = append(route.Stops, domain.RouteStop{Stop: stop, ETA: vr.sched.arrivals[i]})
		}

		plan.Routes = append(plan.Routes, route)
		plan.Violations = append(plan.Violations, vr.sched.violations...)
		if !vr.sched.feasible {
			plan.Feasible = false
		}
	}

	for _, point := range unassigned {
		plan.Unassigned = append(plan.Unassigned, p.stopAt(point))
	}
	if len(plan.Unassigned) > 0 || len(plan.Violations) > 0 {
		plan.Feasible = false
	}

	plan.Recalculate()
	return plan
}
