package domain

import "time"

// How the local search loop ended: at a local optimum, or cut off by its
// iteration / wall-clock budget.
type Termination string

const (
	TerminationConverged       Termination = "converged"
	TerminationBudgetExhausted Termination = "budget_exhausted"
)

// A reported time-window miss in advisory enforcement mode.
type WindowViolation struct {
	StopID   string
	Lateness time.Duration
}

// The complete output of one planning run (or one live adjustment) across
// all vehicles.
//
// A RoutePlan is immutable once returned: the adjuster produces a new
// version with ParentPlanID set rather than mutating the prior one, so the
// surrounding system can keep an audit trail of plan lineage.
type RoutePlan struct {
	PlanID              string
	ParentPlanID        string
	CreatedAt           time.Time
	Depot               Coordinates
	Routes              []*Route
	Unassigned          []*Stop
	TotalDistanceMeters int
	TotalDuration       time.Duration
	Feasible            bool
	Degraded            bool
	Violations          []WindowViolation
	Termination         Termination
}

// Clone copies the plan and its routes for a new version. Stop pointers are
// shared across versions; see Route.Clone.
func (p *RoutePlan) Clone() *RoutePlan {
	out := *p
	out.Routes = make([]*Route, len(p.Routes))
	for i, r := range p.Routes {
		out.Routes[i] = r.Clone()
	}
	out.Unassigned = make([]*Stop, len(p.Unassigned))
	copy(out.Unassigned, p.Unassigned)
	out.Violations = make([]WindowViolation, len(p.Violations))
	copy(out.Violations, p.Violations)
	return &out
}

// Recalculate refreshes plan-level totals from its routes.
func (p *RoutePlan) Recalculate() {
	p.TotalDistanceMeters = 0
	p.TotalDuration = 0
	for _, r := range p.Routes {
		p.TotalDistanceMeters += r.TotalDistanceMeters
		p.TotalDuration += r.TotalDuration
	}
}

// RouteFor returns the route assigned to the given vehicle, or nil.
func (p *RoutePlan) RouteFor(vehicleID string) *Route {
	for _, r := range p.Routes {
		if r.VehicleID == vehicleID {
			return r
		}
	}
	return nil
}
