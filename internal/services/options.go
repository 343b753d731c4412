package services

import "time"

// Time-window enforcement policy for a planning run.
type Enforcement string

const (
	// Strict mode: a stop whose window cannot be met is not placed.
	EnforcementStrict Enforcement = "strict"
	// Advisory mode: lateness is permitted but weighted into cost and
	// reported as violations.
	EnforcementAdvisory Enforcement = "advisory"
)

// Recognized optimization options. Zero values fall back to defaults via
// normalized(); the penalty and tolerance constants are configuration, not
// hard-coded, so callers and tests can treat them as parameters.
type Options struct {
	Enforcement Enforcement
	// Cap on any route's total travel+service time. Zero means each
	// vehicle's own MaxRouteDuration applies unmodified.
	MaxRouteDuration time.Duration
	// Cost added per minute of time-window lateness in advisory mode.
	// Zero selects the default; a negative value disables the penalty.
	LatenessPenaltyPerMinute float64
	// Extra feasible-route cost accepted for a move that resolves an
	// infeasibility, in cost units. Zero selects the default; a negative
	// value means no slack at all.
	InfeasibilityTolerance float64
}

const (
	defaultLatenessPenaltyPerMinute = 60.0
	defaultInfeasibilityTolerance   = 500.0
)

func (o Options) normalized() Options {
	if o.Enforcement == "" {
		o.Enforcement = EnforcementStrict
	}
	switch {
	case o.LatenessPenaltyPerMinute == 0:
		o.LatenessPenaltyPerMinute = defaultLatenessPenaltyPerMinute
	case o.LatenessPenaltyPerMinute < 0:
		o.LatenessPenaltyPerMinute = 0
	}
	switch {
	case o.InfeasibilityTolerance == 0:
		o.InfeasibilityTolerance = defaultInfeasibilityTolerance
	case o.InfeasibilityTolerance < 0:
		o.InfeasibilityTolerance = 0
	}
	return o
}

// Local search budget, passed through the call explicitly so runs stay
// deterministic and testable with injected budgets. The zero Budget means
// no improvement iterations at all (construction only); MaxIterations of
// zero with a positive TimeLimit bounds the run by wall clock alone.
type Budget struct {
	MaxIterations int
	TimeLimit     time.Duration
}

// DefaultBudget bounds local search at 200 move attempts or 2 seconds,
// whichever is exhausted first.
func DefaultBudget() Budget {
	return Budget{MaxIterations: 200, TimeLimit: 2 * time.Second}
}

// budgetState tracks consumption across one improvement run. The improver
// checks allow() before every move attempt (cooperative cancellation).
type budgetState struct {
	budget   Budget
	started  time.Time
	used     int
	deadline time.Time
}

func newBudgetState(b Budget) *budgetState {
	s := &budgetState{budget: b, started: time.Now()}
	if b.TimeLimit > 0 {
		s.deadline = s.started.Add(b.TimeLimit)
	}
	return s
}

func (s *budgetState) allow() bool {
	if s.budget.MaxIterations > 0 && s.used >= s.budget.MaxIterations {
		return false
	}
	if s.budget.MaxIterations == 0 && s.deadline.IsZero() {
		return false
	}
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		return false
	}
	s.used++
	return true
}
