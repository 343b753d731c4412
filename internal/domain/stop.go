package domain

import (
	"fmt"
	"time"
)

// Status of a single delivery stop over its lifecycle. Geocoordinate and
// demand are immutable once a Stop is created; status and assignment are
// mutated only by the planner and the adjuster.
type StopStatus string

const (
	StopPending    StopStatus = "PENDING"
	StopAssigned   StopStatus = "ASSIGNED"
	StopInProgress StopStatus = "IN_PROGRESS"
	StopCompleted  StopStatus = "COMPLETED"
	StopFailed     StopStatus = "FAILED"
	StopSkipped    StopStatus = "SKIPPED"
	StopCancelled  StopStatus = "CANCELLED"
)

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
)

// Zone tags a stop's service area so the fallback estimator can pick an
// appropriate average speed.
type Zone string

const (
	ZoneUrban Zone = "urban"
	ZoneRural Zone = "rural"
)

// Interval during which a stop must be served.
type TimeWindow struct {
	Earliest time.Time
	Latest   time.Time
}

func (w TimeWindow) Validate() error {
	if w.Latest.Before(w.Earliest) {
		return fmt.Errorf("time window: latest %v before earliest %v", w.Latest, w.Earliest)
	}
	return nil
}

// Represents a single gas delivery location.
// Demand is expressed in abstract capacity units (shared with Vehicle).
type Stop struct {
	StopID          string
	Coord           Coordinates
	Demand          int
	Window          *TimeWindow
	ServiceDuration time.Duration
	Priority        Priority
	Status          StopStatus
	Zone            Zone
}

// Validate checks programming-contract invariants on caller-supplied input.
func (s *Stop) Validate() error {
	if s.StopID == "" {
		return fmt.Errorf("stop: id must be non-empty")
	}
	if s.Demand < 0 {
		return fmt.Errorf("stop %s: demand must be non-negative, got %d", s.StopID, s.Demand)
	}
	if s.ServiceDuration < 0 {
		return fmt.Errorf("stop %s: service duration must be non-negative", s.StopID)
	}
	if err := s.Coord.Validate(); err != nil {
		return fmt.Errorf("stop %s: %w", s.StopID, err)
	}
	if s.Window != nil {
		if err := s.Window.Validate(); err != nil {
			return fmt.Errorf("stop %s: %w", s.StopID, err)
		}
	}
	return nil
}

// Deadline returns the end of the stop's time window, or a far-future
// sentinel for unwindowed stops so deadline ordering stays total.
func (s *Stop) Deadline() time.Time {
	if s.Window == nil {
		return time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return s.Window.Latest
}

func (s *Stop) Urgent() bool { return s.Priority == PriorityUrgent }
