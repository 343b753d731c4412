package domain

import (
	"fmt"
	"time"
)

// Lifecycle state of a route. Only DISPATCHED and IN_PROGRESS routes
// accept live adjustments.
type RouteState string

const (
	RouteDraft      RouteState = "DRAFT"
	RouteOptimized  RouteState = "OPTIMIZED"
	RouteDispatched RouteState = "DISPATCHED"
	RouteInProgress RouteState = "IN_PROGRESS"
	RouteCompleted  RouteState = "COMPLETED"
	RouteAbandoned  RouteState = "ABANDONED"
)

// Adjustable reports whether the route may accept live insertions and
// cancellations in this state.
func (s RouteState) Adjustable() bool {
	return s == RouteDispatched || s == RouteInProgress
}

var routeTransitions = map[RouteState][]RouteState{
	RouteDraft:      {RouteOptimized, RouteAbandoned},
	RouteOptimized:  {RouteDispatched, RouteAbandoned},
	RouteDispatched: {RouteInProgress, RouteAbandoned},
	RouteInProgress: {RouteCompleted, RouteAbandoned},
}

// A single position on a route: one stop plus its estimated arrival time.
type RouteStop struct {
	Stop *Stop
	ETA  time.Time
}

// An ordered sequence of stops assigned to one vehicle.
//
// Cursor marks the boundary between completed and pending work: Stops[:Cursor]
// have been executed by the driver and are never reordered or removed,
// Stops[Cursor:] are still open to adjustment.
type Route struct {
	VehicleID           string
	State               RouteState
	Stops               []RouteStop
	Cursor              int
	DepartAt            time.Time
	TotalDistanceMeters int
	TotalDuration       time.Duration
}

// TransitionTo advances the route state machine, rejecting transitions the
// machine does not define.
func (r *Route) TransitionTo(next RouteState) error {
	for _, allowed := range routeTransitions[r.State] {
		if allowed == next {
			r.State = next
			return nil
		}
	}
	return fmt.Errorf("route %s: illegal transition %s -> %s", r.VehicleID, r.State, next)
}

// Pending returns the not-yet-completed suffix of the route.
func (r *Route) Pending() []RouteStop {
	if r.Cursor >= len(r.Stops) {
		return nil
	}
	return r.Stops[r.Cursor:]
}

// Completed returns the executed prefix of the route.
func (r *Route) Completed() []RouteStop {
	if r.Cursor > len(r.Stops) {
		return r.Stops
	}
	return r.Stops[:r.Cursor]
}

// Demand sums the demand of all non-cancelled stops on the route.
func (r *Route) Demand() int {
	total := 0
	for _, rs := range r.Stops {
		if rs.Stop.Status == StopCancelled {
			continue
		}
		total += rs.Stop.Demand
	}
	return total
}

// InsertAt places a stop at absolute position pos. Positions inside the
// completed prefix are rejected: completed work is immutable.
func (r *Route) InsertAt(pos int, rs RouteStop) error {
	if pos < r.Cursor {
		return fmt.Errorf("route %s: insert at %d would reorder completed stops (cursor=%d)", r.VehicleID, pos, r.Cursor)
	}
	if pos > len(r.Stops) {
		return fmt.Errorf("route %s: insert position %d out of range (len=%d)", r.VehicleID, pos, len(r.Stops))
	}
	r.Stops = append(r.Stops, RouteStop{})
	copy(r.Stops[pos+1:], r.Stops[pos:])
	r.Stops[pos] = rs
	return nil
}

// RemovePending splices the identified stop out of the pending suffix and
// returns it. Completed stops cannot be removed.
func (r *Route) RemovePending(stopID string) (*Stop, error) {
	for i := r.Cursor; i < len(r.Stops); i++ {
		if r.Stops[i].Stop.StopID != stopID {
			continue
		}
		removed := r.Stops[i].Stop
		r.Stops = append(r.Stops[:i], r.Stops[i+1:]...)
		return removed, nil
	}
	return nil, fmt.Errorf("route %s: stop %s not found in pending sequence", r.VehicleID, stopID)
}

// Clone copies the route structure. Stop pointers are shared: stop identity
// and status are global, only ordering and ETAs belong to the route.
func (r *Route) Clone() *Route {
	out := *r
	out.Stops = make([]RouteStop, len(r.Stops))
	copy(out.Stops, r.Stops)
	return &out
}
