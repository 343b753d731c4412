package domain

import (
	"testing"
	"time"
)

func mkStop(id string, demand int) *Stop {
	return &Stop{
		StopID: id,
		Coord:  Coordinates{Lat: 25.03, Lon: 121.56},
		Demand: demand,
		Status: StopAssigned,
	}
}

func TestRouteStateMachine(t *testing.T) {
	r := &Route{VehicleID: "v1", State: RouteDraft}

	steps := []RouteState{RouteOptimized, RouteDispatched, RouteInProgress, RouteCompleted}
	for _, next := range steps {
		if err := r.TransitionTo(next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	if err := r.TransitionTo(RouteDispatched); err == nil {
		t.Fatal("expected error transitioning COMPLETED -> DISPATCHED")
	}
}

func TestRouteStateAdjustable(t *testing.T) {
	cases := map[RouteState]bool{
		RouteDraft:      false,
		RouteOptimized:  false,
		RouteDispatched: true,
		RouteInProgress: true,
		RouteCompleted:  false,
		RouteAbandoned:  false,
	}
	for state, want := range cases {
		if got := state.Adjustable(); got != want {
			t.Errorf("%s.Adjustable() = %v, want %v", state, got, want)
		}
	}
}

func TestRouteInsertAtRejectsCompletedPrefix(t *testing.T) {
	r := &Route{
		VehicleID: "v1",
		State:     RouteInProgress,
		Stops: []RouteStop{
			{Stop: mkStop("s1", 1)},
			{Stop: mkStop("s2", 1)},
			{Stop: mkStop("s3", 1)},
		},
		Cursor: 2,
	}

	if err := r.InsertAt(1, RouteStop{Stop: mkStop("s4", 1)}); err == nil {
		t.Fatal("expected error inserting before cursor")
	}

	if err := r.InsertAt(2, RouteStop{Stop: mkStop("s4", 1)}); err != nil {
		t.Fatalf("insert at cursor: %v", err)
	}
	if r.Stops[2].Stop.StopID != "s4" {
		t.Fatalf("expected s4 at position 2, got %s", r.Stops[2].Stop.StopID)
	}
	if len(r.Stops) != 4 {
		t.Fatalf("expected 4 stops, got %d", len(r.Stops))
	}
}

func TestRouteRemovePending(t *testing.T) {
	r := &Route{
		VehicleID: "v1",
		Stops: []RouteStop{
			{Stop: mkStop("s1", 1)},
			{Stop: mkStop("s2", 1)},
			{Stop: mkStop("s3", 1)},
		},
		Cursor: 1,
	}

	if _, err := r.RemovePending("s1"); err == nil {
		t.Fatal("expected error removing completed stop")
	}

	removed, err := r.RemovePending("s3")
	if err != nil {
		t.Fatalf("remove pending: %v", err)
	}
	if removed.StopID != "s3" {
		t.Fatalf("removed = %s, want s3", removed.StopID)
	}
	if len(r.Stops) != 2 {
		t.Fatalf("expected 2 stops after removal, got %d", len(r.Stops))
	}
}

func TestRouteDemandSkipsCancelled(t *testing.T) {
	cancelled := mkStop("s2", 7)
	cancelled.Status = StopCancelled

	r := &Route{
		Stops: []RouteStop{
			{Stop: mkStop("s1", 5)},
			{Stop: cancelled},
			{Stop: mkStop("s3", 3)},
		},
	}

	if got := r.Demand(); got != 8 {
		t.Fatalf("demand = %d, want 8", got)
	}
}

func TestStopValidate(t *testing.T) {
	bad := &Stop{StopID: "s1", Coord: Coordinates{Lat: 25, Lon: 121}, Demand: -1}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for negative demand")
	}

	inverted := &Stop{
		StopID: "s2",
		Coord:  Coordinates{Lat: 25, Lon: 121},
		Window: &TimeWindow{
			Earliest: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
			Latest:   time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		},
	}
	if err := inverted.Validate(); err == nil {
		t.Fatal("expected error for inverted window")
	}
}
