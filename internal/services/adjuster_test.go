package services

import (
	"context"
	"testing"
	"time"

	"gas-route-service/internal/domain"
)

// dispatchedFixture builds an in-progress plan: five stops on one route,
// the first two already completed (cursor 2).
func dispatchedFixture() (*domain.RoutePlan, *domain.Vehicle) {
	depot := domain.Coordinates{Lat: 25.0330, Lon: 121.5000}
	depart := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	route := &domain.Route{
		VehicleID: "TRUCK-01",
		State:     domain.RouteInProgress,
		Cursor:    2,
		DepartAt:  depart,
	}
	ids := []string{"S1", "S2", "S3", "S4", "S5"}
	for i, id := range ids {
		status := domain.StopAssigned
		if i < 2 {
			status = domain.StopCompleted
		}
		route.Stops = append(route.Stops, domain.RouteStop{
			Stop: &domain.Stop{
				StopID:          id,
				Coord:           domain.Coordinates{Lat: 25.0330, Lon: 121.5000 + float64(i+1)*0.01},
				Demand:          2,
				ServiceDuration: 5 * time.Minute,
				Priority:        domain.PriorityNormal,
				Status:          status,
				Zone:            domain.ZoneUrban,
			},
			ETA: depart.Add(time.Duration(i+1) * 10 * time.Minute),
		})
	}

	plan := &domain.RoutePlan{
		PlanID:    "plan-v1",
		CreatedAt: depart,
		Depot:     depot,
		Routes:    []*domain.Route{route},
		Feasible:  true,
	}
	vehicle := &domain.Vehicle{VehicleID: "TRUCK-01", Capacity: 30, Start: depot}
	return plan, vehicle
}

func TestInsertStopAfterCursor(t *testing.T) {
	plan, vehicle := dispatchedFixture()
	a := NewAdjuster(fallbackOnlyTravel(), Options{})

	// Halfway between S3 and S4: zero detour there, so the minimum-cost
	// position is between them.
	stop := &domain.Stop{
		StopID:          "G1",
		Coord:           domain.Coordinates{Lat: 25.0330, Lon: 121.5350},
		Demand:          4,
		ServiceDuration: 5 * time.Minute,
		Priority:        domain.PriorityUrgent,
		Status:          domain.StopPending,
		Zone:            domain.ZoneUrban,
	}

	res, err := a.InsertStop(context.Background(), plan, vehicle, stop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != AdjustmentApplied {
		t.Fatalf("status = %q, want Applied", res.Status)
	}

	if res.Plan.PlanID == plan.PlanID {
		t.Fatal("adjustment must produce a new plan version")
	}
	if res.Plan.ParentPlanID != plan.PlanID {
		t.Fatalf("parent plan = %q, want %q", res.Plan.ParentPlanID, plan.PlanID)
	}
	if len(plan.RouteFor("TRUCK-01").Stops) != 5 {
		t.Fatal("input plan must not be mutated")
	}

	updated := res.Route
	if len(updated.Stops) != 6 {
		t.Fatalf("updated route has %d stops, want 6", len(updated.Stops))
	}
	if updated.Stops[0].Stop.StopID != "S1" || updated.Stops[1].Stop.StopID != "S2" {
		t.Fatal("completed prefix must stay untouched")
	}
	if updated.Stops[3].Stop.StopID != "G1" {
		t.Fatalf("expected G1 between S3 and S4, found %q at position 3", updated.Stops[3].Stop.StopID)
	}
	if stop.Status != domain.StopAssigned {
		t.Fatalf("inserted stop status = %q, want ASSIGNED", stop.Status)
	}
	for i := updated.Cursor; i < len(updated.Stops); i++ {
		if updated.Stops[i].ETA.IsZero() {
			t.Fatalf("pending stop %q has no recomputed ETA", updated.Stops[i].Stop.StopID)
		}
	}
}

func TestInsertStopRouteNotAdjustable(t *testing.T) {
	plan, vehicle := dispatchedFixture()
	plan.Routes[0].State = domain.RouteOptimized
	a := NewAdjuster(fallbackOnlyTravel(), Options{})

	stop := &domain.Stop{StopID: "G1", Coord: plan.Depot, Demand: 1, Zone: domain.ZoneUrban}

	res, err := a.InsertStop(context.Background(), plan, vehicle, stop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != AdjustmentRouteNotAdjustable {
		t.Fatalf("status = %q, want RouteNotAdjustable", res.Status)
	}
}

func TestInsertStopOverCapacity(t *testing.T) {
	plan, vehicle := dispatchedFixture()
	a := NewAdjuster(fallbackOnlyTravel(), Options{})

	stop := &domain.Stop{StopID: "G1", Coord: plan.Depot, Demand: 25, Zone: domain.ZoneUrban}

	res, err := a.InsertStop(context.Background(), plan, vehicle, stop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != AdjustmentNoFeasiblePosition {
		t.Fatalf("status = %q, want NoFeasiblePosition", res.Status)
	}
	if res.Unassigned != stop {
		t.Fatal("rejected stop must be returned for the unassigned pool")
	}
}

func TestInsertStopUnreachableWindow(t *testing.T) {
	plan, vehicle := dispatchedFixture()
	a := NewAdjuster(fallbackOnlyTravel(), Options{Enforcement: EnforcementStrict})

	// Window closed before the route even departed: no position can meet it.
	stop := &domain.Stop{
		StopID: "G1",
		Coord:  domain.Coordinates{Lat: 25.0330, Lon: 121.5350},
		Demand: 1,
		Window: &domain.TimeWindow{
			Earliest: time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC),
			Latest:   time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC),
		},
		Zone: domain.ZoneUrban,
	}

	res, err := a.InsertStop(context.Background(), plan, vehicle, stop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != AdjustmentNoFeasiblePosition {
		t.Fatalf("status = %q, want NoFeasiblePosition", res.Status)
	}
	if res.Unassigned != stop {
		t.Fatal("rejected stop must be returned for the unassigned pool")
	}
}

// lateFixture makes S3's window already missed and records its violation
// on the plan, as a planning run in advisory mode would have.
func lateFixture() (*domain.RoutePlan, *domain.Vehicle) {
	plan, vehicle := dispatchedFixture()
	s3 := plan.Routes[0].Stops[2].Stop
	s3.Window = &domain.TimeWindow{
		Earliest: plan.Routes[0].DepartAt.Add(-2 * time.Hour),
		Latest:   plan.Routes[0].DepartAt.Add(-1 * time.Hour),
	}
	plan.Violations = []domain.WindowViolation{{StopID: "S3", Lateness: time.Hour}}
	plan.Feasible = false
	return plan, vehicle
}

func TestInsertStopDoesNotDuplicateViolations(t *testing.T) {
	plan, vehicle := lateFixture()
	a := NewAdjuster(fallbackOnlyTravel(), Options{Enforcement: EnforcementAdvisory})

	stop := &domain.Stop{
		StopID: "G1",
		Coord:  domain.Coordinates{Lat: 25.0330, Lon: 121.5350},
		Demand: 1,
		Status: domain.StopPending,
		Zone:   domain.ZoneUrban,
	}

	res, err := a.InsertStop(context.Background(), plan, vehicle, stop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != AdjustmentApplied {
		t.Fatalf("status = %q, want Applied", res.Status)
	}

	count := 0
	for _, v := range res.Plan.Violations {
		if v.StopID == "S3" {
			count++
			if v.Lateness <= 0 {
				t.Fatalf("S3 lateness = %v, want positive", v.Lateness)
			}
		}
	}
	if count != 1 {
		t.Fatalf("plan records %d violations for S3, want 1", count)
	}
	if res.Plan.Feasible {
		t.Fatal("plan with a remaining violation must not be feasible")
	}
}

func TestCancelStopClearsItsViolation(t *testing.T) {
	plan, vehicle := lateFixture()
	a := NewAdjuster(fallbackOnlyTravel(), Options{Enforcement: EnforcementAdvisory})

	res, err := a.CancelStop(context.Background(), plan, vehicle, "S3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != AdjustmentApplied {
		t.Fatalf("status = %q, want Applied", res.Status)
	}

	for _, v := range res.Plan.Violations {
		if v.StopID == "S3" {
			t.Fatal("cancelled stop's violation must be dropped")
		}
	}
	if !res.Plan.Feasible {
		t.Fatal("plan must become feasible once its only violation is cancelled")
	}
}

func TestCancelPendingStop(t *testing.T) {
	plan, vehicle := dispatchedFixture()
	a := NewAdjuster(fallbackOnlyTravel(), Options{})

	res, err := a.CancelStop(context.Background(), plan, vehicle, "S4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != AdjustmentApplied {
		t.Fatalf("status = %q, want Applied", res.Status)
	}

	updated := res.Route
	if len(updated.Stops) != 4 {
		t.Fatalf("updated route has %d stops, want 4", len(updated.Stops))
	}
	for _, rs := range updated.Stops {
		if rs.Stop.StopID == "S4" {
			t.Fatal("cancelled stop still on updated route")
		}
	}

	cancelled := plan.RouteFor("TRUCK-01").Stops[3].Stop
	if cancelled.Status != domain.StopCancelled {
		t.Fatalf("cancelled stop status = %q, want CANCELLED", cancelled.Status)
	}
	if updated.Stops[0].Stop.StopID != "S1" || updated.Stops[1].Stop.StopID != "S2" {
		t.Fatal("completed prefix must stay untouched")
	}
}

func TestCancelCompletedStopRejected(t *testing.T) {
	plan, vehicle := dispatchedFixture()
	a := NewAdjuster(fallbackOnlyTravel(), Options{})

	if _, err := a.CancelStop(context.Background(), plan, vehicle, "S1"); err == nil {
		t.Fatal("expected error when cancelling a completed stop")
	}
}

func TestAdjustUnknownVehicle(t *testing.T) {
	plan, _ := dispatchedFixture()
	a := NewAdjuster(fallbackOnlyTravel(), Options{})

	other := &domain.Vehicle{VehicleID: "TRUCK-99", Capacity: 30}
	stop := &domain.Stop{StopID: "G1", Coord: plan.Depot, Demand: 1, Zone: domain.ZoneUrban}

	if _, err := a.InsertStop(context.Background(), plan, other, stop); err == nil {
		t.Fatal("expected error for vehicle without a route on the plan")
	}
}
