package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gas-route-service/internal/domain"
	"gas-route-service/internal/platform/obs"
)

// Postgres-backed implementation of the PlanRepository port.
//
// Plan writes are append-only: every SavePlan stores a new version row
// linked to its parent, which preserves the adjustment audit trail.
type SQLPlanRepository struct{ DB *sql.DB }

func NewSQLPlanRepository(db *sql.DB) *SQLPlanRepository {
	return &SQLPlanRepository{DB: db}
}

// ListStops returns all stops available for routing, ordered by identifier.
func (r *SQLPlanRepository) ListStops(ctx context.Context) (_ []*domain.Stop, err error) {
	defer obs.Time(ctx, "repo.ListStops")(&err)

	if r.DB == nil {
		return nil, errors.New("plan repository: DB is nil")
	}

	q := `
	SELECT stop_id, lat, lon, demand, earliest, latest, service_seconds, priority, status, zone
	FROM stops
	ORDER BY stop_id;
	`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list stops: query stops table: %w", err)
	}
	defer rows.Close()

	stops := make([]*domain.Stop, 0, 64)
	for rows.Next() {
		s, err := scanStop(rows)
		if err != nil {
			return nil, fmt.Errorf("list stops: %w", err)
		}
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stops: row iteration: %w", err)
	}

	return stops, nil
}

// ListVehicles returns the fleet, ordered by identifier.
func (r *SQLPlanRepository) ListVehicles(ctx context.Context) (_ []*domain.Vehicle, err error) {
	defer obs.Time(ctx, "repo.ListVehicles")(&err)

	if r.DB == nil {
		return nil, errors.New("plan repository: DB is nil")
	}

	q := `
	SELECT vehicle_id, capacity, max_route_seconds, start_lat, start_lon, tag
	FROM vehicles
	ORDER BY vehicle_id;
	`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: query vehicles table: %w", err)
	}
	defer rows.Close()

	vehicles := make([]*domain.Vehicle, 0, 8)
	for rows.Next() {
		var (
			v          domain.Vehicle
			maxSeconds int64
		)
		if err := rows.Scan(&v.VehicleID, &v.Capacity, &maxSeconds, &v.Start.Lat, &v.Start.Lon, &v.Tag); err != nil {
			return nil, fmt.Errorf("list vehicles: scan row: %w", err)
		}
		v.MaxRouteDuration = time.Duration(maxSeconds) * time.Second
		vehicles = append(vehicles, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: row iteration: %w", err)
	}

	return vehicles, nil
}

// SavePlan stores a plan version and refreshes the status of every stop the
// plan touches, in one transaction.
func (r *SQLPlanRepository) SavePlan(ctx context.Context, plan *domain.RoutePlan) (err error) {
	defer obs.Time(ctx, "repo.SavePlan")(&err)

	if r.DB == nil {
		return errors.New("plan repository: DB is nil")
	}
	if plan == nil || plan.PlanID == "" {
		return errors.New("save plan: plan id must be non-empty")
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save plan: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO route_plans (
		plan_id, parent_plan_id, created_at, depot_lat, depot_lon,
		total_distance_meters, total_duration_seconds,
		feasible, degraded, termination
	)
	VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10);
	`,
		plan.PlanID, plan.ParentPlanID, plan.CreatedAt, plan.Depot.Lat, plan.Depot.Lon,
		plan.TotalDistanceMeters, int64(plan.TotalDuration/time.Second),
		plan.Feasible, plan.Degraded, string(plan.Termination),
	)
	if err != nil {
		return fmt.Errorf("save plan: insert route_plans: %w", err)
	}

	routeStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO plan_routes (
		plan_id, vehicle_id, state, cursor_position, depart_at,
		total_distance_meters, total_duration_seconds
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`)
	if err != nil {
		return fmt.Errorf("save plan: prepare plan_routes insert: %w", err)
	}
	defer routeStmt.Close()

	stopStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO plan_route_stops (plan_id, vehicle_id, position, stop_id, eta)
	VALUES ($1, $2, $3, $4, $5);
	`)
	if err != nil {
		return fmt.Errorf("save plan: prepare plan_route_stops insert: %w", err)
	}
	defer stopStmt.Close()

	statusStmt, err := tx.PrepareContext(ctx, `
	UPDATE stops SET status = $2 WHERE stop_id = $1;
	`)
	if err != nil {
		return fmt.Errorf("save plan: prepare status update: %w", err)
	}
	defer statusStmt.Close()

	for _, route := range plan.Routes {
		_, err = routeStmt.ExecContext(ctx,
			plan.PlanID, route.VehicleID, string(route.State), route.Cursor, route.DepartAt,
			route.TotalDistanceMeters, int64(route.TotalDuration/time.Second),
		)
		if err != nil {
			return fmt.Errorf("save plan: insert route vehicle=%s: %w", route.VehicleID, err)
		}

		for i, rs := range route.Stops {
			if _, err := stopStmt.ExecContext(ctx, plan.PlanID, route.VehicleID, i, rs.Stop.StopID, rs.ETA); err != nil {
				return fmt.Errorf("save plan: insert route stop %s: %w", rs.Stop.StopID, err)
			}
			if _, err := statusStmt.ExecContext(ctx, rs.Stop.StopID, string(rs.Stop.Status)); err != nil {
				return fmt.Errorf("save plan: update stop status %s: %w", rs.Stop.StopID, err)
			}
		}
	}

	for _, s := range plan.Unassigned {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO plan_unassigned (plan_id, stop_id) VALUES ($1, $2);
		`, plan.PlanID, s.StopID); err != nil {
			return fmt.Errorf("save plan: insert unassigned stop %s: %w", s.StopID, err)
		}
		if _, err := statusStmt.ExecContext(ctx, s.StopID, string(s.Status)); err != nil {
			return fmt.Errorf("save plan: update unassigned stop status %s: %w", s.StopID, err)
		}
	}

	for _, v := range plan.Violations {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO plan_violations (plan_id, stop_id, lateness_seconds) VALUES ($1, $2, $3);
		`, plan.PlanID, v.StopID, int64(v.Lateness/time.Second)); err != nil {
			return fmt.Errorf("save plan: insert violation stop=%s: %w", v.StopID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save plan: commit: %w", err)
	}
	return nil
}

// GetPlan reconstructs a stored plan version with its routes, stops,
// unassigned set and violations.
func (r *SQLPlanRepository) GetPlan(ctx context.Context, planID string) (_ *domain.RoutePlan, err error) {
	defer obs.Time(ctx, "repo.GetPlan")(&err)

	if r.DB == nil {
		return nil, errors.New("plan repository: DB is nil")
	}

	plan := &domain.RoutePlan{PlanID: planID}
	var (
		parent       sql.NullString
		totalSeconds int64
		termination  string
	)
	err = r.DB.QueryRowContext(ctx, `
	SELECT parent_plan_id, created_at, depot_lat, depot_lon,
	       total_distance_meters, total_duration_seconds, feasible, degraded, termination
	FROM route_plans
	WHERE plan_id = $1;
	`, planID).Scan(
		&parent, &plan.CreatedAt, &plan.Depot.Lat, &plan.Depot.Lon,
		&plan.TotalDistanceMeters, &totalSeconds, &plan.Feasible, &plan.Degraded, &termination,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get plan: plan %s not found", planID)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: query route_plans: %w", err)
	}
	plan.ParentPlanID = parent.String
	plan.TotalDuration = time.Duration(totalSeconds) * time.Second
	plan.Termination = domain.Termination(termination)

	if err := r.loadRoutes(ctx, plan); err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if err := r.loadUnassigned(ctx, plan); err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if err := r.loadViolations(ctx, plan); err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	return plan, nil
}

func (r *SQLPlanRepository) loadRoutes(ctx context.Context, plan *domain.RoutePlan) error {
	rows, err := r.DB.QueryContext(ctx, `
	SELECT vehicle_id, state, cursor_position, depart_at, total_distance_meters, total_duration_seconds
	FROM plan_routes
	WHERE plan_id = $1
	ORDER BY vehicle_id;
	`, plan.PlanID)
	if err != nil {
		return fmt.Errorf("query plan_routes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			route      domain.Route
			state      string
			durSeconds int64
		)
		if err := rows.Scan(&route.VehicleID, &state, &route.Cursor, &route.DepartAt, &route.TotalDistanceMeters, &durSeconds); err != nil {
			return fmt.Errorf("scan plan_routes row: %w", err)
		}
		route.State = domain.RouteState(state)
		route.TotalDuration = time.Duration(durSeconds) * time.Second
		plan.Routes = append(plan.Routes, &route)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("plan_routes iteration: %w", err)
	}

	for _, route := range plan.Routes {
		if err := r.loadRouteStops(ctx, plan.PlanID, route); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLPlanRepository) loadRouteStops(ctx context.Context, planID string, route *domain.Route) error {
	rows, err := r.DB.QueryContext(ctx, `
	SELECT s.stop_id, s.lat, s.lon, s.demand, s.earliest, s.latest,
	       s.service_seconds, s.priority, s.status, s.zone, prs.eta
	FROM plan_route_stops prs
	JOIN stops s ON s.stop_id = prs.stop_id
	WHERE prs.plan_id = $1 AND prs.vehicle_id = $2
	ORDER BY prs.position;
	`, planID, route.VehicleID)
	if err != nil {
		return fmt.Errorf("query plan_route_stops vehicle=%s: %w", route.VehicleID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var eta time.Time
		s, err := scanStopWith(rows, &eta)
		if err != nil {
			return fmt.Errorf("scan route stop: %w", err)
		}
		route.Stops = append(route.Stops, domain.RouteStop{Stop: s, ETA: eta})
	}
	return rows.Err()
}

func (r *SQLPlanRepository) loadUnassigned(ctx context.Context, plan *domain.RoutePlan) error {
	rows, err := r.DB.QueryContext(ctx, `
	SELECT s.stop_id, s.lat, s.lon, s.demand, s.earliest, s.latest,
	       s.service_seconds, s.priority, s.status, s.zone
	FROM plan_unassigned pu
	JOIN stops s ON s.stop_id = pu.stop_id
	WHERE pu.plan_id = $1
	ORDER BY s.stop_id;
	`, plan.PlanID)
	if err != nil {
		return fmt.Errorf("query plan_unassigned: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanStop(rows)
		if err != nil {
			return fmt.Errorf("scan unassigned stop: %w", err)
		}
		plan.Unassigned = append(plan.Unassigned, s)
	}
	return rows.Err()
}

func (r *SQLPlanRepository) loadViolations(ctx context.Context, plan *domain.RoutePlan) error {
	rows, err := r.DB.QueryContext(ctx, `
	SELECT stop_id, lateness_seconds
	FROM plan_violations
	WHERE plan_id = $1
	ORDER BY stop_id;
	`, plan.PlanID)
	if err != nil {
		return fmt.Errorf("query plan_violations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			v       domain.WindowViolation
			seconds int64
		)
		if err := rows.Scan(&v.StopID, &seconds); err != nil {
			return fmt.Errorf("scan violation: %w", err)
		}
		v.Lateness = time.Duration(seconds) * time.Second
		plan.Violations = append(plan.Violations, v)
	}
	return rows.Err()
}

func scanStop(rows *sql.Rows) (*domain.Stop, error) {
	return scanStopWith(rows)
}

// scanStopWith scans the canonical stop column list plus optional trailing
// destinations (e.g. an ETA column).
func scanStopWith(rows *sql.Rows, extra ...any) (*domain.Stop, error) {
	var (
		s                domain.Stop
		earliest, latest sql.NullTime
		serviceSeconds   int64
		priority, status string
		zone             string
	)

	dest := []any{
		&s.StopID, &s.Coord.Lat, &s.Coord.Lon, &s.Demand,
		&earliest, &latest, &serviceSeconds, &priority, &status, &zone,
	}
	dest = append(dest, extra...)

	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan stop row: %w", err)
	}

	if earliest.Valid && latest.Valid {
		s.Window = &domain.TimeWindow{Earliest: earliest.Time, Latest: latest.Time}
	}
	s.ServiceDuration = time.Duration(serviceSeconds) * time.Second
	s.Priority = domain.Priority(priority)
	s.Status = domain.StopStatus(status)
	s.Zone = domain.Zone(zone)

	return &s, nil
}
