package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Initialize the Postgres schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS stops (
			stop_id TEXT PRIMARY KEY,
			lat DOUBLE PRECISION NOT NULL,
			lon DOUBLE PRECISION NOT NULL,
			demand INTEGER NOT NULL,
			earliest TIMESTAMPTZ,
			latest TIMESTAMPTZ,
			service_seconds BIGINT NOT NULL DEFAULT 0,
			priority TEXT NOT NULL DEFAULT 'normal',
			status TEXT NOT NULL DEFAULT 'PENDING',
			zone TEXT NOT NULL DEFAULT 'urban'
		);`,
		`CREATE TABLE IF NOT EXISTS vehicles (
			vehicle_id TEXT PRIMARY KEY,
			capacity INTEGER NOT NULL,
			max_route_seconds BIGINT NOT NULL DEFAULT 0,
			start_lat DOUBLE PRECISION NOT NULL,
			start_lon DOUBLE PRECISION NOT NULL,
			tag TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS route_plans (
			plan_id TEXT PRIMARY KEY,
			parent_plan_id TEXT REFERENCES route_plans(plan_id),
			created_at TIMESTAMPTZ NOT NULL,
			depot_lat DOUBLE PRECISION NOT NULL,
			depot_lon DOUBLE PRECISION NOT NULL,
			total_distance_meters INTEGER NOT NULL,
			total_duration_seconds BIGINT NOT NULL,
			feasible BOOLEAN NOT NULL,
			degraded BOOLEAN NOT NULL,
			termination TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS plan_routes (
			plan_id TEXT NOT NULL REFERENCES route_plans(plan_id),
			vehicle_id TEXT NOT NULL,
			state TEXT NOT NULL,
			cursor_position INTEGER NOT NULL,
			depart_at TIMESTAMPTZ NOT NULL,
			total_distance_meters INTEGER NOT NULL,
			total_duration_seconds BIGINT NOT NULL,
			PRIMARY KEY (plan_id, vehicle_id)
		);`,
		`CREATE TABLE IF NOT EXISTS plan_route_stops (
			plan_id TEXT NOT NULL,
			vehicle_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			stop_id TEXT NOT NULL REFERENCES stops(stop_id),
			eta TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (plan_id, vehicle_id, position),
			FOREIGN KEY (plan_id, vehicle_id) REFERENCES plan_routes(plan_id, vehicle_id)
		);`,
		`CREATE TABLE IF NOT EXISTS plan_unassigned (
			plan_id TEXT NOT NULL REFERENCES route_plans(plan_id),
			stop_id TEXT NOT NULL REFERENCES stops(stop_id),
			PRIMARY KEY (plan_id, stop_id)
		);`,
		`CREATE TABLE IF NOT EXISTS plan_violations (
			plan_id TEXT NOT NULL REFERENCES route_plans(plan_id),
			stop_id TEXT NOT NULL,
			lateness_seconds BIGINT NOT NULL,
			PRIMARY KEY (plan_id, stop_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_route_plans_parent
		 ON route_plans(parent_plan_id);`,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type StopSeed struct {
	StopID         string     `json:"stop_id"`
	Lat            float64    `json:"lat"`
	Lon            float64    `json:"lon"`
	Demand         int        `json:"demand"`
	Earliest       *time.Time `json:"earliest"`
	Latest         *time.Time `json:"latest"`
	ServiceSeconds int64      `json:"service_seconds"`
	Priority       string     `json:"priority"`
	Zone           string     `json:"zone"`
}

type VehicleSeed struct {
	VehicleID       string  `json:"vehicle_id"`
	Capacity        int     `json:"capacity"`
	MaxRouteSeconds int64   `json:"max_route_seconds"`
	StartLat        float64 `json:"start_lat"`
	StartLon        float64 `json:"start_lon"`
	Tag             string  `json:"tag"`
}

type Seed struct {
	Stops    []StopSeed    `json:"stops"`
	Vehicles []VehicleSeed `json:"vehicles"`
}

// Populate the database with stop and vehicle data from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	var data Seed
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("seed: parse json: %w", err)
	}

	for i, s := range data.Stops {
		if strings.TrimSpace(s.StopID) == "" {
			return fmt.Errorf("seed: stop at index %d: stop_id cannot be empty", i)
		}
		if s.Demand < 0 {
			return fmt.Errorf("seed: stop %s: demand cannot be negative", s.StopID)
		}
	}
	for i, v := range data.Vehicles {
		if strings.TrimSpace(v.VehicleID) == "" {
			return fmt.Errorf("seed: vehicle at index %d: vehicle_id cannot be empty", i)
		}
		if v.Capacity < 1 {
			return fmt.Errorf("seed: vehicle %s: capacity must be positive", v.VehicleID)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stopStmt, err := tx.Prepare(`
	INSERT INTO stops (stop_id, lat, lon, demand, earliest, latest, service_seconds, priority, zone)
	VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE(NULLIF($8, ''), 'normal'), COALESCE(NULLIF($9, ''), 'urban'))
	ON CONFLICT (stop_id) DO UPDATE
	SET lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		demand = EXCLUDED.demand,
		earliest = EXCLUDED.earliest,
		latest = EXCLUDED.latest,
		service_seconds = EXCLUDED.service_seconds,
		priority = EXCLUDED.priority,
		zone = EXCLUDED.zone;
	`)
	if err != nil {
		return fmt.Errorf("seed: prepare stop insert: %w", err)
	}
	defer stopStmt.Close()

	for _, s := range data.Stops {
		if _, err := stopStmt.Exec(s.StopID, s.Lat, s.Lon, s.Demand, s.Earliest, s.Latest, s.ServiceSeconds, s.Priority, s.Zone); err != nil {
			return fmt.Errorf("seed: insert stop %s: %w", s.StopID, err)
		}
	}

	vehicleStmt, err := tx.Prepare(`
	INSERT INTO vehicles (vehicle_id, capacity, max_route_seconds, start_lat, start_lon, tag)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (vehicle_id) DO UPDATE
	SET capacity = EXCLUDED.capacity,
		max_route_seconds = EXCLUDED.max_route_seconds,
		start_lat = EXCLUDED.start_lat,
		start_lon = EXCLUDED.start_lon,
		tag = EXCLUDED.tag;
	`)
	if err != nil {
		return fmt.Errorf("seed: prepare vehicle insert: %w", err)
	}
	defer vehicleStmt.Close()

	for _, v := range data.Vehicles {
		if _, err := vehicleStmt.Exec(v.VehicleID, v.Capacity, v.MaxRouteSeconds, v.StartLat, v.StartLon, v.Tag); err != nil {
			return fmt.Errorf("seed: insert vehicle %s: %w", v.VehicleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}
