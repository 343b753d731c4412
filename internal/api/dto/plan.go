package dto

import "time"

type PlanRequest struct {
	DepotLat float64    `json:"depot_lat"`
	DepotLon float64    `json:"depot_lon"`
	DepartAt *time.Time `json:"depart_at"`

	TimeWindowEnforcement    string  `json:"time_window_enforcement"`
	MaxRouteDurationMinutes  int     `json:"max_route_duration_minutes"`
	LatenessPenaltyPerMinute float64 `json:"lateness_penalty_per_minute"`

	LocalSearchIterationBudget *int `json:"local_search_iteration_budget"`
	LocalSearchTimeBudgetMs    *int `json:"local_search_time_budget_ms"`
}

type RouteStopResponse struct {
	StopID string    `json:"stop_id"`
	ETA    time.Time `json:"eta"`
	Status string    `json:"status"`
}

type RouteResponse struct {
	VehicleID            string              `json:"vehicle_id"`
	State                string              `json:"state"`
	Cursor               int                 `json:"cursor"`
	DepartAt             time.Time           `json:"depart_at"`
	TotalDistanceMeters  int                 `json:"total_distance_meters"`
	TotalDurationSeconds int64               `json:"total_duration_seconds"`
	Stops                []RouteStopResponse `json:"stops"`
}

type ViolationResponse struct {
	StopID          string `json:"stop_id"`
	LatenessSeconds int64  `json:"lateness_seconds"`
}

type PlanResponse struct {
	PlanID               string              `json:"plan_id"`
	ParentPlanID         string              `json:"parent_plan_id,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	Routes               []RouteResponse     `json:"routes"`
	UnassignedStopIDs    []string            `json:"unassigned_stop_ids"`
	TotalDistanceMeters  int                 `json:"total_distance_meters"`
	TotalDurationSeconds int64               `json:"total_duration_seconds"`
	Feasible             bool                `json:"feasible"`
	Degraded             bool                `json:"degraded"`
	Violations           []ViolationResponse `json:"violations"`
	Termination          string              `json:"termination"`
}
