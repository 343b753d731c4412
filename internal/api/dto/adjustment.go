package dto

type AdjustmentRequest struct {
	PlanID    string `json:"plan_id"`
	VehicleID string `json:"vehicle_id"`
	// "insert" requires Stop; "cancel" requires StopID.
	Action string       `json:"action"`
	Stop   *StopPayload `json:"stop"`
	StopID string       `json:"stop_id"`
}

type AdjustmentResponse struct {
	Status           string         `json:"status"`
	Plan             *PlanResponse  `json:"plan,omitempty"`
	Route            *RouteResponse `json:"route,omitempty"`
	UnassignedStopID string         `json:"unassigned_stop_id,omitempty"`
}
