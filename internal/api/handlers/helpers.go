package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"gas-route-service/internal/api/dto"
	"gas-route-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

func planToResponse(p *domain.RoutePlan) *dto.PlanResponse {
	res := &dto.PlanResponse{
		PlanID:               p.PlanID,
		ParentPlanID:         p.ParentPlanID,
		CreatedAt:            p.CreatedAt,
		Routes:               make([]dto.RouteResponse, 0, len(p.Routes)),
		UnassignedStopIDs:    make([]string, 0, len(p.Unassigned)),
		TotalDistanceMeters:  p.TotalDistanceMeters,
		TotalDurationSeconds: int64(p.TotalDuration / time.Second),
		Feasible:             p.Feasible,
		Degraded:             p.Degraded,
		Violations:           make([]dto.ViolationResponse, 0, len(p.Violations)),
		Termination:          string(p.Termination),
	}

	for _, route := range p.Routes {
		res.Routes = append(res.Routes, routeToResponse(route))
	}
	for _, s := range p.Unassigned {
		res.UnassignedStopIDs = append(res.UnassignedStopIDs, s.StopID)
	}
	for _, v := range p.Violations {
		res.Violations = append(res.Violations, dto.ViolationResponse{
			StopID:          v.StopID,
			LatenessSeconds: int64(v.Lateness / time.Second),
		})
	}

	return res
}

func routeToResponse(route *domain.Route) dto.RouteResponse {
	stops := make([]dto.RouteStopResponse, 0, len(route.Stops))
	for _, rs := range route.Stops {
		stops = append(stops, dto.RouteStopResponse{
			StopID: rs.Stop.StopID,
			ETA:    rs.ETA,
			Status: string(rs.Stop.Status),
		})
	}
	return dto.RouteResponse{
		VehicleID:            route.VehicleID,
		State:                string(route.State),
		Cursor:               route.Cursor,
		DepartAt:             route.DepartAt,
		TotalDistanceMeters:  route.TotalDistanceMeters,
		TotalDurationSeconds: int64(route.TotalDuration / time.Second),
		Stops:                stops,
	}
}
