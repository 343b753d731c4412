package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"gas-route-service/internal/api/dto"
	"gas-route-service/internal/domain"
	"gas-route-service/internal/ports"
	"gas-route-service/internal/services"
)

type AdjustmentHandler struct {
	Repo     ports.PlanRepository
	Adjuster *services.Adjuster
}

// Adjust applies one live insertion or cancellation against a stored plan
// and persists the resulting plan version.
func (h *AdjustmentHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.AdjustmentRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if req.PlanID == "" || req.VehicleID == "" {
		writeError(w, r, http.StatusBadRequest, "plan_id and vehicle_id are required")
		return
	}

	ctx := r.Context()

	plan, err := h.Repo.GetPlan(ctx, req.PlanID)
	if err != nil {
		log.Printf("adjust: load plan failed: %v", err)
		writeError(w, r, http.StatusNotFound, "plan not found")
		return
	}

	vehicle, err := h.findVehicle(ctx, req.VehicleID)
	if err != nil {
		log.Printf("adjust: %v", err)
		writeError(w, r, http.StatusNotFound, "vehicle not found")
		return
	}

	var result services.AdjustmentResult
	switch req.Action {
	case "insert":
		if req.Stop == nil {
			writeError(w, r, http.StatusBadRequest, "insert requires a stop payload")
			return
		}
		result, err = h.Adjuster.InsertStop(ctx, plan, vehicle, stopFromPayload(req.Stop))
	case "cancel":
		if req.StopID == "" {
			writeError(w, r, http.StatusBadRequest, "cancel requires stop_id")
			return
		}
		result, err = h.Adjuster.CancelStop(ctx, plan, vehicle, req.StopID)
	default:
		writeError(w, r, http.StatusBadRequest, "action must be insert or cancel")
		return
	}
	if err != nil {
		log.Printf("adjust failed: %v", err)
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res := dto.AdjustmentResponse{Status: string(result.Status)}
	if result.Route != nil {
		route := routeToResponse(result.Route)
		res.Route = &route
	}
	if result.Unassigned != nil {
		res.UnassignedStopID = result.Unassigned.StopID
	}

	if result.Status == services.AdjustmentApplied {
		if err := h.Repo.SavePlan(ctx, result.Plan); err != nil {
			log.Printf("adjust: save plan failed: %v", err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
		res.Plan = planToResponse(result.Plan)
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *AdjustmentHandler) findVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	vehicles, err := h.Repo.ListVehicles(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range vehicles {
		if v.VehicleID == vehicleID {
			return v, nil
		}
	}
	return nil, fmt.Errorf("vehicle %s not found", vehicleID)
}

func stopFromPayload(p *dto.StopPayload) *domain.Stop {
	stop := &domain.Stop{
		StopID:          p.StopID,
		Coord:           domain.Coordinates{Lat: p.Lat, Lon: p.Lon},
		Demand:          p.Demand,
		ServiceDuration: time.Duration(p.ServiceSeconds) * time.Second,
		Priority:        domain.Priority(p.Priority),
		Status:          domain.StopPending,
		Zone:            domain.Zone(p.Zone),
	}
	if stop.Priority == "" {
		stop.Priority = domain.PriorityNormal
	}
	if stop.Zone == "" {
		stop.Zone = domain.ZoneUrban
	}
	if p.Earliest != nil && p.Latest != nil {
		stop.Window = &domain.TimeWindow{Earliest: *p.Earliest, Latest: *p.Latest}
	}
	return stop
}
