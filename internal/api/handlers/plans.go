package handlers

import (
	"io"
	"log"
	"net/http"
	"time"

	"encoding/json"

	"gas-route-service/internal/api/dto"
	"gas-route-service/internal/domain"
	"gas-route-service/internal/ports"
	"gas-route-service/internal/services"
)

type PlanHandler struct {
	Repo    ports.PlanRepository
	Planner *services.Planner

	DefaultDepot   domain.Coordinates
	DefaultOptions services.Options
	// Deployment-level local search budget; nil lets the planner pick its
	// built-in default. Request fields override per call.
	DefaultBudget *services.Budget
}

// Plan orchestrates one full planning run: snapshot stops and vehicles from
// the repository, optimize, persist the resulting plan version.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.PlanRequest

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

	depot := h.DefaultDepot
	if req.DepotLat != 0 || req.DepotLon != 0 {
		depot = domain.Coordinates{Lat: req.DepotLat, Lon: req.DepotLon}
	}
	if err := depot.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid depot coordinates")
		return
	}

	opts := h.DefaultOptions
	switch req.TimeWindowEnforcement {
	case "":
	case string(services.EnforcementStrict):
		opts.Enforcement = services.EnforcementStrict
	case string(services.EnforcementAdvisory):
		opts.Enforcement = services.EnforcementAdvisory
	default:
		writeError(w, r, http.StatusBadRequest, "time_window_enforcement must be strict or advisory")
		return
	}
	if req.MaxRouteDurationMinutes < 0 {
		writeError(w, r, http.StatusBadRequest, "max_route_duration_minutes must be non-negative")
		return
	}
	if req.MaxRouteDurationMinutes > 0 {
		opts.MaxRouteDuration = time.Duration(req.MaxRouteDurationMinutes) * time.Minute
	}
	if req.LatenessPenaltyPerMinute != 0 {
		opts.LatenessPenaltyPerMinute = req.LatenessPenaltyPerMinute
	}

	budget := h.DefaultBudget
	if req.LocalSearchIterationBudget != nil || req.LocalSearchTimeBudgetMs != nil {
		b := services.DefaultBudget()
		if budget != nil {
			b = *budget
		}
		if req.LocalSearchIterationBudget != nil {
			b.MaxIterations = *req.LocalSearchIterationBudget
		}
		if req.LocalSearchTimeBudgetMs != nil {
			b.TimeLimit = time.Duration(*req.LocalSearchTimeBudgetMs) * time.Millisecond
		}
		budget = &b
	}

	ctx := r.Context()

	stops, err := h.Repo.ListStops(ctx)
	if err != nil {
		log.Printf("plan: list stops failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	vehicles, err := h.Repo.ListVehicles(ctx)
	if err != nil {
		log.Printf("plan: list vehicles failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	// Only open stops participate in a fresh planning run.
	open := make([]*domain.Stop, 0, len(stops))
	for _, s := range stops {
		if s.Status == domain.StopPending || s.Status == domain.StopAssigned {
			open = append(open, s)
		}
	}

	depart := time.Now()
	if req.DepartAt != nil {
		depart = *req.DepartAt
	}

	plan, err := h.Planner.Plan(ctx, services.OptimizationRequest{
		Depot:    depot,
		Vehicles: vehicles,
		Stops:    open,
		DepartAt: depart,
		Options:  opts,
		Budget:   budget,
	})
	if err != nil {
		log.Printf("plan failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.Repo.SavePlan(ctx, plan); err != nil {
		log.Printf("save plan failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, planToResponse(plan))
}
