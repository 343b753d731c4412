package api

import (
	"net/http"

	"gas-route-service/internal/api/handlers"
	"gas-route-service/internal/domain"
	"gas-route-service/internal/ports"
	"gas-route-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root (handlers stay unaware of
// concrete adapters).
func NewRouter(
	repo ports.PlanRepository,
	planner *services.Planner,
	adjuster *services.Adjuster,
	depot domain.Coordinates,
	opts services.Options,
	budget *services.Budget,
) http.Handler {
	mux := http.NewServeMux()

	stopHandler := &handlers.StopHandler{Repo: repo}
	planHandler := &handlers.PlanHandler{
		Repo:           repo,
		Planner:        planner,
		DefaultDepot:   depot,
		DefaultOptions: opts,
		DefaultBudget:  budget,
	}
	adjustmentHandler := &handlers.AdjustmentHandler{
		Repo:     repo,
		Adjuster: adjuster,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/stops", stopHandler.List)
	mux.HandleFunc("/plans", planHandler.Plan)
	mux.HandleFunc("/adjustments", adjustmentHandler.Adjust)

	return loggingMiddleware(mux)
}
