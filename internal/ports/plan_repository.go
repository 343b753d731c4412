package ports

import (
	"context"

	"gas-route-service/internal/domain"
)

// Port: boundary to the authoritative store for stops, vehicles and route
// plans. The optimizer treats repository reads as an immutable snapshot for
// the duration of one operation; plan writes are append-only versions.
type PlanRepository interface {
	// Retrieve all stops available for routing.
	ListStops(ctx context.Context) ([]*domain.Stop, error)
	// Retrieve the fleet available for routing.
	ListVehicles(ctx context.Context) ([]*domain.Vehicle, error)
	// Persist a new plan version.
	SavePlan(ctx context.Context, plan *domain.RoutePlan) error
	// Load a previously stored plan version.
	GetPlan(ctx context.Context, planID string) (*domain.RoutePlan, error)
}
