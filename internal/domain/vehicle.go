package domain

import (
	"fmt"
	"time"
)

// Delivery vehicle available to one planning run. Read-only input: the
// planner never mutates a Vehicle, it only assigns stops to its route.
type Vehicle struct {
	VehicleID        string
	Capacity         int
	MaxRouteDuration time.Duration
	Start            Coordinates
	Tag              string
}

func (v *Vehicle) Validate() error {
	if v.VehicleID == "" {
		return fmt.Errorf("vehicle: id must be non-empty")
	}
	if v.Capacity < 1 {
		return fmt.Errorf("vehicle %s: capacity must be positive, got %d", v.VehicleID, v.Capacity)
	}
	if v.MaxRouteDuration < 0 {
		return fmt.Errorf("vehicle %s: max route duration must be non-negative", v.VehicleID)
	}
	if err := v.Start.Validate(); err != nil {
		return fmt.Errorf("vehicle %s: %w", v.VehicleID, err)
	}
	return nil
}
