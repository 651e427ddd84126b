package ports

import (
	"context"
	"heritage-route-service/internal/domain"
)

// Walking path returned by a directions provider.
type Directions struct {
	Polyline        []domain.Coordinates
	DistanceMeters  float64
	DurationSeconds float64
}

// Contract for resolving an ordered coordinate chain into a walkable path.
type DirectionsProvider interface {
	// Return the walking path through coords, visited in the given order.
	Directions(ctx context.Context, coords []domain.Coordinates) (Directions, error)
}

// A single stop submitted to an optimization provider.
type OptimizationJob struct {
	ID       int
	Location domain.Coordinates
}

// Contract for an external vehicle-routing solver.
type OptimizationProvider interface {
	// Return job ids in visiting order for one round trip starting and ending at origin.
	Optimize(ctx context.Context, origin domain.Coordinates, jobs []OptimizationJob) ([]int, error)
}

// Contract for resolving a free-text address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}
