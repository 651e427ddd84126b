package mock

import (
	"context"
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/geo"
	"heritage-route-service/internal/ports"
	"sync"
)

// DirectionsProvider is an in-memory ports.DirectionsProvider.
//
// Responses are consumed in order, one per call; once exhausted every call
// answers with a straight path through the requested coordinates.
type DirectionsProvider struct {
	mu        sync.Mutex
	responses []DirectionsResponse
	calls     [][]domain.Coordinates
}

type DirectionsResponse struct {
	Directions ports.Directions
	Err        error
}

func NewDirectionsProvider(responses ...DirectionsResponse) *DirectionsProvider {
	return &DirectionsProvider{responses: responses}
}

func (p *DirectionsProvider) Directions(ctx context.Context, coords []domain.Coordinates) (ports.Directions, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, append([]domain.Coordinates(nil), coords...))

	if len(p.responses) > 0 {
		r := p.responses[0]
		p.responses = p.responses[1:]
		return r.Directions, r.Err
	}

	meters := geo.PathLength(coords)
	return ports.Directions{
		Polyline:        append([]domain.Coordinates(nil), coords...),
		DistanceMeters:  meters,
		DurationSeconds: meters / 1.2,
	}, nil
}

// Calls returns the coordinate chains received so far.
func (p *DirectionsProvider) Calls() [][]domain.Coordinates {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]domain.Coordinates(nil), p.calls...)
}

// OptimizationProvider is an in-memory ports.OptimizationProvider.
// With no Order set it returns the jobs in the order received.
type OptimizationProvider struct {
	mu    sync.Mutex
	Order []int
	Err   error
	calls int
}

func (p *OptimizationProvider) Optimize(ctx context.Context, origin domain.Coordinates, jobs []ports.OptimizationJob) ([]int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Order != nil {
		return append([]int(nil), p.Order...), nil
	}

	ids := make([]int, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	return ids, nil
}

func (p *OptimizationProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
