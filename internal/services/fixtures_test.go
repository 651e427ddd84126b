package services

import (
	"context"
	"errors"
	"fmt"
	"heritage-route-service/internal/adapters/render"
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/ports"
	"sync"
)

var sultanahmet = domain.Coordinates{Lat: 41.0058, Lon: 28.9768}

func heritageNodes() []domain.Node {
	return []domain.Node{
		{ID: "hagia-sophia", Title: "Hagia Sophia", Location: domain.Coordinates{Lat: 41.0086, Lon: 28.9802}},
		{ID: "blue-mosque", Title: "Blue Mosque", Location: domain.Coordinates{Lat: 41.0054, Lon: 28.9768}},
		{ID: "basilica-cistern", Title: "Basilica Cistern", Location: domain.Coordinates{Lat: 41.0084, Lon: 28.9779}},
		{ID: "topkapi", Title: "Topkapi Palace", Location: domain.Coordinates{Lat: 41.0115, Lon: 28.9834}},
		{ID: "grand-bazaar", Title: "Grand Bazaar", Location: domain.Coordinates{Lat: 41.0107, Lon: 28.9680}},
	}
}

// lineOfNodes returns n nodes spaced northwards from origin.
func lineOfNodes(origin domain.Coordinates, n int) []domain.Node {
	nodes := make([]domain.Node, 0, n)
	for i := 0; i < n; i++ {
		nodes = append(nodes, domain.Node{
			ID:       fmt.Sprintf("n%02d", i+1),
			Title:    fmt.Sprintf("Node %d", i+1),
			Location: domain.Coordinates{Lat: origin.Lat + float64(i+1)*0.001, Lon: origin.Lon},
		})
	}
	return nodes
}

func ids(nodes []domain.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func intPtr(v int) *int { return &v }

// flakyTarget wraps a GeoJSONLayer and fails every draw after the first failAfter.
type flakyTarget struct {
	*render.GeoJSONLayer
	mu        sync.Mutex
	draws     int
	failAfter int
	removed   []ports.RenderHandle
}

var errDrawFailed = errors.New("draw failed")

func (f *flakyTarget) allow() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draws++
	return f.draws <= f.failAfter
}

func (f *flakyTarget) DrawPath(ctx context.Context, path []domain.Coordinates, opts ports.RenderOptions) (ports.RenderHandle, error) {
	if !f.allow() {
		return "", errDrawFailed
	}
	return f.GeoJSONLayer.DrawPath(ctx, path, opts)
}

func (f *flakyTarget) DrawMarker(ctx context.Context, m domain.Marker, title string, opts ports.RenderOptions) (ports.RenderHandle, error) {
	if !f.allow() {
		return "", errDrawFailed
	}
	return f.GeoJSONLayer.DrawMarker(ctx, m, title, opts)
}

func (f *flakyTarget) Remove(ctx context.Context, handles ...ports.RenderHandle) error {
	f.mu.Lock()
	f.removed = append(f.removed, handles...)
	f.mu.Unlock()
	return f.GeoJSONLayer.Remove(ctx, handles...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.RouteEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev ports.RouteEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Events() []ports.RouteEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.RouteEvent(nil), p.events...)
}
