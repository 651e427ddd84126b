package ports

import (
	"context"
	"heritage-route-service/internal/domain"
)

// Opaque reference to something drawn on a render target.
type RenderHandle string

// Display preferences supplied by the caller for one planning attempt.
type RenderOptions struct {
	Locale      string
	DisplayMode string
}

// Contract for the layer that displays a route. Only the route session
// controller draws on or removes from it.
type RenderTarget interface {
	DrawPath(ctx context.Context, path []domain.Coordinates, opts RenderOptions) (RenderHandle, error)
	DrawMarker(ctx context.Context, marker domain.Marker, title string, opts RenderOptions) (RenderHandle, error)
	Remove(ctx context.Context, handles ...RenderHandle) error
}
