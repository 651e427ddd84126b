package render

import (
	"context"
	"errors"
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/ports"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSONLayer is an in-memory render target. Every drawn path or marker is
// kept as a GeoJSON feature until removed; Snapshot exposes what is visible.
//
// The layer is safe for concurrent use.
type GeoJSONLayer struct {
	mu       sync.RWMutex
	features map[ports.RenderHandle]*geojson.Feature
	order    []ports.RenderHandle
}

func NewGeoJSONLayer() *GeoJSONLayer {
	return &GeoJSONLayer{features: make(map[ports.RenderHandle]*geojson.Feature)}
}

func (l *GeoJSONLayer) DrawPath(ctx context.Context, path []domain.Coordinates, opts ports.RenderOptions) (ports.RenderHandle, error) {
	if len(path) == 0 {
		return "", errors.New("draw path: path is empty")
	}

	var g orb.Geometry
	if len(path) == 1 {
		g = toPoint(path[0])
	} else {
		ls := make(orb.LineString, 0, len(path))
		for _, c := range path {
			ls = append(ls, toPoint(c))
		}
		g = ls
	}

	f := geojson.NewFeature(g)
	f.Properties["kind"] = "path"
	setOptions(f, opts)
	return l.add(f), nil
}

func (l *GeoJSONLayer) DrawMarker(ctx context.Context, m domain.Marker, title string, opts ports.RenderOptions) (ports.RenderHandle, error) {
	f := geojson.NewFeature(toPoint(m.Location))
	f.Properties["kind"] = "marker"
	f.Properties["label"] = m.Label
	if title != "" {
		f.Properties["title"] = title
	}
	setOptions(f, opts)
	return l.add(f), nil
}

// Remove deletes the given handles. Unknown handles are ignored.
func (l *GeoJSONLayer) Remove(ctx context.Context, handles ...ports.RenderHandle) error {
	if len(handles) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, h := range handles {
		delete(l.features, h)
	}
	l.order = slices.DeleteFunc(l.order, func(h ports.RenderHandle) bool {
		_, ok := l.features[h]
		return !ok
	})
	return nil
}

// Snapshot returns the visible features in drawing order.
func (l *GeoJSONLayer) Snapshot() *geojson.FeatureCollection {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fc := geojson.NewFeatureCollection()
	for _, h := range l.order {
		fc.Append(l.features[h])
	}
	return fc
}

// Len returns the number of visible features.
func (l *GeoJSONLayer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

func (l *GeoJSONLayer) add(f *geojson.Feature) ports.RenderHandle {
	h := ports.RenderHandle(uuid.NewString())
	f.ID = string(h)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.features[h] = f
	l.order = append(l.order, h)
	return h
}

func toPoint(c domain.Coordinates) orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

func setOptions(f *geojson.Feature, opts ports.RenderOptions) {
	if opts.Locale != "" {
		f.Properties["locale"] = opts.Locale
	}
	if opts.DisplayMode != "" {
		f.Properties["display_mode"] = opts.DisplayMode
	}
}
