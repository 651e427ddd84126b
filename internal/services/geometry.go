package services

import (
	"context"
	"errors"
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/geo"
	"heritage-route-service/internal/platform/obs"
	"heritage-route-service/internal/ports"
	"log"
)

// WalkingSpeed is the assumed average walking speed in meters per second,
// used to estimate durations when no directions provider answered.
const WalkingSpeed = 1.4

// GeometryResolver turns an ordered waypoint list into a walkable path.
//
// Tiers, each tried only when the previous one is unavailable or fails:
//   - primary: the directions provider with waypoints in the given order
//   - fallback: the same provider with stops re-ordered nearest-neighbor first
//   - straight line: direct segments with a walking-speed duration estimate
//
// The straight-line tier cannot fail, so Resolve always returns a renderable
// geometry for any non-empty input.
type GeometryResolver struct {
	directions ports.DirectionsProvider
}

func NewGeometryResolver(directions ports.DirectionsProvider) *GeometryResolver {
	return &GeometryResolver{directions: directions}
}

// Resolve returns the geometry for waypoints, the first of which is the origin.
func (r *GeometryResolver) Resolve(ctx context.Context, waypoints []domain.Coordinates) domain.RouteGeometry {
	if len(waypoints) == 0 {
		obs.GeometryTier.WithLabelValues(domain.TierFailed.String()).Inc()
		return domain.RouteGeometry{Tier: domain.TierFailed}
	}

	origin := waypoints[0]
	stops := waypoints[1:]
	inputOrder := identityPermutation(len(stops))

	if r.directions != nil && hasDistinctStop(origin, stops) {
		g, err := r.viaDirections(ctx, origin, stops, inputOrder)
		if err == nil {
			return finish(g, domain.TierPrimary)
		}
		log.Printf("req_id=%s op=geometry.Resolve tier=primary err=%v", obs.RequestID(ctx), err)

		reordered := greedyChain(origin, stops, len(stops))
		g, err = r.viaDirections(ctx, origin, stops, reordered)
		if err == nil {
			return finish(g, domain.TierFallback)
		}
		log.Printf("req_id=%s op=geometry.Resolve tier=fallback err=%v", obs.RequestID(ctx), err)
	}

	return finish(straightLine(origin, stops, inputOrder), domain.TierStraightLine)
}

func finish(g domain.RouteGeometry, tier domain.Tier) domain.RouteGeometry {
	g.Tier = tier
	obs.GeometryTier.WithLabelValues(tier.String()).Inc()
	return g
}

func (r *GeometryResolver) viaDirections(
	ctx context.Context,
	origin domain.Coordinates,
	stops []domain.Coordinates,
	order []int,
) (domain.RouteGeometry, error) {
	chain := domain.NewWaypointChain(origin, permute(stops, order)...)

	d, err := r.directions.Directions(ctx, chain.Points())
	if err != nil {
		return domain.RouteGeometry{}, &ProviderError{Provider: "directions", Op: "directions", Err: err}
	}
	if len(d.Polyline) == 0 {
		return domain.RouteGeometry{}, &ProviderError{
			Provider: "directions",
			Op:       "directions",
			Err:      errors.New("empty geometry"),
		}
	}

	return domain.RouteGeometry{
		Polyline:        d.Polyline,
		DistanceMeters:  d.DistanceMeters,
		DurationSeconds: d.DurationSeconds,
		Markers:         markers(origin, stops, order),
	}, nil
}

func straightLine(origin domain.Coordinates, stops []domain.Coordinates, order []int) domain.RouteGeometry {
	polyline := domain.NewWaypointChain(origin, permute(stops, order)...).Points()
	meters := geo.PathLength(polyline)

	return domain.RouteGeometry{
		Polyline:        polyline,
		DistanceMeters:  meters,
		DurationSeconds: meters / WalkingSpeed,
		Markers:         markers(origin, stops, order),
	}
}

// markers labels the origin 0 and each stop 1..n in visiting order.
// Source indexes the full waypoint list, so the origin is Source 0.
func markers(origin domain.Coordinates, stops []domain.Coordinates, order []int) []domain.Marker {
	out := make([]domain.Marker, 0, 1+len(order))
	out = append(out, domain.Marker{Label: 0, Location: origin, Source: 0})
	for k, i := range order {
		out = append(out, domain.Marker{Label: k + 1, Location: stops[i], Source: i + 1})
	}
	return out
}

func permute(points []domain.Coordinates, order []int) []domain.Coordinates {
	out := make([]domain.Coordinates, 0, len(order))
	for _, i := range order {
		out = append(out, points[i])
	}
	return out
}

func identityPermutation(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func hasDistinctStop(origin domain.Coordinates, stops []domain.Coordinates) bool {
	for _, s := range stops {
		if s != origin {
			return true
		}
	}
	return false
}

// HasProvider reports whether a directions provider is configured.
func (r *GeometryResolver) HasProvider() bool {
	return r.directions != nil
}
