package geo

import (
	"heritage-route-service/internal/domain"

	"github.com/golang/geo/s2"
)

// earthRadiusInMeters is the Earth's volumetric mean radius.
const earthRadiusInMeters = 6371000

// Distance returns the great-circle distance in meters between a and b.
func Distance(a, b domain.Coordinates) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lon)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return p1.Distance(p2).Radians() * earthRadiusInMeters
}

// PathLength sums the great-circle distances between consecutive points.
func PathLength(points []domain.Coordinates) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}
