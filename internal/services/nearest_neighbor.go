package services

import (
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/geo"
	"math"
)

// NearestNeighborOrder orders nodes using a greedy nearest-neighbor pass.
//
// From origin it repeatedly moves to the closest remaining node. It does not
// attempt global optimization; ties go to the node that appears first in the
// input, so the same input always yields the same sequence.
func NearestNeighborOrder(origin domain.Coordinates, nodes []domain.Node) []domain.Node {
	ordered := make([]domain.Node, 0, len(nodes))
	for _, i := range greedyChain(origin, domain.NodeLocations(nodes), len(nodes)) {
		ordered = append(ordered, nodes[i])
	}
	return ordered
}

// greedyChain walks from origin to the nearest unvisited point, count times,
// and returns the indices of the visited points in order.
// Ties keep the earliest index so results are deterministic.
func greedyChain(origin domain.Coordinates, points []domain.Coordinates, count int) []int {
	if count > len(points) {
		count = len(points)
	}

	used := make([]bool, len(points))
	order := make([]int, 0, count)
	current := origin

	for len(order) < count {
		best := -1
		bestDist := math.Inf(1)
		for i, p := range points {
			if used[i] {
				continue
			}
			// NaN distances never compare less; fall back to the first free point.
			if d := geo.Distance(current, p); best < 0 || d < bestDist {
				best = i
				bestDist = d
			}
		}

		used[best] = true
		order = append(order, best)
		current = points[best]
	}

	return order
}
