package services

import "heritage-route-service/internal/domain"

// SelectCluster picks count nodes from pool forming a compact walkable cluster.
//
// Starting at origin, it repeatedly takes the unselected node nearest to the
// last selected one. Chaining from the previous pick, instead of ranking by
// distance to origin, keeps the cluster tight rather than star-shaped.
// When the pool holds no more than count nodes it is returned unchanged.
func SelectCluster(origin domain.Coordinates, pool []domain.Node, count int) []domain.Node {
	if count <= 0 || len(pool) == 0 {
		return []domain.Node{}
	}
	if len(pool) <= count {
		return pool
	}

	selected := make([]domain.Node, 0, count)
	for _, i := range greedyChain(origin, domain.NodeLocations(pool), count) {
		selected = append(selected, pool[i])
	}
	return selected
}
