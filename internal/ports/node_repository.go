package ports

import (
	"context"
	"heritage-route-service/internal/domain"
)

// Port: a boundary for reading Node entities from the node catalog.
type NodeRepository interface {
	// Retrieve every node in the catalog.
	ListNodes(ctx context.Context) ([]domain.Node, error)
	// Retrieve the nodes with the given ids, in the order requested.
	GetNodes(ctx context.Context, ids []string) ([]domain.Node, error)
}
