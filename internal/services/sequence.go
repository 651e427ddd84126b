package services

import (
	"context"
	"fmt"
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/platform/obs"
	"heritage-route-service/internal/ports"
	"log"
)

// OracleMinNodes is the smallest node set sent to the optimization provider.
// Smaller sets are always ordered locally.
const OracleMinNodes = 4

// SequenceOptimizer orders nodes into a visiting sequence.
//
// Sets of OracleMinNodes or more go to the optimization provider when one is
// configured; any failure there permanently downgrades the call to the local
// nearest-neighbor pass, which cannot fail.
type SequenceOptimizer struct {
	oracle ports.OptimizationProvider
}

func NewSequenceOptimizer(oracle ports.OptimizationProvider) *SequenceOptimizer {
	return &SequenceOptimizer{oracle: oracle}
}

// Order returns nodes in visiting order starting from origin.
// The only error it returns is a cancelled context.
func (s *SequenceOptimizer) Order(ctx context.Context, origin domain.Coordinates, nodes []domain.Node) ([]domain.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(nodes) < OracleMinNodes || s.oracle == nil {
		obs.OptimizerDispatch.WithLabelValues("greedy").Inc()
		return NearestNeighborOrder(origin, nodes), nil
	}

	ordered, err := s.oracleOrder(ctx, origin, nodes)
	if err == nil {
		obs.OptimizerDispatch.WithLabelValues("oracle").Inc()
		return ordered, nil
	}

	// A cancelled request is not a provider failure.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	log.Printf("req_id=%s op=optimizer.Order fallback=greedy nodes=%d err=%v", obs.RequestID(ctx), len(nodes), err)
	obs.OptimizerDispatch.WithLabelValues("oracle_fallback").Inc()
	return NearestNeighborOrder(origin, nodes), nil
}

func (s *SequenceOptimizer) oracleOrder(ctx context.Context, origin domain.Coordinates, nodes []domain.Node) ([]domain.Node, error) {
	// Job ids are 1-based positions in nodes.
	jobs := make([]ports.OptimizationJob, 0, len(nodes))
	for i, n := range nodes {
		jobs = append(jobs, ports.OptimizationJob{ID: i + 1, Location: n.Location})
	}

	ids, err := s.oracle.Optimize(ctx, origin, jobs)
	if err != nil {
		return nil, &ProviderError{Provider: "optimization", Op: "optimize", Err: err}
	}

	// The oracle must visit every job exactly once; anything else is malformed.
	if len(ids) != len(nodes) {
		return nil, &ProviderError{
			Provider: "optimization",
			Op:       "optimize",
			Err:      fmt.Errorf("route visits %d of %d jobs", len(ids), len(nodes)),
		}
	}

	seen := make(map[int]struct{}, len(ids))
	ordered := make([]domain.Node, 0, len(nodes))
	for _, id := range ids {
		if id < 1 || id > len(nodes) {
			return nil, &ProviderError{Provider: "optimization", Op: "optimize", Err: fmt.Errorf("unknown job id %d", id)}
		}
		if _, dup := seen[id]; dup {
			return nil, &ProviderError{Provider: "optimization", Op: "optimize", Err: fmt.Errorf("job id %d visited twice", id)}
		}
		seen[id] = struct{}{}
		ordered = append(ordered, nodes[id-1])
	}

	return ordered, nil
}
