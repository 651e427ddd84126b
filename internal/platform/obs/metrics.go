package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OptimizerDispatch counts which ordering path produced a visiting sequence.
	OptimizerDispatch = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routeplanner_optimizer_dispatch_total",
		Help: "Visiting sequences produced, by path (oracle, greedy, oracle_fallback)",
	}, []string{"path"})

	// GeometryTier counts which fidelity tier resolved a route geometry.
	GeometryTier = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routeplanner_geometry_tier_total",
		Help: "Route geometries resolved, by tier (primary, fallback, straight_line, failed)",
	}, []string{"tier"})

	RouteOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routeplanner_route_outcomes_total",
		Help: "Route planning attempts, by outcome",
	}, []string{"outcome"})
)

var (
	ProviderRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routeplanner_provider_request_duration_seconds",
		Help:    "Latency of external provider calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "op", "result"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routeplanner_cache_lookups_total",
		Help: "Provider cache lookups, by cache and result (hit, miss, error)",
	}, []string{"cache", "result"})
)
