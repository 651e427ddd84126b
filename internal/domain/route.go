package domain

// Tier records which routing fidelity level produced a RouteGeometry.
type Tier int

const (
	TierFailed Tier = iota
	TierPrimary
	TierFallback
	TierStraightLine
)

func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierFallback:
		return "fallback"
	case TierStraightLine:
		return "straight_line"
	default:
		return "failed"
	}
}

func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Marker labels one waypoint of a route. The origin is always label 0 and
// the remaining waypoints are numbered from 1 in visiting order.
// Source is the index of the waypoint in the input handed to the resolver.
type Marker struct {
	Label    int         `json:"label"`
	Location Coordinates `json:"location"`
	Source   int         `json:"source"`
}

// Represents the walkable path resolved for an ordered waypoint chain.
// Polyline is non-empty for every tier except TierFailed. For the
// straight-line tier the duration is an estimate derived from distance.
type RouteGeometry struct {
	Polyline        []Coordinates `json:"polyline"`
	DistanceMeters  float64       `json:"distance_meters"`
	DurationSeconds float64       `json:"duration_seconds"`
	Tier            Tier          `json:"tier"`
	Markers         []Marker      `json:"markers"`
}

type RouteStatus string

const (
	RouteStatusRendered       RouteStatus = "rendered"
	RouteStatusBudgetExceeded RouteStatus = "budget_exceeded"
)

// Notice is an informational message attached to a route result.
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	NoticeNodesTruncated   = "nodes_truncated"
	NoticeBudgetWarning    = "budget_warning"
	NoticeDegradedGeometry = "degraded_geometry"
)

// Represents the outcome of a single route planning attempt.
// A RouteResult is created fresh per attempt and is superseded, never
// updated, by the next attempt.
type RouteResult struct {
	SessionID            string         `json:"session_id,omitempty"`
	Success              bool           `json:"success"`
	Status               RouteStatus    `json:"status"`
	Geometry             *RouteGeometry `json:"geometry,omitempty"`
	OrderedNodes         []Node         `json:"ordered_nodes"`
	TotalTimeMinutes     int            `json:"total_time_minutes"`
	WalkMinutes          int            `json:"walk_minutes"`
	VisitMinutes         int            `json:"visit_minutes"`
	TimeExceeded         bool           `json:"time_exceeded"`
	TimeWarning          bool           `json:"time_warning"`
	AvailableTimeMinutes *int           `json:"available_time_minutes,omitempty"`
	ProposedNodeCount    int            `json:"proposed_node_count,omitempty"`
	Notices              []Notice       `json:"notices,omitempty"`
}
