package services

import (
	"context"
	"fmt"
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/platform/obs"
	"heritage-route-service/internal/platform/report"
	"heritage-route-service/internal/ports"
	"log"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
)

// MaxNodesPerRoute caps how many stops a single route may contain.
const MaxNodesPerRoute = 20

// State of the route session controller.
type State int

const (
	StateIdle State = iota
	StatePlanning
	StateRendered
	StateFailed
	StateBudgetExceeded
)

func (s State) String() string {
	switch s {
	case StatePlanning:
		return "planning"
	case StateRendered:
		return "rendered"
	case StateFailed:
		return "failed"
	case StateBudgetExceeded:
		return "budget_exceeded"
	default:
		return "idle"
	}
}

// RenderContext carries the caller's display target and preferences for one
// planning attempt.
type RenderContext struct {
	Target      ports.RenderTarget
	Locale      string
	DisplayMode string
}

func (rc RenderContext) options() ports.RenderOptions {
	return ports.RenderOptions{Locale: rc.Locale, DisplayMode: rc.DisplayMode}
}

type RouteRequest struct {
	Origin           *domain.Coordinates
	Nodes            []domain.Node
	AvailableMinutes *int
	// SkipCheck bypasses budget validation, used when retrying with a
	// negotiated shorter route.
	SkipCheck bool
}

// ActiveRouteSession is the single route currently drawn on a render target.
type ActiveRouteSession struct {
	ID        string
	Result    domain.RouteResult
	CreatedAt time.Time

	target  ports.RenderTarget
	handles []ports.RenderHandle
}

// Controller plans routes and owns the one route that is visible at a time.
//
// Calls are serialized: a CreateRoute issued while another is in flight waits
// for it to finish, so two attempts never interleave on the render target.
type Controller struct {
	optimizer *SequenceOptimizer
	resolver  *GeometryResolver
	events    ports.RouteEventPublisher

	mu      sync.Mutex
	state   State
	session *ActiveRouteSession
}

type ControllerOption func(*Controller)

// WithEventPublisher publishes one event per planning outcome.
func WithEventPublisher(p ports.RouteEventPublisher) ControllerOption {
	return func(c *Controller) { c.events = p }
}

func NewController(optimizer *SequenceOptimizer, resolver *GeometryResolver, opts ...ControllerOption) *Controller {
	c := &Controller{optimizer: optimizer, resolver: resolver}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateRoute plans a route for req and draws it on rc.Target.
//
// Any previously drawn route is removed first, whatever the outcome. A route
// over budget is returned with Success=false and a proposed stop count and is
// not drawn; use AcceptProposal to plan the shorter route.
func (c *Controller) CreateRoute(ctx context.Context, rc RenderContext, req RouteRequest) (_ *domain.RouteResult, err error) {
	defer obs.Time(ctx, "controller.CreateRoute")(&err)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearLocked(ctx)
	c.state = StatePlanning

	if err := c.checkPreconditions(rc, req); err != nil {
		c.fail(ctx, "precondition_failed", nil)
		return nil, err
	}
	origin := *req.Origin

	nodes := req.Nodes
	var notices []domain.Notice
	if len(nodes) > MaxNodesPerRoute {
		notices = append(notices, domain.Notice{
			Code:    domain.NoticeNodesTruncated,
			Message: fmt.Sprintf("route limited to the first %d of %d stops", MaxNodesPerRoute, len(nodes)),
		})
		nodes = nodes[:MaxNodesPerRoute]
	}

	ordered, err := c.optimizer.Order(ctx, origin, nodes)
	if err != nil {
		c.fail(ctx, "cancelled", nodes)
		return nil, fmt.Errorf("create route: order nodes: %w", err)
	}

	waypoints := append([]domain.Coordinates{origin}, domain.NodeLocations(ordered)...)
	geom := c.resolver.Resolve(ctx, waypoints)
	if geom.Tier == domain.TierFailed {
		c.fail(ctx, "geometry_failed", ordered)
		return nil, fmt.Errorf("create route: no geometry for %d waypoints", len(waypoints))
	}
	ordered = nodesInMarkerOrder(ordered, geom.Markers)

	if geom.Tier != domain.TierPrimary {
		notices = append(notices, domain.Notice{
			Code:    domain.NoticeDegradedGeometry,
			Message: fmt.Sprintf("route geometry resolved with the %s tier", geom.Tier),
		})
	}

	verdict := ValidateBudget(geom, len(ordered), req.AvailableMinutes, req.SkipCheck)
	result := &domain.RouteResult{
		OrderedNodes:         ordered,
		TotalTimeMinutes:     verdict.TotalMinutes,
		WalkMinutes:          verdict.WalkMinutes,
		VisitMinutes:         verdict.VisitMinutes,
		TimeWarning:          verdict.Warning,
		AvailableTimeMinutes: copyInt(req.AvailableMinutes),
	}

	if verdict.Exceeded {
		proposal := NegotiateBudget(*req.AvailableMinutes, len(ordered))
		if !proposal.Feasible {
			c.fail(ctx, "infeasible", ordered)
			return nil, &InfeasibleError{AvailableMinutes: *req.AvailableMinutes, TotalMinutes: verdict.TotalMinutes}
		}

		result.Status = domain.RouteStatusBudgetExceeded
		result.TimeExceeded = true
		result.ProposedNodeCount = proposal.ReducedCount
		result.Notices = notices
		c.state = StateBudgetExceeded
		c.record(ctx, "budget_exceeded", "", geom.Tier, ordered, verdict.TotalMinutes)
		return result, nil
	}

	if verdict.Warning {
		notices = append(notices, domain.Notice{
			Code: domain.NoticeBudgetWarning,
			Message: fmt.Sprintf(
				"route takes %d minutes, %d over the %d available",
				verdict.TotalMinutes, verdict.TotalMinutes-*req.AvailableMinutes, *req.AvailableMinutes,
			),
		})
	}

	handles, err := c.render(ctx, rc, geom, ordered)
	if err != nil {
		report.Error(err, report.Options{Tags: map[string]string{"op": "controller.render"}})
		c.fail(ctx, "render_failed", ordered)
		return nil, fmt.Errorf("create route: %w", err)
	}

	session := &ActiveRouteSession{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		target:    rc.Target,
		handles:   handles,
	}

	result.SessionID = session.ID
	result.Success = true
	result.Status = domain.RouteStatusRendered
	result.Geometry = &geom
	result.Notices = notices
	session.Result = cloneResult(result)

	c.session = session
	c.state = StateRendered
	c.record(ctx, "rendered", session.ID, geom.Tier, ordered, verdict.TotalMinutes)

	return result, nil
}

// AcceptProposal plans the shorter route offered after a budget overrun:
// the request's stops are reduced to a compact cluster of proposed nodes and
// the budget check is skipped so negotiation cannot loop.
func (c *Controller) AcceptProposal(ctx context.Context, rc RenderContext, req RouteRequest, proposed int) (*domain.RouteResult, error) {
	if proposed < 1 {
		return nil, &PreconditionError{Reason: fmt.Sprintf("proposed stop count must be at least 1, got %d", proposed)}
	}
	if req.Origin == nil {
		return nil, &PreconditionError{Reason: "origin is required"}
	}

	// A proposal above MaxNodesPerRoute is truncated, with a notice, by CreateRoute.
	req.Nodes = SelectCluster(*req.Origin, req.Nodes, proposed)
	req.SkipCheck = true
	return c.CreateRoute(ctx, rc, req)
}

// ClearRoute removes the active route, if any. It is safe to call at any time.
func (c *Controller) ClearRoute(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearLocked(ctx)
	c.state = StateIdle
}

// Active returns a copy of the active session, or nil when none is drawn.
func (c *Controller) Active() *ActiveRouteSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	s := *c.session
	s.Result = cloneResult(&c.session.Result)
	s.handles = append([]ports.RenderHandle(nil), c.session.handles...)
	return &s
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) checkPreconditions(rc RenderContext, req RouteRequest) error {
	switch {
	case req.Origin == nil:
		return &PreconditionError{Reason: "origin is required"}
	case !req.Origin.Valid():
		return &PreconditionError{Reason: fmt.Sprintf("origin %v is out of range", *req.Origin)}
	case len(req.Nodes) == 0:
		return &PreconditionError{Reason: "at least one node is required"}
	case req.AvailableMinutes != nil && *req.AvailableMinutes < 0:
		return &PreconditionError{Reason: "available minutes must not be negative"}
	case !c.resolver.HasProvider():
		return &PreconditionError{Reason: "directions provider credentials are not configured"}
	case rc.Target == nil:
		return &PreconditionError{Reason: "render target is required"}
	}
	return nil
}

// render draws the path and one marker per waypoint. On failure it removes
// whatever it already drew so nothing half-rendered stays visible.
func (c *Controller) render(ctx context.Context, rc RenderContext, g domain.RouteGeometry, ordered []domain.Node) ([]ports.RenderHandle, error) {
	opts := rc.options()
	handles := make([]ports.RenderHandle, 0, 1+len(g.Markers))

	rollback := func(cause error) error {
		if err := rc.Target.Remove(ctx, handles...); err != nil {
			log.Printf("req_id=%s op=controller.render rollback_err=%v", obs.RequestID(ctx), err)
		}
		return cause
	}

	h, err := rc.Target.DrawPath(ctx, g.Polyline, opts)
	if err != nil {
		return nil, fmt.Errorf("render path: %w", err)
	}
	handles = append(handles, h)

	for _, m := range g.Markers {
		title := ""
		if m.Label > 0 {
			title = ordered[m.Label-1].Title
		}
		h, err := rc.Target.DrawMarker(ctx, m, title, opts)
		if err != nil {
			return nil, rollback(fmt.Errorf("render marker %d: %w", m.Label, err))
		}
		handles = append(handles, h)
	}

	return handles, nil
}

func (c *Controller) clearLocked(ctx context.Context) {
	if c.session == nil {
		return
	}

	s := c.session
	c.session = nil
	if err := s.target.Remove(ctx, s.handles...); err != nil {
		log.Printf("req_id=%s op=controller.clear session=%s err=%v", obs.RequestID(ctx), s.ID, err)
		report.Error(err, report.Options{
			Level: sentry.LevelWarning,
			Tags:  map[string]string{"op": "controller.clear", "session_id": s.ID},
		})
	}
}

func (c *Controller) fail(ctx context.Context, outcome string, nodes []domain.Node) {
	c.state = StateFailed
	c.record(ctx, outcome, "", domain.TierFailed, nodes, 0)
}

func (c *Controller) record(ctx context.Context, outcome, sessionID string, tier domain.Tier, nodes []domain.Node, total int) {
	obs.RouteOutcomes.WithLabelValues(outcome).Inc()
	if c.events == nil {
		return
	}

	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}

	ev := ports.RouteEvent{
		SessionID:    sessionID,
		Outcome:      outcome,
		NodeIDs:      ids,
		TotalMinutes: total,
		At:           time.Now().UTC(),
	}
	if tier != domain.TierFailed {
		ev.Tier = tier.String()
	}

	if err := c.events.Publish(ctx, ev); err != nil {
		log.Printf("req_id=%s op=controller.publish outcome=%s err=%v", obs.RequestID(ctx), outcome, err)
	}
}

// nodesInMarkerOrder returns nodes in the order the resolver visited them.
// Marker Source indexes the waypoint list, where index 0 is the origin.
func nodesInMarkerOrder(nodes []domain.Node, markers []domain.Marker) []domain.Node {
	out := make([]domain.Node, 0, len(nodes))
	for _, m := range markers {
		if m.Source == 0 {
			continue
		}
		out = append(out, nodes[m.Source-1])
	}
	return out
}

// cloneResult returns a copy of r that shares no slices or pointers with it.
func cloneResult(r *domain.RouteResult) domain.RouteResult {
	out := *r
	out.OrderedNodes = append([]domain.Node(nil), r.OrderedNodes...)
	out.Notices = append([]domain.Notice(nil), r.Notices...)
	out.AvailableTimeMinutes = copyInt(r.AvailableTimeMinutes)
	if r.Geometry != nil {
		g := *r.Geometry
		g.Polyline = append([]domain.Coordinates(nil), r.Geometry.Polyline...)
		g.Markers = append([]domain.Marker(nil), r.Geometry.Markers...)
		out.Geometry = &g
	}
	return out
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
