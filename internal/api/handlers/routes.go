package handlers

import (
	"context"
	"errors"
	"fmt"
	"heritage-route-service/internal/adapters/render"
	"heritage-route-service/internal/adapters/repositories"
	"heritage-route-service/internal/api/dto"
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/platform/obs"
	"heritage-route-service/internal/platform/report"
	"heritage-route-service/internal/ports"
	"heritage-route-service/internal/services"
	"log"
	"math"
	"net/http"
	"slices"
	"strings"
)

// DefaultClusterSize is how many catalog nodes are picked when a request
// names none.
const DefaultClusterSize = 5

// RouteHandler plans, accepts, clears and shows the active route.
// Routes are drawn on Layer, which GET /v1/routes/active serves.
type RouteHandler struct {
	Repo       ports.NodeRepository
	Geocoder   ports.Geocoder
	Controller *services.Controller
	Layer      *render.GeoJSONLayer
}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.RouteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	rr, rc, err := h.buildRequest(r.Context(), req)
	if err != nil {
		// A failed attempt still replaces whatever route was visible.
		h.Controller.ClearRoute(r.Context())
		h.writeRouteError(w, r, err)
		return
	}

	res, err := h.Controller.CreateRoute(r.Context(), rc, rr)
	if err != nil {
		h.writeRouteError(w, r, err)
		return
	}
	h.writeResult(w, r, res)
}

// Accept plans the shorter route proposed after a budget overrun.
func (h *RouteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req dto.AcceptProposalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ProposedCount < 1 {
		writeError(w, r, http.StatusBadRequest, "proposed_count must be at least 1")
		return
	}

	rr, rc, err := h.buildRequest(r.Context(), req.RouteRequest)
	if err != nil {
		// A failed attempt still replaces whatever route was visible.
		h.Controller.ClearRoute(r.Context())
		h.writeRouteError(w, r, err)
		return
	}

	res, err := h.Controller.AcceptProposal(r.Context(), rc, rr, req.ProposedCount)
	if err != nil {
		h.writeRouteError(w, r, err)
		return
	}
	h.writeResult(w, r, res)
}

func (h *RouteHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.Controller.ClearRoute(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *RouteHandler) Active(w http.ResponseWriter, r *http.Request) {
	s := h.Controller.Active()
	if s == nil {
		writeError(w, r, http.StatusNotFound, "no active route")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ActiveRouteResponse{
		SessionID: s.ID,
		CreatedAt: s.CreatedAt,
		Route:     toRouteResponse(&s.Result),
		Layer:     h.Layer.Snapshot(),
	})
}

// buildRequest resolves the origin and the candidate nodes of a request.
// A request without node_ids is served a compact cluster from the catalog.
func (h *RouteHandler) buildRequest(ctx context.Context, req dto.RouteRequest) (services.RouteRequest, services.RenderContext, error) {
	rc := services.RenderContext{
		Target:      h.Layer,
		Locale:      strings.TrimSpace(req.Locale),
		DisplayMode: strings.TrimSpace(req.DisplayMode),
	}

	clusterSize := req.ClusterSize
	if clusterSize == 0 {
		clusterSize = DefaultClusterSize
	}
	if clusterSize < 1 || clusterSize > services.MaxNodesPerRoute {
		return services.RouteRequest{}, rc, &badRequestError{
			msg: fmt.Sprintf("cluster_size must be between 1 and %d", services.MaxNodesPerRoute),
		}
	}

	origin, err := h.resolveOrigin(ctx, req)
	if err != nil {
		return services.RouteRequest{}, rc, err
	}

	var nodes []domain.Node
	if len(req.NodeIDs) > 0 {
		nodes, err = h.Repo.GetNodes(ctx, req.NodeIDs)
		if err != nil {
			return services.RouteRequest{}, rc, err
		}
		nodes = slices.DeleteFunc(nodes, func(n domain.Node) bool {
			return slices.Contains(req.ExcludeIDs, n.ID)
		})
	} else {
		pool, err := h.Repo.ListNodes(ctx)
		if err != nil {
			return services.RouteRequest{}, rc, err
		}
		pool = slices.DeleteFunc(pool, func(n domain.Node) bool {
			return slices.Contains(req.ExcludeIDs, n.ID)
		})
		if origin != nil {
			nodes = services.SelectCluster(*origin, pool, clusterSize)
		}
	}

	return services.RouteRequest{
		Origin:           origin,
		Nodes:            nodes,
		AvailableMinutes: req.AvailableMinutes,
		SkipCheck:        req.SkipCheck,
	}, rc, nil
}

func (h *RouteHandler) resolveOrigin(ctx context.Context, req dto.RouteRequest) (*domain.Coordinates, error) {
	if req.Origin != nil {
		return &domain.Coordinates{Lat: req.Origin.Lat, Lon: req.Origin.Lon}, nil
	}

	address := strings.TrimSpace(req.OriginAddress)
	if address == "" {
		return nil, nil
	}
	if h.Geocoder == nil {
		return nil, &services.PreconditionError{Reason: "origin_address needs geocoding credentials"}
	}

	c, err := h.Geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, &services.ProviderError{Provider: "geocode", Op: "geocode", Err: err}
	}
	return &c, nil
}

func (h *RouteHandler) writeResult(w http.ResponseWriter, r *http.Request, res *domain.RouteResult) {
	status := http.StatusOK
	if res.Status == domain.RouteStatusBudgetExceeded {
		status = http.StatusConflict
	}
	writeJSON(w, r, status, toRouteResponse(res))
}

func (h *RouteHandler) writeRouteError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		bad        *badRequestError
		pre        *services.PreconditionError
		infeasible *services.InfeasibleError
		unknown    *repositories.UnknownNodesError
		provider   *services.ProviderError
	)

	switch {
	case errors.As(err, &bad), errors.As(err, &pre), errors.As(err, &unknown):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &infeasible):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &provider):
		log.Printf("req_id=%s route provider failed: %v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusBadGateway, "upstream provider failed")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Printf("req_id=%s route request abandoned: %v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusServiceUnavailable, "request cancelled")
	default:
		log.Printf("req_id=%s route request failed: %v", obs.RequestID(r.Context()), err)
		report.Error(err, report.Options{Tags: map[string]string{
			"path":   r.URL.Path,
			"req_id": obs.RequestID(r.Context()),
		}})
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func toRouteResponse(res *domain.RouteResult) dto.RouteResponse {
	out := dto.RouteResponse{
		SessionID:            res.SessionID,
		Success:              res.Success,
		Status:               string(res.Status),
		OrderedNodes:         toNodeResponses(res.OrderedNodes),
		TotalTimeMinutes:     res.TotalTimeMinutes,
		WalkMinutes:          res.WalkMinutes,
		VisitMinutes:         res.VisitMinutes,
		TimeExceeded:         res.TimeExceeded,
		TimeWarning:          res.TimeWarning,
		AvailableTimeMinutes: res.AvailableTimeMinutes,
		ProposedNodeCount:    res.ProposedNodeCount,
		Notices:              make([]dto.NoticeResponse, 0, len(res.Notices)),
	}

	for _, n := range res.Notices {
		out.Notices = append(out.Notices, dto.NoticeResponse{Code: n.Code, Message: n.Message})
	}

	if g := res.Geometry; g != nil {
		geom := &dto.GeometryResponse{
			Tier:            g.Tier.String(),
			DistanceMeters:  int(math.Round(g.DistanceMeters)),
			DurationSeconds: int(math.Round(g.DurationSeconds)),
			Polyline:        make([][]float64, 0, len(g.Polyline)),
			Markers:         make([]dto.MarkerResponse, 0, len(g.Markers)),
		}
		for _, p := range g.Polyline {
			geom.Polyline = append(geom.Polyline, p.CoordsToList())
		}
		for _, m := range g.Markers {
			mr := dto.MarkerResponse{Label: m.Label, Lat: m.Location.Lat, Lon: m.Location.Lon}
			if m.Label > 0 && m.Label <= len(res.OrderedNodes) {
				mr.Title = res.OrderedNodes[m.Label-1].Title
			}
			geom.Markers = append(geom.Markers, mr)
		}
		out.Geometry = geom
	}

	return out
}
