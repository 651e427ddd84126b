package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"heritage-route-service/internal/adapters/mock"
	"heritage-route-service/internal/adapters/render"
	"heritage-route-service/internal/adapters/repositories"
	"heritage-route-service/internal/api/dto"
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/ports"
	"heritage-route-service/internal/services"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalog = []domain.Node{
	{ID: "hagia-sophia", Title: "Hagia Sophia", Location: domain.Coordinates{Lat: 41.0086, Lon: 28.9802}},
	{ID: "blue-mosque", Title: "Blue Mosque", Location: domain.Coordinates{Lat: 41.0054, Lon: 28.9768}},
	{ID: "basilica-cistern", Title: "Basilica Cistern", Location: domain.Coordinates{Lat: 41.0084, Lon: 28.9779}},
	{ID: "topkapi-palace", Title: "Topkapi Palace", Location: domain.Coordinates{Lat: 41.0115, Lon: 28.9834}},
	{ID: "grand-bazaar", Title: "Grand Bazaar", Location: domain.Coordinates{Lat: 41.0107, Lon: 28.9680}},
	{ID: "galata-tower", Title: "Galata Tower", Location: domain.Coordinates{Lat: 41.0256, Lon: 28.9742}},
}

type memoryRepo struct{ nodes []domain.Node }

func (m *memoryRepo) ListNodes(ctx context.Context) ([]domain.Node, error) {
	return append([]domain.Node(nil), m.nodes...), nil
}

func (m *memoryRepo) GetNodes(ctx context.Context, ids []string) ([]domain.Node, error) {
	out := make([]domain.Node, 0, len(ids))
	var missing []string
	for _, id := range ids {
		found := false
		for _, n := range m.nodes {
			if n.ID == id {
				out = append(out, n)
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &repositories.UnknownNodesError{IDs: missing}
	}
	return out, nil
}

type geocoderFunc func(ctx context.Context, address string) (domain.Coordinates, error)

func (f geocoderFunc) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	return f(ctx, address)
}

type testServer struct {
	handler http.Handler
	layer   *render.GeoJSONLayer
	dir     *mock.DirectionsProvider
}

func newTestServer(geocoder ports.Geocoder, responses ...mock.DirectionsResponse) *testServer {
	dir := mock.NewDirectionsProvider(responses...)
	layer := render.NewGeoJSONLayer()
	ctrl := services.NewController(
		services.NewSequenceOptimizer(&mock.OptimizationProvider{}),
		services.NewGeometryResolver(dir),
	)

	h := NewRouter(Deps{
		Repo:       &memoryRepo{nodes: catalog},
		Geocoder:   geocoder,
		Controller: ctrl,
		Layer:      layer,
		Env:        "testing",
		Version:    "test",
	})
	return &testServer{handler: h, layer: layer, dir: dir}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func decodeRoute(t *testing.T, rr *httptest.ResponseRecorder) dto.RouteResponse {
	t.Helper()
	var res dto.RouteResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	return res
}

func sultanahmet() *dto.OriginRequest {
	return &dto.OriginRequest{Lat: 41.0058, Lon: 28.9768}
}

func intPtr(v int) *int { return &v }

func TestHealth(t *testing.T) {
	s := newTestServer(nil)

	rr := s.do(t, http.MethodGet, "/v1/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	var res map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "ok", res["status"])
	assert.Equal(t, "testing", res["environment"])
}

func TestHealthNotReady(t *testing.T) {
	h := NewRouter(Deps{Ready: func() bool { return false }})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}

func TestListNodes(t *testing.T) {
	s := newTestServer(nil)

	rr := s.do(t, http.MethodGet, "/v1/nodes", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var res dto.ListNodesResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	require.Len(t, res.Nodes, len(catalog))
	assert.Equal(t, "hagia-sophia", res.Nodes[0].ID)
	assert.Equal(t, 41.0086, res.Nodes[0].Lat)
}

func TestCreateRouteWithNodeIDs(t *testing.T) {
	s := newTestServer(nil)

	rr := s.do(t, http.MethodPost, "/v1/routes", dto.RouteRequest{
		Origin:  sultanahmet(),
		NodeIDs: []string{"hagia-sophia", "blue-mosque", "basilica-cistern"},
		Locale:  "en",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	res := decodeRoute(t, rr)
	assert.True(t, res.Success)
	assert.Equal(t, "rendered", res.Status)
	assert.NotEmpty(t, res.SessionID)
	assert.Len(t, res.OrderedNodes, 3)
	require.NotNil(t, res.Geometry)
	assert.Equal(t, "primary", res.Geometry.Tier)
	require.Len(t, res.Geometry.Markers, 4)
	assert.Empty(t, res.Geometry.Markers[0].Title)
	assert.Equal(t, res.OrderedNodes[0].Title, res.Geometry.Markers[1].Title)
	assert.Equal(t, 5, s.layer.Len())
}

func TestCreateRouteExcludesNodes(t *testing.T) {
	s := newTestServer(nil)

	rr := s.do(t, http.MethodPost, "/v1/routes", dto.RouteRequest{
		Origin:     sultanahmet(),
		NodeIDs:    []string{"hagia-sophia", "blue-mosque"},
		ExcludeIDs: []string{"blue-mosque"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	res := decodeRoute(t, rr)
	require.Len(t, res.OrderedNodes, 1)
	assert.Equal(t, "hagia-sophia", res.OrderedNodes[0].ID)
}

func TestCreateRouteClustersCatalog(t *testing.T) {
	s := newTestServer(nil)

	rr := s.do(t, http.MethodPost, "/v1/routes", dto.RouteRequest{Origin: sultanahmet()})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	res := decodeRoute(t, rr)
	require.Len(t, res.OrderedNodes, 5)
	for _, n := range res.OrderedNodes {
		assert.NotEqual(t, "galata-tower", n.ID, "the far-away node is left out of the cluster")
	}

	rr = s.do(t, http.MethodPost, "/v1/routes", dto.RouteRequest{Origin: sultanahmet(), ClusterSize: 2})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeRoute(t, rr).OrderedNodes, 2)
}

func TestCreateRouteGeocodesOriginAddress(t *testing.T) {
	var asked string
	s := newTestServer(geocoderFunc(func(ctx context.Context, address string) (domain.Coordinates, error) {
		asked = address
		return domain.Coordinates{Lat: 41.0058, Lon: 28.9768}, nil
	}))

	rr := s.do(t, http.MethodPost, "/v1/routes", dto.RouteRequest{
		OriginAddress: "Sultanahmet Square, Istanbul",
		NodeIDs:       []string{"hagia-sophia"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Sultanahmet Square, Istanbul", asked)
}

func TestCreateRouteGeocoderFailure(t *testing.T) {
	s := newTestServer(geocoderFunc(func(ctx context.Context, address string) (domain.Coordinates, error) {
		return domain.Coordinates{}, errors.New("Code 502: bad gateway")
	}))

	rr := s.do(t, http.MethodPost, "/v1/routes", dto.RouteRequest{
		OriginAddress: "Atlantis",
		NodeIDs:       []string{"hagia-sophia"},
	})
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestCreateRouteBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"invalid json", `{"origin":`},
		{"unknown field", `{"origin":{"lat":41,"lon":28},"truck_count":3}`},
		{"two objects", `{"origin":{"lat":41,"lon":28}}{}`},
		{"no origin", dto.RouteRequest{NodeIDs: []string{"hagia-sophia"}}},
		{"address without geocoder", dto.RouteRequest{OriginAddress: "Sultanahmet", NodeIDs: []string{"hagia-sophia"}}},
		{"unknown node", dto.RouteRequest{Origin: sultanahmet(), NodeIDs: []string{"atlantis"}}},
		{"cluster too large", dto.RouteRequest{Origin: sultanahmet(), ClusterSize: 21}},
		{"negative budget", dto.RouteRequest{Origin: sultanahmet(), NodeIDs: []string{"hagia-sophia"}, AvailableMinutes: intPtr(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(nil)

			rr := s.do(t, http.MethodPost, "/v1/routes", tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Empty(t, s.dir.Calls())
			assert.Zero(t, s.layer.Len())
		})
	}
}

func halfHourWalk() mock.DirectionsResponse {
	return mock.DirectionsResponse{Directions: ports.Directions{
		Polyline:        []domain.Coordinates{{Lat: 41.0058, Lon: 28.9768}, catalog[0].Location},
		DistanceMeters:  2100,
		DurationSeconds: 1800,
	}}
}

func TestCreateRouteBudgetExceededThenAccept(t *testing.T) {
	s := newTestServer(nil, halfHourWalk())
	req := dto.RouteRequest{
		Origin:           sultanahmet(),
		NodeIDs:          []string{"hagia-sophia", "blue-mosque", "basilica-cistern"},
		AvailableMinutes: intPtr(40),
	}

	rr := s.do(t, http.MethodPost, "/v1/routes", req)
	require.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())

	res := decodeRoute(t, rr)
	assert.False(t, res.Success)
	assert.True(t, res.TimeExceeded)
	assert.Equal(t, 60, res.TotalTimeMinutes)
	assert.Equal(t, 2, res.ProposedNodeCount)
	assert.Nil(t, res.Geometry)
	assert.Zero(t, s.layer.Len())

	rr = s.do(t, http.MethodPost, "/v1/routes/accept", dto.AcceptProposalRequest{
		RouteRequest:  req,
		ProposedCount: res.ProposedNodeCount,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	accepted := decodeRoute(t, rr)
	assert.True(t, accepted.Success)
	assert.Len(t, accepted.OrderedNodes, 2)
	assert.Equal(t, 4, s.layer.Len())
}

func TestAcceptRequiresProposedCount(t *testing.T) {
	s := newTestServer(nil)

	rr := s.do(t, http.MethodPost, "/v1/routes/accept", dto.AcceptProposalRequest{
		RouteRequest: dto.RouteRequest{Origin: sultanahmet()},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateRouteInfeasible(t *testing.T) {
	s := newTestServer(nil, halfHourWalk())

	rr := s.do(t, http.MethodPost, "/v1/routes", dto.RouteRequest{
		Origin:           sultanahmet(),
		NodeIDs:          []string{"hagia-sophia"},
		AvailableMinutes: intPtr(1),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
}

func TestActiveAndClear(t *testing.T) {
	s := newTestServer(nil)

	rr := s.do(t, http.MethodGet, "/v1/routes/active", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(t, http.MethodPost, "/v1/routes", dto.RouteRequest{
		Origin:  sultanahmet(),
		NodeIDs: []string{"hagia-sophia", "blue-mosque"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	created := decodeRoute(t, rr)

	rr = s.do(t, http.MethodGet, "/v1/routes/active", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var active struct {
		SessionID string `json:"session_id"`
		Layer     struct {
			Type     string           `json:"type"`
			Features []map[string]any `json:"features"`
		} `json:"layer"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&active))
	assert.Equal(t, created.SessionID, active.SessionID)
	assert.Equal(t, "FeatureCollection", active.Layer.Type)
	assert.Len(t, active.Layer.Features, 4)

	rr = s.do(t, http.MethodDelete, "/v1/routes", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Zero(t, s.layer.Len())

	rr = s.do(t, http.MethodDelete, "/v1/routes", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = s.do(t, http.MethodGet, "/v1/routes/active", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(nil)

	rr := s.do(t, http.MethodPut, "/v1/routes", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(nil)

	rr := s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestFailedRouteRequestClearsActiveRoute(t *testing.T) {
	tests := []struct {
		name string
		path string
		body any
	}{
		{"unknown node", "/v1/routes", dto.RouteRequest{Origin: sultanahmet(), NodeIDs: []string{"atlantis"}}},
		{"cluster too large", "/v1/routes", dto.RouteRequest{Origin: sultanahmet(), ClusterSize: 99}},
		{"accept unknown node", "/v1/routes/accept", dto.AcceptProposalRequest{
			RouteRequest:  dto.RouteRequest{Origin: sultanahmet(), NodeIDs: []string{"atlantis"}},
			ProposedCount: 1,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(nil)

			rr := s.do(t, http.MethodPost, "/v1/routes", dto.RouteRequest{
				Origin:  sultanahmet(),
				NodeIDs: []string{"hagia-sophia", "blue-mosque"},
			})
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			require.Equal(t, 4, s.layer.Len())

			rr = s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Zero(t, s.layer.Len())

			rr = s.do(t, http.MethodGet, "/v1/routes/active", nil)
			assert.Equal(t, http.StatusNotFound, rr.Code)
		})
	}
}
