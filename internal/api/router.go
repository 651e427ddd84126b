package api

import (
	"heritage-route-service/internal/adapters/render"
	"heritage-route-service/internal/api/handlers"
	"heritage-route-service/internal/ports"
	"heritage-route-service/internal/services"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Repo       ports.NodeRepository
	Geocoder   ports.Geocoder
	Controller *services.Controller
	Layer      *render.GeoJSONLayer
	Ready      func() bool
	Env        string
	Version    string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	router := httprouter.New()

	health := &handlers.HealthHandler{Env: d.Env, Version: d.Version, Ready: d.Ready}
	nodes := &handlers.NodeHandler{Repo: d.Repo}
	routes := &handlers.RouteHandler{
		Repo:       d.Repo,
		Geocoder:   d.Geocoder,
		Controller: d.Controller,
		Layer:      d.Layer,
	}

	router.HandlerFunc(http.MethodGet, "/v1/health", health.Health)
	router.HandlerFunc(http.MethodGet, "/v1/nodes", nodes.List)
	router.HandlerFunc(http.MethodPost, "/v1/routes", routes.Create)
	router.HandlerFunc(http.MethodPost, "/v1/routes/accept", routes.Accept)
	router.HandlerFunc(http.MethodDelete, "/v1/routes", routes.Clear)
	router.HandlerFunc(http.MethodGet, "/v1/routes/active", routes.Active)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	var h http.Handler = router
	h = sentryMiddleware(h)
	h = securityHeaders(h)
	h = loggingMiddleware(h)
	return requestIDMiddleware(h)
}
