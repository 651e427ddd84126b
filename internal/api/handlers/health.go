package handlers

import (
	"net/http"
)

type HealthHandler struct {
	Env     string
	Version string
	// Ready reports whether route planning can be attempted, i.e. directions
	// credentials are configured.
	Ready func() bool
}

// Health provides a liveness and readiness check. It answers 503 when the
// service is up but cannot plan routes.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ready := h.Ready == nil || h.Ready()

	res := map[string]any{
		"status":      "ok",
		"environment": h.Env,
		"version":     h.Version,
		"ready":       ready,
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, res)
}
