package handlers

import (
	"heritage-route-service/internal/api/dto"
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/platform/obs"
	"heritage-route-service/internal/ports"
	"log"
	"net/http"
)

// NodeHandler exposes read-only node catalog endpoints.
type NodeHandler struct {
	Repo ports.NodeRepository
}

func (h *NodeHandler) List(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.Repo.ListNodes(r.Context())
	if err != nil {
		log.Printf("req_id=%s list nodes failed: %v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ListNodesResponse{Nodes: toNodeResponses(nodes)})
}

func toNodeResponses(nodes []domain.Node) []dto.NodeResponse {
	out := make([]dto.NodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, dto.NodeResponse{
			ID:    n.ID,
			Title: n.Title,
			Lat:   n.Location.Lat,
			Lon:   n.Location.Lon,
		})
	}
	return out
}
