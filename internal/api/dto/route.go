package dto

import (
	"time"

	"github.com/paulmach/orb/geojson"
)

type OriginRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type RouteRequest struct {
	Origin           *OriginRequest `json:"origin"`
	OriginAddress    string         `json:"origin_address"`
	NodeIDs          []string       `json:"node_ids"`
	ExcludeIDs       []string       `json:"exclude_ids"`
	ClusterSize      int            `json:"cluster_size"`
	AvailableMinutes *int           `json:"available_minutes"`
	SkipCheck        bool           `json:"skip_check"`
	Locale           string         `json:"locale"`
	DisplayMode      string         `json:"display_mode"`
}

type AcceptProposalRequest struct {
	RouteRequest
	ProposedCount int `json:"proposed_count"`
}

type MarkerResponse struct {
	Label int     `json:"label"`
	Title string  `json:"title,omitempty"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

type GeometryResponse struct {
	Tier            string           `json:"tier"`
	DistanceMeters  int              `json:"distance_meters"`
	DurationSeconds int              `json:"duration_seconds"`
	Polyline        [][]float64      `json:"polyline"`
	Markers         []MarkerResponse `json:"markers"`
}

type NoticeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RouteResponse struct {
	SessionID            string            `json:"session_id,omitempty"`
	Success              bool              `json:"success"`
	Status               string            `json:"status"`
	OrderedNodes         []NodeResponse    `json:"ordered_nodes"`
	TotalTimeMinutes     int               `json:"total_time_minutes"`
	WalkMinutes          int               `json:"walk_minutes"`
	VisitMinutes         int               `json:"visit_minutes"`
	TimeExceeded         bool              `json:"time_exceeded"`
	TimeWarning          bool              `json:"time_warning"`
	AvailableTimeMinutes *int              `json:"available_time_minutes,omitempty"`
	ProposedNodeCount    int               `json:"proposed_node_count,omitempty"`
	Geometry             *GeometryResponse `json:"geometry,omitempty"`
	Notices              []NoticeResponse  `json:"notices"`
}

type ActiveRouteResponse struct {
	SessionID string                     `json:"session_id"`
	CreatedAt time.Time                  `json:"created_at"`
	Route     RouteResponse              `json:"route"`
	Layer     *geojson.FeatureCollection `json:"layer"`
}
