package ports

import (
	"context"
	"time"
)

// Outcome of a route planning attempt, published for downstream consumers.
type RouteEvent struct {
	SessionID    string    `json:"session_id,omitempty"`
	Outcome      string    `json:"outcome"`
	Tier         string    `json:"tier,omitempty"`
	NodeIDs      []string  `json:"node_ids"`
	TotalMinutes int       `json:"total_minutes"`
	At           time.Time `json:"at"`
}

type RouteEventPublisher interface {
	Publish(ctx context.Context, ev RouteEvent) error
}
