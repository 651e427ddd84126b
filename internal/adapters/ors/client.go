package ors

import (
	"context"
	"errors"
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/ports"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.openrouteservice.org"
	walkingProfile = "foot-walking"
)

// DirectionsCache memoizes directions by waypoint chain key.
type DirectionsCache interface {
	Get(ctx context.Context, key string) (ports.Directions, bool, error)
	Put(ctx context.Context, key string, d ports.Directions) error
}

// GeocodeCache maps normalized addresses to coordinates.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}

// Client talks to OpenRouteService for walking directions, visiting-order
// optimization and geocoding.
//
// It coordinates:
//   - External API calls with optional retry/backoff
//   - Directions caching keyed by the rounded waypoint chain
//   - Geocode caching keyed by the normalized address
//
// The client is safe for concurrent use.
type Client struct {
	session         *http.Client
	apiKey          string
	baseURL         string
	profile         string
	maxAttempts     int
	backoff         time.Duration
	directionsCache DirectionsCache
	geocodeCache    GeocodeCache
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.session.Timeout = d }
}

// WithMaxAttempts sets how many times a transient failure is tried.
// Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n >= 1 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the delay before the first retry; it doubles per retry.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

func WithDirectionsCache(dc DirectionsCache) Option {
	return func(c *Client) { c.directionsCache = dc }
}

func WithGeocodeCache(gc GeocodeCache) Option {
	return func(c *Client) { c.geocodeCache = gc }
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	c := &Client{
		session:     &http.Client{Timeout: 10 * time.Second},
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		profile:     walkingProfile,
		maxAttempts: 1,
		backoff:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var (
	_ ports.DirectionsProvider   = (*Client)(nil)
	_ ports.OptimizationProvider = (*Client)(nil)
	_ ports.Geocoder             = (*Client)(nil)
)
