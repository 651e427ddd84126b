package ors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/platform/obs"
	"log"
	"net/http"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Geocode resolves a free-text address to coordinates using
// /geocode/search, consulting the geocode cache first.
func (c *Client) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	norm := normalize(address)
	if norm == "" {
		return domain.Coordinates{}, errors.New("geocode: address must be non-empty")
	}

	if c.geocodeCache != nil {
		hits, err := c.geocodeCache.GetMany(ctx, []string{norm})
		if err != nil {
			return domain.Coordinates{}, fmt.Errorf("ORS get geocode cache: %w", err)
		}
		if coord, ok := hits[norm]; ok {
			return coord, nil
		}
	}

	coord, err := c.fetchGeocode(ctx, norm)
	if err != nil {
		return domain.Coordinates{}, err
	}

	if c.geocodeCache != nil {
		if err := c.geocodeCache.PutMany(ctx, map[string]domain.Coordinates{norm: coord}); err != nil {
			log.Printf("req_id=%s geocode cache write failed: %v", obs.RequestID(ctx), err)
		}
	}

	return coord, nil
}

func (c *Client) fetchGeocode(ctx context.Context, norm string) (domain.Coordinates, error) {
	endpoint := c.baseURL + "/geocode/search"

	resp, err := c.doWithRetry(ctx, "geocode", func() (*http.Request, error) {
		req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("no geocode results for %q", norm)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("invalid coordinate format for %q", norm)
	}

	return domain.Coordinates{Lon: coords[0], Lat: coords[1]}, nil
}
