package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/platform/obs"
	"heritage-route-service/internal/ports"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type directionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Preference   string      `json:"preference"`
	Instructions bool        `json:"instructions"`
}

// Directions returns the walking path through coords in the given order.
// Answers are served from the directions cache when one is configured.
func (c *Client) Directions(ctx context.Context, coords []domain.Coordinates) (_ ports.Directions, err error) {
	defer obs.Time(ctx, "ors.Directions")(&err)

	if len(coords) < 2 {
		return ports.Directions{}, fmt.Errorf("directions: need at least 2 coordinates, got %d", len(coords))
	}

	key := chainKey(c.profile, coords)
	if c.directionsCache != nil {
		d, ok, err := c.directionsCache.Get(ctx, key)
		if err != nil {
			return ports.Directions{}, fmt.Errorf("ORS get directions cache: %w", err)
		}
		if ok {
			return d, nil
		}
	}

	d, err := c.fetchDirections(ctx, coords)
	if err != nil {
		return ports.Directions{}, err
	}

	if c.directionsCache != nil {
		if err := c.directionsCache.Put(ctx, key, d); err != nil {
			log.Printf("req_id=%s directions cache write failed: %v", obs.RequestID(ctx), err)
		}
	}

	return d, nil
}

func (c *Client) fetchDirections(ctx context.Context, coords []domain.Coordinates) (ports.Directions, error) {
	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", c.baseURL, c.profile)

	list := make([][]float64, 0, len(coords))
	for _, p := range coords {
		list = append(list, p.CoordsToList())
	}

	payload, err := json.Marshal(directionsRequest{
		Coordinates:  list,
		Preference:   "shortest",
		Instructions: false,
	})
	if err != nil {
		return ports.Directions{}, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, "directions", func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return ports.Directions{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.Directions{}, fmt.Errorf("read directions response: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return ports.Directions{}, fmt.Errorf("decode directions response: %w", err)
	}

	return parseDirections(fc)
}

func parseDirections(fc *geojson.FeatureCollection) (ports.Directions, error) {
	if len(fc.Features) == 0 {
		return ports.Directions{}, errors.New("directions response has no features")
	}

	f := fc.Features[0]
	ls, ok := f.Geometry.(orb.LineString)
	if !ok {
		return ports.Directions{}, fmt.Errorf("directions geometry is %T, want LineString", f.Geometry)
	}
	if len(ls) == 0 {
		return ports.Directions{}, errors.New("directions geometry is empty")
	}

	polyline := make([]domain.Coordinates, 0, len(ls))
	for _, p := range ls {
		polyline = append(polyline, domain.Coordinates{Lat: p.Lat(), Lon: p.Lon()})
	}

	// ORS omits summary fields that are zero.
	summary, _ := f.Properties["summary"].(map[string]interface{})
	distance, _ := summary["distance"].(float64)
	duration, _ := summary["duration"].(float64)

	return ports.Directions{
		Polyline:        polyline,
		DistanceMeters:  distance,
		DurationSeconds: duration,
	}, nil
}

// chainKey identifies a waypoint chain for caching. Coordinates are rounded
// to six decimals, roughly 0.1 m.
func chainKey(profile string, coords []domain.Coordinates) string {
	var b strings.Builder
	b.WriteString(profile)
	for i, p := range coords {
		if i == 0 {
			b.WriteByte(':')
		} else {
			b.WriteByte(';')
		}
		b.WriteString(strconv.FormatFloat(p.Lon, 'f', 6, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Lat, 'f', 6, 64))
	}
	return b.String()
}
