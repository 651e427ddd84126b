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
	"net/http"
)

// Fixed dwell time per job sent to the optimizer, in seconds.
const jobServiceSeconds = 600

type optimizationJob struct {
	ID       int       `json:"id"`
	Service  int       `json:"service"`
	Location []float64 `json:"location"`
}

type optimizationVehicle struct {
	ID      int       `json:"id"`
	Profile string    `json:"profile"`
	Start   []float64 `json:"start"`
	End     []float64 `json:"end"`
}

type optimizationRequest struct {
	Jobs     []optimizationJob     `json:"jobs"`
	Vehicles []optimizationVehicle `json:"vehicles"`
}

type optimizationResponse struct {
	Routes []struct {
		Steps []struct {
			Type string `json:"type"`
			Job  int    `json:"job"`
		} `json:"steps"`
	} `json:"routes"`
	Unassigned []struct {
		ID int `json:"id"`
	} `json:"unassigned"`
}

// Optimize asks the optimization endpoint for a round trip from origin
// through every job and returns the job ids in visiting order.
func (c *Client) Optimize(
	ctx context.Context,
	origin domain.Coordinates,
	jobs []ports.OptimizationJob,
) (_ []int, err error) {
	defer obs.Time(ctx, "ors.Optimize")(&err)

	if len(jobs) == 0 {
		return nil, errors.New("optimize: no jobs")
	}

	body := optimizationRequest{
		Jobs: make([]optimizationJob, 0, len(jobs)),
		Vehicles: []optimizationVehicle{{
			ID:      1,
			Profile: c.profile,
			Start:   origin.CoordsToList(),
			End:     origin.CoordsToList(),
		}},
	}
	for _, j := range jobs {
		body.Jobs = append(body.Jobs, optimizationJob{
			ID:       j.ID,
			Service:  jobServiceSeconds,
			Location: j.Location.CoordsToList(),
		})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal optimization request: %w", err)
	}

	endpoint := c.baseURL + "/optimization"
	resp, err := c.doWithRetry(ctx, "optimize", func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("optimization request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded optimizationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode optimization response: %w", err)
	}

	if len(decoded.Routes) == 0 {
		return nil, fmt.Errorf("optimization returned no routes (unassigned=%d)", len(decoded.Unassigned))
	}

	order := make([]int, 0, len(jobs))
	for _, s := range decoded.Routes[0].Steps {
		if s.Type == "job" {
			order = append(order, s.Job)
		}
	}

	return order, nil
}
