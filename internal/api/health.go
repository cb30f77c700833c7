// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/poseidon/internal/eventprocessor"
	"github.com/tomtom215/poseidon/internal/logging"
)

// healthCheckTimeout bounds the whole /healthz check.
const healthCheckTimeout = 5 * time.Second

// PingCheck adapts a ping function to eventprocessor.HealthCheckable.
type PingCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthCheck implements eventprocessor.HealthCheckable.
func (p PingCheck) HealthCheck(ctx context.Context) eventprocessor.ComponentHealth {
	h := eventprocessor.ComponentHealth{Name: p.Name, Healthy: true}
	if err := p.Ping(ctx); err != nil {
		h.Healthy = false
		h.Error = err.Error()
	}
	return h
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status     string                           `json:"status"`
	Timestamp  time.Time                        `json:"timestamp"`
	Components []eventprocessor.ComponentHealth `json:"components"`
}

// Health handles GET /healthz. It answers 200 when every check passes and
// 503 otherwise.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		Components: make([]eventprocessor.ComponentHealth, 0, len(h.checks)),
	}
	status := http.StatusOK
	for _, c := range h.checks {
		ch := c.HealthCheck(ctx)
		if !ch.Healthy {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
		resp.Components = append(resp.Components, ch)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode health response")
	}
}
