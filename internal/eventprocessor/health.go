// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package eventprocessor

import "context"

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	Name    string         `json:"name"`
	Healthy bool           `json:"healthy"`
	Message string         `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthCheckable is implemented by components that report health.
type HealthCheckable interface {
	HealthCheck(ctx context.Context) ComponentHealth
}
