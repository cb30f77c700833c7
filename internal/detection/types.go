// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package detection

import (
	"context"
	"time"

	"github.com/tomtom215/poseidon/internal/models"
)

// TopicClusterCreated carries ClusterCreated events to the tasking router.
const TopicClusterCreated = "tasking.cluster_created"

// Detector is one periodic scan. Scan is given the cycle time so tests can
// drive it deterministically.
type Detector interface {
	// Name identifies the detector in logs and metrics.
	Name() string

	// Scan runs one cycle. Per-item failures are logged and skipped; a
	// returned error fails the whole cycle.
	Scan(ctx context.Context, now time.Time) error
}

// ClusterCreated is published after a spoof cluster commits.
type ClusterCreated struct {
	ClusterID    int64                `json:"cluster_id"`
	CentroidLat  float64              `json:"centroid_lat"`
	CentroidLon  float64              `json:"centroid_lon"`
	RadiusNM     float64              `json:"radius_nm"`
	SignalCount  int                  `json:"signal_count"`
	AnomalyTypes []models.AnomalyType `json:"anomaly_types"`
	WindowStart  time.Time            `json:"window_start"`
	WindowEnd    time.Time            `json:"window_end"`
	CreatedAt    time.Time            `json:"created_at"`
}

// NewClusterCreated builds the event for a committed cluster.
func NewClusterCreated(c *models.SpoofCluster) ClusterCreated {
	return ClusterCreated{
		ClusterID:    c.ID,
		CentroidLat:  c.CentroidLat,
		CentroidLon:  c.CentroidLon,
		RadiusNM:     c.RadiusNM,
		SignalCount:  c.SignalCount,
		AnomalyTypes: c.AnomalyTypes,
		WindowStart:  c.WindowStart,
		WindowEnd:    c.WindowEnd,
		CreatedAt:    c.CreatedAt,
	}
}
