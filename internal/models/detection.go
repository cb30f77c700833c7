// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package models

import (
	"time"
)

// DarkVesselAlert is raised when a moving vessel stops reporting. At most one
// alert per MMSI is active at a time.
type DarkVesselAlert struct {
	ID             int64       `json:"id"`
	MMSI           int64       `json:"mmsi"`
	Status         AlertStatus `json:"status"`
	LastLat        float64     `json:"last_lat"`
	LastLon        float64     `json:"last_lon"`
	PredictedLat   float64     `json:"predicted_lat"`
	PredictedLon   float64     `json:"predicted_lon"`
	LastSOG        *float64    `json:"last_sog,omitempty"`
	LastCOG        *float64    `json:"last_cog,omitempty"`
	GapHours       float64     `json:"gap_hours"`
	SearchRadiusNM float64     `json:"search_radius_nm"`
	LastSeen       time.Time   `json:"last_seen"`
	DetectedAt     time.Time   `json:"detected_at"`
	ResolvedAt     *time.Time  `json:"resolved_at,omitempty"`
}

// SpoofSignal is one rule hit on one position.
type SpoofSignal struct {
	ID          int64          `json:"id"`
	MMSI        int64          `json:"mmsi"`
	AnomalyType AnomalyType    `json:"anomaly_type"`
	Lat         float64        `json:"lat"`
	Lon         float64        `json:"lon"`
	SOG         *float64       `json:"sog,omitempty"`
	COG         *float64       `json:"cog,omitempty"`
	NavStatus   *NavStatus     `json:"nav_status,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	DetectedAt  time.Time      `json:"detected_at"`
	ClusterID   *int64         `json:"cluster_id,omitempty"`
}

// SpoofCluster groups signals that occurred close together in time.
type SpoofCluster struct {
	ID           int64         `json:"id"`
	SignalCount  int           `json:"signal_count"`
	CentroidLat  float64       `json:"centroid_lat"`
	CentroidLon  float64       `json:"centroid_lon"`
	RadiusNM     float64       `json:"radius_nm"`
	WindowStart  time.Time     `json:"window_start"`
	WindowEnd    time.Time     `json:"window_end"`
	AnomalyTypes []AnomalyType `json:"anomaly_types"`
	Status       AlertStatus   `json:"status"`
	SignalIDs    []int64       `json:"signal_ids,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// PositionPair is a position and the one before it for the same vessel.
type PositionPair struct {
	Current       VesselPosition `json:"current"`
	PrevLat       float64        `json:"prev_lat"`
	PrevLon       float64        `json:"prev_lon"`
	PrevTimestamp time.Time      `json:"prev_timestamp"`
}
