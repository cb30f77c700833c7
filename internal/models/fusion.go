// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package models

import (
	"time"
)

// FusionEvidence is the raw per-sensor evidence gathered for one vessel.
type FusionEvidence struct {
	MMSI                  int64      `json:"mmsi"`
	LastPositionAt        *time.Time `json:"last_position_at,omitempty"`
	LastLat               *float64   `json:"last_lat,omitempty"`
	LastLon               *float64   `json:"last_lon,omitempty"`
	SARMatches            int        `json:"sar_matches"`
	VIIRSAnomalies        int        `json:"viirs_anomalies"`
	AcousticEvents        int        `json:"acoustic_events"`
	AcousticMaxConfidence *float64   `json:"acoustic_max_confidence,omitempty"`
}

// FusionResult is an immutable snapshot of the fused trust score for a vessel.
// The newest row per MMSI is the current state.
type FusionResult struct {
	ID                 int64          `json:"id"`
	MMSI               int64          `json:"mmsi"`
	AISConfidence      float64        `json:"ais_confidence"`
	SARConfidence      float64        `json:"sar_confidence"`
	VIIRSConfidence    float64        `json:"viirs_confidence"`
	AcousticConfidence float64        `json:"acoustic_confidence"`
	Posterior          float64        `json:"posterior"`
	Classification     Classification `json:"classification"`
	Evidence           FusionEvidence `json:"evidence"`
	ComputedAt         time.Time      `json:"computed_at"`
}
