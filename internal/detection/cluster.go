// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package detection

import (
	"time"

	"github.com/paulmach/orb"

	"github.com/tomtom215/poseidon/internal/geo"
	"github.com/tomtom215/poseidon/internal/models"
)

// GroupSignals partitions signals, which must be ordered by DetectedAt, into
// time-window groups. Each group is anchored on its first signal: a signal
// joins while it is within window of the anchor, otherwise it starts a new
// group. Only groups of two or more are returned; singletons stay
// unclustered and are offered again on the next pass.
func GroupSignals(signals []models.SpoofSignal, window time.Duration) [][]models.SpoofSignal {
	if len(signals) == 0 {
		return nil
	}

	var groups [][]models.SpoofSignal
	current := []models.SpoofSignal{signals[0]}
	for _, s := range signals[1:] {
		if s.DetectedAt.Sub(current[0].DetectedAt) <= window {
			current = append(current, s)
			continue
		}
		if len(current) >= 2 {
			groups = append(groups, current)
		}
		current = []models.SpoofSignal{s}
	}
	if len(current) >= 2 {
		groups = append(groups, current)
	}
	return groups
}

// BuildCluster summarises a group: mean position, the largest great-circle
// distance from it, the distinct anomaly types in first-seen order and the
// member IDs.
func BuildCluster(group []models.SpoofSignal, now time.Time) *models.SpoofCluster {
	points := make([]orb.Point, len(group))
	ids := make([]int64, len(group))
	seen := make(map[models.AnomalyType]bool)
	var types []models.AnomalyType
	for i, s := range group {
		points[i] = orb.Point{s.Lon, s.Lat}
		ids[i] = s.ID
		if !seen[s.AnomalyType] {
			seen[s.AnomalyType] = true
			types = append(types, s.AnomalyType)
		}
	}
	lat, lon, radius := geo.Centroid(points)

	return &models.SpoofCluster{
		SignalCount:  len(group),
		CentroidLat:  lat,
		CentroidLon:  lon,
		RadiusNM:     radius,
		WindowStart:  group[0].DetectedAt,
		WindowEnd:    group[len(group)-1].DetectedAt,
		AnomalyTypes: types,
		Status:       models.AlertActive,
		SignalIDs:    ids,
		CreatedAt:    now,
	}
}
