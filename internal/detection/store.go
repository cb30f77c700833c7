// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package detection

import (
	"context"
	"time"

	"github.com/tomtom215/poseidon/internal/database"
	"github.com/tomtom215/poseidon/internal/models"
)

// DarkStore is the persistence used by DarkDetector.
type DarkStore interface {
	// DarkCandidates returns the latest position of each vessel silent for
	// longer than gap but seen within window, moving faster than 0.5 kn.
	DarkCandidates(ctx context.Context, now time.Time, gap, window time.Duration) ([]models.VesselPosition, error)

	HasActiveDarkAlert(ctx context.Context, mmsi int64) (bool, error)
	InsertDarkAlert(ctx context.Context, alert *models.DarkVesselAlert) (int64, error)

	// ResolveDarkAlerts resolves active alerts whose vessel reported within gap.
	ResolveDarkAlerts(ctx context.Context, now time.Time, gap time.Duration) (int64, error)
}

// SpoofStore is the persistence used by SpoofDetector. Candidate queries
// already exclude positions covered by a stored signal.
type SpoofStore interface {
	ImpossibleSpeedPositions(ctx context.Context, since time.Time, threshold float64) ([]models.VesselPosition, error)
	SARTPositions(ctx context.Context, since time.Time) ([]models.VesselPosition, error)
	NoIdentityPositions(ctx context.Context, since time.Time) ([]models.VesselPosition, error)
	ConsecutivePositions(ctx context.Context, since time.Time, maxGap time.Duration) ([]models.PositionPair, error)
	InsertSpoofSignals(ctx context.Context, signals []models.SpoofSignal) (int, error)

	UnclusteredSignals(ctx context.Context) ([]models.SpoofSignal, error)

	// CreateCluster inserts the cluster, links its signals and sets c.ID in
	// one transaction.
	CreateCluster(ctx context.Context, c *models.SpoofCluster) error
}

// Store is everything the detectors need.
type Store interface {
	DarkStore
	SpoofStore
}

var _ Store = (*database.DB)(nil)
