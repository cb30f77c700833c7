// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package detection

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/poseidon/internal/geo"
	"github.com/tomtom215/poseidon/internal/logging"
	"github.com/tomtom215/poseidon/internal/metrics"
	"github.com/tomtom215/poseidon/internal/models"
)

// DarkConfig configures DarkDetector.
type DarkConfig struct {
	// Gap is how long a vessel must be silent before it counts as dark.
	Gap time.Duration

	// ActiveWindow bounds how far back a last report may be. Vessels silent
	// for longer are ignored.
	ActiveWindow time.Duration
}

// DefaultDarkConfig returns the standard 2h gap over a 24h window.
func DefaultDarkConfig() DarkConfig {
	return DarkConfig{Gap: 2 * time.Hour, ActiveWindow: 24 * time.Hour}
}

// DarkDetector raises an alert when a moving vessel goes silent. There is at
// most one active alert per vessel; it resolves once the vessel reports again.
type DarkDetector struct {
	store  DarkStore
	cfg    DarkConfig
	logger zerolog.Logger
}

// NewDarkDetector creates a detector backed by store.
func NewDarkDetector(store DarkStore, cfg DarkConfig) *DarkDetector {
	return &DarkDetector{store: store, cfg: cfg, logger: logging.WithDetector("detection", "dark_vessel")}
}

// Name implements Detector.
func (d *DarkDetector) Name() string { return "dark_vessel" }

// Scan implements Detector.
func (d *DarkDetector) Scan(ctx context.Context, now time.Time) error {
	candidates, err := d.store.DarkCandidates(ctx, now, d.cfg.Gap, d.cfg.ActiveWindow)
	if err != nil {
		return fmt.Errorf("select dark candidates: %w", err)
	}

	opened := 0
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := &candidates[i]

		active, err := d.store.HasActiveDarkAlert(ctx, p.MMSI)
		if err != nil {
			logging.Vessel(d.logger, p.MMSI).Warn().Err(err).Msg("Active alert check failed")
			continue
		}
		if active {
			continue
		}

		alert := NewDarkAlert(p, now)
		id, err := d.store.InsertDarkAlert(ctx, alert)
		if err != nil {
			logging.Vessel(d.logger, p.MMSI).Warn().Err(err).Msg("Dark alert insert failed")
			continue
		}
		opened++
		metrics.DarkAlerts.WithLabelValues("opened").Inc()
		logging.Vessel(d.logger, p.MMSI).Debug().
			Int64("alert_id", id).
			Float64("gap_hours", alert.GapHours).
			Float64("search_radius_nm", alert.SearchRadiusNM).
			Msg("Vessel went dark")
	}

	// Resolution runs every cycle, candidates or not.
	resolved, err := d.store.ResolveDarkAlerts(ctx, now, d.cfg.Gap)
	if err != nil {
		return fmt.Errorf("resolve dark alerts: %w", err)
	}
	if resolved > 0 {
		metrics.DarkAlerts.WithLabelValues("resolved").Add(float64(resolved))
	}

	if opened > 0 || resolved > 0 {
		d.logger.Info().
			Int("opened", opened).
			Int64("resolved", resolved).
			Int("candidates", len(candidates)).
			Msg("Dark vessel detection")
	}
	return nil
}

// NewDarkAlert builds the alert for a vessel last seen at p. The predicted
// position is dead-reckoned from the last speed and course; a missing course
// counts as due north.
func NewDarkAlert(p *models.VesselPosition, now time.Time) *models.DarkVesselAlert {
	hours := now.Sub(p.Timestamp).Hours()
	var sog, cog float64
	if p.SOG != nil {
		sog = *p.SOG
	}
	if p.COG != nil {
		cog = *p.COG
	}
	predLat, predLon := geo.DeadReckon(p.Lat, p.Lon, sog, cog, hours)

	return &models.DarkVesselAlert{
		MMSI:           p.MMSI,
		Status:         models.AlertActive,
		LastLat:        p.Lat,
		LastLon:        p.Lon,
		PredictedLat:   predLat,
		PredictedLon:   predLon,
		LastSOG:        p.SOG,
		LastCOG:        p.COG,
		GapHours:       hours,
		SearchRadiusNM: geo.SearchRadiusNM(p.SOG, hours),
		LastSeen:       p.Timestamp,
		DetectedAt:     now,
	}
}
