// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/poseidon/internal/geo"
	"github.com/tomtom215/poseidon/internal/models"
)

// Evidence windows and radii used by FusionEvidence.
const (
	EvidenceLookback    = 7 * 24 * time.Hour
	VIIRSSearchRadiusKM = 50.0
)

// FusionEvidence gathers the collaborator evidence for mmsi as of now.
func (db *DB) FusionEvidence(ctx context.Context, mmsi int64, now time.Time) (*models.FusionEvidence, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	ev, err := db.fusionEvidence(ctx, mmsi, now)
	timed("fusion_evidence", start, err)
	return ev, err
}

func (db *DB) fusionEvidence(ctx context.Context, mmsi int64, now time.Time) (*models.FusionEvidence, error) {
	ev := &models.FusionEvidence{MMSI: mmsi}
	since := now.Add(-EvidenceLookback).UTC()

	var (
		ts       time.Time
		lat, lon float64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT timestamp, lat, lon FROM latest_vessel_positions WHERE mmsi = ?`, mmsi,
	).Scan(&ts, &lat, &lon)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("latest position %d: %w", mmsi, err)
	default:
		ev.LastPositionAt = &ts
		ev.LastLat = &lat
		ev.LastLon = &lon
	}

	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sar_vessel_matches WHERE mmsi = ? AND created_at > ?`, mmsi, since,
	).Scan(&ev.SARMatches); err != nil {
		return nil, fmt.Errorf("sar matches %d: %w", mmsi, err)
	}

	if ev.LastLat != nil {
		n, err := db.viirsNear(ctx, *ev.LastLat, *ev.LastLon, since)
		if err != nil {
			return nil, err
		}
		ev.VIIRSAnomalies = n
	}

	var maxConf sql.NullFloat64
	if err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), MAX(correlation_confidence)
		FROM acoustic_events
		WHERE correlated_mmsi = ? AND event_time > ?`, mmsi, since,
	).Scan(&ev.AcousticEvents, &maxConf); err != nil {
		return nil, fmt.Errorf("acoustic events %d: %w", mmsi, err)
	}
	ev.AcousticMaxConfidence = floatPtr(maxConf)

	return ev, nil
}

// viirsNear counts VIIRS anomalies observed since since within
// VIIRSSearchRadiusKM of the point. A bounding box narrows the scan and the
// great-circle distance decides.
func (db *DB) viirsNear(ctx context.Context, lat, lon float64, since time.Time) (int, error) {
	radiusNM := VIIRSSearchRadiusKM * 1000 / geo.MetersPerNM
	dLat := radiusNM / 60
	cosLat := math.Cos(lat * math.Pi / 180)
	dLon := 180.0
	if cosLat > 1e-6 {
		dLon = math.Min(180, dLat/cosLat)
	}

	rows, err := queryAndScan(ctx, db.conn, `
		SELECT lat, lon FROM viirs_anomalies
		WHERE observation_date > CAST(? AS DATE)
		  AND lat BETWEEN ? AND ?
		  AND lon BETWEEN ? AND ?`,
		[]any{since, lat - dLat, lat + dLat, lon - dLon, lon + dLon},
		func(row rowScanner) ([2]float64, error) {
			var p [2]float64
			err := row.Scan(&p[0], &p[1])
			return p, err
		})
	if err != nil {
		return 0, fmt.Errorf("viirs anomalies: %w", err)
	}

	n := 0
	for _, p := range rows {
		if geo.GreatCircleNM(lat, lon, p[0], p[1]) <= radiusNM {
			n++
		}
	}
	return n, nil
}

// InsertFusionResult appends r and sets r.ID.
func (db *DB) InsertFusionResult(ctx context.Context, r *models.FusionResult) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	evidence, err := json.Marshal(&r.Evidence)
	if err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}

	start := time.Now()
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO signal_fusion_results
			(mmsi, ais_confidence, sar_confidence, viirs_confidence, acoustic_confidence,
			 posterior_score, classification, evidence, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		r.MMSI, r.AISConfidence, r.SARConfidence, r.VIIRSConfidence, r.AcousticConfidence,
		r.Posterior, string(r.Classification), string(evidence), r.ComputedAt.UTC(),
	).Scan(&r.ID)
	timed("insert_fusion_result", start, err)
	if err != nil {
		return fmt.Errorf("insert fusion result %d: %w", r.MMSI, err)
	}
	return nil
}

// FusionHistory returns up to limit results for mmsi, newest first.
func (db *DB) FusionHistory(ctx context.Context, mmsi int64, limit int) ([]models.FusionResult, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	if limit <= 0 {
		limit = 20
	}

	start := time.Now()
	out, err := queryAndScan(ctx, db.conn, `
		SELECT id, mmsi, ais_confidence, sar_confidence, viirs_confidence, acoustic_confidence,
		       posterior_score, classification, evidence, timestamp
		FROM signal_fusion_results
		WHERE mmsi = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`,
		[]any{mmsi, limit},
		func(row rowScanner) (models.FusionResult, error) {
			var (
				r        models.FusionResult
				class    string
				evidence sql.NullString
			)
			if err := row.Scan(&r.ID, &r.MMSI, &r.AISConfidence, &r.SARConfidence, &r.VIIRSConfidence,
				&r.AcousticConfidence, &r.Posterior, &class, &evidence, &r.ComputedAt); err != nil {
				return r, err
			}
			r.Classification = models.Classification(class)
			if evidence.Valid && evidence.String != "" {
				if err := json.Unmarshal([]byte(evidence.String), &r.Evidence); err != nil {
					return r, fmt.Errorf("decode evidence %d: %w", r.ID, err)
				}
			}
			return r, nil
		})
	timed("fusion_history", start, err)
	if err != nil {
		return nil, fmt.Errorf("fusion history %d: %w", mmsi, err)
	}
	return out, nil
}

// Production evidence rows are written by the collaborators themselves. The
// Record* helpers below are for tests and manual backfill.

// RecordSARMatch stores a SAR detection matched to mmsi.
func (db *DB) RecordSARMatch(ctx context.Context, mmsi int64, at time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sar_vessel_matches (mmsi, created_at) VALUES (?, ?)`, mmsi, at.UTC())
	return err
}

// RecordVIIRSAnomaly stores a VIIRS nightlight anomaly.
func (db *DB) RecordVIIRSAnomaly(ctx context.Context, lat, lon float64, observed time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO viirs_anomalies (lat, lon, observation_date) VALUES (?, ?, CAST(? AS DATE))`,
		lat, lon, observed.UTC())
	return err
}

// RecordAcousticEvent stores an acoustic event correlated with mmsi.
func (db *DB) RecordAcousticEvent(ctx context.Context, mmsi int64, confidence *float64, at time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO acoustic_events (correlated_mmsi, correlation_confidence, event_time) VALUES (?, ?, ?)`,
		mmsi, nullFloat(confidence), at.UTC())
	return err
}
