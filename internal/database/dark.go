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
	"time"

	"github.com/tomtom215/poseidon/internal/models"
)

// minDarkSOG excludes vessels that were effectively stationary.
const minDarkSOG = 0.5

// DarkCandidates returns the latest position of every vessel that last
// reported between now-window and now-gap while moving faster than 0.5 kn.
func (db *DB) DarkCandidates(ctx context.Context, now time.Time, gap, window time.Duration) ([]models.VesselPosition, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	out, err := queryAndScan(ctx, db.conn,
		positionSelect+`
		FROM latest_vessel_positions
		WHERE timestamp < ? AND timestamp > ? AND sog > ?
		ORDER BY mmsi`,
		[]any{now.Add(-gap).UTC(), now.Add(-window).UTC(), minDarkSOG},
		scanPosition)
	timed("dark_candidates", start, err)
	if err != nil {
		return nil, fmt.Errorf("dark candidates: %w", err)
	}
	return out, nil
}

// HasActiveDarkAlert reports whether mmsi has an active alert.
func (db *DB) HasActiveDarkAlert(ctx context.Context, mmsi int64) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var id int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM dark_vessel_alerts WHERE mmsi = ? AND status = 'active' LIMIT 1`, mmsi,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check active alert %d: %w", mmsi, err)
	}
	return true, nil
}

// InsertDarkAlert stores a new active alert and returns its ID.
func (db *DB) InsertDarkAlert(ctx context.Context, a *models.DarkVesselAlert) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var id int64
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO dark_vessel_alerts
			(mmsi, status, last_lat, last_lon, predicted_lat, predicted_lon,
			 last_sog, last_cog, gap_hours, search_radius_nm, last_seen_at, detected_at)
		VALUES (?, 'active', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		a.MMSI, a.LastLat, a.LastLon, a.PredictedLat, a.PredictedLon,
		nullFloat(a.LastSOG), nullFloat(a.LastCOG), a.GapHours, a.SearchRadiusNM,
		a.LastSeen.UTC(), a.DetectedAt.UTC(),
	).Scan(&id)
	timed("insert_dark_alert", start, err)
	if err != nil {
		return 0, fmt.Errorf("insert dark alert %d: %w", a.MMSI, err)
	}
	return id, nil
}

// ResolveDarkAlerts resolves every active alert whose vessel has reported
// since now-gap. Returns the number resolved.
func (db *DB) ResolveDarkAlerts(ctx context.Context, now time.Time, gap time.Duration) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE dark_vessel_alerts SET status = 'resolved', resolved_at = ?
		WHERE status = 'active'
		  AND mmsi IN (SELECT mmsi FROM latest_vessel_positions WHERE timestamp > ?)`,
		now.UTC(), now.Add(-gap).UTC(),
	)
	timed("resolve_dark_alerts", start, err)
	if err != nil {
		return 0, fmt.Errorf("resolve dark alerts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("resolve dark alerts: %w", err)
	}
	return n, nil
}

// DarkAlerts returns alerts with the given status (all when empty), newest
// first.
func (db *DB) DarkAlerts(ctx context.Context, status models.AlertStatus, limit int) ([]models.DarkVesselAlert, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	if limit <= 0 {
		limit = 100
	}

	qb := newQueryBuilder(`
		SELECT id, mmsi, status, last_lat, last_lon, predicted_lat, predicted_lon,
		       last_sog, last_cog, gap_hours, search_radius_nm,
		       last_seen_at, detected_at, resolved_at
		FROM dark_vessel_alerts
		WHERE 1 = 1`)
	if status != "" {
		qb.addFilter(`status = ?`, string(status))
	}
	query, args := qb.addLimit(limit).build(`ORDER BY detected_at DESC, id DESC LIMIT ?`)

	start := time.Now()
	out, err := queryAndScan(ctx, db.conn, query, args, func(row rowScanner) (models.DarkVesselAlert, error) {
		var (
			a        models.DarkVesselAlert
			st       string
			sog, cog sql.NullFloat64
			resolved sql.NullTime
		)
		if err := row.Scan(&a.ID, &a.MMSI, &st, &a.LastLat, &a.LastLon, &a.PredictedLat, &a.PredictedLon,
			&sog, &cog, &a.GapHours, &a.SearchRadiusNM, &a.LastSeen, &a.DetectedAt, &resolved); err != nil {
			return a, err
		}
		a.Status = models.AlertStatus(st)
		a.LastSOG = floatPtr(sog)
		a.LastCOG = floatPtr(cog)
		if resolved.Valid {
			t := resolved.Time
			a.ResolvedAt = &t
		}
		return a, nil
	})
	timed("dark_alerts", start, err)
	if err != nil {
		return nil, fmt.Errorf("dark alerts: %w", err)
	}
	return out, nil
}
