// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/poseidon/internal/models"
)

// sogNoDataMarker is the AIS "speed not available" value 102.3 kn.
const sogNoDataMarker = 102.3

// dedupeSeconds is how close a new signal may be to an existing signal of
// the same vessel and type before it counts as a duplicate.
const dedupeSeconds = 60

// notSignalledNear excludes positions already signalled within dedupeSeconds.
const notSignalledNear = `
	NOT EXISTS (
		SELECT 1 FROM spoof_signals ss
		WHERE ss.mmsi = vp.mmsi AND ss.anomaly_type = ?
		  AND ss.detected_at > ?
		  AND ABS(epoch(ss.detected_at) - epoch(vp.timestamp)) < ?
	)`

// notSignalledSince excludes vessels already signalled in the window.
const notSignalledSince = `
	NOT EXISTS (
		SELECT 1 FROM spoof_signals ss
		WHERE ss.mmsi = vp.mmsi AND ss.anomaly_type = ?
		  AND ss.detected_at > ?
	)`

const vpPositionSelect = `
	SELECT vp.id, vp.mmsi, vp.lat, vp.lon, vp.sog, vp.cog, vp.heading, vp.nav_status, vp.rot,
	       vp.timestamp, vp.cell, vp.receiver_class`

// ImpossibleSpeedPositions returns positions since since with sog above
// threshold, excluding the 102.3 no-data marker and already signalled hits.
func (db *DB) ImpossibleSpeedPositions(ctx context.Context, since time.Time, threshold float64) ([]models.VesselPosition, error) {
	return db.spoofCandidates(ctx, "impossible_speed_candidates", vpPositionSelect+`
		FROM vessel_positions vp
		WHERE vp.timestamp > ?
		  AND vp.sog > ?
		  AND ABS(vp.sog - ?) > 0.1
		  AND`+notSignalledNear+`
		ORDER BY vp.timestamp, vp.id`,
		since.UTC(), threshold, sogNoDataMarker,
		string(models.AnomalyImpossibleSpeed), since.UTC(), dedupeSeconds)
}

// SARTPositions returns positions since since reporting nav status ais_sart
// from vessels whose stored type is not sar. A vessel with no stored type
// counts as not sar.
func (db *DB) SARTPositions(ctx context.Context, since time.Time) ([]models.VesselPosition, error) {
	return db.spoofCandidates(ctx, "sart_candidates", vpPositionSelect+`
		FROM vessel_positions vp
		JOIN vessels v ON v.mmsi = vp.mmsi
		WHERE vp.timestamp > ?
		  AND vp.nav_status = ?
		  AND COALESCE(v.ship_type, 'unknown') != ?
		  AND`+notSignalledSince+`
		ORDER BY vp.timestamp, vp.id`,
		since.UTC(), string(models.NavAISSART), string(models.VesselSAR),
		string(models.AnomalySARTOnNonSAR), since.UTC())
}

// NoIdentityPositions returns positions since since from vessels with no
// name, IMO or callsign.
func (db *DB) NoIdentityPositions(ctx context.Context, since time.Time) ([]models.VesselPosition, error) {
	return db.spoofCandidates(ctx, "no_identity_candidates", vpPositionSelect+`
		FROM vessel_positions vp
		JOIN vessels v ON v.mmsi = vp.mmsi
		WHERE vp.timestamp > ?
		  AND v.name IS NULL AND v.imo IS NULL AND v.callsign IS NULL
		  AND`+notSignalledSince+`
		ORDER BY vp.timestamp, vp.id`,
		since.UTC(), string(models.AnomalyNoIdentity), since.UTC())
}

func (db *DB) spoofCandidates(ctx context.Context, operation, query string, args ...any) ([]models.VesselPosition, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	out, err := queryAndScan(ctx, db.conn, query, args, scanPosition)
	timed(operation, start, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return out, nil
}

// ConsecutivePositions pairs each position since since with the previous
// position of the same vessel in the window, keeping pairs less than maxGap
// apart and not already signalled as a jump.
func (db *DB) ConsecutivePositions(ctx context.Context, since time.Time, maxGap time.Duration) ([]models.PositionPair, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		WITH recent AS (
			SELECT *,
			       LAG(lat) OVER w AS prev_lat,
			       LAG(lon) OVER w AS prev_lon,
			       LAG(timestamp) OVER w AS prev_ts
			FROM vessel_positions
			WHERE timestamp > ?
			WINDOW w AS (PARTITION BY mmsi ORDER BY timestamp, id)
		)` + vpPositionSelect + `, vp.prev_lat, vp.prev_lon, vp.prev_ts
		FROM recent vp
		WHERE vp.prev_ts IS NOT NULL
		  AND epoch(vp.timestamp) - epoch(vp.prev_ts) < ?
		  AND` + notSignalledNear + `
		ORDER BY vp.timestamp, vp.id`

	start := time.Now()
	out, err := queryAndScan(ctx, db.conn, query,
		[]any{since.UTC(), maxGap.Seconds(), string(models.AnomalyPositionJump), since.UTC(), dedupeSeconds},
		func(row rowScanner) (models.PositionPair, error) {
			var (
				pp            models.PositionPair
				sog, cog, rot sql.NullFloat64
				heading       sql.NullInt64
				nav, cell     sql.NullString
				receiver      string
			)
			p := &pp.Current
			if err := row.Scan(&p.ID, &p.MMSI, &p.Lat, &p.Lon, &sog, &cog, &heading, &nav, &rot,
				&p.Timestamp, &cell, &receiver, &pp.PrevLat, &pp.PrevLon, &pp.PrevTimestamp); err != nil {
				return pp, err
			}
			p.SOG = floatPtr(sog)
			p.COG = floatPtr(cog)
			p.RateOfTurn = floatPtr(rot)
			p.Heading = intPtr(heading)
			if nav.Valid {
				n := models.NavStatus(nav.String)
				p.NavStatus = &n
			}
			p.Cell = cell.String
			p.ReceiverClass = models.ReceiverClass(receiver)
			return pp, nil
		})
	timed("consecutive_positions", start, err)
	if err != nil {
		return nil, fmt.Errorf("consecutive positions: %w", err)
	}
	return out, nil
}

// InsertSpoofSignals stores signals in one transaction and returns how many
// were written.
func (db *DB) InsertSpoofSignals(ctx context.Context, signals []models.SpoofSignal) (int, error) {
	if len(signals) == 0 {
		return 0, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err := db.withTx(ctx, "insert_spoof_signals", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO spoof_signals
				(mmsi, anomaly_type, lat, lon, sog, cog, nav_status, details, detected_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare signal insert: %w", err)
		}
		defer closeWithLog(stmt, "prepared statement")

		for i := range signals {
			s := &signals[i]
			details, err := json.Marshal(s.Details)
			if err != nil {
				return fmt.Errorf("encode signal details: %w", err)
			}
			var nav any
			if s.NavStatus != nil {
				nav = string(*s.NavStatus)
			}
			if _, err := stmt.ExecContext(ctx,
				s.MMSI, string(s.AnomalyType), s.Lat, s.Lon,
				nullFloat(s.SOG), nullFloat(s.COG), nav, string(details), s.DetectedAt.UTC(),
			); err != nil {
				return fmt.Errorf("insert %s signal for %d: %w", s.AnomalyType, s.MMSI, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(signals), nil
}

const signalSelect = `
	SELECT id, mmsi, anomaly_type, lat, lon, sog, cog, nav_status, details, detected_at, cluster_id
	FROM spoof_signals`

func scanSignal(row rowScanner) (models.SpoofSignal, error) {
	var (
		s            models.SpoofSignal
		anomaly      string
		sog, cog     sql.NullFloat64
		nav, details sql.NullString
		cluster      sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.MMSI, &anomaly, &s.Lat, &s.Lon, &sog, &cog, &nav, &details,
		&s.DetectedAt, &cluster); err != nil {
		return s, err
	}
	s.AnomalyType = models.AnomalyType(anomaly)
	s.SOG = floatPtr(sog)
	s.COG = floatPtr(cog)
	if nav.Valid {
		n := models.NavStatus(nav.String)
		s.NavStatus = &n
	}
	if details.Valid && details.String != "" && details.String != "null" {
		if err := json.Unmarshal([]byte(details.String), &s.Details); err != nil {
			return s, fmt.Errorf("decode signal %d details: %w", s.ID, err)
		}
	}
	s.ClusterID = int64Ptr(cluster)
	return s, nil
}

// UnclusteredSignals returns every signal without a cluster, oldest first.
func (db *DB) UnclusteredSignals(ctx context.Context) ([]models.SpoofSignal, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	out, err := queryAndScan(ctx, db.conn,
		signalSelect+` WHERE cluster_id IS NULL ORDER BY detected_at, id`, nil, scanSignal)
	timed("unclustered_signals", start, err)
	if err != nil {
		return nil, fmt.Errorf("unclustered signals: %w", err)
	}
	return out, nil
}

// SignalsForCluster returns the members of a cluster, oldest first.
func (db *DB) SignalsForCluster(ctx context.Context, clusterID int64) ([]models.SpoofSignal, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	out, err := queryAndScan(ctx, db.conn,
		signalSelect+` WHERE cluster_id = ? ORDER BY detected_at, id`, []any{clusterID}, scanSignal)
	if err != nil {
		return nil, fmt.Errorf("cluster %d signals: %w", clusterID, err)
	}
	return out, nil
}

// CreateCluster inserts c and links c.SignalIDs to it in one transaction.
// c.ID is set on success.
func (db *DB) CreateCluster(ctx context.Context, c *models.SpoofCluster) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	types := make([]string, len(c.AnomalyTypes))
	for i, t := range c.AnomalyTypes {
		types[i] = string(t)
	}
	status := c.Status
	if status == "" {
		status = models.AlertActive
	}

	return db.withTx(ctx, "create_spoof_cluster", func(tx *sql.Tx) error {
		var id int64
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO spoof_clusters
				(signal_count, centroid_lat, centroid_lon, radius_nm,
				 window_start, window_end, anomaly_types, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			c.SignalCount, c.CentroidLat, c.CentroidLon, c.RadiusNM,
			c.WindowStart.UTC(), c.WindowEnd.UTC(), strings.Join(types, ","),
			string(status), c.CreatedAt.UTC(),
		).Scan(&id); err != nil {
			return fmt.Errorf("insert cluster: %w", err)
		}

		for _, sid := range c.SignalIDs {
			res, err := tx.ExecContext(ctx,
				`UPDATE spoof_signals SET cluster_id = ? WHERE id = ? AND cluster_id IS NULL`, id, sid)
			if err != nil {
				return fmt.Errorf("link signal %d: %w", sid, err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return fmt.Errorf("link signal %d: %w", sid, ErrNotFound)
			}
		}

		c.ID = id
		c.Status = status
		return nil
	})
}

// SpoofClusters returns clusters newest first.
func (db *DB) SpoofClusters(ctx context.Context, limit int) ([]models.SpoofCluster, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	if limit <= 0 {
		limit = 100
	}

	out, err := queryAndScan(ctx, db.conn, `
		SELECT id, signal_count, centroid_lat, centroid_lon, radius_nm,
		       window_start, window_end, anomaly_types, status, created_at
		FROM spoof_clusters
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		[]any{limit},
		func(row rowScanner) (models.SpoofCluster, error) {
			var (
				c             models.SpoofCluster
				types, status string
			)
			if err := row.Scan(&c.ID, &c.SignalCount, &c.CentroidLat, &c.CentroidLon, &c.RadiusNM,
				&c.WindowStart, &c.WindowEnd, &types, &status, &c.CreatedAt); err != nil {
				return c, err
			}
			for _, t := range strings.Split(types, ",") {
				if t != "" {
					c.AnomalyTypes = append(c.AnomalyTypes, models.AnomalyType(t))
				}
			}
			c.Status = models.AlertStatus(status)
			return c, nil
		})
	if err != nil {
		return nil, fmt.Errorf("spoof clusters: %w", err)
	}
	return out, nil
}
