// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/poseidon/internal/models"
)

// ForensicMessage is one ais_raw_messages row.
type ForensicMessage struct {
	ID int64 `json:"id"`
	models.RawMessage
}

// ForensicMessages returns raw messages for mmsi with a message timestamp
// after now-hours, newest first. flaggedOnly keeps rows with any flag set.
func (db *DB) ForensicMessages(ctx context.Context, mmsi int64, hours int, flaggedOnly bool, limit int, now time.Time) ([]ForensicMessage, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	if limit <= 0 {
		limit = 200
	}

	qb := newQueryBuilder(`
		SELECT id, mmsi, message_type, raw_json, content_hash,
		       flag_impossible_speed, flag_sart_on_non_sar, flag_no_identity, flag_position_jump,
		       prev_distance_nm, implied_speed_knots, receiver_class,
		       lat, lon, sog, timestamp, received_at
		FROM ais_raw_messages
		WHERE mmsi = ? AND timestamp > ?`,
		mmsi, now.Add(-time.Duration(hours)*time.Hour).UTC())
	if flaggedOnly {
		qb.addFilter(`(flag_impossible_speed OR flag_sart_on_non_sar OR flag_no_identity OR flag_position_jump)`)
	}
	query, args := qb.addLimit(limit).build(`ORDER BY timestamp DESC, id DESC LIMIT ?`)

	start := time.Now()
	out, err := queryAndScan(ctx, db.conn, query, args, func(row rowScanner) (ForensicMessage, error) {
		var (
			m                 ForensicMessage
			kind, receiver    string
			rawJSON           sql.NullString
			hash              sql.NullInt64
			prevDist, implied sql.NullFloat64
			lat, lon, sog     sql.NullFloat64
		)
		if err := row.Scan(&m.ID, &m.MMSI, &kind, &rawJSON, &hash,
			&m.ImpossibleSpeed, &m.SARTOnNonSAR, &m.NoIdentity, &m.PositionJump,
			&prevDist, &implied, &receiver,
			&lat, &lon, &sog, &m.MessageTimestamp, &m.ReceivedAt); err != nil {
			return m, err
		}
		m.Kind = models.RecordKind(kind)
		m.RawJSON = rawJSON.String
		m.ContentHash = uint64(hash.Int64)
		m.PrevDistanceNM = floatPtr(prevDist)
		m.ImpliedSpeedKnots = floatPtr(implied)
		m.ReceiverClass = models.ReceiverClass(receiver)
		m.Lat = floatPtr(lat)
		m.Lon = floatPtr(lon)
		m.SOG = floatPtr(sog)
		return m, nil
	})
	timed("forensic_messages", start, err)
	if err != nil {
		return nil, fmt.Errorf("forensic messages %d: %w", mmsi, err)
	}
	return out, nil
}

// ForensicSummary counts flags and receiver classes for mmsi over the last
// hours. Percentages are of the total and rounded to one decimal.
func (db *DB) ForensicSummary(ctx context.Context, mmsi int64, hours int, now time.Time) (*models.ForensicSummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var total, impossible, sart, noID, jump, terr, sat, unknown int64
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE flag_impossible_speed),
			COUNT(*) FILTER (WHERE flag_sart_on_non_sar),
			COUNT(*) FILTER (WHERE flag_no_identity),
			COUNT(*) FILTER (WHERE flag_position_jump),
			COUNT(*) FILTER (WHERE receiver_class = 'terrestrial'),
			COUNT(*) FILTER (WHERE receiver_class = 'satellite'),
			COUNT(*) FILTER (WHERE receiver_class = 'unknown')
		FROM ais_raw_messages
		WHERE mmsi = ? AND timestamp > ?`,
		mmsi, now.Add(-time.Duration(hours)*time.Hour).UTC(),
	).Scan(&total, &impossible, &sart, &noID, &jump, &terr, &sat, &unknown)
	timed("forensic_summary", start, err)
	if err != nil {
		return nil, fmt.Errorf("forensic summary %d: %w", mmsi, err)
	}

	flags := map[string]int64{
		string(models.AnomalyImpossibleSpeed): impossible,
		string(models.AnomalySARTOnNonSAR):    sart,
		string(models.AnomalyNoIdentity):      noID,
		string(models.AnomalyPositionJump):    jump,
	}
	receivers := map[string]int64{
		string(models.ReceiverTerrestrial): terr,
		string(models.ReceiverSatellite):   sat,
		string(models.ReceiverUnknown):     unknown,
	}
	return &models.ForensicSummary{
		MMSI:            mmsi,
		Hours:           hours,
		Total:           total,
		FlagCounts:      flags,
		FlagPercent:     percentages(flags, total),
		ReceiverCounts:  receivers,
		ReceiverPercent: percentages(receivers, total),
	}, nil
}

func percentages(counts map[string]int64, total int64) map[string]float64 {
	out := make(map[string]float64, len(counts))
	for k, n := range counts {
		if total == 0 {
			out[k] = 0
			continue
		}
		out[k] = math.Round(float64(n)/float64(total)*1000) / 10
	}
	return out
}
