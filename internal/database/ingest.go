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

	"github.com/tomtom215/poseidon/internal/models"
)

// IngestTx is the write surface of one persister batch. Every method runs in
// the same transaction.
type IngestTx struct {
	tx *sql.Tx
}

// Ingest runs fn in a transaction. Any error rolls back the whole batch.
func (db *DB) Ingest(ctx context.Context, fn func(tx *IngestTx) error) error {
	return db.withTx(ctx, "ingest_batch", func(tx *sql.Tx) error {
		return fn(&IngestTx{tx: tx})
	})
}

// LoadVessels returns the stored rows for mmsis, keyed by MMSI. Missing
// vessels are absent from the map.
func (t *IngestTx) LoadVessels(ctx context.Context, mmsis []int64) (map[int64]*models.Vessel, error) {
	out := make(map[int64]*models.Vessel, len(mmsis))
	if len(mmsis) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(mmsis))
	args := make([]any, len(mmsis))
	for i, m := range mmsis {
		placeholders[i] = "?"
		args[i] = m
	}
	query := vesselSelect + ` WHERE mmsi IN (` + strings.Join(placeholders, ",") + `)`

	vessels, err := queryAndScan(ctx, t.tx, query, args, scanVessel)
	if err != nil {
		return nil, fmt.Errorf("load vessels: %w", err)
	}
	for _, v := range vessels {
		out[v.MMSI] = v
	}
	return out, nil
}

// UpsertStatic inserts or merges a static report. Non-null incoming fields
// overwrite; null fields keep the stored value. An unknown ship type never
// replaces a known one.
func (t *IngestTx) UpsertStatic(ctx context.Context, s *models.StaticReport, now time.Time) error {
	var shipType any
	if s.ShipType != nil {
		shipType = string(*s.ShipType)
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO vessels (mmsi, imo, name, callsign, ship_type, ais_type_code,
		                     dim_bow, dim_stern, dim_port, dim_starboard,
		                     destination, eta_month, first_seen, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (mmsi) DO UPDATE SET
			imo = COALESCE(EXCLUDED.imo, imo),
			name = COALESCE(EXCLUDED.name, name),
			callsign = COALESCE(EXCLUDED.callsign, callsign),
			ship_type = CASE
				WHEN EXCLUDED.ship_type IS NULL THEN ship_type
				WHEN EXCLUDED.ship_type = 'unknown' AND ship_type IS NOT NULL THEN ship_type
				ELSE EXCLUDED.ship_type END,
			ais_type_code = COALESCE(EXCLUDED.ais_type_code, ais_type_code),
			dim_bow = COALESCE(EXCLUDED.dim_bow, dim_bow),
			dim_stern = COALESCE(EXCLUDED.dim_stern, dim_stern),
			dim_port = COALESCE(EXCLUDED.dim_port, dim_port),
			dim_starboard = COALESCE(EXCLUDED.dim_starboard, dim_starboard),
			destination = COALESCE(EXCLUDED.destination, destination),
			eta_month = COALESCE(EXCLUDED.eta_month, eta_month),
			updated_at = EXCLUDED.updated_at`,
		s.MMSI, nullInt64(s.IMO), nullString(s.Name), nullString(s.Callsign), shipType,
		nullInt(s.ShipTypeCode),
		nullInt(s.Dimensions.Bow), nullInt(s.Dimensions.Stern),
		nullInt(s.Dimensions.Port), nullInt(s.Dimensions.Starboard),
		nullString(s.Destination), nullInt(s.ETAMonth), now.UTC(), now.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert vessel %d: %w", s.MMSI, err)
	}
	return nil
}

// EnsureVessel creates the vessel row for a position if missing and merges a
// non-null name.
func (t *IngestTx) EnsureVessel(ctx context.Context, mmsi int64, name *string, now time.Time) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO vessels (mmsi, name, first_seen, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (mmsi) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, name),
			updated_at = EXCLUDED.updated_at`,
		mmsi, nullString(name), now.UTC(), now.UTC(),
	)
	if err != nil {
		return fmt.Errorf("ensure vessel %d: %w", mmsi, err)
	}
	return nil
}

// InsertPositions appends positions.
func (t *IngestTx) InsertPositions(ctx context.Context, positions []models.VesselPosition) error {
	if len(positions) == 0 {
		return nil
	}
	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO vessel_positions
			(mmsi, lat, lon, cell, sog, cog, heading, nav_status, rot, receiver_class, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare position insert: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for i := range positions {
		p := &positions[i]
		var nav any
		if p.NavStatus != nil {
			nav = string(*p.NavStatus)
		}
		if _, err := stmt.ExecContext(ctx,
			p.MMSI, p.Lat, p.Lon, p.Cell, nullFloat(p.SOG), nullFloat(p.COG),
			nullInt(p.Heading), nav, nullFloat(p.RateOfTurn),
			string(p.ReceiverClass), p.Timestamp.UTC(),
		); err != nil {
			return fmt.Errorf("insert position for %d: %w", p.MMSI, err)
		}
	}
	return nil
}

// InsertIdentityChanges appends identity change events.
func (t *IngestTx) InsertIdentityChanges(ctx context.Context, events []models.IdentityChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO vessel_identity_history
			(mmsi, name, callsign, imo, ship_type, destination,
			 previous_name, name_edit_distance, changed_fields, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare identity insert: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for i := range events {
		e := &events[i]
		var shipType any
		if e.ShipType != nil {
			shipType = string(*e.ShipType)
		}
		if _, err := stmt.ExecContext(ctx,
			e.MMSI, nullString(e.Name), nullString(e.Callsign), nullInt64(e.IMO), shipType,
			nullString(e.Destination), nullString(e.PreviousName), nullInt(e.NameEditDistance),
			strings.Join(e.ChangedFields, ","), e.ObservedAt.UTC(),
		); err != nil {
			return fmt.Errorf("insert identity change for %d: %w", e.MMSI, err)
		}
	}
	return nil
}

// InsertRawMessages appends forensic rows.
func (t *IngestTx) InsertRawMessages(ctx context.Context, msgs []models.RawMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO ais_raw_messages
			(mmsi, message_type, raw_json, content_hash,
			 flag_impossible_speed, flag_sart_on_non_sar, flag_no_identity, flag_position_jump,
			 prev_distance_nm, implied_speed_knots, receiver_class,
			 lat, lon, sog, timestamp, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare raw message insert: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for i := range msgs {
		m := &msgs[i]
		if _, err := stmt.ExecContext(ctx,
			m.MMSI, string(m.Kind), m.RawJSON, int64(m.ContentHash),
			m.ImpossibleSpeed, m.SARTOnNonSAR, m.NoIdentity, m.PositionJump,
			nullFloat(m.PrevDistanceNM), nullFloat(m.ImpliedSpeedKnots), string(m.ReceiverClass),
			nullFloat(m.Lat), nullFloat(m.Lon), nullFloat(m.SOG),
			m.MessageTimestamp.UTC(), m.ReceivedAt.UTC(),
		); err != nil {
			return fmt.Errorf("insert raw message for %d: %w", m.MMSI, err)
		}
	}
	return nil
}
