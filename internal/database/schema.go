// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

/*
schema.go - Database Schema Management

Tables:
  - vessels: one row per MMSI, identity fields merged per field
  - vessel_positions: append-only position log
  - ais_raw_messages: append-only forensic shadow of every decoded message
  - vessel_identity_history: append-only identity change events
  - dark_vessel_alerts: active/resolved dark-vessel alerts
  - spoof_signals: spoof anomalies, linked to a cluster once grouped
  - spoof_clusters: temporal clusters of spoof signals
  - signal_fusion_results: append-only fusion snapshots

Evidence tables written by external collaborators:
  - sar_vessel_matches, viirs_anomalies, acoustic_events

Columns that are updated after insert (alert status, cluster links) are left
unindexed; DuckDB rewrites indexed rows on update.
*/

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates sequences, tables and the latest-position view.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_vessel_positions START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_ais_raw_messages START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_identity_history START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_dark_alerts START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_spoof_signals START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_spoof_clusters START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_fusion_results START 1`,

		`CREATE TABLE IF NOT EXISTS vessels (
			mmsi BIGINT PRIMARY KEY,
			imo BIGINT,
			name TEXT,
			callsign TEXT,
			ship_type TEXT,
			ais_type_code INTEGER,
			dim_bow INTEGER,
			dim_stern INTEGER,
			dim_port INTEGER,
			dim_starboard INTEGER,
			destination TEXT,
			eta_month INTEGER,
			first_seen TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS vessel_positions (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_vessel_positions'),
			mmsi BIGINT NOT NULL,
			lat DOUBLE NOT NULL,
			lon DOUBLE NOT NULL,
			cell TEXT,
			sog DOUBLE,
			cog DOUBLE,
			heading INTEGER,
			nav_status TEXT,
			rot DOUBLE,
			receiver_class TEXT NOT NULL DEFAULT 'unknown',
			timestamp TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS ais_raw_messages (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_ais_raw_messages'),
			mmsi BIGINT NOT NULL,
			message_type TEXT NOT NULL,
			raw_json TEXT,
			content_hash BIGINT, -- xxh3 bits, read back as uint64
			flag_impossible_speed BOOLEAN NOT NULL DEFAULT false,
			flag_sart_on_non_sar BOOLEAN NOT NULL DEFAULT false,
			flag_no_identity BOOLEAN NOT NULL DEFAULT false,
			flag_position_jump BOOLEAN NOT NULL DEFAULT false,
			prev_distance_nm DOUBLE,
			implied_speed_knots DOUBLE,
			receiver_class TEXT NOT NULL DEFAULT 'unknown',
			lat DOUBLE,
			lon DOUBLE,
			sog DOUBLE,
			timestamp TIMESTAMP NOT NULL,
			received_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS vessel_identity_history (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_identity_history'),
			mmsi BIGINT NOT NULL,
			name TEXT,
			callsign TEXT,
			imo BIGINT,
			ship_type TEXT,
			destination TEXT,
			previous_name TEXT,
			name_edit_distance INTEGER,
			changed_fields TEXT NOT NULL,
			observed_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS dark_vessel_alerts (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_dark_alerts'),
			mmsi BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			last_lat DOUBLE NOT NULL,
			last_lon DOUBLE NOT NULL,
			predicted_lat DOUBLE NOT NULL,
			predicted_lon DOUBLE NOT NULL,
			last_sog DOUBLE,
			last_cog DOUBLE,
			gap_hours DOUBLE NOT NULL,
			search_radius_nm DOUBLE NOT NULL,
			last_seen_at TIMESTAMP NOT NULL,
			detected_at TIMESTAMP NOT NULL,
			resolved_at TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS spoof_signals (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_spoof_signals'),
			mmsi BIGINT NOT NULL,
			anomaly_type TEXT NOT NULL,
			lat DOUBLE NOT NULL,
			lon DOUBLE NOT NULL,
			sog DOUBLE,
			cog DOUBLE,
			nav_status TEXT,
			details TEXT,
			detected_at TIMESTAMP NOT NULL,
			cluster_id BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS spoof_clusters (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_spoof_clusters'),
			signal_count INTEGER NOT NULL,
			centroid_lat DOUBLE NOT NULL,
			centroid_lon DOUBLE NOT NULL,
			radius_nm DOUBLE NOT NULL,
			window_start TIMESTAMP NOT NULL,
			window_end TIMESTAMP NOT NULL,
			anomaly_types TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS signal_fusion_results (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_fusion_results'),
			mmsi BIGINT NOT NULL,
			ais_confidence DOUBLE NOT NULL,
			sar_confidence DOUBLE NOT NULL,
			viirs_confidence DOUBLE NOT NULL,
			acoustic_confidence DOUBLE NOT NULL,
			posterior_score DOUBLE NOT NULL,
			classification TEXT NOT NULL,
			evidence TEXT,
			timestamp TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS sar_vessel_matches (
			mmsi BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS viirs_anomalies (
			lat DOUBLE NOT NULL,
			lon DOUBLE NOT NULL,
			observation_date DATE NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS acoustic_events (
			correlated_mmsi BIGINT,
			correlation_confidence DOUBLE,
			event_time TIMESTAMP NOT NULL
		)`,

		`CREATE OR REPLACE VIEW latest_vessel_positions AS
			SELECT *
			FROM vessel_positions
			QUALIFY ROW_NUMBER() OVER (PARTITION BY mmsi ORDER BY timestamp DESC, id DESC) = 1`,
	}
}

// createIndexes creates lookup indexes on append-only columns.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range indexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}
	return nil
}

func indexQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_positions_mmsi_ts ON vessel_positions(mmsi, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_ts ON vessel_positions(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_raw_mmsi_ts ON ais_raw_messages(mmsi, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_identity_mmsi ON vessel_identity_history(mmsi, observed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_fusion_mmsi_ts ON signal_fusion_results(mmsi, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_sar_matches_mmsi ON sar_vessel_matches(mmsi, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_acoustic_mmsi ON acoustic_events(correlated_mmsi, event_time)`,
	}
}
