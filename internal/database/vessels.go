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
	"strings"
	"time"

	"github.com/tomtom215/poseidon/internal/models"
)

const vesselSelect = `
	SELECT mmsi, imo, name, callsign, ship_type, ais_type_code,
	       dim_bow, dim_stern, dim_port, dim_starboard,
	       destination, eta_month, first_seen, updated_at
	FROM vessels`

func scanVessel(row rowScanner) (*models.Vessel, error) {
	var (
		v                        models.Vessel
		imo                      sql.NullInt64
		name, callsign, shipType sql.NullString
		typeCode, bow, stern     sql.NullInt64
		port, starboard, eta     sql.NullInt64
		destination              sql.NullString
	)
	if err := row.Scan(
		&v.MMSI, &imo, &name, &callsign, &shipType, &typeCode,
		&bow, &stern, &port, &starboard,
		&destination, &eta, &v.FirstSeen, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	v.IMO = int64Ptr(imo)
	v.Name = stringPtr(name)
	v.Callsign = stringPtr(callsign)
	if shipType.Valid {
		t := models.VesselType(shipType.String)
		v.ShipType = &t
	}
	v.ShipTypeCode = intPtr(typeCode)
	v.Dimensions = models.Dimensions{
		Bow:       intPtr(bow),
		Stern:     intPtr(stern),
		Port:      intPtr(port),
		Starboard: intPtr(starboard),
	}
	v.Destination = stringPtr(destination)
	v.ETAMonth = intPtr(eta)
	return &v, nil
}

// GetVessel returns the vessel row for mmsi.
func (db *DB) GetVessel(ctx context.Context, mmsi int64) (*models.Vessel, bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	v, err := scanVessel(db.conn.QueryRowContext(ctx, vesselSelect+` WHERE mmsi = ?`, mmsi))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get vessel %d: %w", mmsi, err)
	}
	return v, true, nil
}

const positionSelect = `
	SELECT id, mmsi, lat, lon, sog, cog, heading, nav_status, rot,
	       timestamp, cell, receiver_class`

func scanPosition(row rowScanner) (models.VesselPosition, error) {
	var (
		p             models.VesselPosition
		sog, cog, rot sql.NullFloat64
		heading       sql.NullInt64
		nav, cell     sql.NullString
		receiver      string
	)
	if err := row.Scan(&p.ID, &p.MMSI, &p.Lat, &p.Lon, &sog, &cog, &heading, &nav, &rot,
		&p.Timestamp, &cell, &receiver); err != nil {
		return p, err
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
	return p, nil
}

// LatestPosition returns the newest position of mmsi.
func (db *DB) LatestPosition(ctx context.Context, mmsi int64) (*models.VesselPosition, bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	p, err := scanPosition(db.conn.QueryRowContext(ctx,
		positionSelect+` FROM latest_vessel_positions WHERE mmsi = ?`, mmsi))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("latest position %d: %w", mmsi, err)
	}
	return &p, true, nil
}

// RecentlyActiveMMSIs returns every MMSI with a position newer than since.
func (db *DB) RecentlyActiveMMSIs(ctx context.Context, since time.Time) ([]int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	out, err := queryAndScan(ctx, db.conn,
		`SELECT mmsi FROM latest_vessel_positions WHERE timestamp > ? ORDER BY mmsi`,
		[]any{since.UTC()},
		func(row rowScanner) (int64, error) {
			var m int64
			err := row.Scan(&m)
			return m, err
		})
	timed("recently_active", start, err)
	if err != nil {
		return nil, fmt.Errorf("recently active vessels: %w", err)
	}
	return out, nil
}

// IdentityHistory returns up to limit identity change events for mmsi, newest
// first.
func (db *DB) IdentityHistory(ctx context.Context, mmsi int64, limit int) ([]models.IdentityChangeEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	if limit <= 0 {
		limit = 50
	}

	start := time.Now()
	out, err := queryAndScan(ctx, db.conn, `
		SELECT id, mmsi, name, callsign, imo, ship_type, destination,
		       previous_name, name_edit_distance, changed_fields, observed_at
		FROM vessel_identity_history
		WHERE mmsi = ?
		ORDER BY observed_at DESC, id DESC
		LIMIT ?`,
		[]any{mmsi, limit},
		func(row rowScanner) (models.IdentityChangeEvent, error) {
			var (
				e                                    models.IdentityChangeEvent
				name, callsign, shipType, dest, prev sql.NullString
				imo, dist                            sql.NullInt64
				changed                              string
			)
			if err := row.Scan(&e.ID, &e.MMSI, &name, &callsign, &imo, &shipType, &dest,
				&prev, &dist, &changed, &e.ObservedAt); err != nil {
				return e, err
			}
			e.Name = stringPtr(name)
			e.Callsign = stringPtr(callsign)
			e.IMO = int64Ptr(imo)
			if shipType.Valid {
				t := models.VesselType(shipType.String)
				e.ShipType = &t
			}
			e.Destination = stringPtr(dest)
			e.PreviousName = stringPtr(prev)
			e.NameEditDistance = intPtr(dist)
			if changed != "" {
				e.ChangedFields = strings.Split(changed, ",")
			}
			return e, nil
		})
	timed("identity_history", start, err)
	if err != nil {
		return nil, fmt.Errorf("identity history %d: %w", mmsi, err)
	}
	return out, nil
}
