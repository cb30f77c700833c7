// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package database

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/poseidon/internal/models"
)

func TestDarkCandidates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := baseTime.Add(24 * time.Hour)

	// Moving vessel silent for 3h: candidate.
	insertPosition(t, db, models.VesselPosition{MMSI: 500000001, Lat: 10, Lon: 10, SOG: ptr(12.0), Timestamp: now.Add(-3 * time.Hour)})
	// Stationary vessel silent for 3h: excluded.
	insertPosition(t, db, models.VesselPosition{MMSI: 500000002, Lat: 10, Lon: 10, SOG: ptr(0.2), Timestamp: now.Add(-3 * time.Hour)})
	// Reported recently: excluded.
	insertPosition(t, db, models.VesselPosition{MMSI: 500000003, Lat: 10, Lon: 10, SOG: ptr(12.0), Timestamp: now.Add(-time.Hour)})
	// Silent beyond the active window: excluded.
	insertPosition(t, db, models.VesselPosition{MMSI: 500000004, Lat: 10, Lon: 10, SOG: ptr(12.0), Timestamp: now.Add(-30 * time.Hour)})

	got, err := db.DarkCandidates(ctx, now, 2*time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("DarkCandidates: %v", err)
	}
	if len(got) != 1 || got[0].MMSI != 500000001 {
		t.Errorf("candidates = %+v", got)
	}
}

func TestDarkAlertLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := baseTime.Add(24 * time.Hour)

	insertPosition(t, db, models.VesselPosition{MMSI: 500000010, Lat: 0, Lon: 0, SOG: ptr(10.0), Timestamp: now.Add(-3 * time.Hour)})

	active, err := db.HasActiveDarkAlert(ctx, 500000010)
	if err != nil || active {
		t.Fatalf("HasActiveDarkAlert before insert = %v, %v", active, err)
	}

	id, err := db.InsertDarkAlert(ctx, &models.DarkVesselAlert{
		MMSI: 500000010, LastLat: 0, LastLon: 0, PredictedLat: 0, PredictedLon: 0.5,
		LastSOG: ptr(10.0), LastCOG: ptr(90.0), GapHours: 3, SearchRadiusNM: 15,
		LastSeen: now.Add(-3 * time.Hour), DetectedAt: now,
	})
	if err != nil || id == 0 {
		t.Fatalf("InsertDarkAlert = %d, %v", id, err)
	}
	if active, _ := db.HasActiveDarkAlert(ctx, 500000010); !active {
		t.Fatal("alert not active after insert")
	}

	// No new report: nothing resolves.
	n, err := db.ResolveDarkAlerts(ctx, now, 2*time.Hour)
	if err != nil || n != 0 {
		t.Fatalf("ResolveDarkAlerts = %d, %v", n, err)
	}

	insertPosition(t, db, models.VesselPosition{MMSI: 500000010, Lat: 0, Lon: 0.4, SOG: ptr(10.0), Timestamp: now.Add(10 * time.Minute)})
	later := now.Add(15 * time.Minute)
	n, err = db.ResolveDarkAlerts(ctx, later, 2*time.Hour)
	if err != nil || n != 1 {
		t.Fatalf("ResolveDarkAlerts after report = %d, %v", n, err)
	}
	if active, _ := db.HasActiveDarkAlert(ctx, 500000010); active {
		t.Error("alert still active after resolve")
	}

	alerts, err := db.DarkAlerts(ctx, models.AlertResolved, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 {
		t.Fatalf("resolved alerts = %d, want 1", len(alerts))
	}
	a := alerts[0]
	if a.ResolvedAt == nil || !a.ResolvedAt.Equal(later) {
		t.Errorf("resolved_at = %v, want %v", a.ResolvedAt, later)
	}
	if a.LastCOG == nil || *a.LastCOG != 90 || a.PredictedLon != 0.5 {
		t.Errorf("alert = %+v", a)
	}

	if all, err := db.DarkAlerts(ctx, "", 10); err != nil || len(all) != 1 {
		t.Errorf("DarkAlerts(all) = %d, %v", len(all), err)
	}
	if act, err := db.DarkAlerts(ctx, models.AlertActive, 10); err != nil || len(act) != 0 {
		t.Errorf("DarkAlerts(active) = %d, %v", len(act), err)
	}
}
