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

func TestFusionEvidence(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := baseTime.Add(24 * time.Hour)
	const mmsi = 700000001

	ev, err := db.FusionEvidence(ctx, mmsi, now)
	if err != nil {
		t.Fatalf("FusionEvidence (empty): %v", err)
	}
	if ev.LastPositionAt != nil || ev.SARMatches != 0 || ev.AcousticMaxConfidence != nil {
		t.Errorf("empty evidence = %+v", ev)
	}

	insertPosition(t, db, models.VesselPosition{MMSI: mmsi, Lat: 20, Lon: 30, Timestamp: now.Add(-time.Hour)})
	steps := []error{
		db.RecordSARMatch(ctx, mmsi, now.Add(-2*24*time.Hour)),
		db.RecordSARMatch(ctx, mmsi, now.Add(-10*24*time.Hour)), // too old
		db.RecordVIIRSAnomaly(ctx, 20.1, 30.1, now.Add(-24*time.Hour)),
		db.RecordVIIRSAnomaly(ctx, 22, 30, now.Add(-24*time.Hour)), // ~120 nm away
		db.RecordAcousticEvent(ctx, mmsi, ptr(0.4), now.Add(-time.Hour)),
		db.RecordAcousticEvent(ctx, mmsi, ptr(0.9), now.Add(-2*time.Hour)),
		db.RecordAcousticEvent(ctx, 999, ptr(1.0), now.Add(-time.Hour)),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("evidence row %d: %v", i, err)
		}
	}

	ev, err = db.FusionEvidence(ctx, mmsi, now)
	if err != nil {
		t.Fatalf("FusionEvidence: %v", err)
	}
	if ev.LastPositionAt == nil || !ev.LastPositionAt.Equal(now.Add(-time.Hour)) {
		t.Errorf("last position at = %v", ev.LastPositionAt)
	}
	if ev.SARMatches != 1 {
		t.Errorf("sar matches = %d, want 1", ev.SARMatches)
	}
	if ev.VIIRSAnomalies != 1 {
		t.Errorf("viirs anomalies = %d, want 1", ev.VIIRSAnomalies)
	}
	if ev.AcousticEvents != 2 || ev.AcousticMaxConfidence == nil || *ev.AcousticMaxConfidence != 0.9 {
		t.Errorf("acoustic = %d / %v", ev.AcousticEvents, ev.AcousticMaxConfidence)
	}
}

func TestFusionHistory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	const mmsi = 700000002

	for i := 0; i < 3; i++ {
		r := &models.FusionResult{
			MMSI:           mmsi,
			AISConfidence:  0.7,
			Posterior:      0.1 * float64(i+1),
			Classification: models.ClassLowConfidence,
			Evidence:       models.FusionEvidence{MMSI: mmsi, SARMatches: i},
			ComputedAt:     baseTime.Add(time.Duration(i) * time.Minute),
		}
		if err := db.InsertFusionResult(ctx, r); err != nil {
			t.Fatalf("InsertFusionResult: %v", err)
		}
		if r.ID == 0 {
			t.Fatal("ID not set")
		}
	}

	hist, err := db.FusionHistory(ctx, mmsi, 2)
	if err != nil {
		t.Fatalf("FusionHistory: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("history = %d, want 2", len(hist))
	}
	if hist[0].Evidence.SARMatches != 2 || !hist[0].ComputedAt.Equal(baseTime.Add(2*time.Minute)) {
		t.Errorf("newest = %+v", hist[0])
	}
	if hist[0].Posterior < hist[1].Posterior {
		t.Errorf("history not newest first")
	}

	none, err := db.FusionHistory(ctx, 1, 0)
	if err != nil || len(none) != 0 {
		t.Errorf("empty history = %d, %v", len(none), err)
	}
}
