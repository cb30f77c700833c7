// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package fusion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/poseidon/internal/config"
	"github.com/tomtom215/poseidon/internal/database"
	"github.com/tomtom215/poseidon/internal/models"
)

// testDBSemaphore serializes DuckDB use across tests in this package.
var testDBSemaphore = make(chan struct{}, 1)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insertPosition(t *testing.T, db *database.DB, mmsi int64, at time.Time) {
	t.Helper()
	ctx := context.Background()
	err := db.Ingest(ctx, func(tx *database.IngestTx) error {
		if err := tx.EnsureVessel(ctx, mmsi, nil, at); err != nil {
			return err
		}
		return tx.InsertPositions(ctx, []models.VesselPosition{{
			MMSI: mmsi, Lat: 50, Lon: 1, SOG: ptr(8.0), Timestamp: at, ReceiverClass: models.ReceiverUnknown,
		}})
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
}

func TestScore(t *testing.T) {
	ev := &models.FusionEvidence{
		MMSI:                  1,
		LastPositionAt:        ptr(t0.Add(-5 * time.Minute)),
		SARMatches:            4,
		VIIRSAnomalies:        4,
		AcousticEvents:        2,
		AcousticMaxConfidence: ptr(0.8),
	}
	r := Score(ev, t0)
	if r.AISConfidence != 0.85 || !approx(r.SARConfidence, 0.9) || !approx(r.VIIRSConfidence, 0.8) ||
		!approx(r.AcousticConfidence, 0.85) {
		t.Errorf("confidences = %+v", r)
	}
	if r.Classification != models.ClassConfirmed || r.Posterior < 0.99 {
		t.Errorf("posterior = %v (%s)", r.Posterior, r.Classification)
	}
	if !r.ComputedAt.Equal(t0) || r.Evidence.SARMatches != 4 {
		t.Errorf("result = %+v", r)
	}
}

func TestEngine_ComputeAndHistory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	const mmsi = 235000001

	insertPosition(t, db, mmsi, t0.Add(-10*time.Minute))
	if err := db.RecordSARMatch(ctx, mmsi, t0.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	e := NewEngine(db, Config{})
	e.SetClock(func() time.Time { return t0 })

	r, err := e.Compute(ctx, mmsi)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if r.ID == 0 {
		t.Error("result ID not set")
	}
	if r.AISConfidence != 0.85 || !approx(r.SARConfidence, 0.6) || r.VIIRSConfidence != 0.1 || r.AcousticConfidence != 0.1 {
		t.Errorf("confidences = ais %v sar %v viirs %v acoustic %v",
			r.AISConfidence, r.SARConfidence, r.VIIRSConfidence, r.AcousticConfidence)
	}
	want := Posterior(0.85, 0.6, 0.1, 0.1)
	if !approx(r.Posterior, want) || r.Classification != models.ClassLowConfidence {
		t.Errorf("posterior = %v (%s), want %v", r.Posterior, r.Classification, want)
	}

	e.SetClock(func() time.Time { return t0.Add(time.Minute) })
	if _, err := e.Compute(ctx, mmsi); err != nil {
		t.Fatal(err)
	}

	history, err := e.History(ctx, mmsi, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d rows", len(history))
	}
	if history[1].ID != r.ID || !history[0].ComputedAt.After(history[1].ComputedAt) {
		t.Errorf("history not newest first: %+v", history)
	}
	if history[1].Evidence.SARMatches != 1 {
		t.Errorf("evidence = %+v", history[1].Evidence)
	}
}

func TestEngine_InvalidMMSI(t *testing.T) {
	e := NewEngine(&fakeStore{}, Config{})
	if _, err := e.Compute(context.Background(), 0); !errors.Is(err, models.ErrInvalidMMSI) {
		t.Errorf("Compute(0) = %v", err)
	}
	if _, err := e.History(context.Background(), 1_000_000_000, 5); !errors.Is(err, models.ErrInvalidMMSI) {
		t.Errorf("History = %v", err)
	}
}

type fakeStore struct {
	active   []int64
	failing  map[int64]bool
	inserted []models.FusionResult
	since    time.Time
}

func (f *fakeStore) FusionEvidence(_ context.Context, mmsi int64, _ time.Time) (*models.FusionEvidence, error) {
	if f.failing[mmsi] {
		return nil, errors.New("query failed")
	}
	return &models.FusionEvidence{MMSI: mmsi}, nil
}

func (f *fakeStore) InsertFusionResult(_ context.Context, r *models.FusionResult) error {
	r.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, *r)
	return nil
}

func (f *fakeStore) FusionHistory(context.Context, int64, int) ([]models.FusionResult, error) {
	return f.inserted, nil
}

func (f *fakeStore) RecentlyActiveMMSIs(_ context.Context, since time.Time) ([]int64, error) {
	f.since = since
	return f.active, nil
}

func TestEngine_RunBatch(t *testing.T) {
	store := &fakeStore{active: []int64{1, 2, 3}, failing: map[int64]bool{2: true}}
	e := NewEngine(store, Config{ActiveWindow: 30 * time.Minute})
	e.SetClock(func() time.Time { return t0 })

	n, err := e.RunBatch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || len(store.inserted) != 2 {
		t.Errorf("computed %d, inserted %d", n, len(store.inserted))
	}
	if !store.since.Equal(t0.Add(-30 * time.Minute)) {
		t.Errorf("since = %v", store.since)
	}
	for _, r := range store.inserted {
		if r.AISConfidence != AISFloor {
			t.Errorf("vessel %d ais = %v", r.MMSI, r.AISConfidence)
		}
	}
}

func TestEngine_RunWithContextDisabled(t *testing.T) {
	store := &fakeStore{active: []int64{1}}
	e := NewEngine(store, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := e.RunWithContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunWithContext = %v", err)
	}
	if len(store.inserted) != 0 {
		t.Errorf("disabled loop computed %d results", len(store.inserted))
	}
}
