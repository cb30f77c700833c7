// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package fusion

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/poseidon/internal/database"
	"github.com/tomtom215/poseidon/internal/logging"
	"github.com/tomtom215/poseidon/internal/metrics"
	"github.com/tomtom215/poseidon/internal/models"
)

// DefaultHistoryLimit is used when History is called with limit <= 0.
const DefaultHistoryLimit = 20

// Store is the persistence used by Engine.
type Store interface {
	FusionEvidence(ctx context.Context, mmsi int64, now time.Time) (*models.FusionEvidence, error)
	InsertFusionResult(ctx context.Context, r *models.FusionResult) error
	FusionHistory(ctx context.Context, mmsi int64, limit int) ([]models.FusionResult, error)
	RecentlyActiveMMSIs(ctx context.Context, since time.Time) ([]int64, error)
}

var _ Store = (*database.DB)(nil)

// Config configures the batch loop.
type Config struct {
	// BatchInterval is the period of the batch pass; 0 disables it.
	BatchInterval time.Duration

	// ActiveWindow selects vessels with a position this recent.
	ActiveWindow time.Duration
}

// Engine computes fused trust scores on demand and, optionally, for every
// recently active vessel on a fixed interval.
type Engine struct {
	store  Store
	cfg    Config
	now    func() time.Time
	logger zerolog.Logger
}

// NewEngine creates an engine backed by store.
func NewEngine(store Store, cfg Config) *Engine {
	if cfg.ActiveWindow <= 0 {
		cfg.ActiveWindow = time.Hour
	}
	return &Engine{
		store:  store,
		cfg:    cfg,
		now:    time.Now,
		logger: logging.WithComponent("fusion"),
	}
}

// SetClock replaces the clock used for evidence windows and ComputedAt.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Compute gathers evidence for mmsi, scores it and appends the result.
func (e *Engine) Compute(ctx context.Context, mmsi int64) (*models.FusionResult, error) {
	if err := models.ValidateMMSI(mmsi); err != nil {
		return nil, err
	}
	now := e.now().UTC()

	ev, err := e.store.FusionEvidence(ctx, mmsi, now)
	if err != nil {
		return nil, fmt.Errorf("gather evidence: %w", err)
	}
	r := Score(ev, now)
	if err := e.store.InsertFusionResult(ctx, r); err != nil {
		return nil, fmt.Errorf("store fusion result: %w", err)
	}
	metrics.RecordFusion(string(r.Classification), r.Posterior)

	logging.Vessel(e.logger, mmsi).Debug().
		Float64("posterior", r.Posterior).
		Str("classification", string(r.Classification)).
		Msg("Fusion computed")
	return r, nil
}

// Score turns evidence into an unsaved result computed at now.
func Score(ev *models.FusionEvidence, now time.Time) *models.FusionResult {
	r := &models.FusionResult{
		MMSI:               ev.MMSI,
		AISConfidence:      AISConfidence(ev.LastPositionAt, now),
		SARConfidence:      SARConfidence(ev.SARMatches),
		VIIRSConfidence:    VIIRSConfidence(ev.VIIRSAnomalies),
		AcousticConfidence: AcousticConfidence(ev.AcousticEvents, ev.AcousticMaxConfidence),
		Evidence:           *ev,
		ComputedAt:         now,
	}
	r.Posterior = Posterior(r.AISConfidence, r.SARConfidence, r.VIIRSConfidence, r.AcousticConfidence)
	r.Classification = Classify(r.Posterior)
	return r
}

// History returns up to limit results for mmsi, newest first.
func (e *Engine) History(ctx context.Context, mmsi int64, limit int) ([]models.FusionResult, error) {
	if err := models.ValidateMMSI(mmsi); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return e.store.FusionHistory(ctx, mmsi, limit)
}

// RunBatch computes a result for every vessel seen within ActiveWindow and
// returns how many succeeded. A failing vessel is logged and skipped.
func (e *Engine) RunBatch(ctx context.Context) (int, error) {
	mmsis, err := e.store.RecentlyActiveMMSIs(ctx, e.now().UTC().Add(-e.cfg.ActiveWindow))
	if err != nil {
		return 0, fmt.Errorf("list active vessels: %w", err)
	}

	done := 0
	for _, mmsi := range mmsis {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if _, err := e.Compute(ctx, mmsi); err != nil {
			logging.Vessel(e.logger, mmsi).Warn().Err(err).Msg("Fusion failed")
			continue
		}
		done++
	}
	return done, nil
}

// RunWithContext runs RunBatch every BatchInterval until ctx is canceled.
// With the loop disabled it only waits for ctx.
func (e *Engine) RunWithContext(ctx context.Context) error {
	if e.cfg.BatchInterval <= 0 {
		e.logger.Info().Msg("Fusion batch disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	e.logger.Info().
		Dur("interval", e.cfg.BatchInterval).
		Dur("active_window", e.cfg.ActiveWindow).
		Msg("Fusion batch started")

	ticker := time.NewTicker(e.cfg.BatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			n, err := e.RunBatch(ctx)
			switch {
			case ctx.Err() != nil:
				return ctx.Err()
			case err != nil:
				e.logger.Error().Err(err).Msg("Fusion batch failed")
			default:
				e.logger.Info().Int("vessels", n).Dur("duration", time.Since(start)).Msg("Fusion batch complete")
			}
		}
	}
}
