// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package detection

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/poseidon/internal/logging"
	"github.com/tomtom215/poseidon/internal/metrics"
)

// DefaultErrorBackoff is how long a Runner pauses after a failed cycle.
const DefaultErrorBackoff = 10 * time.Second

// RunnerMetrics tracks one detector loop.
type RunnerMetrics struct {
	Cycles        int64
	Errors        int64
	LastRunAt     time.Time
	LastError     string
	LastDuration  time.Duration
	TotalDuration time.Duration
}

// Runner drives a Detector on a fixed interval. The first scan happens one
// interval after start.
type Runner struct {
	detector Detector
	interval time.Duration
	backoff  time.Duration
	now      func() time.Time
	logger   zerolog.Logger

	mu      sync.RWMutex
	metrics RunnerMetrics
}

// NewRunner creates a runner for d.
func NewRunner(d Detector, interval time.Duration) *Runner {
	return &Runner{
		detector: d,
		interval: interval,
		backoff:  DefaultErrorBackoff,
		now:      time.Now,
		logger:   logging.WithDetector("detection-runner", d.Name()),
	}
}

// SetClock replaces the clock that supplies each cycle's now.
func (r *Runner) SetClock(now func() time.Time) {
	r.now = now
}

// SetErrorBackoff overrides DefaultErrorBackoff.
func (r *Runner) SetErrorBackoff(d time.Duration) {
	r.backoff = d
}

// RunWithContext scans every interval until ctx is canceled. A failed cycle
// is logged and followed by the error backoff; the loop never exits on a
// scan error.
func (r *Runner) RunWithContext(ctx context.Context) error {
	r.logger.Info().Dur("interval", r.interval).Msg("Detector starting")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Detector stopped")
			return ctx.Err()
		case <-time.After(r.interval):
		}

		if err := r.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			r.logger.Error().Err(err).Dur("backoff", r.backoff).Msg("Detection cycle failed")
			select {
			case <-ctx.Done():
			case <-time.After(r.backoff):
			}
		}
	}
}

// RunOnce runs a single scan and records its outcome.
func (r *Runner) RunOnce(ctx context.Context) error {
	start := time.Now()
	err := r.detector.Scan(ctx, r.now().UTC())
	elapsed := time.Since(start)
	metrics.RecordDetectorCycle(r.detector.Name(), elapsed, err)

	r.mu.Lock()
	r.metrics.Cycles++
	r.metrics.LastRunAt = start
	r.metrics.LastDuration = elapsed
	r.metrics.TotalDuration += elapsed
	if err != nil {
		r.metrics.Errors++
		r.metrics.LastError = err.Error()
	}
	r.mu.Unlock()
	return err
}

// Metrics returns a copy of the runner metrics.
func (r *Runner) Metrics() RunnerMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metrics
}

// Name returns the wrapped detector's name.
func (r *Runner) Name() string {
	return r.detector.Name()
}
