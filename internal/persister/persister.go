// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package persister

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/tomtom215/poseidon/internal/database"
	"github.com/tomtom215/poseidon/internal/geo"
	"github.com/tomtom215/poseidon/internal/logging"
	"github.com/tomtom215/poseidon/internal/metrics"
	"github.com/tomtom215/poseidon/internal/models"
	"github.com/tomtom215/poseidon/internal/wal"
)

// Queue is the durable buffer drained by the persister. Implemented by
// *wal.Queue.
type Queue interface {
	DequeueBatch(ctx context.Context, n int) ([]wal.Entry, int, error)
	DeadLetter(ctx context.Context, entries []wal.Entry, reason string) (string, error)
	Len() int64
	DLQLen() int64
}

// Store runs a batch inside one transaction. Implemented by *database.DB.
type Store interface {
	Ingest(ctx context.Context, fn func(tx *database.IngestTx) error) error
}

// Config configures a Persister.
type Config struct {
	FlushInterval        time.Duration
	BatchSize            int
	ImpossibleSpeedKnots float64
}

// Stats holds runtime counters for monitoring.
type Stats struct {
	Flushes       int64
	Records       int64
	Failures      int64
	DeadLettered  int64
	Undecodable   int64
	LastFlushTime time.Time
	LastError     string
}

// Persister moves records from the durable queue into DuckDB in batches.
// Each batch is written in a single transaction; a failed batch is moved to
// the dead-letter keyspace and the next cycle carries on.
type Persister struct {
	queue      Queue
	store      Store
	classifier *geo.Classifier
	cfg        Config
	now        func() time.Time
	logger     zerolog.Logger

	flushes       atomic.Int64
	records       atomic.Int64
	failures      atomic.Int64
	deadLettered  atomic.Int64
	undecodable   atomic.Int64
	lastFlushTime atomic.Value // time.Time
	lastError     atomic.Value // string
}

// New creates a Persister. A nil classifier leaves every receiver unknown.
func New(queue Queue, store Store, classifier *geo.Classifier, cfg Config) (*Persister, error) {
	if queue == nil || store == nil {
		return nil, errors.New("persister: queue and store are required")
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.ImpossibleSpeedKnots <= 0 {
		cfg.ImpossibleSpeedKnots = 50
	}
	p := &Persister{
		queue:      queue,
		store:      store,
		classifier: classifier,
		cfg:        cfg,
		now:        time.Now,
		logger:     logging.WithComponent("persister"),
	}
	p.lastFlushTime.Store(time.Time{})
	p.lastError.Store("")
	return p, nil
}

// SetClock replaces the wall clock used for updated_at and received_at.
func (p *Persister) SetClock(now func() time.Time) {
	p.now = now
}

// RunWithContext flushes every FlushInterval until ctx is canceled.
func (p *Persister) RunWithContext(ctx context.Context) error {
	p.logger.Info().
		Dur("flush_interval", p.cfg.FlushInterval).
		Int("batch_size", p.cfg.BatchSize).
		Msg("Batch persister started")

	ticker := time.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s := p.Stats()
			p.logger.Info().
				Str("records", humanize.Comma(s.Records)).
				Int64("flushes", s.Flushes).
				Int64("failures", s.Failures).
				Msg("Batch persister stopped")
			return ctx.Err()
		case <-ticker.C:
			// Failures are already logged and dead-lettered.
			_, _ = p.Flush(ctx)
		}
	}
}

// Flush runs one cycle and returns the number of records written.
func (p *Persister) Flush(ctx context.Context) (int, error) {
	entries, skipped, err := p.queue.DequeueBatch(ctx, p.cfg.BatchSize)
	if err != nil {
		if errors.Is(err, wal.ErrQueueClosed) || ctx.Err() != nil {
			return 0, err
		}
		p.recordError(err)
		p.logger.Error().Err(err).Msg("Dequeue failed")
		return 0, fmt.Errorf("dequeue: %w", err)
	}
	if skipped > 0 {
		p.undecodable.Add(int64(skipped))
		for range skipped {
			metrics.RecordDropped("corrupt_entry")
		}
	}
	if len(entries) == 0 {
		return 0, nil
	}

	start := time.Now()
	items, undecodable := decodeEntries(entries)
	if undecodable > 0 {
		p.undecodable.Add(int64(undecodable))
		for range undecodable {
			metrics.RecordDropped("undecodable_entry")
		}
		p.logger.Warn().Int("count", undecodable).Msg("Dropped undecodable queue entries")
	}

	var pl *plan
	err = p.store.Ingest(ctx, func(tx *database.IngestTx) error {
		var err error
		pl, err = p.write(ctx, tx, items)
		return err
	})
	metrics.RecordFlush(time.Since(start), len(entries), err)
	p.flushes.Add(1)

	if err != nil {
		p.recordError(err)
		p.deadLetter(ctx, entries, err)
		return 0, fmt.Errorf("persist batch: %w", err)
	}

	p.lastFlushTime.Store(p.now())
	p.records.Add(int64(len(items)))
	metrics.RecordPersisted("vessels", len(pl.statics)+len(pl.vessels))
	metrics.RecordPersisted("vessel_positions", len(pl.positions))
	metrics.RecordPersisted("vessel_identity_history", len(pl.changes))
	metrics.RecordPersisted("ais_raw_messages", len(pl.raw))
	countFlags(pl.raw)

	p.logger.Debug().
		Int("positions", len(pl.positions)).
		Int("statics", len(pl.statics)).
		Int("identity_changes", len(pl.changes)).
		Str("queue_depth", humanize.Comma(p.queue.Len())).
		Dur("duration", time.Since(start)).
		Msg("Flushed batch")
	return len(items), nil
}

// write performs every insert of a batch inside tx.
func (p *Persister) write(ctx context.Context, tx *database.IngestTx, items []item) (*plan, error) {
	stored, err := tx.LoadVessels(ctx, mmsisOf(items))
	if err != nil {
		return nil, err
	}
	now := p.now().UTC()
	pl := (&planner{
		stored:         stored,
		classifier:     p.classifier,
		speedThreshold: p.cfg.ImpossibleSpeedKnots,
		now:            now,
	}).build(items)

	for _, s := range pl.statics {
		if err := tx.UpsertStatic(ctx, s, now); err != nil {
			return nil, err
		}
	}
	if err := tx.InsertIdentityChanges(ctx, pl.changes); err != nil {
		return nil, err
	}
	for _, v := range pl.vessels {
		if err := tx.EnsureVessel(ctx, v.mmsi, v.name, now); err != nil {
			return nil, err
		}
	}
	if err := tx.InsertPositions(ctx, pl.positions); err != nil {
		return nil, err
	}
	if err := tx.InsertRawMessages(ctx, pl.raw); err != nil {
		return nil, err
	}
	return pl, nil
}

// deadLetter moves a failed batch to the DLQ. It runs even when ctx is
// canceled so a shutdown mid-flush does not lose the dequeued entries.
func (p *Persister) deadLetter(ctx context.Context, entries []wal.Entry, cause error) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	batchID, err := p.queue.DeadLetter(dctx, entries, cause.Error())
	if err != nil {
		p.logger.Error().Err(err).AnErr("cause", cause).
			Int("entries", len(entries)).
			Msg("Batch lost: dead-letter write failed")
		return
	}
	p.deadLettered.Add(int64(len(entries)))
	p.logger.Error().Err(cause).
		Str("batch_id", batchID).
		Int("entries", len(entries)).
		Int64("dlq_depth", p.queue.DLQLen()).
		Msg("Batch persist failed, moved to dead-letter queue")
}

func (p *Persister) recordError(err error) {
	p.failures.Add(1)
	p.lastError.Store(err.Error())
}

// Stats returns a snapshot of the counters.
func (p *Persister) Stats() Stats {
	s := Stats{
		Flushes:      p.flushes.Load(),
		Records:      p.records.Load(),
		Failures:     p.failures.Load(),
		DeadLettered: p.deadLettered.Load(),
		Undecodable:  p.undecodable.Load(),
	}
	if t, ok := p.lastFlushTime.Load().(time.Time); ok {
		s.LastFlushTime = t
	}
	if e, ok := p.lastError.Load().(string); ok {
		s.LastError = e
	}
	return s
}

func countFlags(raw []models.RawMessage) {
	for i := range raw {
		m := &raw[i]
		if m.ImpossibleSpeed {
			metrics.RawMessageFlags.WithLabelValues(string(models.AnomalyImpossibleSpeed)).Inc()
		}
		if m.SARTOnNonSAR {
			metrics.RawMessageFlags.WithLabelValues(string(models.AnomalySARTOnNonSAR)).Inc()
		}
		if m.NoIdentity {
			metrics.RawMessageFlags.WithLabelValues(string(models.AnomalyNoIdentity)).Inc()
		}
		if m.PositionJump {
			metrics.RawMessageFlags.WithLabelValues(string(models.AnomalyPositionJump)).Inc()
		}
	}
}
