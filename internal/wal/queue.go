// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

// Package wal is the durable ingest queue. Decoded records are appended to
// BadgerDB as soon as they arrive and drained in FIFO order by the persister.
// Batches that fail to persist are moved to a dead-letter keyspace in the
// same database.
package wal

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/poseidon/internal/logging"
)

// Key layout. Queue and DLQ keys end in a big-endian sequence number so that
// lexicographic iteration is insertion order.
const (
	prefixQueue = "q:"
	prefixDLQ   = "dlq:"
	keySequence = "meta:seq"

	sequenceBandwidth  = 1000
	maxConflictRetries = 5
)

var (
	// ErrQueueClosed is returned by every operation after Close.
	ErrQueueClosed = errors.New("queue is closed")

	// ErrEmptyPayload is returned by Append for a zero-length payload.
	ErrEmptyPayload = errors.New("payload cannot be empty")
)

// Entry is one queued record.
type Entry struct {
	ID         string          `json:"id"`
	Seq        uint64          `json:"seq"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// DeadLetter is a queued record that could not be persisted.
type DeadLetter struct {
	Entry    Entry     `json:"entry"`
	BatchID  string    `json:"batch_id"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

// Queue is a FIFO, at-least-once queue on BadgerDB.
type Queue struct {
	db     *badger.DB
	seq    *badger.Sequence
	config Config

	depth    atomic.Int64
	dlqDepth atomic.Int64

	// dequeueMu serialises DequeueBatch so that two drains never race for
	// the same head of the queue.
	dequeueMu sync.Mutex

	mu     sync.RWMutex
	closed bool

	// Group fsync loop; nil when SyncWrites is on or the DB is in memory.
	syncStop chan struct{}
	syncDone chan struct{}
	syncs    atomic.Int64
}

// Open opens (or creates) the queue at cfg.Path.
func Open(cfg *Config) (*Queue, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid WAL config: %w", err)
	}
	return open(cfg, badger.DefaultOptions(cfg.Path))
}

// OpenForTesting opens an in-memory queue without validation. Do not use in
// production code.
func OpenForTesting(cfg *Config) (*Queue, error) {
	if cfg.NumCompactors < 2 {
		cfg.NumCompactors = 2
	}
	if cfg.GCRatio == 0 {
		cfg.GCRatio = 0.5
	}
	if cfg.MemTableSize == 0 {
		cfg.MemTableSize = 16 * 1024 * 1024
	}
	if cfg.ValueLogFileSize == 0 {
		cfg.ValueLogFileSize = 16 * 1024 * 1024
	}
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	return open(cfg, opts)
}

func open(cfg *Config, opts badger.Options) (*Queue, error) {
	opts.SyncWrites = cfg.SyncWrites
	opts.MemTableSize = cfg.MemTableSize
	opts.ValueLogFileSize = cfg.ValueLogFileSize
	opts.NumCompactors = cfg.NumCompactors
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	seq, err := db.GetSequence([]byte(keySequence), sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("acquire sequence: %w", err)
	}

	q := &Queue{db: db, seq: seq, config: *cfg}

	depth, err := q.countPrefix(prefixQueue)
	if err != nil {
		_ = seq.Release()
		_ = db.Close()
		return nil, fmt.Errorf("count queue: %w", err)
	}
	dlq, err := q.countPrefix(prefixDLQ)
	if err != nil {
		_ = seq.Release()
		_ = db.Close()
		return nil, fmt.Errorf("count dead letters: %w", err)
	}
	q.depth.Store(depth)
	q.dlqDepth.Store(dlq)
	walDepth.Set(float64(depth))
	walDLQDepth.Set(float64(dlq))

	if !cfg.SyncWrites && cfg.SyncInterval > 0 && !opts.InMemory {
		q.syncStop = make(chan struct{})
		q.syncDone = make(chan struct{})
		go q.syncLoop(cfg.SyncInterval)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("sync_writes", cfg.SyncWrites).
		Dur("sync_interval", cfg.SyncInterval).
		Str("pending", humanize.Comma(depth)).
		Str("dead_letters", humanize.Comma(dlq)).
		Msg("WAL opened")
	return q, nil
}

// syncLoop fsyncs everything appended since the previous tick, so one fsync
// covers many appends and Append never waits on the disk.
func (q *Queue) syncLoop(interval time.Duration) {
	defer close(q.syncDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-q.syncStop:
			return
		case <-ticker.C:
			if err := q.db.Sync(); err != nil {
				walSyncFailures.Inc()
				logging.Warn().Err(err).Msg("WAL sync failed")
				continue
			}
			q.syncs.Add(1)
			walSyncsTotal.Inc()
		}
	}
}

// Syncs returns how many periodic fsyncs have completed.
func (q *Queue) Syncs() int64 {
	return q.syncs.Load()
}

func (q *Queue) checkOpen() error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	return nil
}

func seqKey(prefix string, seq uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], seq)
	return key
}

// Append durably enqueues payload at the tail.
func (q *Queue) Append(ctx context.Context, payload []byte) error {
	if err := q.checkOpen(); err != nil {
		return err
	}
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	defer func() { walAppendLatency.Observe(time.Since(start).Seconds()) }()

	n, err := q.seq.Next()
	if err != nil {
		walAppendFailures.Inc()
		return fmt.Errorf("next sequence: %w", err)
	}

	data, err := json.Marshal(&Entry{
		ID:         uuid.New().String(),
		Seq:        n,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	})
	if err != nil {
		walAppendFailures.Inc()
		return fmt.Errorf("marshal entry: %w", err)
	}

	if err := q.db.Update(func(txn *badger.Txn) error {
		return txn.Set(seqKey(prefixQueue, n), data)
	}); err != nil {
		walAppendFailures.Inc()
		return fmt.Errorf("write to BadgerDB: %w", err)
	}

	walAppendsTotal.Inc()
	walDepth.Set(float64(q.depth.Add(1)))
	return nil
}

// DequeueBatch atomically removes and returns up to n of the oldest entries.
// Entries that cannot be decoded are removed and returned in skipped so the
// caller can count them.
func (q *Queue) DequeueBatch(ctx context.Context, n int) (entries []Entry, skipped int, err error) {
	if err := q.checkOpen(); err != nil {
		return nil, 0, err
	}
	if n <= 0 {
		return nil, 0, nil
	}

	q.dequeueMu.Lock()
	defer q.dequeueMu.Unlock()

	for attempt := 0; ; attempt++ {
		entries, skipped, err = q.dequeueOnce(ctx, n)
		if !errors.Is(err, badger.ErrConflict) || attempt >= maxConflictRetries {
			break
		}
	}
	if err != nil {
		return nil, 0, err
	}

	removed := int64(len(entries) + skipped)
	if removed > 0 {
		walDequeuedTotal.Add(float64(removed))
		walDepth.Set(float64(q.depth.Add(-removed)))
	}
	return entries, skipped, nil
}

func (q *Queue) dequeueOnce(ctx context.Context, n int) ([]Entry, int, error) {
	var (
		entries []Entry
		skipped int
	)
	err := q.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		var keys [][]byte
		prefix := []byte(prefixQueue)
		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(keys) < n; it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var e Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				skipped++
			} else {
				entries = append(entries, e)
			}
			keys = append(keys, item.KeyCopy(nil))
		}

		for i, key := range keys {
			if err := txn.Delete(key); err != nil {
				if errors.Is(err, badger.ErrTxnTooBig) {
					// Commit what fits; the rest stays queued.
					entries, skipped = trimToDeleted(entries, skipped, i)
					return nil
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, skipped, nil
}

// trimToDeleted keeps only the first n removed keys' worth of results. Skipped
// entries are not positioned, so they are charged to the deleted prefix first.
func trimToDeleted(entries []Entry, skipped, n int) ([]Entry, int) {
	if skipped > n {
		return nil, n
	}
	keep := n - skipped
	if keep < len(entries) {
		entries = entries[:keep]
	}
	return entries, skipped
}

// DeadLetter moves entries into the dead-letter keyspace with reason.
// Returns the batch ID written on every entry.
func (q *Queue) DeadLetter(ctx context.Context, entries []Entry, reason string) (string, error) {
	if err := q.checkOpen(); err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}

	batchID := uuid.New().String()
	now := time.Now().UTC()

	wb := q.db.NewWriteBatch()
	defer wb.Cancel()
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		data, err := json.Marshal(&DeadLetter{Entry: e, BatchID: batchID, Reason: reason, FailedAt: now})
		if err != nil {
			return "", fmt.Errorf("marshal dead letter: %w", err)
		}
		if err := wb.Set(seqKey(prefixDLQ, e.Seq), data); err != nil {
			return "", fmt.Errorf("stage dead letter: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return "", fmt.Errorf("write dead letters: %w", err)
	}

	walDLQDepth.Set(float64(q.dlqDepth.Add(int64(len(entries)))))
	return batchID, nil
}

// DeadLetters returns up to limit dead letters, oldest first.
func (q *Queue) DeadLetters(ctx context.Context, limit int) ([]DeadLetter, error) {
	if err := q.checkOpen(); err != nil {
		return nil, err
	}

	var out []DeadLetter
	err := q.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixDLQ)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			var dl DeadLetter
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &dl)
			}); err != nil {
				continue
			}
			out = append(out, dl)
		}
		return nil
	})
	return out, err
}

// Len returns the number of queued entries.
func (q *Queue) Len() int64 {
	return q.depth.Load()
}

// DLQLen returns the number of dead letters.
func (q *Queue) DLQLen() int64 {
	return q.dlqDepth.Load()
}

// IsOpen reports whether Close has not been called.
func (q *Queue) IsOpen() bool {
	return q.checkOpen() == nil
}

func (q *Queue) countPrefix(prefix string) (int64, error) {
	var count int64
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// RunGC runs value log GC until BadgerDB reports nothing left to rewrite.
func (q *Queue) RunGC() error {
	if err := q.checkOpen(); err != nil {
		return err
	}

	start := time.Now()
	defer func() {
		walGCLatency.Observe(time.Since(start).Seconds())
		walGCRuns.Inc()
	}()

	for {
		err := q.db.RunValueLogGC(q.config.GCRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Size returns the LSM and value log sizes in bytes.
func (q *Queue) Size() (lsm, vlog int64) {
	return q.db.Size()
}

// Close releases the sequence and closes BadgerDB, giving up after
// CloseTimeout.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	timeout := q.config.CloseTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	q.mu.Unlock()

	logging.Info().Int64("pending", q.depth.Load()).Msg("Closing WAL")

	if q.syncStop != nil {
		close(q.syncStop)
		<-q.syncDone
	}

	done := make(chan error, 1)
	go func() {
		if err := q.seq.Release(); err != nil {
			logging.Warn().Err(err).Msg("WAL sequence release failed")
		}
		done <- q.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		logging.Info().Msg("WAL closed")
		return nil
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("BadgerDB close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", timeout)
	}
}
