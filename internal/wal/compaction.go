// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package wal

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tomtom215/poseidon/internal/logging"
)

// Compactor periodically reclaims value-log space freed by dequeued entries.
type Compactor struct {
	queue    *Queue
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
	lastRun time.Time
	runs    int64
}

// CompactorStats is a snapshot of compactor activity.
type CompactorStats struct {
	Running   bool      `json:"running"`
	LastRun   time.Time `json:"last_run"`
	Runs      int64     `json:"runs"`
	LSMBytes  int64     `json:"lsm_bytes"`
	VLogBytes int64     `json:"vlog_bytes"`
}

// NewCompactor creates a compactor for q.
func NewCompactor(q *Queue) *Compactor {
	interval := q.config.GCInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Compactor{queue: q, interval: interval}
}

// Start begins the background GC loop.
func (c *Compactor) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.running = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run()

	logging.Info().Dur("interval", c.interval).Msg("WAL compactor started")
	return nil
}

// Stop stops the GC loop and waits for it to exit.
func (c *Compactor) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.cancel()
	c.running = false
	c.mu.Unlock()

	c.wg.Wait()
	logging.Info().Msg("WAL compactor stopped")
}

// IsRunning reports whether the loop is active.
func (c *Compactor) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Compactor) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.RunNow(); err != nil {
				logging.Warn().Err(err).Msg("WAL GC failed")
			}
		}
	}
}

// RunNow runs one GC pass and refreshes the size gauge.
func (c *Compactor) RunNow() error {
	if err := c.queue.RunGC(); err != nil {
		return err
	}

	lsm, vlog := c.queue.Size()
	walDBSizeBytes.Set(float64(lsm + vlog))

	c.mu.Lock()
	c.lastRun = time.Now()
	c.runs++
	c.mu.Unlock()

	logging.Debug().
		Str("lsm", humanize.Bytes(uint64(lsm))).
		Str("vlog", humanize.Bytes(uint64(vlog))).
		Int64("pending", c.queue.Len()).
		Msg("WAL GC complete")
	return nil
}

// Stats returns a snapshot of compactor activity.
func (c *Compactor) Stats() CompactorStats {
	lsm, vlog := c.queue.Size()
	c.mu.Lock()
	defer c.mu.Unlock()
	return CompactorStats{
		Running:   c.running,
		LastRun:   c.lastRun,
		Runs:      c.runs,
		LSMBytes:  lsm,
		VLogBytes: vlog,
	}
}
