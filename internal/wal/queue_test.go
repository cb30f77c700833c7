// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package wal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func openTestQueue(t *testing.T, dir string) *Queue {
	t.Helper()
	q, err := OpenForTesting(&Config{Path: dir, GCInterval: time.Second, CloseTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("OpenForTesting: %v", err)
	}
	return q
}

func TestQueue_FIFOAcrossBatches(t *testing.T) {
	q := openTestQueue(t, t.TempDir())
	defer q.Close()
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		if err := q.Append(ctx, []byte(fmt.Sprintf(`{"n":%d}`, i))); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	if q.Len() != 25 {
		t.Fatalf("Len = %d, want 25", q.Len())
	}

	var got []string
	for {
		batch, skipped, err := q.DequeueBatch(ctx, 10)
		if err != nil {
			t.Fatalf("DequeueBatch: %v", err)
		}
		if skipped != 0 {
			t.Fatalf("skipped = %d", skipped)
		}
		if len(batch) == 0 {
			break
		}
		for _, e := range batch {
			got = append(got, string(e.Payload))
		}
	}

	if len(got) != 25 {
		t.Fatalf("dequeued %d entries, want 25", len(got))
	}
	for i, p := range got {
		if want := fmt.Sprintf(`{"n":%d}`, i); p != want {
			t.Errorf("entry %d = %s, want %s", i, p, want)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len after drain = %d", q.Len())
	}
}

func TestQueue_AppendValidation(t *testing.T) {
	q := openTestQueue(t, "")
	if err := q.Append(context.Background(), nil); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Append(nil) = %v, want ErrEmptyPayload", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Append(ctx, []byte(`{}`)); !errors.Is(err, context.Canceled) {
		t.Errorf("Append(cancelled) = %v", err)
	}

	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := q.Append(context.Background(), []byte(`{}`)); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Append after close = %v, want ErrQueueClosed", err)
	}
	if q.IsOpen() {
		t.Error("IsOpen after close")
	}
}

func TestQueue_ConcurrentDequeueNoDuplicates(t *testing.T) {
	q := openTestQueue(t, "")
	defer q.Close()
	ctx := context.Background()

	const total = 200
	for i := 0; i < total; i++ {
		if err := q.Append(ctx, []byte(fmt.Sprintf(`%d`, i))); err != nil {
			t.Fatal(err)
		}
	}

	var (
		mu   sync.Mutex
		seen = make(map[string]int)
		wg   sync.WaitGroup
	)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				batch, _, err := q.DequeueBatch(ctx, 7)
				if err != nil {
					t.Errorf("DequeueBatch: %v", err)
					return
				}
				if len(batch) == 0 {
					return
				}
				mu.Lock()
				for _, e := range batch {
					seen[e.ID]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != total {
		t.Errorf("saw %d unique entries, want %d", len(seen), total)
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("entry %s dequeued %d times", id, n)
		}
	}
}

func TestQueue_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	q := openTestQueue(t, dir)
	for i := 0; i < 3; i++ {
		if err := q.Append(ctx, []byte(fmt.Sprintf(`%d`, i))); err != nil {
			t.Fatal(err)
		}
	}
	if _, _, err := q.DequeueBatch(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}

	q = openTestQueue(t, dir)
	defer q.Close()
	if q.Len() != 2 {
		t.Fatalf("Len after reopen = %d, want 2", q.Len())
	}

	// New appends sort after the survivors.
	if err := q.Append(ctx, []byte(`3`)); err != nil {
		t.Fatal(err)
	}
	batch, _, err := q.DequeueBatch(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"1", "2", "3"}
	if len(batch) != len(want) {
		t.Fatalf("got %d entries, want %d", len(batch), len(want))
	}
	for i, e := range batch {
		if string(e.Payload) != want[i] {
			t.Errorf("entry %d = %s, want %s", i, e.Payload, want[i])
		}
	}
}

func TestQueue_GroupSync(t *testing.T) {
	ctx := context.Background()
	q, err := OpenForTesting(&Config{
		Path:         t.TempDir(),
		SyncInterval: 10 * time.Millisecond,
		GCInterval:   time.Second,
		CloseTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := range 50 {
		if err := q.Append(ctx, []byte(fmt.Sprintf(`%d`, i))); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for q.Syncs() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no periodic sync ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Per-append fsync and in-memory queues run no loop.
	for _, cfg := range []*Config{
		{Path: t.TempDir(), SyncWrites: true, SyncInterval: 10 * time.Millisecond},
		{SyncInterval: 10 * time.Millisecond},
	} {
		cfg.GCInterval, cfg.CloseTimeout = time.Second, 5*time.Second
		q, err := OpenForTesting(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if q.syncStop != nil {
			t.Errorf("sync loop started for %+v", cfg)
		}
		if err := q.Close(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestQueue_DeadLetter(t *testing.T) {
	q := openTestQueue(t, "")
	defer q.Close()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if err := q.Append(ctx, []byte(fmt.Sprintf(`%d`, i))); err != nil {
			t.Fatal(err)
		}
	}
	batch, _, err := q.DequeueBatch(ctx, 4)
	if err != nil {
		t.Fatal(err)
	}

	batchID, err := q.DeadLetter(ctx, batch, "constraint violation")
	if err != nil {
		t.Fatalf("DeadLetter: %v", err)
	}
	if batchID == "" {
		t.Fatal("empty batch ID")
	}
	if q.DLQLen() != 4 {
		t.Errorf("DLQLen = %d, want 4", q.DLQLen())
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d, want 0", q.Len())
	}

	letters, err := q.DeadLetters(ctx, 2)
	if err != nil {
		t.Fatalf("DeadLetters: %v", err)
	}
	if len(letters) != 2 {
		t.Fatalf("got %d letters, want 2", len(letters))
	}
	for i, dl := range letters {
		if dl.BatchID != batchID {
			t.Errorf("letter %d batch = %s", i, dl.BatchID)
		}
		if dl.Reason != "constraint violation" {
			t.Errorf("letter %d reason = %q", i, dl.Reason)
		}
		if string(dl.Entry.Payload) != fmt.Sprintf(`%d`, i) {
			t.Errorf("letter %d payload = %s", i, dl.Entry.Payload)
		}
	}

	if id, err := q.DeadLetter(ctx, nil, "x"); err != nil || id != "" {
		t.Errorf("DeadLetter(nil) = %q, %v", id, err)
	}
}

func TestQueue_DequeueNonPositive(t *testing.T) {
	q := openTestQueue(t, "")
	defer q.Close()
	batch, skipped, err := q.DequeueBatch(context.Background(), 0)
	if err != nil || batch != nil || skipped != 0 {
		t.Errorf("DequeueBatch(0) = %v, %d, %v", batch, skipped, err)
	}
}

func TestTrimToDeleted(t *testing.T) {
	entries := []Entry{{Seq: 1}, {Seq: 2}, {Seq: 3}}
	tests := []struct {
		name        string
		skipped, n  int
		wantEntries int
		wantSkipped int
	}{
		{"no skips", 0, 2, 2, 0},
		{"skips within prefix", 1, 2, 1, 1},
		{"skips exceed prefix", 3, 2, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, skipped := trimToDeleted(entries, tt.skipped, tt.n)
			if len(got) != tt.wantEntries || skipped != tt.wantSkipped {
				t.Errorf("trimToDeleted = %d, %d; want %d, %d", len(got), skipped, tt.wantEntries, tt.wantSkipped)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	good := DefaultConfig()
	if err := good.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty path", func(c *Config) { c.Path = "" }, "Path"},
		{"short gc interval", func(c *Config) { c.GCInterval = time.Millisecond }, "GCInterval"},
		{"gc ratio one", func(c *Config) { c.GCRatio = 1 }, "GCRatio"},
		{"small memtable", func(c *Config) { c.MemTableSize = 1024 }, "MemTableSize"},
		{"small vlog", func(c *Config) { c.ValueLogFileSize = 1024 }, "ValueLogFileSize"},
		{"one compactor", func(c *Config) { c.NumCompactors = 1 }, "NumCompactors"},
		{"negative sync interval", func(c *Config) { c.SyncInterval = -time.Second }, "SyncInterval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("field = %s, want %s", ce.Field, tt.field)
			}
		})
	}
}
