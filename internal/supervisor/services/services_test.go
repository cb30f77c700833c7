// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type loop struct {
	runs atomic.Int32
	err  error
}

func (l *loop) RunWithContext(ctx context.Context) error {
	l.runs.Add(1)
	if l.err != nil {
		return l.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunnerService(t *testing.T) {
	l := &loop{}
	svc := NewRunnerService("dark-detector", l)
	if svc.String() != "dark-detector" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve = %v, want context.Canceled", err)
	}

	boom := errors.New("boom")
	if err := NewRunnerService("x", &loop{err: boom}).Serve(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Serve = %v, want runner error", err)
	}
}

type fakeStreams struct {
	closed atomic.Int32
}

func (f *fakeStreams) CloseClients() int {
	f.closed.Add(1)
	return 3
}

func TestAPIServerService(t *testing.T) {
	t.Run("serves then drains", func(t *testing.T) {
		streams := &fakeStreams{}
		server := &http.Server{
			Addr: "127.0.0.1:0",
			Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}),
			ReadHeaderTimeout: time.Second,
		}
		svc := NewAPIServerService(server, streams, time.Second)
		if svc.String() != "api-server" {
			t.Errorf("String() = %q", svc.String())
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		deadline := time.Now().Add(5 * time.Second)
		for svc.Addr() == "" {
			if time.Now().After(deadline) {
				t.Fatal("server never bound")
			}
			time.Sleep(5 * time.Millisecond)
		}
		resp, err := http.Get("http://" + svc.Addr() + "/api/v1/health")
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("status = %d", resp.StatusCode)
		}

		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("Serve = %v, want context.Canceled", err)
		}
		if streams.closed.Load() != 1 {
			t.Errorf("live streams closed %d times, want 1", streams.closed.Load())
		}
	})

	t.Run("bind failure", func(t *testing.T) {
		taken, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		defer taken.Close()

		svc := NewAPIServerService(&http.Server{Addr: taken.Addr().String(), ReadHeaderTimeout: time.Second}, nil, 0)
		if svc.drain != DefaultDrainTimeout {
			t.Errorf("default drain = %v", svc.drain)
		}
		if err := svc.Serve(context.Background()); err == nil {
			t.Error("expected bind error")
		}
		if svc.Addr() != "" {
			t.Errorf("Addr = %q after failed bind", svc.Addr())
		}
	})
}

type fakeCompactor struct {
	mu      sync.Mutex
	running bool
	starts  int
	stops   int
}

func (c *fakeCompactor) Start(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.starts++
	return nil
}

func (c *fakeCompactor) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.stops++
}

func (c *fakeCompactor) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func TestWALCompactorService(t *testing.T) {
	c := &fakeCompactor{}
	svc := NewWALCompactorService(c)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for !c.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("compactor not started")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve = %v", err)
	}
	if c.starts != 1 || c.stops != 1 || c.IsRunning() {
		t.Errorf("starts=%d stops=%d running=%v", c.starts, c.stops, c.IsRunning())
	}
}
