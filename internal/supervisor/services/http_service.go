// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/poseidon/internal/logging"
)

// DefaultDrainTimeout bounds a graceful API shutdown.
const DefaultDrainTimeout = 10 * time.Second

// StreamCloser is satisfied by *websocket.Hub. Live streams are hijacked
// connections that http.Server.Shutdown neither waits for nor closes.
type StreamCloser interface {
	CloseClients() int
}

// APIServerService runs the REST API and /ws/live under supervision.
type APIServerService struct {
	server  *http.Server
	streams StreamCloser
	drain   time.Duration
	bound   atomic.Value // string
	logger  zerolog.Logger
}

// NewAPIServerService wraps server. streams may be nil. A non-positive
// drain means DefaultDrainTimeout.
func NewAPIServerService(server *http.Server, streams StreamCloser, drain time.Duration) *APIServerService {
	if drain <= 0 {
		drain = DefaultDrainTimeout
	}
	return &APIServerService{
		server:  server,
		streams: streams,
		drain:   drain,
		logger:  logging.WithComponent("api-server"),
	}
}

// Addr returns the bound listen address, or "" before the first bind.
func (s *APIServerService) Addr() string {
	addr, _ := s.bound.Load().(string)
	return addr
}

// Serve implements suture.Service. A bind or accept failure is returned so
// the supervisor restarts the listener.
func (s *APIServerService) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("api listen %s: %w", s.server.Addr, err)
	}
	s.bound.Store(ln.Addr().String())
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("API listening")

	errCh := make(chan error, 1)
	go func() { errCh <- s.server.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api serve: %w", err)
	case <-ctx.Done():
	}

	start := time.Now()
	drainCtx, cancel := context.WithTimeout(context.Background(), s.drain)
	defer cancel()
	shutdownErr := s.server.Shutdown(drainCtx)
	<-errCh

	streams := 0
	if s.streams != nil {
		streams = s.streams.CloseClients()
	}
	s.logger.Info().
		Dur("drain", time.Since(start)).
		Int("live_streams_closed", streams).
		Msg("API stopped")

	if shutdownErr != nil {
		return fmt.Errorf("api shutdown: %w", shutdownErr)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture logs.
func (s *APIServerService) String() string {
	return "api-server"
}
