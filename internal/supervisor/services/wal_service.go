// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package services

import (
	"context"
	"fmt"
)

// StartStopper is satisfied by *wal.Compactor.
type StartStopper interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
}

// WALCompactorService runs the WAL value-log GC loop under supervision.
type WALCompactorService struct {
	compactor StartStopper
	name      string
}

// NewWALCompactorService wraps compactor.
func NewWALCompactorService(compactor StartStopper) *WALCompactorService {
	return &WALCompactorService{compactor: compactor, name: "wal-compactor"}
}

// Serve implements suture.Service. Stop blocks until the GC goroutine exits.
func (s *WALCompactorService) Serve(ctx context.Context) error {
	if err := s.compactor.Start(ctx); err != nil {
		return fmt.Errorf("WAL compactor start failed: %w", err)
	}
	<-ctx.Done()
	s.compactor.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer for suture logs.
func (s *WALCompactorService) String() string {
	return s.name
}
