// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package wal

import (
	"time"
)

// Config holds queue configuration.
type Config struct {
	// Path is the BadgerDB directory.
	Path string

	// SyncWrites fsyncs every append. When false, appends reach the OS page
	// cache and SyncInterval bounds how long they wait for an fsync.
	SyncWrites bool

	// SyncInterval is the group fsync period used when SyncWrites is off.
	// 0 leaves syncing to BadgerDB's own flushes.
	SyncInterval time.Duration

	// GCInterval is how often the compactor runs value-log GC.
	GCInterval time.Duration

	// GCRatio is the discard ratio passed to RunValueLogGC.
	GCRatio float64

	MemTableSize     int64
	ValueLogFileSize int64
	NumCompactors    int
	Compression      bool

	// CloseTimeout bounds Close so a stuck flush cannot hang shutdown.
	CloseTimeout time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Path:             "/data/wal",
		SyncWrites:       false,
		SyncInterval:     time.Second,
		GCInterval:       10 * time.Minute,
		GCRatio:          0.5,
		MemTableSize:     16 * 1024 * 1024,
		ValueLogFileSize: 64 * 1024 * 1024,
		NumCompactors:    2,
		Compression:      true,
		CloseTimeout:     30 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Path == "" {
		return &ConfigError{Field: "Path", Message: "WAL path is required"}
	}
	if c.GCInterval < time.Second {
		return &ConfigError{Field: "GCInterval", Message: "must be at least 1 second"}
	}
	if c.SyncInterval < 0 {
		return &ConfigError{Field: "SyncInterval", Message: "must not be negative"}
	}
	if c.GCRatio <= 0 || c.GCRatio >= 1 {
		return &ConfigError{Field: "GCRatio", Message: "must be between 0 and 1 exclusive"}
	}
	if c.MemTableSize < 1024*1024 {
		return &ConfigError{Field: "MemTableSize", Message: "must be at least 1MB"}
	}
	if c.ValueLogFileSize < 1024*1024 {
		return &ConfigError{Field: "ValueLogFileSize", Message: "must be at least 1MB"}
	}
	if c.NumCompactors < 2 {
		return &ConfigError{Field: "NumCompactors", Message: "must be at least 2 (BadgerDB requirement)"}
	}
	return nil
}

// ConfigError is a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "WAL config error: " + e.Field + ": " + e.Message
}
