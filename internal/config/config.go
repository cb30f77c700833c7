// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

// Package config loads Poseidon configuration from defaults, an optional YAML
// file and environment variables, in that order of precedence.
package config

import (
	"time"
)

// Config is the root configuration.
type Config struct {
	AIS        AISConfig        `koanf:"ais"`
	Buffer     BufferConfig     `koanf:"buffer"`
	WAL        WALConfig        `koanf:"wal"`
	Database   DatabaseConfig   `koanf:"database"`
	Geo        GeoConfig        `koanf:"geo"`
	DarkVessel DarkVesselConfig `koanf:"dark_vessel"`
	Spoof      SpoofConfig      `koanf:"spoof"`
	Fusion     FusionConfig     `koanf:"fusion"`
	Tasking    TaskingConfig    `koanf:"tasking"`
	NATS       NATSConfig       `koanf:"nats"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// AISConfig configures the upstream position stream.
type AISConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	APIKey         string        `koanf:"api_key"`
	PingInterval   time.Duration `koanf:"ping_interval"`
	ReconnectDelay time.Duration `koanf:"reconnect_delay"`
}

// BufferConfig configures the ingest buffer and the persister that drains it.
type BufferConfig struct {
	FlushInterval time.Duration `koanf:"flush_interval"`
	BatchSize     int           `koanf:"batch_size"`
	// LiveCapacity bounds the live fan-out channel; records beyond it are dropped.
	LiveCapacity int `koanf:"live_capacity"`
}

// WALConfig configures the BadgerDB-backed queue.
type WALConfig struct {
	Path         string        `koanf:"path"`
	SyncWrites   bool          `koanf:"sync_writes"`
	SyncInterval time.Duration `koanf:"sync_interval"`
	GCInterval   time.Duration `koanf:"gc_interval"`
	GCRatio      float64       `koanf:"gc_ratio"`
}

// DatabaseConfig configures DuckDB.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// GeoConfig configures receiver classification.
type GeoConfig struct {
	// CoastlinePath points at a GeoJSON FeatureCollection of land polygons.
	// Empty leaves every position classified as unknown.
	CoastlinePath string  `koanf:"coastline_path"`
	BufferNM      float64 `koanf:"buffer_nm"`
}

// DarkVesselConfig configures gap detection.
type DarkVesselConfig struct {
	CheckInterval     time.Duration `koanf:"check_interval"`
	GapHours          float64       `koanf:"gap_hours"`
	ActiveWindowHours float64       `koanf:"active_window_hours"`
}

// Gap returns the silence threshold as a duration.
func (d DarkVesselConfig) Gap() time.Duration {
	return time.Duration(d.GapHours * float64(time.Hour))
}

// ActiveWindow returns the lookback window as a duration.
func (d DarkVesselConfig) ActiveWindow() time.Duration {
	return time.Duration(d.ActiveWindowHours * float64(time.Hour))
}

// SpoofConfig configures the spoof scan and clustering.
type SpoofConfig struct {
	ScanInterval         time.Duration `koanf:"scan_interval"`
	ImpossibleSpeedKnots float64       `koanf:"impossible_speed_knots"`
	ClusterWindowMinutes int           `koanf:"cluster_window_minutes"`
}

// ClusterWindow returns the clustering window as a duration.
func (s SpoofConfig) ClusterWindow() time.Duration {
	return time.Duration(s.ClusterWindowMinutes) * time.Minute
}

// FusionConfig configures the periodic fusion pass.
type FusionConfig struct {
	BatchInterval time.Duration `koanf:"batch_interval"` // 0 disables the loop
	ActiveWindow  time.Duration `koanf:"active_window"`
}

// TaskingConfig configures the collaborator endpoints used after a spoof
// cluster is created. An empty URL disables that collaborator.
type TaskingConfig struct {
	SARURL        string        `koanf:"sar_url"`
	VIIRSURL      string        `koanf:"viirs_url"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
}

// NATSConfig configures the message bus. When disabled the in-process
// gochannel transport is used instead.
type NATSConfig struct {
	Enabled            bool          `koanf:"enabled"`
	EmbeddedServer     bool          `koanf:"embedded"`
	URL                string        `koanf:"url"`
	Port               int           `koanf:"port"`
	MaxReconnects      int           `koanf:"max_reconnects"`
	ReconnectWait      time.Duration `koanf:"reconnect_wait"`
	RouterRetryCount   int           `koanf:"router_retry_count"`
	RouterCloseTimeout time.Duration `koanf:"router_close_timeout"`
	PoisonQueueTopic   string        `koanf:"poison_queue_topic"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins is a comma-separated allow list for /api/v1. Empty allows
	// no cross-origin requests.
	CORSOrigins string `koanf:"cors_origins"`

	// RateLimit is requests per minute per client IP on /api/v1; 0 disables.
	RateLimit int `koanf:"rate_limit"`
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration. It is an alias for LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
