// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/poseidon/config.yaml",
	"/etc/poseidon/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		AIS: AISConfig{
			Enabled:        true,
			URL:            "wss://stream.aisstream.io/v0/stream",
			APIKey:         "",
			PingInterval:   20 * time.Second,
			ReconnectDelay: 5 * time.Second,
		},
		Buffer: BufferConfig{
			FlushInterval: 2 * time.Second,
			BatchSize:     500,
			LiveCapacity:  1024,
		},
		WAL: WALConfig{
			Path:         "/data/wal",
			SyncWrites:   false,
			SyncInterval: time.Second,
			GCInterval:   10 * time.Minute,
			GCRatio:      0.5,
		},
		Database: DatabaseConfig{
			Path:      "/data/poseidon.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
		},
		Geo: GeoConfig{
			CoastlinePath: "",
			BufferNM:      50,
		},
		DarkVessel: DarkVesselConfig{
			CheckInterval:     300 * time.Second,
			GapHours:          2,
			ActiveWindowHours: 24,
		},
		Spoof: SpoofConfig{
			ScanInterval:         120 * time.Second,
			ImpossibleSpeedKnots: 50,
			ClusterWindowMinutes: 5,
		},
		Fusion: FusionConfig{
			BatchInterval: 15 * time.Minute,
			ActiveWindow:  time.Hour,
		},
		Tasking: TaskingConfig{
			Timeout:       30 * time.Second,
			RatePerSecond: 1,
		},
		NATS: NATSConfig{
			Enabled:            true,
			EmbeddedServer:     true,
			URL:                "nats://127.0.0.1:4222",
			Port:               4222,
			MaxReconnects:      -1,
			ReconnectWait:      2 * time.Second,
			RouterRetryCount:   3,
			RouterCloseTimeout: 30 * time.Second,
			PoisonQueueTopic:   "tasking.poison",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration in three layers: struct defaults, the
// optional YAML file, then environment variables. The result is validated.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps lowercased environment variable names to koanf paths.
var envMappings = map[string]string{
	"ais_enabled":         "ais.enabled",
	"ais_stream_url":      "ais.url",
	"aisstream_api_key":   "ais.api_key",
	"ais_ping_interval":   "ais.ping_interval",
	"ais_reconnect_delay": "ais.reconnect_delay",

	"buffer_flush_interval": "buffer.flush_interval",
	"buffer_batch_size":     "buffer.batch_size",
	"buffer_live_capacity":  "buffer.live_capacity",

	"wal_path":          "wal.path",
	"wal_sync_writes":   "wal.sync_writes",
	"wal_sync_interval": "wal.sync_interval",
	"wal_gc_interval":   "wal.gc_interval",
	"wal_gc_ratio":      "wal.gc_ratio",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"coastline_path":      "geo.coastline_path",
	"coastline_buffer_nm": "geo.buffer_nm",

	"dark_vessel_check_interval":      "dark_vessel.check_interval",
	"dark_vessel_gap_hours":           "dark_vessel.gap_hours",
	"dark_vessel_active_window_hours": "dark_vessel.active_window_hours",

	"spoof_scan_interval":          "spoof.scan_interval",
	"spoof_impossible_speed_knots": "spoof.impossible_speed_knots",
	"spoof_cluster_window_minutes": "spoof.cluster_window_minutes",

	"fusion_batch_interval": "fusion.batch_interval",
	"fusion_active_window":  "fusion.active_window",

	"tasking_sar_url":         "tasking.sar_url",
	"tasking_viirs_url":       "tasking.viirs_url",
	"tasking_timeout":         "tasking.timeout",
	"tasking_rate_per_second": "tasking.rate_per_second",

	"nats_enabled":              "nats.enabled",
	"nats_embedded":             "nats.embedded",
	"nats_url":                  "nats.url",
	"nats_port":                 "nats.port",
	"nats_max_reconnects":       "nats.max_reconnects",
	"nats_reconnect_wait":       "nats.reconnect_wait",
	"nats_router_retry_count":   "nats.router_retry_count",
	"nats_router_close_timeout": "nats.router_close_timeout",
	"nats_poison_queue_topic":   "nats.poison_queue_topic",

	"http_host":         "server.host",
	"http_port":         "server.port",
	"http_timeout":      "server.timeout",
	"shutdown_timeout":  "server.shutdown_timeout",
	"http_cors_origins": "server.cors_origins",
	"http_rate_limit":   "server.rate_limit",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc returns the koanf path for an environment variable, or ""
// so that unrelated variables never reach the config tree.
//
//   - DUCKDB_PATH -> database.path
//   - SPOOF_SCAN_INTERVAL -> spoof.scan_interval
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
