// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Buffer.FlushInterval != 2*time.Second {
		t.Errorf("flush interval = %s, want 2s", cfg.Buffer.FlushInterval)
	}
	if cfg.Buffer.BatchSize != 500 {
		t.Errorf("batch size = %d, want 500", cfg.Buffer.BatchSize)
	}
	if cfg.DarkVessel.Gap() != 2*time.Hour {
		t.Errorf("gap = %s, want 2h", cfg.DarkVessel.Gap())
	}
	if cfg.DarkVessel.ActiveWindow() != 24*time.Hour {
		t.Errorf("active window = %s, want 24h", cfg.DarkVessel.ActiveWindow())
	}
	if cfg.DarkVessel.CheckInterval != 300*time.Second {
		t.Errorf("check interval = %s, want 300s", cfg.DarkVessel.CheckInterval)
	}
	if cfg.Spoof.ScanInterval != 120*time.Second {
		t.Errorf("scan interval = %s, want 120s", cfg.Spoof.ScanInterval)
	}
	if cfg.Spoof.ImpossibleSpeedKnots != 50 {
		t.Errorf("impossible speed = %v, want 50", cfg.Spoof.ImpossibleSpeedKnots)
	}
	if cfg.Spoof.ClusterWindow() != 5*time.Minute {
		t.Errorf("cluster window = %s, want 5m", cfg.Spoof.ClusterWindow())
	}
	if cfg.AIS.URL != "wss://stream.aisstream.io/v0/stream" {
		t.Errorf("ais url = %q", cfg.AIS.URL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"DUCKDB_PATH", "database.path"},
		{"AISSTREAM_API_KEY", "ais.api_key"},
		{"SPOOF_SCAN_INTERVAL", "spoof.scan_interval"},
		{"DARK_VESSEL_GAP_HOURS", "dark_vessel.gap_hours"},
		{"HTTP_PORT", "server.port"},
		{"HTTP_RATE_LIMIT", "server.rate_limit"},
		{"LOG_LEVEL", "logging.level"},
		{"HOME", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("BUFFER_BATCH_SIZE", "250")
	t.Setenv("SPOOF_SCAN_INTERVAL", "90s")
	t.Setenv("NATS_ENABLED", "false")
	t.Setenv("TASKING_SAR_URL", "http://sar.internal:8000")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	if cfg.Buffer.BatchSize != 250 {
		t.Errorf("batch size = %d, want 250", cfg.Buffer.BatchSize)
	}
	if cfg.Spoof.ScanInterval != 90*time.Second {
		t.Errorf("scan interval = %s, want 90s", cfg.Spoof.ScanInterval)
	}
	if cfg.NATS.Enabled {
		t.Error("expected NATS disabled")
	}
	if cfg.Tasking.SARURL != "http://sar.internal:8000" {
		t.Errorf("sar url = %q", cfg.Tasking.SARURL)
	}
	if cfg.Database.Path != "/data/poseidon.duckdb" {
		t.Errorf("database path should keep its default, got %q", cfg.Database.Path)
	}
}

func TestLoadWithKoanf_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poseidon.yaml")
	yaml := `
dark_vessel:
  gap_hours: 3
  active_window_hours: 12
database:
  path: /tmp/from-file.duckdb
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("DUCKDB_PATH", "/tmp/from-env.duckdb")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	if cfg.DarkVessel.GapHours != 3 || cfg.DarkVessel.ActiveWindowHours != 12 {
		t.Errorf("dark vessel = %+v, want gap 3 window 12", cfg.DarkVessel)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Database.Path != "/tmp/from-env.duckdb" {
		t.Errorf("env should win over file, got %q", cfg.Database.Path)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero flush interval", func(c *Config) { c.Buffer.FlushInterval = 0 }, "BUFFER_FLUSH_INTERVAL"},
		{"batch too large", func(c *Config) { c.Buffer.BatchSize = 100001 }, "BUFFER_BATCH_SIZE"},
		{"batch zero", func(c *Config) { c.Buffer.BatchSize = 0 }, "BUFFER_BATCH_SIZE"},
		{"gap not below window", func(c *Config) { c.DarkVessel.GapHours = 24 }, "DARK_VESSEL_GAP_HOURS"},
		{"speed threshold", func(c *Config) { c.Spoof.ImpossibleSpeedKnots = 0 }, "SPOOF_IMPOSSIBLE_SPEED_KNOTS"},
		{"cluster window", func(c *Config) { c.Spoof.ClusterWindowMinutes = 0 }, "SPOOF_CLUSTER_WINDOW_MINUTES"},
		{"fusion disabled", func(c *Config) { c.Fusion.BatchInterval = 0 }, ""},
		{"fusion negative", func(c *Config) { c.Fusion.BatchInterval = -time.Second }, "FUSION_BATCH_INTERVAL"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }, "HTTP_RATE_LIMIT"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"ais http scheme", func(c *Config) { c.AIS.URL = "http://stream.example" }, "AIS_STREAM_URL"},
		{"ais disabled ignores url", func(c *Config) { c.AIS.Enabled = false; c.AIS.URL = "" }, ""},
		{"bad sar url", func(c *Config) { c.Tasking.SARURL = "ftp://x" }, "TASKING_SAR_URL"},
		{"nats disabled ignores url", func(c *Config) { c.NATS.Enabled = false; c.NATS.URL = "" }, ""},
		{"gc ratio", func(c *Config) { c.WAL.GCRatio = 1 }, "WAL_GC_RATIO"},
		{"negative sync interval", func(c *Config) { c.WAL.SyncInterval = -time.Second }, "WAL_SYNC_INTERVAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
