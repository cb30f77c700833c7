// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package config

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	minBatchSize = 1
	maxBatchSize = 100000
)

// Validate checks the loaded configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateAIS,
		c.validateBuffer,
		c.validateWAL,
		c.validateDatabase,
		c.validateDarkVessel,
		c.validateSpoof,
		c.validateFusion,
		c.validateTasking,
		c.validateNATS,
		c.validateServer,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateAIS() error {
	if !c.AIS.Enabled {
		return nil
	}
	if err := validateURL(c.AIS.URL, "ws", "wss"); err != nil {
		return fmt.Errorf("AIS_STREAM_URL is invalid: %w", err)
	}
	if c.AIS.PingInterval <= 0 {
		return fmt.Errorf("AIS_PING_INTERVAL must be positive, got %s", c.AIS.PingInterval)
	}
	if c.AIS.ReconnectDelay <= 0 {
		return fmt.Errorf("AIS_RECONNECT_DELAY must be positive, got %s", c.AIS.ReconnectDelay)
	}
	return nil
}

func (c *Config) validateBuffer() error {
	if c.Buffer.FlushInterval <= 0 {
		return fmt.Errorf("BUFFER_FLUSH_INTERVAL must be positive, got %s", c.Buffer.FlushInterval)
	}
	if c.Buffer.BatchSize < minBatchSize || c.Buffer.BatchSize > maxBatchSize {
		return fmt.Errorf("BUFFER_BATCH_SIZE must be between %d and %d, got %d", minBatchSize, maxBatchSize, c.Buffer.BatchSize)
	}
	if c.Buffer.LiveCapacity < 1 {
		return fmt.Errorf("BUFFER_LIVE_CAPACITY must be at least 1, got %d", c.Buffer.LiveCapacity)
	}
	return nil
}

func (c *Config) validateWAL() error {
	if c.WAL.Path == "" {
		return fmt.Errorf("WAL_PATH is required")
	}
	if c.WAL.SyncInterval < 0 {
		return fmt.Errorf("WAL_SYNC_INTERVAL must not be negative, got %s", c.WAL.SyncInterval)
	}
	if c.WAL.GCInterval <= 0 {
		return fmt.Errorf("WAL_GC_INTERVAL must be positive, got %s", c.WAL.GCInterval)
	}
	if c.WAL.GCRatio <= 0 || c.WAL.GCRatio >= 1 {
		return fmt.Errorf("WAL_GC_RATIO must be in (0, 1), got %v", c.WAL.GCRatio)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateDarkVessel() error {
	d := c.DarkVessel
	if d.CheckInterval <= 0 {
		return fmt.Errorf("DARK_VESSEL_CHECK_INTERVAL must be positive, got %s", d.CheckInterval)
	}
	if d.GapHours <= 0 {
		return fmt.Errorf("DARK_VESSEL_GAP_HOURS must be positive, got %v", d.GapHours)
	}
	if d.GapHours >= d.ActiveWindowHours {
		return fmt.Errorf("DARK_VESSEL_GAP_HOURS (%v) must be less than DARK_VESSEL_ACTIVE_WINDOW_HOURS (%v)", d.GapHours, d.ActiveWindowHours)
	}
	return nil
}

func (c *Config) validateSpoof() error {
	s := c.Spoof
	if s.ScanInterval <= 0 {
		return fmt.Errorf("SPOOF_SCAN_INTERVAL must be positive, got %s", s.ScanInterval)
	}
	if s.ImpossibleSpeedKnots <= 0 {
		return fmt.Errorf("SPOOF_IMPOSSIBLE_SPEED_KNOTS must be positive, got %v", s.ImpossibleSpeedKnots)
	}
	if s.ClusterWindowMinutes < 1 {
		return fmt.Errorf("SPOOF_CLUSTER_WINDOW_MINUTES must be at least 1, got %d", s.ClusterWindowMinutes)
	}
	return nil
}

func (c *Config) validateFusion() error {
	if c.Fusion.BatchInterval < 0 {
		return fmt.Errorf("FUSION_BATCH_INTERVAL must not be negative, got %s", c.Fusion.BatchInterval)
	}
	if c.Fusion.BatchInterval > 0 && c.Fusion.ActiveWindow <= 0 {
		return fmt.Errorf("FUSION_ACTIVE_WINDOW must be positive, got %s", c.Fusion.ActiveWindow)
	}
	return nil
}

func (c *Config) validateTasking() error {
	if c.Tasking.SARURL != "" {
		if err := validateURL(c.Tasking.SARURL, "http", "https"); err != nil {
			return fmt.Errorf("TASKING_SAR_URL is invalid: %w", err)
		}
	}
	if c.Tasking.VIIRSURL != "" {
		if err := validateURL(c.Tasking.VIIRSURL, "http", "https"); err != nil {
			return fmt.Errorf("TASKING_VIIRS_URL is invalid: %w", err)
		}
	}
	if c.Tasking.Timeout <= 0 {
		return fmt.Errorf("TASKING_TIMEOUT must be positive, got %s", c.Tasking.Timeout)
	}
	if c.Tasking.RatePerSecond <= 0 {
		return fmt.Errorf("TASKING_RATE_PER_SECOND must be positive, got %v", c.Tasking.RatePerSecond)
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if err := validateURL(c.NATS.URL, "nats", "tls"); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if c.NATS.EmbeddedServer {
		if err := validatePort(c.NATS.Port); err != nil {
			return fmt.Errorf("NATS_PORT is invalid: %w", err)
		}
	}
	if c.NATS.RouterRetryCount < 0 {
		return fmt.Errorf("NATS_ROUTER_RETRY_COUNT must not be negative, got %d", c.NATS.RouterRetryCount)
	}
	return nil
}

func (c *Config) validateServer() error {
	if err := validatePort(c.Server.Port); err != nil {
		return fmt.Errorf("HTTP_PORT is invalid: %w", err)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("HTTP_RATE_LIMIT must not be negative, got %d", c.Server.RateLimit)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if u.Host == "" {
				return fmt.Errorf("url %q has no host", raw)
			}
			return nil
		}
	}
	return fmt.Errorf("url scheme %q not in %v", u.Scheme, schemes)
}
