// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

// Package metrics holds the Prometheus collectors shared across the ingest
// pipeline, the detectors and the HTTP surface. Collectors are registered on
// the default registry and served at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingest
	IngestMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poseidon_ingest_messages_received_total",
			Help: "Raw messages read from the AIS stream",
		},
	)

	IngestRecordsDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poseidon_ingest_records_decoded_total",
			Help: "Records produced by the decoder, by kind",
		},
		[]string{"kind"}, // "position", "static"
	)

	IngestRecordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poseidon_ingest_records_dropped_total",
			Help: "Messages discarded during ingest, by reason",
		},
		[]string{"reason"}, // "malformed", "invalid_position", "unsupported_type", "live_full", "queue_entry"
	)

	IngestReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poseidon_ingest_reconnects_total",
			Help: "Stream reconnect attempts",
		},
	)

	IngestConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poseidon_ingest_connected",
			Help: "1 while the AIS stream connection is open",
		},
	)

	// Persistence
	FlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poseidon_flush_duration_seconds",
			Help:    "Duration of a persister flush transaction",
			Buckets: prometheus.DefBuckets,
		},
	)

	FlushBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poseidon_flush_batch_size",
			Help:    "Records per flushed batch",
			Buckets: []float64{1, 10, 50, 100, 250, 500, 1000, 5000},
		},
	)

	FlushFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poseidon_flush_failures_total",
			Help: "Flush transactions that rolled back",
		},
	)

	RecordsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poseidon_records_persisted_total",
			Help: "Rows written by the persister, by table",
		},
		[]string{"table"},
	)

	RawMessageFlags = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poseidon_raw_message_flags_total",
			Help: "Forensic flags raised on raw messages",
		},
		[]string{"flag"},
	)

	// Detection
	DetectorCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poseidon_detector_cycles_total",
			Help: "Completed detector scan cycles",
		},
		[]string{"detector"},
	)

	DetectorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poseidon_detector_errors_total",
			Help: "Detector cycles that failed",
		},
		[]string{"detector"},
	)

	DetectorCycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poseidon_detector_cycle_duration_seconds",
			Help:    "Duration of a detector scan cycle",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"detector"},
	)

	SpoofSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poseidon_spoof_signals_total",
			Help: "Spoof signals inserted, by anomaly type",
		},
		[]string{"type"},
	)

	SpoofClusters = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poseidon_spoof_clusters_total",
			Help: "Spoof clusters created",
		},
	)

	DarkAlerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poseidon_dark_vessel_alerts_total",
			Help: "Dark vessel alert transitions",
		},
		[]string{"transition"}, // "opened", "resolved"
	)

	// Fusion
	FusionComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poseidon_fusion_computations_total",
			Help: "Fusion results computed, by classification",
		},
		[]string{"classification"},
	)

	FusionPosterior = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poseidon_fusion_posterior",
			Help:    "Distribution of fused posteriors",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)

	// Tasking
	TaskingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poseidon_tasking_requests_total",
			Help: "Outbound collaborator requests, by collaborator and outcome",
		},
		[]string{"collaborator", "outcome"}, // outcome: "ok", "error", "breaker_open"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "poseidon_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Event bus
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poseidon_events_published_total",
			Help: "Messages published on the event bus, by topic",
		},
		[]string{"topic"},
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poseidon_api_requests_total",
			Help: "HTTP requests, by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poseidon_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poseidon_websocket_connections",
			Help: "Live websocket clients",
		},
	)

	// Database
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poseidon_duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poseidon_duckdb_query_errors_total",
			Help: "DuckDB queries that returned an error",
		},
		[]string{"operation"},
	)
)

// RecordDecoded counts a decoded record of the given kind.
func RecordDecoded(kind string) {
	IngestRecordsDecoded.WithLabelValues(kind).Inc()
}

// RecordDropped counts a discarded message.
func RecordDropped(reason string) {
	IngestRecordsDropped.WithLabelValues(reason).Inc()
}

// RecordFlush records one persister flush. A non-nil err counts as a failure.
func RecordFlush(duration time.Duration, batchSize int, err error) {
	FlushDuration.Observe(duration.Seconds())
	FlushBatchSize.Observe(float64(batchSize))
	if err != nil {
		FlushFailures.Inc()
	}
}

// RecordPersisted adds n rows written to table.
func RecordPersisted(table string, n int) {
	if n > 0 {
		RecordsPersisted.WithLabelValues(table).Add(float64(n))
	}
}

// RecordDetectorCycle records a detector cycle outcome.
func RecordDetectorCycle(detector string, duration time.Duration, err error) {
	DetectorCycleDuration.WithLabelValues(detector).Observe(duration.Seconds())
	if err != nil {
		DetectorErrors.WithLabelValues(detector).Inc()
		return
	}
	DetectorCycles.WithLabelValues(detector).Inc()
}

// RecordFusion records a fusion result.
func RecordFusion(classification string, posterior float64) {
	FusionComputations.WithLabelValues(classification).Inc()
	FusionPosterior.Observe(posterior)
}

// RecordTasking records an outbound collaborator call.
func RecordTasking(collaborator, outcome string) {
	TaskingRequests.WithLabelValues(collaborator, outcome).Inc()
}

// RecordAPIRequest records an HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordDBQuery records a DuckDB query.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}
