// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package wal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	walAppendsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poseidon_wal_appends_total",
		Help: "Records appended to the durable queue",
	})

	walDequeuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poseidon_wal_dequeued_total",
		Help: "Records removed from the durable queue by the persister",
	})

	walAppendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poseidon_wal_append_failures_total",
		Help: "Appends that failed to commit",
	})

	walDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poseidon_wal_depth",
		Help: "Records waiting in the durable queue",
	})

	walDLQDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poseidon_wal_dlq_depth",
		Help: "Records held in the dead-letter keyspace",
	})

	walAppendLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "poseidon_wal_append_latency_seconds",
		Help:    "Durable queue append latency",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	})

	walSyncsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poseidon_wal_syncs_total",
		Help: "Periodic fsyncs of the durable queue",
	})

	walSyncFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poseidon_wal_sync_failures_total",
		Help: "Periodic fsyncs that returned an error",
	})

	walDBSizeBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poseidon_wal_db_size_bytes",
		Help: "BadgerDB LSM plus value log size",
	})

	walGCRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poseidon_wal_gc_runs_total",
		Help: "BadgerDB value log GC runs",
	})

	walGCLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "poseidon_wal_gc_latency_seconds",
		Help:    "BadgerDB value log GC latency",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)
