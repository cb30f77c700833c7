// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

// Package database is the DuckDB data layer for Poseidon.
//
// # Overview
//
// One embedded DuckDB file holds vessel identity, the append-only position
// and forensic logs, detector output and fusion snapshots. The package owns
// the schema and every SQL statement; the persister, detectors and HTTP
// handlers reach it through narrow interfaces declared in their own
// packages.
//
// # Files
//
//   - database.go: lifecycle (open, initialize, checkpoint, close)
//   - schema.go: tables, sequences, indexes and the latest-position view
//   - ingest.go: the per-batch ingest transaction used by the persister
//   - vessels.go: vessel lookups and identity history
//   - forensics.go: raw-message queries and per-vessel summaries
//   - dark.go: dark-vessel candidates and alert lifecycle
//   - spoof.go: spoof rule queries, signal inserts and clustering
//   - fusion.go: fusion evidence and result history
//
// # Time
//
// Every timestamp column is a naive TIMESTAMP holding UTC. Callers pass
// "now" explicitly so detectors can run against an injected clock.
//
// # Not found
//
// Single-row lookups return (value, found, err) instead of an error for a
// missing row.
package database
