// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

// Package main is the entry point for the Poseidon server.
//
// Poseidon ingests a live AIS position stream, stores it durably, and runs
// detectors over it: dark vessels that stop transmitting, spoofed or
// implausible reports, and a Bayesian fusion score per vessel combining AIS
// freshness with SAR, VIIRS and acoustic evidence.
//
// # Startup
//
//  1. Configuration (koanf: defaults, config.yaml, environment)
//  2. Logging (zerolog)
//  3. DuckDB store and the BadgerDB write-ahead queue
//  4. Event bus: in-process gochannel, or NATS (optionally embedded)
//  5. Ingest: stream client, buffer, live fan-out, persister
//  6. Detection: dark and spoof runners, fusion batch, tasking router
//  7. Live websocket hub and the HTTP API
//
// Every loop runs under the supervisor tree and is restarted on failure.
//
// # Signals
//
// SIGINT and SIGTERM cancel the root context. The HTTP server drains, the
// supervisor stops each layer, then the bus, queue and database are closed.
//
// # Example
//
//	export AIS_API_KEY=...
//	export DATABASE_PATH=/data/poseidon.duckdb
//	export WAL_PATH=/data/wal
//	./poseidon
package main
