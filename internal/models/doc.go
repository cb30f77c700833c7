// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

// Package models defines the data structures shared across Poseidon: decoded
// AIS records, persisted vessels and positions, detector outputs and fusion
// results. Enumerations are closed string types so that they survive
// round-trips through DuckDB VARCHAR columns and JSON unchanged.
package models
