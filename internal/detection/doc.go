// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

// Package detection runs the periodic vessel behaviour scans.
//
// Detection Architecture:
//
//	vessel_positions -> Runner(Detector) -> alerts / signals -> DuckDB
//	                                             |
//	                                             v
//	                               ClusterCreated -> tasking router
//
// Two detectors are provided:
//   - DarkDetector: raises an alert when a moving vessel stops reporting,
//     dead-reckons where it should be now, and resolves the alert when the
//     vessel reappears.
//   - SpoofDetector: applies the impossible speed, SART on non-SAR, no
//     identity and position jump rules, then groups unclustered signals
//     into time-window clusters and publishes ClusterCreated for each.
//
// Detectors keep no state of their own. Everything lives in DuckDB behind
// the Store interfaces, so a restart resumes where the last scan stopped.
package detection
