// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

// Package tasking requests follow-up SAR and VIIRS collection around newly
// created spoof clusters.
//
// The Worker consumes detection.ClusterCreated events from the event router.
// Each collaborator is a JSON-over-HTTP service behind its own rate limiter
// and circuit breaker:
//
//	POST {sar_url}/search    {"bbox", "start_date", "end_date", "limit"} -> {"scenes": [...]}
//	POST {viirs_url}/fetch   {"bbox", "days"}                            -> {"inserted": n}
//	POST {viirs_url}/detect  {"bbox"}                                    -> {"anomalies": n}
//
// Tasking is best effort: failures are logged and counted, never returned
// to the router.
package tasking
