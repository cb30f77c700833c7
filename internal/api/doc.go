// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

/*
Package api is the operations HTTP surface, routed with chi.

Routes:

	GET  /healthz                            component health, 503 when any check fails
	GET  /metrics                            Prometheus exposition
	GET  /ws/live                            live AIS websocket
	POST /api/v1/fusion/{mmsi}               compute and store a fusion result
	GET  /api/v1/fusion/{mmsi}/history       stored results, newest first
	GET  /api/v1/vessels/{mmsi}              vessel record and latest position
	GET  /api/v1/vessels/{mmsi}/identity     identity change history
	GET  /api/v1/vessels/{mmsi}/forensics    raw message forensics
	GET  /api/v1/dark-alerts                 dark vessel alerts

Every /api/v1 body is a models.APIResponse envelope. The /api/v1 group is
rate limited per client IP and carries CORS and security headers.
*/
package api
