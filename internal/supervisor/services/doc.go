// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

/*
Package services adapts Poseidon components to suture.Service.

  - RunnerService: any component with RunWithContext(ctx) error, which covers
    the ingest stream, live fan-out, persister, detectors, tasking router,
    fusion batch, websocket hub and live bridge
  - APIServerService: binds the API listener, drains on shutdown and then
    closes the hijacked /ws/live streams
  - WALCompactorService: the Start/Stop lifecycle of wal.Compactor

Every Serve returns ctx.Err() on a normal shutdown so that suture does not
count it as a failure.
*/
package services
