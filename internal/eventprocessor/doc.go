// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

// Package eventprocessor provides the in-process event bus built on Watermill.
//
// Two transports are supported:
//   - NATS core (JetStream disabled), optionally served by an embedded
//     nats-server so a single binary needs no external broker
//   - the Watermill gochannel pub/sub when NATS is disabled
//
// Either way the rest of the code only sees message.Publisher and
// message.Subscriber.
//
// # Topics
//
//	ais.live                 every decoded record, fanned out to /ws/live
//	tasking.cluster_created  new spoof clusters, consumed by the tasking router
//	tasking.poison           handler failures after retries
//
// Live traffic is lossy by design of the transport: core NATS and gochannel
// both drop messages nobody is subscribed to. Durable state never travels on
// the bus; it lives in the write-ahead queue and DuckDB.
//
// # Router
//
// Router wraps message.Router with the middleware stack used for every
// consumer, outer to inner:
//
//  1. PoisonQueue forwards messages that still fail
//  2. Retry retries with exponential backoff
//  3. Recoverer converts handler panics into errors
package eventprocessor
