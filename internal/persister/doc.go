// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

/*
Package persister drains the durable queue into DuckDB.

Every flush dequeues up to BatchSize entries and writes them in one
transaction:

  - static reports are merged per MMSI, checked for identity drift against
    the stored vessel, and upserted
  - position reports ensure a vessel row, are classified by receiver and
    spatial cell, and are inserted
  - every record gets a forensic ais_raw_messages row with its flags and an
    xxh3 content hash

A failed transaction rolls the batch back and moves its entries to the
queue's dead-letter keyspace.
*/
package persister
