// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

/*
Package websocket streams live AIS traffic to browser clients.

Records decoded by the ingestor are published on the ais.live bus topic.
LiveBridge subscribes to that topic and hands each payload to the Hub, which
fans it out to every connected Client on /ws/live.

	bus (ais.live) -> LiveBridge -> Hub -> Client... -> browser

Delivery is best effort end to end. A client whose send buffer is full is
disconnected rather than allowed to slow the hub down, and a full hub
broadcast channel drops the message.

Each client has two goroutines:
  - readPump applies client frames: ping, subscribe and unsubscribe
  - writePump writes queued messages and sends protocol pings

Server frames are JSON objects of the form:

	{"type":"ais","data":{"kind":"position","position":{"mmsi":211000001,...}}}

A client narrows its stream by MMSI, record kind or bounding box:

	{"type":"subscribe","data":{"mmsis":[211000001],"bbox":[-6,48,2,52]}}

The hub answers with "subscribed", or "error" for an invalid filter.
Sending "unsubscribe" restores the full stream.
*/
package websocket
