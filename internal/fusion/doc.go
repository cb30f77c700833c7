// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

/*
Package fusion combines independent sensor evidence into a single trust
score per vessel.

Four sources are scored separately:

  - AIS: freshness of the last position, 0.85 up to 30 minutes old, then a
    two-hour half-life down to a 0.05 floor
  - SAR: matched radar detections in the last 7 days
  - VIIRS: nightlight anomalies within 50 km of the last position
  - Acoustic: correlated hydrophone events, boosted by count

The confidences are treated as independent likelihoods under a uniform prior
and fused with a naive-Bayes update evaluated in log space. The posterior is
bucketed into confirmed, probable, possible or low_confidence.

Every computation appends an immutable row; the newest row per MMSI is the
current score.
*/
package fusion
