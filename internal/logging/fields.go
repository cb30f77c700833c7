// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package logging

import (
	"github.com/rs/zerolog"
)

// Field names shared by every component, so log queries can join the
// ingest, detection and tasking streams on the same keys.
const (
	FieldComponent     = "component"
	FieldMMSI          = "mmsi"
	FieldClusterID     = "cluster_id"
	FieldDetector      = "detector"
	FieldCorrelationID = "correlation_id"
	FieldRequestID     = "request_id"
)

// WithComponent creates a child of the global logger tagged with a
// component name.
func WithComponent(component string) zerolog.Logger {
	return With().Str(FieldComponent, component).Logger()
}

// WithDetector tags a component logger with the detector that owns it.
func WithDetector(component, detector string) zerolog.Logger {
	return With().Str(FieldComponent, component).Str(FieldDetector, detector).Logger()
}

// Vessel returns l with the mmsi field set.
//
//	logging.Vessel(d.logger, p.MMSI).Warn().Err(err).Msg("Dark alert insert failed")
func Vessel(l zerolog.Logger, mmsi int64) *zerolog.Logger {
	v := l.With().Int64(FieldMMSI, mmsi).Logger()
	return &v
}

// Cluster returns l with the cluster_id field set.
func Cluster(l zerolog.Logger, clusterID int64) *zerolog.Logger {
	c := l.With().Int64(FieldClusterID, clusterID).Logger()
	return &c
}
