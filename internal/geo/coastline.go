// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package geo

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/tomtom215/poseidon/internal/logging"
	"github.com/tomtom215/poseidon/internal/models"
)

// DefaultBufferNM is the coastal band within which a position is assumed to
// have been heard by a shore station.
const DefaultBufferNM = 50.0

// landPolygon is one land polygon with its bound padded by the buffer.
type landPolygon struct {
	poly  orb.Polygon
	bound orb.Bound
}

// Classifier labels positions terrestrial or satellite by distance to land.
// A nil or empty Classifier labels everything unknown.
type Classifier struct {
	land      []landPolygon
	bufferDeg float64
}

// NewClassifier builds a classifier from land polygons. bufferNM is converted
// to degrees at 60 nm per degree.
func NewClassifier(land orb.MultiPolygon, bufferNM float64) *Classifier {
	if bufferNM <= 0 {
		bufferNM = DefaultBufferNM
	}
	c := &Classifier{bufferDeg: bufferNM / 60}
	for _, poly := range land {
		if len(poly) == 0 || len(poly[0]) < 4 {
			continue
		}
		c.land = append(c.land, landPolygon{poly: poly, bound: poly.Bound().Pad(c.bufferDeg)})
	}
	return c
}

// LoadClassifier reads a GeoJSON FeatureCollection of land polygons (for
// example Natural Earth ne_110m_land). An empty path yields a classifier that
// always returns unknown.
func LoadClassifier(path string, bufferNM float64) (*Classifier, error) {
	if path == "" {
		logging.Warn().Msg("No coastline file configured, receiver class will be unknown")
		return &Classifier{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read coastline: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse coastline GeoJSON: %w", err)
	}

	var land orb.MultiPolygon
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			land = append(land, g)
		case orb.MultiPolygon:
			land = append(land, g...)
		}
	}

	c := NewClassifier(land, bufferNM)
	logging.Info().
		Str("path", path).
		Int("polygons", len(c.land)).
		Float64("buffer_nm", bufferNM).
		Msg("Coastline buffer initialized")
	return c, nil
}

// Loaded reports whether any land polygons are available.
func (c *Classifier) Loaded() bool {
	return c != nil && len(c.land) > 0
}

// Classify returns the receiver class for a position.
func (c *Classifier) Classify(lat, lon float64) models.ReceiverClass {
	if !c.Loaded() {
		return models.ReceiverUnknown
	}
	pt := orb.Point{lon, lat}
	for _, lp := range c.land {
		if !lp.bound.Contains(pt) {
			continue
		}
		if planar.PolygonContains(lp.poly, pt) {
			return models.ReceiverTerrestrial
		}
		if planar.DistanceFrom(lp.poly, pt) <= c.bufferDeg {
			return models.ReceiverTerrestrial
		}
	}
	return models.ReceiverSatellite
}
