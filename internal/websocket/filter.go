// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package websocket

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/tomtom215/poseidon/internal/models"
)

// MaxFilterMMSIs bounds the MMSI list of one subscription.
const MaxFilterMMSIs = 500

// FilterRequest is the data of a subscribe frame. Empty fields match
// everything.
//
//	{"type":"subscribe","data":{"mmsis":[211000001],"bbox":[-6,48,2,52],"kinds":["position"]}}
type FilterRequest struct {
	MMSIs []int64             `json:"mmsis,omitempty"`
	BBox  []float64           `json:"bbox,omitempty"` // min lon, min lat, max lon, max lat
	Kinds []models.RecordKind `json:"kinds,omitempty"`
}

// Filter decides which ais.live records a client receives.
type Filter struct {
	mmsis map[int64]struct{}
	kinds map[models.RecordKind]struct{}
	bound *orb.Bound
}

// NewFilter validates req and compiles it.
func NewFilter(req FilterRequest) (*Filter, error) {
	if len(req.MMSIs) > MaxFilterMMSIs {
		return nil, fmt.Errorf("at most %d mmsis per subscription, got %d", MaxFilterMMSIs, len(req.MMSIs))
	}
	f := &Filter{}
	if len(req.MMSIs) > 0 {
		f.mmsis = make(map[int64]struct{}, len(req.MMSIs))
		for _, m := range req.MMSIs {
			if err := models.ValidateMMSI(m); err != nil {
				return nil, err
			}
			f.mmsis[m] = struct{}{}
		}
	}
	if len(req.Kinds) > 0 {
		f.kinds = make(map[models.RecordKind]struct{}, len(req.Kinds))
		for _, k := range req.Kinds {
			if k != models.KindPosition && k != models.KindStatic {
				return nil, fmt.Errorf("unknown record kind %q", k)
			}
			f.kinds[k] = struct{}{}
		}
	}
	if req.BBox != nil {
		b, err := parseBBox(req.BBox)
		if err != nil {
			return nil, err
		}
		f.bound = &b
	}
	return f, nil
}

func parseBBox(v []float64) (orb.Bound, error) {
	if len(v) != 4 {
		return orb.Bound{}, errors.New("bbox needs four numbers: min lon, min lat, max lon, max lat")
	}
	minLon, minLat, maxLon, maxLat := v[0], v[1], v[2], v[3]
	if minLon < -180 || maxLon > 180 || minLat < -90 || maxLat > 90 || minLon > maxLon || minLat > maxLat {
		return orb.Bound{}, fmt.Errorf("bbox %v out of range", v)
	}
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}, nil
}

// Match reports whether rec passes the filter. The bounding box applies to
// positions only; static reports carry no location.
func (f *Filter) Match(rec models.Record) bool {
	if f == nil || rec == nil {
		return true
	}
	if f.kinds != nil {
		if _, ok := f.kinds[rec.Kind()]; !ok {
			return false
		}
	}
	if f.mmsis != nil {
		if _, ok := f.mmsis[rec.VesselMMSI()]; !ok {
			return false
		}
	}
	if f.bound != nil {
		if p, ok := rec.(*models.PositionReport); ok && !f.bound.Contains(orb.Point{p.Lon, p.Lat}) {
			return false
		}
	}
	return true
}
