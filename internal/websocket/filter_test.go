// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package websocket

import (
	"testing"

	"github.com/tomtom215/poseidon/internal/models"
)

func TestNewFilter_Rejects(t *testing.T) {
	t.Parallel()

	tooMany := make([]int64, MaxFilterMMSIs+1)
	for i := range tooMany {
		tooMany[i] = int64(200000000 + i)
	}
	tests := []struct {
		name string
		req  FilterRequest
	}{
		{"too many mmsis", FilterRequest{MMSIs: tooMany}},
		{"invalid mmsi", FilterRequest{MMSIs: []int64{0}}},
		{"unknown kind", FilterRequest{Kinds: []models.RecordKind{"voyage"}}},
		{"short bbox", FilterRequest{BBox: []float64{1, 2, 3}}},
		{"inverted bbox", FilterRequest{BBox: []float64{10, 0, 0, 10}}},
		{"latitude out of range", FilterRequest{BBox: []float64{0, -91, 10, 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewFilter(tt.req); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFilter_Match(t *testing.T) {
	t.Parallel()

	inBox := &models.PositionReport{MMSI: 211000001, Lat: 51, Lon: 1}
	outOfBox := &models.PositionReport{MMSI: 211000001, Lat: 40, Lon: 1}
	static := &models.StaticReport{MMSI: 211000001}
	other := &models.PositionReport{MMSI: 211000009, Lat: 51, Lon: 1}

	f, err := NewFilter(FilterRequest{MMSIs: []int64{211000001}, BBox: []float64{-6, 48, 2, 52}})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		rec  models.Record
		want bool
	}{
		{"position inside box", inBox, true},
		{"position outside box", outOfBox, false},
		{"static ignores box", static, true},
		{"other vessel", other, false},
		{"control frame", nil, true},
	}
	for _, tt := range tests {
		if got := f.Match(tt.rec); got != tt.want {
			t.Errorf("%s: Match = %v, want %v", tt.name, got, tt.want)
		}
	}

	kinds, err := NewFilter(FilterRequest{Kinds: []models.RecordKind{models.KindStatic}})
	if err != nil {
		t.Fatal(err)
	}
	if kinds.Match(inBox) || !kinds.Match(static) {
		t.Error("kind filter should pass statics only")
	}

	var none *Filter
	if !none.Match(outOfBox) {
		t.Error("nil filter should match everything")
	}
}
