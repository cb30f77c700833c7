// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package fusion

import (
	"math"
	"testing"
	"time"

	"github.com/tomtom215/poseidon/internal/models"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAISConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		lastSeen *time.Time
		want     float64
	}{
		{"never seen", nil, 0.05},
		{"fresh", ptr(t0.Add(-10 * time.Minute)), 0.85},
		{"at threshold", ptr(t0.Add(-30 * time.Minute)), 0.85},
		{"future", ptr(t0.Add(time.Hour)), 0.85},
		{"one half-life", ptr(t0.Add(-150 * time.Minute)), 0.425},
		{"two half-lives", ptr(t0.Add(-270 * time.Minute)), 0.2125},
		{"floor", ptr(t0.Add(-24 * time.Hour)), 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := AISConfidence(tt.lastSeen, t0); !approx(got, tt.want) {
				t.Errorf("AISConfidence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSourceConfidences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"sar none", SARConfidence(0), 0.1},
		{"sar one", SARConfidence(1), 0.6},
		{"sar three", SARConfidence(3), 0.8},
		{"sar capped", SARConfidence(10), 0.9},
		{"viirs none", VIIRSConfidence(0), 0.1},
		{"viirs two", VIIRSConfidence(2), 0.6},
		{"viirs capped", VIIRSConfidence(10), 0.85},
		{"acoustic none", AcousticConfidence(0, nil), 0.1},
		{"acoustic null max", AcousticConfidence(1, nil), 0.3},
		{"acoustic boosted", AcousticConfidence(3, ptr(0.6)), 0.7},
		{"acoustic capped", AcousticConfidence(5, ptr(0.88)), 0.9},
	}
	for _, tt := range tests {
		if !approx(tt.got, tt.want) {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestPosterior(t *testing.T) {
	t.Parallel()

	ones := make([]float64, 40)
	zeros := make([]float64, 40)
	for i := range ones {
		ones[i] = 1
	}

	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"empty", nil, 0},
		{"neutral", []float64{0.5, 0.5, 0.5, 0.5}, 0.5},
		{"single", []float64{0.7}, 0.7},
		{"two strong", []float64{0.9, 0.9}, 0.81 / 0.82},
		{"opposed", []float64{0.9, 0.1}, 0.5},
		{"saturated high", ones, 1},
		{"saturated low", zeros, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Posterior(tt.in...); !approx(got, tt.want) {
				t.Errorf("Posterior = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPosterior_Monotonic(t *testing.T) {
	t.Parallel()

	fixed := [][3]float64{
		{0.05, 0.1, 0.1},
		{0.85, 0.6, 0.1},
		{0.5, 0.5, 0.5},
		{0.999999, 0.3, 0.9},
		{0, 0, 0},
	}
	for _, others := range fixed {
		for slot := range 4 {
			prev := -1.0
			for step := 0; step <= 100; step++ {
				p := float64(step) / 100
				in := make([]float64, 0, 4)
				j := 0
				for i := range 4 {
					if i == slot {
						in = append(in, p)
						continue
					}
					in = append(in, others[j])
					j++
				}
				got := Posterior(in...)
				if got < prev {
					t.Fatalf("posterior decreased at slot %d p=%v others=%v: %v < %v", slot, p, others, got, prev)
				}
				if got < 0 || got > 1 {
					t.Fatalf("posterior %v out of range", got)
				}
				prev = got
			}
		}
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		posterior float64
		want      models.Classification
	}{
		{1, models.ClassConfirmed},
		{0.8, models.ClassConfirmed},
		{0.79, models.ClassProbable},
		{0.5, models.ClassProbable},
		{0.49, models.ClassPossible},
		{0.3, models.ClassPossible},
		{0.29, models.ClassLowConfidence},
		{0, models.ClassLowConfidence},
	}
	for _, tt := range tests {
		if got := Classify(tt.posterior); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.posterior, got, tt.want)
		}
	}
}
