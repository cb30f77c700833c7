// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package models

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestNavStatusFromCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want NavStatus
	}{
		{0, NavUnderWayUsingEngine},
		{1, NavAtAnchor},
		{5, NavMoored},
		{7, NavEngagedInFishing},
		{13, NavReserved13},
		{14, NavAISSART},
		{15, NavNotDefined},
		{16, NavUnknown},
		{-1, NavUnknown},
	}
	for _, tt := range tests {
		if got := NavStatusFromCode(tt.code); got != tt.want {
			t.Errorf("NavStatusFromCode(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestVesselTypeFromCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want VesselType
	}{
		{70, VesselCargo},
		{79, VesselCargo},
		{80, VesselTanker},
		{89, VesselTanker},
		{60, VesselPassenger},
		{40, VesselHSC},
		{49, VesselHSC},
		{30, VesselFishing},
		{31, VesselTug},
		{32, VesselTug},
		{33, VesselUnknown},
		{35, VesselMilitary},
		{36, VesselPleasure},
		{37, VesselPleasure},
		{51, VesselSAR},
		{52, VesselUnknown},
		{0, VesselUnknown},
		{99, VesselUnknown},
	}
	for _, tt := range tests {
		if got := VesselTypeFromCode(tt.code); got != tt.want {
			t.Errorf("VesselTypeFromCode(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestRecordEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	nav := NavAISSART
	in := []Record{
		&PositionReport{MMSI: 244660000, Lat: 52.1, Lon: 4.2, SOG: ptr(12.5), NavStatus: &nav, Timestamp: ts, Raw: []byte(`{"a":1}`)},
		&StaticReport{MMSI: 244660000, Name: ptr("NORDIC STAR"), ShipType: ptr(VesselTanker), Timestamp: ts},
	}

	for _, r := range in {
		data, err := MarshalRecord(r)
		if err != nil {
			t.Fatalf("MarshalRecord: %v", err)
		}
		out, err := UnmarshalRecord(data)
		if err != nil {
			t.Fatalf("UnmarshalRecord: %v", err)
		}
		if out.Kind() != r.Kind() || out.VesselMMSI() != r.VesselMMSI() {
			t.Errorf("round trip changed identity: %v -> %v", r.Kind(), out.Kind())
		}
		switch v := out.(type) {
		case *PositionReport:
			if *v.NavStatus != NavAISSART || string(v.Raw) != `{"a":1}` {
				t.Errorf("position fields lost: %+v", v)
			}
		case *StaticReport:
			if *v.Name != "NORDIC STAR" || *v.ShipType != VesselTanker {
				t.Errorf("static fields lost: %+v", v)
			}
		}
	}
}

func TestUnmarshalRecordRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := UnmarshalRecord([]byte(`{"kind":"voyage"}`))
	if !errors.Is(err, ErrUnknownRecordKind) {
		t.Fatalf("err = %v, want ErrUnknownRecordKind", err)
	}
	if _, err := UnmarshalRecord([]byte(`not json`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestMergeStatic(t *testing.T) {
	t.Parallel()

	first := &StaticReport{MMSI: 1, Name: ptr("ALPHA"), Callsign: ptr("AB12"), ShipType: ptr(VesselCargo)}
	second := &StaticReport{MMSI: 1, Destination: ptr("ROTTERDAM"), ShipType: ptr(VesselUnknown)}
	third := &StaticReport{MMSI: 1, Name: ptr("BRAVO")}

	merged := MergeStatic(MergeStatic(MergeStatic(nil, first), second), third)

	if *merged.Name != "BRAVO" {
		t.Errorf("name = %q, want BRAVO", *merged.Name)
	}
	if *merged.Callsign != "AB12" {
		t.Errorf("callsign = %q, want AB12", *merged.Callsign)
	}
	if *merged.Destination != "ROTTERDAM" {
		t.Errorf("destination = %q, want ROTTERDAM", *merged.Destination)
	}
	if *merged.ShipType != VesselCargo {
		t.Errorf("unknown type must not override cargo, got %q", *merged.ShipType)
	}
	if *first.Name != "ALPHA" {
		t.Error("MergeStatic must not mutate its inputs")
	}
}

func TestIdentityDrift(t *testing.T) {
	t.Parallel()

	stored := &Vessel{MMSI: 1, Name: ptr("ALPHA"), Callsign: ptr("AB12"), ShipType: ptr(VesselCargo)}

	tests := []struct {
		name     string
		incoming *StaticReport
		want     []string
	}{
		{"identical", &StaticReport{MMSI: 1, Name: ptr("ALPHA"), Callsign: ptr("AB12")}, nil},
		{"null incoming never drifts", &StaticReport{MMSI: 1}, nil},
		{"null stored never drifts", &StaticReport{MMSI: 1, IMO: ptr(int64(9300000))}, nil},
		{"rename", &StaticReport{MMSI: 1, Name: ptr("BRAVO")}, []string{"name"}},
		{"retype", &StaticReport{MMSI: 1, ShipType: ptr(VesselTanker), Callsign: ptr("ZZ99")}, []string{"ship_type", "callsign"}},
		{"unknown type ignored", &StaticReport{MMSI: 1, ShipType: ptr(VesselUnknown)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := IdentityDrift(stored, tt.incoming)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("IdentityDrift = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateMMSI(t *testing.T) {
	t.Parallel()

	for _, mmsi := range []int64{1, 211000001, MaxMMSI} {
		if err := ValidateMMSI(mmsi); err != nil {
			t.Errorf("ValidateMMSI(%d) = %v", mmsi, err)
		}
	}
	for _, mmsi := range []int64{0, -5, MaxMMSI + 1} {
		if err := ValidateMMSI(mmsi); !errors.Is(err, ErrInvalidMMSI) {
			t.Errorf("ValidateMMSI(%d) = %v, want ErrInvalidMMSI", mmsi, err)
		}
	}
}
