// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package ais

import (
	"testing"
	"time"

	"github.com/tomtom215/poseidon/internal/models"
)

var receivedAt = time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)

func positionFrame(lat, lon string) string {
	return `{"MessageType":"PositionReport","MetaData":{"MMSI":244660000,"ShipName":"NORDIC STAR  ","time_utc":"2026-03-01 12:00:00.123456789 +0000 UTC"},` +
		`"Message":{"PositionReport":{"Latitude":` + lat + `,"Longitude":` + lon + `,"Sog":12.3,"Cog":87.5,"TrueHeading":511,"NavigationalStatus":0,"RateOfTurn":0}}}`
}

func TestDecodePosition(t *testing.T) {
	t.Parallel()

	d := NewDecoder()
	rec, ok := d.Decode([]byte(positionFrame("52.1", "4.25")), receivedAt)
	if !ok {
		t.Fatal("expected a record")
	}
	pos, isPos := rec.(*models.PositionReport)
	if !isPos {
		t.Fatalf("expected *PositionReport, got %T", rec)
	}
	if pos.MMSI != 244660000 || pos.Lat != 52.1 || pos.Lon != 4.25 {
		t.Errorf("unexpected identity/coords: %+v", pos)
	}
	if pos.SOG == nil || *pos.SOG != 12.3 {
		t.Errorf("sog = %v, want 12.3", pos.SOG)
	}
	if pos.Heading != nil {
		t.Errorf("heading 511 should decode as nil, got %d", *pos.Heading)
	}
	if pos.NavStatus == nil || *pos.NavStatus != models.NavUnderWayUsingEngine {
		t.Errorf("nav status = %v", pos.NavStatus)
	}
	if pos.Name == nil || *pos.Name != "NORDIC STAR" {
		t.Errorf("name = %v, want trimmed NORDIC STAR", pos.Name)
	}
	want := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	if !pos.Timestamp.Equal(want) {
		t.Errorf("timestamp = %s, want %s", pos.Timestamp, want)
	}
	if !pos.ReceivedAt.Equal(receivedAt) {
		t.Errorf("received_at = %s", pos.ReceivedAt)
	}
}

func TestDecodeRejectsInvalidPositions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		frame string
	}{
		{"null island", positionFrame("0", "0")},
		{"latitude out of range", positionFrame("91", "10")},
		{"longitude out of range", positionFrame("10", "-180.5")},
		{"missing latitude", positionFrame("null", "10")},
		{"malformed json", `{"MessageType":`},
		{"unsupported type", `{"MessageType":"BaseStationReport","MetaData":{"MMSI":1},"Message":{}}`},
		{"position without body", `{"MessageType":"PositionReport","MetaData":{"MMSI":1},"Message":{}}`},
		{"missing mmsi", `{"MessageType":"PositionReport","MetaData":{},"Message":{"PositionReport":{"Latitude":1,"Longitude":1}}}`},
	}

	d := NewDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if rec, ok := d.Decode([]byte(tt.frame), receivedAt); ok {
				t.Errorf("expected drop, got %+v", rec)
			}
		})
	}
}

func TestDecodeAcceptsBoundaryCoordinates(t *testing.T) {
	t.Parallel()

	d := NewDecoder()
	for _, c := range [][2]string{{"90", "180"}, {"-90", "-180"}, {"0", "0.0001"}} {
		if _, ok := d.Decode([]byte(positionFrame(c[0], c[1])), receivedAt); !ok {
			t.Errorf("expected (%s,%s) to be accepted", c[0], c[1])
		}
	}
}

func TestDecodeStatic(t *testing.T) {
	t.Parallel()

	frame := `{"MessageType":"ShipStaticData","MetaData":{"MMSI":244660000,"ShipName":"META NAME","latitude":52.1,"longitude":4.2,"time_utc":"2026-03-01 12:00:00 +0000 UTC"},` +
		`"Message":{"ShipStaticData":{"ImoNumber":9301234,"Name":"NORDIC STAR@@@@","CallSign":"PD1234 ","Type":81,` +
		`"Dimension":{"A":120,"B":30,"C":10,"D":12},"Destination":"ROTTERDAM","Eta":{"Month":3,"Day":4}}}}`

	rec, ok := NewDecoder().Decode([]byte(frame), receivedAt)
	if !ok {
		t.Fatal("expected a record")
	}
	st, isStatic := rec.(*models.StaticReport)
	if !isStatic {
		t.Fatalf("expected *StaticReport, got %T", rec)
	}
	if st.Name == nil || *st.Name != "NORDIC STAR" {
		t.Errorf("name = %v", st.Name)
	}
	if st.Callsign == nil || *st.Callsign != "PD1234" {
		t.Errorf("callsign = %v", st.Callsign)
	}
	if st.IMO == nil || *st.IMO != 9301234 {
		t.Errorf("imo = %v", st.IMO)
	}
	if st.ShipType == nil || *st.ShipType != models.VesselTanker {
		t.Errorf("ship type = %v, want tanker", st.ShipType)
	}
	if st.ShipTypeCode == nil || *st.ShipTypeCode != 81 {
		t.Errorf("type code = %v", st.ShipTypeCode)
	}
	if st.Dimensions.Bow == nil || *st.Dimensions.Bow != 120 || *st.Dimensions.Starboard != 12 {
		t.Errorf("dimensions = %+v", st.Dimensions)
	}
	if st.ETAMonth == nil || *st.ETAMonth != 3 {
		t.Errorf("eta month = %v", st.ETAMonth)
	}
	if st.Lat == nil || *st.Lat != 52.1 {
		t.Errorf("lat = %v", st.Lat)
	}
}

func TestDecodeStaticFallsBackToMetadataName(t *testing.T) {
	t.Parallel()

	frame := `{"MessageType":"ShipStaticData","MetaData":{"MMSI":1234567,"ShipName":" HARBOUR TUG "},` +
		`"Message":{"ShipStaticData":{"ImoNumber":0,"Name":"","CallSign":"","Type":99}}}`

	rec, ok := NewDecoder().Decode([]byte(frame), receivedAt)
	if !ok {
		t.Fatal("expected a record")
	}
	st := rec.(*models.StaticReport)
	if st.Name == nil || *st.Name != "HARBOUR TUG" {
		t.Errorf("name = %v", st.Name)
	}
	if st.IMO != nil {
		t.Errorf("imo 0 should decode as nil, got %d", *st.IMO)
	}
	if st.Callsign != nil {
		t.Errorf("empty callsign should decode as nil")
	}
	if *st.ShipType != models.VesselUnknown {
		t.Errorf("ship type = %q, want unknown", *st.ShipType)
	}
	if !st.Timestamp.Equal(receivedAt) {
		t.Errorf("missing time_utc should fall back to received_at, got %s", st.Timestamp)
	}
}

func TestGlobalSubscription(t *testing.T) {
	t.Parallel()

	sub := GlobalSubscription("key")
	if sub.APIKey != "key" {
		t.Errorf("api key = %q", sub.APIKey)
	}
	if len(sub.BoundingBoxes) != 1 || sub.BoundingBoxes[0][0] != [2]float64{-90, -180} || sub.BoundingBoxes[0][1] != [2]float64{90, 180} {
		t.Errorf("bounding boxes = %v", sub.BoundingBoxes)
	}
	if len(sub.FilterMessageTypes) != 2 {
		t.Errorf("filter = %v", sub.FilterMessageTypes)
	}
}
