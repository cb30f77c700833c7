// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

// Package ais reads the live AIS stream and decodes its frames into
// models.PositionReport and models.StaticReport records.
package ais

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/tomtom215/poseidon/internal/metrics"
	"github.com/tomtom215/poseidon/internal/models"
)

// Drop reasons reported to poseidon_ingest_records_dropped_total.
const (
	DropMalformed       = "malformed"
	DropUnsupportedType = "unsupported_type"
	DropMissingMMSI     = "missing_mmsi"
	DropInvalidPosition = "invalid_position"
)

// headingNotAvailable is the AIS "no heading" value.
const headingNotAvailable = 511

// streamTimeLayout is the time_utc format used by the stream metadata.
const streamTimeLayout = "2006-01-02 15:04:05.999999999 -0700 MST"

// Decoder turns raw frames into records. It holds no state beyond its
// validator and is safe for concurrent use.
type Decoder struct {
	validate *validator.Validate
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Decode parses one frame. ok is false when the frame yields nothing; the
// reason is counted in metrics and never returned as an error.
func (d *Decoder) Decode(raw []byte, receivedAt time.Time) (models.Record, bool) {
	rec, reason := d.decode(raw, receivedAt)
	if reason != "" {
		metrics.RecordDropped(reason)
		return nil, false
	}
	metrics.RecordDecoded(string(rec.Kind()))
	return rec, true
}

func (d *Decoder) decode(raw []byte, receivedAt time.Time) (models.Record, string) {
	var msg streamMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, DropMalformed
	}

	switch msg.MessageType {
	case MessageTypePosition:
		if msg.Message.PositionReport == nil {
			return nil, DropMalformed
		}
		return d.decodePosition(&msg, raw, receivedAt)
	case MessageTypeStatic:
		if msg.Message.ShipStaticData == nil {
			return nil, DropMalformed
		}
		return d.decodeStatic(&msg, raw, receivedAt)
	default:
		return nil, DropUnsupportedType
	}
}

func (d *Decoder) decodePosition(msg *streamMessage, raw []byte, receivedAt time.Time) (models.Record, string) {
	if msg.MetaData.MMSI == 0 {
		return nil, DropMissingMMSI
	}
	pr := msg.Message.PositionReport
	if pr.Latitude == nil || pr.Longitude == nil {
		return nil, DropInvalidPosition
	}
	if *pr.Latitude == 0 && *pr.Longitude == 0 {
		return nil, DropInvalidPosition
	}

	pos := &models.PositionReport{
		MMSI:       msg.MetaData.MMSI,
		Lat:        *pr.Latitude,
		Lon:        *pr.Longitude,
		SOG:        pr.Sog,
		COG:        pr.Cog,
		RateOfTurn: pr.RateOfTurn,
		Name:       cleanText(msg.MetaData.ShipName),
		Timestamp:  parseStreamTime(msg.MetaData.TimeUTC, receivedAt),
		ReceivedAt: receivedAt,
		Raw:        raw,
	}
	if pr.TrueHeading != nil && *pr.TrueHeading != headingNotAvailable {
		pos.Heading = pr.TrueHeading
	}
	if pr.NavigationalStatus != nil {
		status := models.NavStatusFromCode(*pr.NavigationalStatus)
		pos.NavStatus = &status
	}

	if err := d.validate.Struct(pos); err != nil {
		if _, isRange := err.(validator.ValidationErrors); isRange {
			return nil, DropInvalidPosition
		}
		return nil, DropMalformed
	}
	return pos, ""
}

func (d *Decoder) decodeStatic(msg *streamMessage, raw []byte, receivedAt time.Time) (models.Record, string) {
	if msg.MetaData.MMSI == 0 {
		return nil, DropMissingMMSI
	}
	sd := msg.Message.ShipStaticData

	st := &models.StaticReport{
		MMSI:        msg.MetaData.MMSI,
		Callsign:    cleanText(sd.CallSign),
		Destination: cleanText(sd.Destination),
		Lat:         msg.MetaData.Latitude,
		Lon:         msg.MetaData.Longitude,
		Timestamp:   parseStreamTime(msg.MetaData.TimeUTC, receivedAt),
		ReceivedAt:  receivedAt,
		Raw:         raw,
	}
	st.Name = cleanText(sd.Name)
	if st.Name == nil {
		st.Name = cleanText(msg.MetaData.ShipName)
	}
	if sd.ImoNumber != nil && *sd.ImoNumber > 0 {
		st.IMO = sd.ImoNumber
	}
	if sd.Type != nil {
		vt := models.VesselTypeFromCode(*sd.Type)
		st.ShipType = &vt
		st.ShipTypeCode = sd.Type
	}
	if sd.Dimension != nil {
		st.Dimensions = models.Dimensions{
			Bow:       sd.Dimension.A,
			Stern:     sd.Dimension.B,
			Port:      sd.Dimension.C,
			Starboard: sd.Dimension.D,
		}
	}
	if sd.Eta != nil && sd.Eta.Month != nil && *sd.Eta.Month > 0 {
		st.ETAMonth = sd.Eta.Month
	}

	if err := d.validate.Struct(st); err != nil {
		return nil, DropMissingMMSI
	}
	return st, ""
}

// cleanText trims whitespace and the AIS '@' padding; empty becomes nil.
func cleanText(s string) *string {
	s = strings.TrimSpace(strings.TrimRight(s, "@ "))
	if s == "" {
		return nil
	}
	return &s
}

func parseStreamTime(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	if t, err := time.Parse(streamTimeLayout, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	return fallback
}
