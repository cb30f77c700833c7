// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// RecordKind tags the concrete type behind a Record.
type RecordKind string

const (
	KindPosition RecordKind = "position"
	KindStatic   RecordKind = "static"
)

var (
	// ErrUnknownRecordKind is returned when a queued envelope names no known kind.
	ErrUnknownRecordKind = errors.New("unknown record kind")

	// ErrInvalidMMSI is returned for an MMSI outside 1..999999999.
	ErrInvalidMMSI = errors.New("invalid MMSI")
)

// MaxMMSI is the largest nine-digit MMSI.
const MaxMMSI = 999999999

// ValidateMMSI returns ErrInvalidMMSI unless mmsi is a nine-digit identity.
func ValidateMMSI(mmsi int64) error {
	if mmsi < 1 || mmsi > MaxMMSI {
		return fmt.Errorf("%w: %d", ErrInvalidMMSI, mmsi)
	}
	return nil
}

// Record is a decoded AIS message. The only implementations are
// *PositionReport and *StaticReport; consumers type-switch on them.
type Record interface {
	Kind() RecordKind
	VesselMMSI() int64
	record()
}

// PositionReport is a decoded position message.
type PositionReport struct {
	MMSI       int64      `json:"mmsi" validate:"required,min=1,max=999999999"`
	Lat        float64    `json:"lat" validate:"gte=-90,lte=90"`
	Lon        float64    `json:"lon" validate:"gte=-180,lte=180"`
	SOG        *float64   `json:"sog,omitempty"`
	COG        *float64   `json:"cog,omitempty"`
	Heading    *int       `json:"heading,omitempty"`
	NavStatus  *NavStatus `json:"nav_status,omitempty"`
	RateOfTurn *float64   `json:"rot,omitempty"`
	// Name is the ship name carried in the stream metadata, if any.
	Name       *string   `json:"name,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	ReceivedAt time.Time `json:"received_at"`
	Raw        []byte    `json:"raw,omitempty"`
}

// Kind implements Record.
func (*PositionReport) Kind() RecordKind { return KindPosition }

// VesselMMSI implements Record.
func (p *PositionReport) VesselMMSI() int64 { return p.MMSI }

func (*PositionReport) record() {}

// Dimensions are the AIS reference point offsets in metres.
type Dimensions struct {
	Bow       *int `json:"bow,omitempty"`
	Stern     *int `json:"stern,omitempty"`
	Port      *int `json:"port,omitempty"`
	Starboard *int `json:"starboard,omitempty"`
}

// StaticReport is a decoded identity / voyage message.
type StaticReport struct {
	MMSI         int64       `json:"mmsi" validate:"required,min=1,max=999999999"`
	IMO          *int64      `json:"imo,omitempty"`
	Name         *string     `json:"name,omitempty"`
	Callsign     *string     `json:"callsign,omitempty"`
	ShipType     *VesselType `json:"ship_type,omitempty"`
	ShipTypeCode *int        `json:"ais_type_code,omitempty"`
	Dimensions   Dimensions  `json:"dimensions"`
	Destination  *string     `json:"destination,omitempty"`
	ETAMonth     *int        `json:"eta_month,omitempty"`
	// Lat/Lon come from the stream metadata and feed the forensic record only.
	Lat        *float64  `json:"lat,omitempty"`
	Lon        *float64  `json:"lon,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	ReceivedAt time.Time `json:"received_at"`
	Raw        []byte    `json:"raw,omitempty"`
}

// Kind implements Record.
func (*StaticReport) Kind() RecordKind { return KindStatic }

// VesselMMSI implements Record.
func (s *StaticReport) VesselMMSI() int64 { return s.MMSI }

func (*StaticReport) record() {}

// HasIdentity reports whether the report names the vessel at all.
func (s *StaticReport) HasIdentity() bool {
	return s.Name != nil || s.IMO != nil || s.Callsign != nil
}

// recordEnvelope is the queue encoding of a Record.
type recordEnvelope struct {
	Kind     RecordKind      `json:"kind"`
	Position *PositionReport `json:"position,omitempty"`
	Static   *StaticReport   `json:"static,omitempty"`
}

// MarshalRecord encodes r for the durable queue and the live bus.
func MarshalRecord(r Record) ([]byte, error) {
	env := recordEnvelope{Kind: r.Kind()}
	switch v := r.(type) {
	case *PositionReport:
		env.Position = v
	case *StaticReport:
		env.Static = v
	}
	return json.Marshal(env)
}

// UnmarshalRecord decodes a record written by MarshalRecord.
func UnmarshalRecord(data []byte) (Record, error) {
	var env recordEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode record envelope: %w", err)
	}
	switch env.Kind {
	case KindPosition:
		if env.Position == nil {
			return nil, fmt.Errorf("position envelope without body")
		}
		return env.Position, nil
	case KindStatic:
		if env.Static == nil {
			return nil, fmt.Errorf("static envelope without body")
		}
		return env.Static, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecordKind, env.Kind)
	}
}
