// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package models

import (
	"time"
)

// Vessel is the identity row for one MMSI. Later non-null fields override
// earlier ones field by field.
type Vessel struct {
	MMSI         int64       `json:"mmsi"`
	IMO          *int64      `json:"imo,omitempty"`
	Name         *string     `json:"name,omitempty"`
	Callsign     *string     `json:"callsign,omitempty"`
	ShipType     *VesselType `json:"ship_type,omitempty"`
	ShipTypeCode *int        `json:"ais_type_code,omitempty"`
	Dimensions   Dimensions  `json:"dimensions"`
	Destination  *string     `json:"destination,omitempty"`
	ETAMonth     *int        `json:"eta_month,omitempty"`
	FirstSeen    time.Time   `json:"first_seen"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// HasIdentity reports whether any of name, IMO or callsign is known.
func (v *Vessel) HasIdentity() bool {
	return v.Name != nil || v.IMO != nil || v.Callsign != nil
}

// VesselPosition is a persisted position row.
type VesselPosition struct {
	ID            int64         `json:"id"`
	MMSI          int64         `json:"mmsi"`
	Lat           float64       `json:"lat"`
	Lon           float64       `json:"lon"`
	SOG           *float64      `json:"sog,omitempty"`
	COG           *float64      `json:"cog,omitempty"`
	Heading       *int          `json:"heading,omitempty"`
	NavStatus     *NavStatus    `json:"nav_status,omitempty"`
	RateOfTurn    *float64      `json:"rot,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
	Cell          string        `json:"cell"`
	ReceiverClass ReceiverClass `json:"receiver_class"`
}

// RawMessage is the forensic shadow of one decoded message.
type RawMessage struct {
	MMSI              int64         `json:"mmsi"`
	Kind              RecordKind    `json:"message_type"`
	Lat               *float64      `json:"lat,omitempty"`
	Lon               *float64      `json:"lon,omitempty"`
	SOG               *float64      `json:"sog,omitempty"`
	ReceiverClass     ReceiverClass `json:"receiver_class"`
	ImpossibleSpeed   bool          `json:"impossible_speed"`
	SARTOnNonSAR      bool          `json:"sart_on_non_sar"`
	NoIdentity        bool          `json:"no_identity"`
	PositionJump      bool          `json:"position_jump"`
	PrevDistanceNM    *float64      `json:"prev_distance_nm,omitempty"`
	ImpliedSpeedKnots *float64      `json:"implied_speed_knots,omitempty"`
	MessageTimestamp  time.Time     `json:"timestamp"`
	ReceivedAt        time.Time     `json:"received_at"`
	ContentHash       uint64        `json:"content_hash"`
	RawJSON           string        `json:"raw_json,omitempty"`
}

// Flagged reports whether any forensic flag is set.
func (m *RawMessage) Flagged() bool {
	return m.ImpossibleSpeed || m.SARTOnNonSAR || m.NoIdentity || m.PositionJump
}

// IdentityChangeEvent records a static report that disagreed with the stored
// identity of a vessel.
type IdentityChangeEvent struct {
	ID               int64       `json:"id"`
	MMSI             int64       `json:"mmsi"`
	Name             *string     `json:"name,omitempty"`
	Callsign         *string     `json:"callsign,omitempty"`
	IMO              *int64      `json:"imo,omitempty"`
	ShipType         *VesselType `json:"ship_type,omitempty"`
	Destination      *string     `json:"destination,omitempty"`
	PreviousName     *string     `json:"previous_name,omitempty"`
	NameEditDistance *int        `json:"name_edit_distance,omitempty"`
	ChangedFields    []string    `json:"changed_fields"`
	ObservedAt       time.Time   `json:"observed_at"`
}

// MergeStatic folds next into prev for the same MMSI: each non-null field of
// next wins. A prev of nil returns a copy of next.
func MergeStatic(prev, next *StaticReport) *StaticReport {
	if prev == nil {
		cp := *next
		return &cp
	}
	out := *prev
	out.IMO = coalesce(next.IMO, prev.IMO)
	out.Name = coalesce(next.Name, prev.Name)
	out.Callsign = coalesce(next.Callsign, prev.Callsign)
	if next.ShipType != nil && (next.ShipType.Known() || prev.ShipType == nil) {
		out.ShipType = next.ShipType
	}
	out.ShipTypeCode = coalesce(next.ShipTypeCode, prev.ShipTypeCode)
	out.Dimensions.Bow = coalesce(next.Dimensions.Bow, prev.Dimensions.Bow)
	out.Dimensions.Stern = coalesce(next.Dimensions.Stern, prev.Dimensions.Stern)
	out.Dimensions.Port = coalesce(next.Dimensions.Port, prev.Dimensions.Port)
	out.Dimensions.Starboard = coalesce(next.Dimensions.Starboard, prev.Dimensions.Starboard)
	out.Destination = coalesce(next.Destination, prev.Destination)
	out.ETAMonth = coalesce(next.ETAMonth, prev.ETAMonth)
	out.Lat = coalesce(next.Lat, prev.Lat)
	out.Lon = coalesce(next.Lon, prev.Lon)
	out.Timestamp = next.Timestamp
	out.ReceivedAt = next.ReceivedAt
	out.Raw = next.Raw
	return &out
}

// IdentityDrift lists the identity fields on which incoming disagrees with
// stored. A field drifts only when both sides are non-null and differ.
func IdentityDrift(stored *Vessel, incoming *StaticReport) []string {
	if stored == nil || incoming == nil {
		return nil
	}
	var changed []string
	if differs(stored.Name, incoming.Name) {
		changed = append(changed, "name")
	}
	if stored.ShipType != nil && incoming.ShipType != nil &&
		stored.ShipType.Known() && incoming.ShipType.Known() &&
		*stored.ShipType != *incoming.ShipType {
		changed = append(changed, "ship_type")
	}
	if differs(stored.Callsign, incoming.Callsign) {
		changed = append(changed, "callsign")
	}
	if differs(stored.IMO, incoming.IMO) {
		changed = append(changed, "imo")
	}
	if differs(stored.Destination, incoming.Destination) {
		changed = append(changed, "destination")
	}
	return changed
}

func coalesce[T any](preferred, fallback *T) *T {
	if preferred != nil {
		return preferred
	}
	return fallback
}

func differs[T comparable](a, b *T) bool {
	return a != nil && b != nil && *a != *b
}
