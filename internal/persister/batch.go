// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package persister

import (
	"math"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/zeebo/xxh3"

	"github.com/tomtom215/poseidon/internal/geo"
	"github.com/tomtom215/poseidon/internal/models"
	"github.com/tomtom215/poseidon/internal/wal"
)

// Forensic rule constants.
const (
	sogNoDataMarker   = 102.3
	jumpDistanceNM    = 100.0
	jumpMaxInterval   = 5 * time.Minute
	noDataMarkerSlack = 0.1
)

// item is one decoded queue entry.
type item struct {
	rec     models.Record
	payload []byte
}

// decodeEntries unmarshals queue entries in order. Entries that do not decode
// are counted and skipped.
func decodeEntries(entries []wal.Entry) (items []item, undecodable int) {
	items = make([]item, 0, len(entries))
	for _, e := range entries {
		rec, err := models.UnmarshalRecord(e.Payload)
		if err != nil {
			undecodable++
			continue
		}
		items = append(items, item{rec: rec, payload: e.Payload})
	}
	return items, undecodable
}

// mmsisOf returns the distinct MMSIs in items in first-seen order.
func mmsisOf(items []item) []int64 {
	seen := make(map[int64]struct{}, len(items))
	out := make([]int64, 0, len(items))
	for _, it := range items {
		m := it.rec.VesselMMSI()
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// vesselName is an EnsureVessel call.
type vesselName struct {
	mmsi int64
	name *string
}

// plan is everything one batch writes.
type plan struct {
	statics   []*models.StaticReport
	changes   []models.IdentityChangeEvent
	vessels   []vesselName
	positions []models.VesselPosition
	raw       []models.RawMessage
}

// planner turns decoded records into rows. stored holds the vessel rows as
// they were before the batch.
type planner struct {
	stored         map[int64]*models.Vessel
	classifier     *geo.Classifier
	speedThreshold float64
	now            time.Time
}

func (pl *planner) build(items []item) *plan {
	out := &plan{}

	// Statics merge per MMSI in arrival order.
	merged := make(map[int64]*models.StaticReport)
	var staticOrder []int64
	for _, it := range items {
		s, ok := it.rec.(*models.StaticReport)
		if !ok {
			continue
		}
		if _, seen := merged[s.MMSI]; !seen {
			staticOrder = append(staticOrder, s.MMSI)
		}
		merged[s.MMSI] = models.MergeStatic(merged[s.MMSI], s)
	}
	for _, mmsi := range staticOrder {
		s := merged[mmsi]
		out.statics = append(out.statics, s)
		if ev, ok := pl.identityChange(pl.stored[mmsi], s); ok {
			out.changes = append(out.changes, ev)
		}
	}

	// One EnsureVessel per MMSI that reported a position. Its name is the
	// last non-null name in arrival order across both record kinds, so a
	// static report that follows a named position still wins.
	names := make(map[int64]*string)
	var vesselOrder []int64
	hasPosition := make(map[int64]bool)
	for _, it := range items {
		switch r := it.rec.(type) {
		case *models.PositionReport:
			if !hasPosition[r.MMSI] {
				hasPosition[r.MMSI] = true
				vesselOrder = append(vesselOrder, r.MMSI)
			}
			if r.Name != nil {
				names[r.MMSI] = r.Name
			}
		case *models.StaticReport:
			if r.Name != nil {
				names[r.MMSI] = r.Name
			}
		}
	}
	for _, mmsi := range vesselOrder {
		out.vessels = append(out.vessels, vesselName{mmsi: mmsi, name: names[mmsi]})
	}

	// Flags on each raw message see only what arrived before it.
	soFar := make(map[int64]*models.StaticReport)
	nameSoFar := make(map[int64]*string)
	last := make(map[int64]*models.PositionReport)
	for _, it := range items {
		switch r := it.rec.(type) {
		case *models.PositionReport:
			if r.Name != nil {
				nameSoFar[r.MMSI] = r.Name
			}
			class := pl.classifier.Classify(r.Lat, r.Lon)
			out.positions = append(out.positions, models.VesselPosition{
				MMSI:          r.MMSI,
				Lat:           r.Lat,
				Lon:           r.Lon,
				SOG:           r.SOG,
				COG:           r.COG,
				Heading:       r.Heading,
				NavStatus:     r.NavStatus,
				RateOfTurn:    r.RateOfTurn,
				Timestamp:     r.Timestamp.UTC(),
				Cell:          geo.Cell(r.Lat, r.Lon),
				ReceiverClass: class,
			})
			raw := pl.rawMessage(it, class)
			raw.Lat, raw.Lon, raw.SOG = ptrTo(r.Lat), ptrTo(r.Lon), r.SOG
			raw.ImpossibleSpeed = impossibleSpeed(r.SOG, pl.speedThreshold)
			raw.SARTOnNonSAR = r.NavStatus != nil && *r.NavStatus == models.NavAISSART &&
				!pl.isSAR(r.MMSI, soFar[r.MMSI])
			raw.NoIdentity = !pl.hasIdentity(r.MMSI, soFar[r.MMSI], nameSoFar[r.MMSI])
			if prev := last[r.MMSI]; prev != nil {
				dist, implied, jump := positionJump(prev, r)
				raw.PrevDistanceNM = &dist
				raw.ImpliedSpeedKnots = implied
				raw.PositionJump = jump
			}
			last[r.MMSI] = r
			out.raw = append(out.raw, raw)

		case *models.StaticReport:
			soFar[r.MMSI] = models.MergeStatic(soFar[r.MMSI], r)
			class := models.ReceiverUnknown
			if r.Lat != nil && r.Lon != nil {
				class = pl.classifier.Classify(*r.Lat, *r.Lon)
			}
			raw := pl.rawMessage(it, class)
			raw.Lat, raw.Lon = r.Lat, r.Lon
			raw.NoIdentity = !r.HasIdentity()
			out.raw = append(out.raw, raw)
		}
	}
	return out
}

func (pl *planner) rawMessage(it item, class models.ReceiverClass) models.RawMessage {
	body := it.payload
	var ts time.Time
	switch r := it.rec.(type) {
	case *models.PositionReport:
		ts = r.Timestamp
		if len(r.Raw) > 0 {
			body = r.Raw
		}
	case *models.StaticReport:
		ts = r.Timestamp
		if len(r.Raw) > 0 {
			body = r.Raw
		}
	}
	if ts.IsZero() {
		ts = pl.now
	}
	return models.RawMessage{
		MMSI:             it.rec.VesselMMSI(),
		Kind:             it.rec.Kind(),
		ReceiverClass:    class,
		MessageTimestamp: ts.UTC(),
		ReceivedAt:       pl.now,
		ContentHash:      xxh3.Hash(body),
		RawJSON:          string(body),
	}
}

// identityChange builds the drift event for an incoming merged static, if
// any field drifted from the stored row.
func (pl *planner) identityChange(stored *models.Vessel, incoming *models.StaticReport) (models.IdentityChangeEvent, bool) {
	changed := models.IdentityDrift(stored, incoming)
	if len(changed) == 0 {
		return models.IdentityChangeEvent{}, false
	}
	observed := incoming.Timestamp
	if observed.IsZero() {
		observed = pl.now
	}
	ev := models.IdentityChangeEvent{
		MMSI:          incoming.MMSI,
		Name:          incoming.Name,
		Callsign:      incoming.Callsign,
		IMO:           incoming.IMO,
		ShipType:      incoming.ShipType,
		Destination:   incoming.Destination,
		PreviousName:  stored.Name,
		ChangedFields: changed,
		ObservedAt:    observed.UTC(),
	}
	if stored.Name != nil && incoming.Name != nil {
		d := levenshtein.ComputeDistance(*stored.Name, *incoming.Name)
		ev.NameEditDistance = &d
	}
	return ev, true
}

// isSAR reports whether the vessel is known to be a SAR craft, preferring a
// known type from the batch over the stored one.
func (pl *planner) isSAR(mmsi int64, batch *models.StaticReport) bool {
	if batch != nil && batch.ShipType != nil && batch.ShipType.Known() {
		return *batch.ShipType == models.VesselSAR
	}
	if v := pl.stored[mmsi]; v != nil && v.ShipType != nil {
		return *v.ShipType == models.VesselSAR
	}
	return false
}

func (pl *planner) hasIdentity(mmsi int64, batch *models.StaticReport, positionName *string) bool {
	if positionName != nil {
		return true
	}
	if batch != nil && batch.HasIdentity() {
		return true
	}
	v := pl.stored[mmsi]
	return v != nil && v.HasIdentity()
}

// impossibleSpeed applies the speed rule. 102.3 kn means "not available".
func impossibleSpeed(sog *float64, threshold float64) bool {
	if sog == nil {
		return false
	}
	return *sog > threshold && math.Abs(*sog-sogNoDataMarker) > noDataMarkerSlack
}

// positionJump compares cur with the previous position of the same vessel.
// implied is nil when both reports carry the same timestamp.
func positionJump(prev, cur *models.PositionReport) (distNM float64, implied *float64, jump bool) {
	distNM = geo.GreatCircleNM(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
	dt := cur.Timestamp.Sub(prev.Timestamp)
	if dt < 0 {
		dt = -dt
	}
	if dt > 0 {
		speed := distNM / dt.Hours()
		implied = &speed
	}
	return distNM, implied, distNM > jumpDistanceNM && dt < jumpMaxInterval
}

func ptrTo[T any](v T) *T { return &v }
