// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package models

// NavStatus is the AIS navigational status.
type NavStatus string

const (
	NavUnderWayUsingEngine       NavStatus = "under_way_using_engine"
	NavAtAnchor                  NavStatus = "at_anchor"
	NavNotUnderCommand           NavStatus = "not_under_command"
	NavRestrictedManoeuvrability NavStatus = "restricted_manoeuvrability"
	NavConstrainedByDraught      NavStatus = "constrained_by_draught"
	NavMoored                    NavStatus = "moored"
	NavAground                   NavStatus = "aground"
	NavEngagedInFishing          NavStatus = "engaged_in_fishing"
	NavUnderWaySailing           NavStatus = "under_way_sailing"
	NavReservedHSC               NavStatus = "reserved_hsc"
	NavReservedWing              NavStatus = "reserved_wing"
	NavPowerDrivenTowingAstern   NavStatus = "power_driven_towing_astern"
	NavPowerDrivenPushing        NavStatus = "power_driven_pushing"
	NavReserved13                NavStatus = "reserved_13"
	NavAISSART                   NavStatus = "ais_sart"
	NavNotDefined                NavStatus = "not_defined"
	NavUnknown                   NavStatus = "unknown"
)

// navStatusByCode is indexed by the AIS status code 0..15.
var navStatusByCode = [...]NavStatus{
	NavUnderWayUsingEngine,
	NavAtAnchor,
	NavNotUnderCommand,
	NavRestrictedManoeuvrability,
	NavConstrainedByDraught,
	NavMoored,
	NavAground,
	NavEngagedInFishing,
	NavUnderWaySailing,
	NavReservedHSC,
	NavReservedWing,
	NavPowerDrivenTowingAstern,
	NavPowerDrivenPushing,
	NavReserved13,
	NavAISSART,
	NavNotDefined,
}

// NavStatusFromCode maps an AIS status code. Codes outside 0..15 are NavUnknown.
func NavStatusFromCode(code int) NavStatus {
	if code < 0 || code >= len(navStatusByCode) {
		return NavUnknown
	}
	return navStatusByCode[code]
}

// VesselType is the coarse ship category derived from the AIS type code.
type VesselType string

const (
	VesselCargo     VesselType = "cargo"
	VesselTanker    VesselType = "tanker"
	VesselFishing   VesselType = "fishing"
	VesselPassenger VesselType = "passenger"
	VesselTug       VesselType = "tug"
	VesselPleasure  VesselType = "pleasure"
	VesselMilitary  VesselType = "military"
	VesselSAR       VesselType = "sar"
	VesselHSC       VesselType = "hsc"
	VesselUnknown   VesselType = "unknown"
)

// VesselTypeFromCode maps an AIS ship type code to a VesselType.
func VesselTypeFromCode(code int) VesselType {
	switch {
	case code >= 70 && code <= 79:
		return VesselCargo
	case code >= 80 && code <= 89:
		return VesselTanker
	case code >= 60 && code <= 69:
		return VesselPassenger
	case code >= 40 && code <= 49:
		return VesselHSC
	case code == 30:
		return VesselFishing
	case code == 31 || code == 32:
		return VesselTug
	case code == 35:
		return VesselMilitary
	case code == 36 || code == 37:
		return VesselPleasure
	case code == 51:
		return VesselSAR
	default:
		return VesselUnknown
	}
}

// Known reports whether t carries information. Unknown never overrides a
// stored type and never counts as identity drift.
func (t VesselType) Known() bool {
	return t != "" && t != VesselUnknown
}

// ReceiverClass says whether a position was most likely heard by a coastal
// station or relayed from orbit.
type ReceiverClass string

const (
	ReceiverTerrestrial ReceiverClass = "terrestrial"
	ReceiverSatellite   ReceiverClass = "satellite"
	ReceiverUnknown     ReceiverClass = "unknown"
)

// AnomalyType identifies a spoof detection rule.
type AnomalyType string

const (
	AnomalyImpossibleSpeed AnomalyType = "impossible_speed"
	AnomalySARTOnNonSAR    AnomalyType = "sart_on_non_sar"
	AnomalyNoIdentity      AnomalyType = "no_identity"
	AnomalyPositionJump    AnomalyType = "position_jump"
)

// AlertStatus is the lifecycle state of a dark vessel alert or spoof cluster.
type AlertStatus string

const (
	AlertActive   AlertStatus = "active"
	AlertResolved AlertStatus = "resolved"
)

// Classification buckets a fused posterior.
type Classification string

const (
	ClassConfirmed     Classification = "confirmed"
	ClassProbable      Classification = "probable"
	ClassPossible      Classification = "possible"
	ClassLowConfidence Classification = "low_confidence"
)
