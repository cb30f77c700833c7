// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package fusion

import (
	"math"
	"time"

	"github.com/tomtom215/poseidon/internal/models"
)

// AIS freshness model.
const (
	AISFreshAge        = 30 * time.Minute
	AISHalfLife        = 120 * time.Minute
	AISFreshConfidence = 0.85
	AISFloor           = 0.05
)

// Confidence used when a source has no evidence at all.
const NoEvidenceConfidence = 0.1

const (
	clampEpsilon  = 1e-6
	logDiffCutoff = 500
)

// AISConfidence scores how recent the last position is. lastSeen nil means
// the vessel has never reported. A timestamp in the future counts as fresh.
func AISConfidence(lastSeen *time.Time, now time.Time) float64 {
	if lastSeen == nil {
		return AISFloor
	}
	age := max(now.Sub(*lastSeen), 0)
	if age <= AISFreshAge {
		return AISFreshConfidence
	}
	excess := (age - AISFreshAge).Minutes()
	decay := math.Exp(-math.Ln2 * excess / AISHalfLife.Minutes())
	return math.Max(AISFloor, AISFreshConfidence*decay)
}

// SARConfidence scores the number of SAR matches.
func SARConfidence(matches int) float64 {
	if matches <= 0 {
		return NoEvidenceConfidence
	}
	return math.Min(0.9, 0.5+0.1*float64(matches))
}

// VIIRSConfidence scores the number of nearby nightlight anomalies.
func VIIRSConfidence(anomalies int) float64 {
	if anomalies <= 0 {
		return NoEvidenceConfidence
	}
	return math.Min(0.85, 0.4+0.1*float64(anomalies))
}

// AcousticConfidence scores correlated acoustic events. maxConfidence is the
// best single correlation; nil means none was recorded.
func AcousticConfidence(events int, maxConfidence *float64) float64 {
	if events <= 0 {
		return NoEvidenceConfidence
	}
	base := 0.3
	if maxConfidence != nil {
		base = *maxConfidence
	}
	return math.Min(0.9, base+0.05*float64(events-1))
}

// Posterior combines independent confidences with a naive-Bayes update under
// a uniform prior: Πp / (Πp + Π(1-p)). Each p is clamped away from 0 and 1
// and the ratio is evaluated in log space. No inputs give 0.
func Posterior(confidences ...float64) float64 {
	if len(confidences) == 0 {
		return 0
	}
	var logP, logQ float64
	for _, p := range confidences {
		p = math.Max(clampEpsilon, math.Min(1-clampEpsilon, p))
		logP += math.Log(p)
		logQ += math.Log(1 - p)
	}
	diff := logQ - logP
	switch {
	case diff > logDiffCutoff:
		return 0
	case diff < -logDiffCutoff:
		return 1
	}
	return 1 / (1 + math.Exp(diff))
}

// Classify buckets a posterior.
func Classify(posterior float64) models.Classification {
	switch {
	case posterior >= 0.8:
		return models.ClassConfirmed
	case posterior >= 0.5:
		return models.ClassProbable
	case posterior >= 0.3:
		return models.ClassPossible
	default:
		return models.ClassLowConfidence
	}
}
