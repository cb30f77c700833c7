// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package models

import (
	"time"
)

// APIResponse wraps every JSON body returned by the HTTP surface.
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"2026-03-01T12:00:00Z","query_time_ms":4}}
//	{"status":"error","error":{"code":"NOT_FOUND","message":"no positions for vessel"},"metadata":{...}}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is the error body.
//
// Codes: VALIDATION_ERROR, NOT_FOUND, DATABASE_ERROR, INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ForensicSummary aggregates forensic flags for one vessel over a window.
type ForensicSummary struct {
	MMSI            int64              `json:"mmsi"`
	Hours           int                `json:"hours"`
	Total           int64              `json:"total"`
	FlagCounts      map[string]int64   `json:"flag_counts"`
	FlagPercent     map[string]float64 `json:"flag_percent"`
	ReceiverCounts  map[string]int64   `json:"receiver_counts"`
	ReceiverPercent map[string]float64 `json:"receiver_percent"`
}
