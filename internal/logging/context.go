// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey struct{ name string }

var (
	correlationIDKey = contextKey{FieldCorrelationID}
	requestIDKey     = contextKey{FieldRequestID}
)

// GenerateCorrelationID returns a short ID that ties together the log
// lines of one request or flush.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// ContextWithCorrelationID attaches id to ctx.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID attaches a fresh correlation ID to ctx.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext returns the correlation ID or "".
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// ContextWithRequestID attaches an HTTP request ID to ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// Ctx returns the global logger carrying whichever request and
// correlation IDs ctx holds.
//
//	logging.Ctx(r.Context()).Warn().Err(err).Msg("Vessel lookup failed")
func Ctx(ctx context.Context) *zerolog.Logger {
	logCtx := With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str(FieldCorrelationID, id)
	}
	if id, _ := ctx.Value(requestIDKey).(string); id != "" {
		logCtx = logCtx.Str(FieldRequestID, id)
	}
	l := logCtx.Logger()
	return &l
}
