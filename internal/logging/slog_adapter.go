// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// slogHandler lets suture and watermill, which only speak *slog.Logger,
// write into the zerolog stream. Attributes bound with With are folded
// into the child zerolog logger once instead of per record.
type slogHandler struct {
	logger zerolog.Logger
	group  string
}

// NewSlogLoggerFor returns a *slog.Logger tagged with a component field.
func NewSlogLoggerFor(component string) *slog.Logger {
	return slog.New(newSlogHandler(WithComponent(component)))
}

func newSlogHandler(l zerolog.Logger) *slogHandler {
	return &slogHandler{logger: l}
}

func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	zl := zerologLevel(level)
	return zl >= zerolog.GlobalLevel() && zl >= h.logger.GetLevel()
}

func (h *slogHandler) Handle(_ context.Context, r slog.Record) error {
	var fields []any
	r.Attrs(func(a slog.Attr) bool {
		fields = appendAttr(fields, h.group, a)
		return true
	})
	h.logger.WithLevel(zerologLevel(r.Level)).Fields(fields).Msg(r.Message)
	return nil
}

func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var fields []any
	for _, a := range attrs {
		fields = appendAttr(fields, h.group, a)
	}
	return &slogHandler{logger: h.logger.With().Fields(fields).Logger(), group: h.group}
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &slogHandler{logger: h.logger, group: h.group + name + "."}
}

// appendAttr flattens a into key/value pairs, joining group names with dots.
func appendAttr(fields []any, group string, a slog.Attr) []any {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		if a.Key != "" {
			group += a.Key + "."
		}
		for _, ga := range v.Group() {
			fields = appendAttr(fields, group, ga)
		}
		return fields
	}
	if a.Key == "" {
		return fields
	}
	return append(fields, group+a.Key, v.Any())
}

func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level >= slog.LevelError:
		return zerolog.ErrorLevel
	case level >= slog.LevelWarn:
		return zerolog.WarnLevel
	case level >= slog.LevelInfo:
		return zerolog.InfoLevel
	case level >= slog.LevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}
