// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route onto a chi mux.
func NewRouter(h *Handler, cfg MiddlewareConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestMetrics)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("no such route")
	})

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/ws/live", h.Live)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(CORS(cfg))
		r.Use(RateLimit(cfg))
		r.Use(APISecurityHeaders())
		if cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		}

		r.Post("/fusion/{mmsi}", h.ComputeFusion)
		r.Get("/fusion/{mmsi}/history", h.FusionHistory)

		r.Get("/vessels/{mmsi}", h.Vessel)
		r.Get("/vessels/{mmsi}/identity", h.IdentityHistory)
		r.Get("/vessels/{mmsi}/forensics", h.Forensics)

		r.Get("/dark-alerts", h.DarkAlerts)
	})

	return r
}
