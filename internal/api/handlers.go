// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/poseidon/internal/database"
	"github.com/tomtom215/poseidon/internal/eventprocessor"
	"github.com/tomtom215/poseidon/internal/models"
)

// Query parameter defaults.
const (
	defaultForensicHours  = 24
	defaultForensicLimit  = 200
	defaultHistoryLimit   = 20
	defaultDarkAlertLimit = 100
)

// Store is the read side the handlers query.
type Store interface {
	GetVessel(ctx context.Context, mmsi int64) (*models.Vessel, bool, error)
	LatestPosition(ctx context.Context, mmsi int64) (*models.VesselPosition, bool, error)
	IdentityHistory(ctx context.Context, mmsi int64, limit int) ([]models.IdentityChangeEvent, error)
	ForensicMessages(ctx context.Context, mmsi int64, hours int, flaggedOnly bool, limit int, now time.Time) ([]database.ForensicMessage, error)
	ForensicSummary(ctx context.Context, mmsi int64, hours int, now time.Time) (*models.ForensicSummary, error)
	DarkAlerts(ctx context.Context, status models.AlertStatus, limit int) ([]models.DarkVesselAlert, error)
}

var _ Store = (*database.DB)(nil)

// FusionService computes and lists fusion results.
type FusionService interface {
	Compute(ctx context.Context, mmsi int64) (*models.FusionResult, error)
	History(ctx context.Context, mmsi int64, limit int) ([]models.FusionResult, error)
}

// Handler serves the API routes.
type Handler struct {
	store    Store
	fusion   FusionService
	live     http.Handler
	checks   []eventprocessor.HealthCheckable
	validate *validator.Validate
	now      func() time.Time
}

// NewHandler creates a handler. live serves /ws/live and may be nil.
func NewHandler(store Store, fusion FusionService, live http.Handler, checks ...eventprocessor.HealthCheckable) *Handler {
	return &Handler{
		store:    store,
		fusion:   fusion,
		live:     live,
		checks:   checks,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// SetClock replaces the clock used for forensic windows.
func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
}

type forensicsParams struct {
	Hours       int  `validate:"min=1,max=720"`
	Limit       int  `validate:"min=1,max=1000"`
	FlaggedOnly bool `validate:"-"`
}

type darkAlertParams struct {
	Status string `validate:"omitempty,oneof=active resolved"`
	Limit  int    `validate:"min=1,max=1000"`
}

type limitParams struct {
	Limit int `validate:"min=1,max=500"`
}

// mmsiParam parses and range-checks the {mmsi} path parameter. On failure it
// has already written the 400.
func mmsiParam(rw *ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "mmsi")
	mmsi, err := strconv.ParseInt(raw, 10, 64)
	if err == nil {
		err = models.ValidateMMSI(mmsi)
	}
	if err != nil {
		rw.ValidationError("mmsi must be an integer in 1..999999999", map[string]interface{}{"mmsi": raw})
		return 0, false
	}
	return mmsi, true
}

// intQuery reads an integer query parameter, returning def when absent.
func intQuery(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// check validates p and writes the 400 on failure.
func (h *Handler) check(rw *ResponseWriter, p interface{}) bool {
	err := h.validate.Struct(p)
	if err == nil {
		return true
	}
	details := map[string]interface{}{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag() + "=" + fe.Param()
		}
	}
	rw.ValidationError("invalid query parameters", details)
	return false
}

func badQuery(rw *ResponseWriter, name string) {
	rw.ValidationError(name+" must be an integer", map[string]interface{}{"param": name})
}

// ComputeFusion handles POST /api/v1/fusion/{mmsi}.
func (h *Handler) ComputeFusion(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	mmsi, ok := mmsiParam(rw, r)
	if !ok {
		return
	}
	res, err := h.fusion.Compute(r.Context(), mmsi)
	if err != nil {
		if errors.Is(err, models.ErrInvalidMMSI) {
			rw.ValidationError(err.Error(), nil)
			return
		}
		rw.DatabaseError(err)
		return
	}
	rw.Created(res)
}

// FusionHistory handles GET /api/v1/fusion/{mmsi}/history.
func (h *Handler) FusionHistory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	mmsi, ok := mmsiParam(rw, r)
	if !ok {
		return
	}
	limit, err := intQuery(r, "limit", defaultHistoryLimit)
	if err != nil {
		badQuery(rw, "limit")
		return
	}
	if !h.check(rw, limitParams{Limit: limit}) {
		return
	}
	results, err := h.fusion.History(r.Context(), mmsi, limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if results == nil {
		results = []models.FusionResult{}
	}
	rw.Success(results)
}

// VesselResponse is the body of GET /api/v1/vessels/{mmsi}.
type VesselResponse struct {
	Vessel         *models.Vessel         `json:"vessel"`
	LatestPosition *models.VesselPosition `json:"latest_position,omitempty"`
}

// Vessel handles GET /api/v1/vessels/{mmsi}.
func (h *Handler) Vessel(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	mmsi, ok := mmsiParam(rw, r)
	if !ok {
		return
	}
	v, found, err := h.store.GetVessel(r.Context(), mmsi)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if !found {
		rw.NotFound("vessel not found")
		return
	}
	resp := VesselResponse{Vessel: v}
	pos, found, err := h.store.LatestPosition(r.Context(), mmsi)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if found {
		resp.LatestPosition = pos
	}
	rw.Success(resp)
}

// IdentityHistory handles GET /api/v1/vessels/{mmsi}/identity.
func (h *Handler) IdentityHistory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	mmsi, ok := mmsiParam(rw, r)
	if !ok {
		return
	}
	limit, err := intQuery(r, "limit", defaultHistoryLimit)
	if err != nil {
		badQuery(rw, "limit")
		return
	}
	if !h.check(rw, limitParams{Limit: limit}) {
		return
	}
	events, err := h.store.IdentityHistory(r.Context(), mmsi, limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if events == nil {
		events = []models.IdentityChangeEvent{}
	}
	rw.Success(events)
}

// ForensicsResponse is the body of GET /api/v1/vessels/{mmsi}/forensics.
type ForensicsResponse struct {
	Summary  *models.ForensicSummary    `json:"summary"`
	Messages []database.ForensicMessage `json:"messages"`
}

// Forensics handles GET /api/v1/vessels/{mmsi}/forensics?hours=&limit=&flagged_only=.
func (h *Handler) Forensics(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	mmsi, ok := mmsiParam(rw, r)
	if !ok {
		return
	}
	p := forensicsParams{}
	var err error
	if p.Hours, err = intQuery(r, "hours", defaultForensicHours); err != nil {
		badQuery(rw, "hours")
		return
	}
	if p.Limit, err = intQuery(r, "limit", defaultForensicLimit); err != nil {
		badQuery(rw, "limit")
		return
	}
	if v := r.URL.Query().Get("flagged_only"); v != "" {
		if p.FlaggedOnly, err = strconv.ParseBool(v); err != nil {
			rw.ValidationError("flagged_only must be a boolean", map[string]interface{}{"param": "flagged_only"})
			return
		}
	}
	if !h.check(rw, p) {
		return
	}

	now := h.now().UTC()
	summary, err := h.store.ForensicSummary(r.Context(), mmsi, p.Hours, now)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	msgs, err := h.store.ForensicMessages(r.Context(), mmsi, p.Hours, p.FlaggedOnly, p.Limit, now)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if msgs == nil {
		msgs = []database.ForensicMessage{}
	}
	rw.Success(ForensicsResponse{Summary: summary, Messages: msgs})
}

// DarkAlerts handles GET /api/v1/dark-alerts?status=&limit=.
func (h *Handler) DarkAlerts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	p := darkAlertParams{Status: r.URL.Query().Get("status")}
	var err error
	if p.Limit, err = intQuery(r, "limit", defaultDarkAlertLimit); err != nil {
		badQuery(rw, "limit")
		return
	}
	if !h.check(rw, p) {
		return
	}
	alerts, err := h.store.DarkAlerts(r.Context(), models.AlertStatus(p.Status), p.Limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if alerts == nil {
		alerts = []models.DarkVesselAlert{}
	}
	rw.Success(alerts)
}

// Live handles GET /ws/live.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		NewResponseWriter(w, r).NotFound("live feed disabled")
		return
	}
	h.live.ServeHTTP(w, r)
}
