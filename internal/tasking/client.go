// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package tasking

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/poseidon/internal/logging"
	"github.com/tomtom215/poseidon/internal/metrics"
)

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 512

// BBox is (min_lon, min_lat, max_lon, max_lat).
type BBox [4]float64

// BBoxAround returns the box of ±margin degrees around a point.
func BBoxAround(lat, lon, margin float64) BBox {
	return BBox{lon - margin, lat - margin, lon + margin, lat + margin}
}

// collaborator is a rate-limited, circuit-broken JSON client for one
// downstream service.
type collaborator struct {
	name    string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
	logger  zerolog.Logger
}

func newCollaborator(name, baseURL string, timeout time.Duration, perSecond float64) *collaborator {
	if perSecond <= 0 {
		perSecond = 1
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	logger := logging.WithComponent("tasking").With().Str("collaborator", name).Logger()

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &collaborator{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		cb:      cb,
		logger:  logger,
	}
}

// postJSON sends body to path and decodes the response into out.
func (c *collaborator) postJSON(ctx context.Context, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", c.name, err)
	}

	data, err := c.cb.Execute(func() ([]byte, error) {
		return c.do(ctx, path, payload)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordTasking(c.name, "breaker_open")
		return fmt.Errorf("%s: %w", c.name, err)
	case err != nil:
		metrics.RecordTasking(c.name, "error")
		return err
	}
	metrics.RecordTasking(c.name, "ok")

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.name, err)
	}
	return nil
}

func (c *collaborator) do(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%s request failed with status %d: %s", c.name, resp.StatusCode, bytes.TrimSpace(msg))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", c.name, err)
	}
	return data, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// SARClient searches a radar scene catalogue.
type SARClient struct{ c *collaborator }

// NewSARClient returns nil when baseURL is empty.
func NewSARClient(baseURL string, timeout time.Duration, perSecond float64) *SARClient {
	if baseURL == "" {
		return nil
	}
	return &SARClient{c: newCollaborator("sar", baseURL, timeout, perSecond)}
}

type sarSearchRequest struct {
	BBox      BBox   `json:"bbox"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Limit     int    `json:"limit"`
}

// Scene is one catalogue hit.
type Scene struct {
	ID       string `json:"id"`
	Datetime string `json:"datetime,omitempty"`
}

type sarSearchResponse struct {
	Scenes []Scene `json:"scenes"`
}

// SearchScenes asks for up to limit scenes over bbox between start and end,
// both inclusive calendar days.
func (s *SARClient) SearchScenes(ctx context.Context, bbox BBox, start, end time.Time, limit int) ([]Scene, error) {
	var resp sarSearchResponse
	err := s.c.postJSON(ctx, "/search", sarSearchRequest{
		BBox:      bbox,
		StartDate: start.UTC().Format(time.DateOnly),
		EndDate:   end.UTC().Format(time.DateOnly),
		Limit:     limit,
	}, &resp)
	return resp.Scenes, err
}

// VIIRSClient triggers nightlight ingestion and anomaly detection.
type VIIRSClient struct{ c *collaborator }

// NewVIIRSClient returns nil when baseURL is empty.
func NewVIIRSClient(baseURL string, timeout time.Duration, perSecond float64) *VIIRSClient {
	if baseURL == "" {
		return nil
	}
	return &VIIRSClient{c: newCollaborator("viirs", baseURL, timeout, perSecond)}
}

// Fetch ingests days of observations over bbox and returns how many rows the
// collaborator inserted.
func (v *VIIRSClient) Fetch(ctx context.Context, bbox BBox, days int) (int, error) {
	var resp struct {
		Inserted int `json:"inserted"`
	}
	err := v.c.postJSON(ctx, "/fetch", struct {
		BBox BBox `json:"bbox"`
		Days int  `json:"days"`
	}{bbox, days}, &resp)
	return resp.Inserted, err
}

// Detect runs anomaly detection over bbox and returns the anomaly count.
func (v *VIIRSClient) Detect(ctx context.Context, bbox BBox) (int, error) {
	var resp struct {
		Anomalies int `json:"anomalies"`
	}
	err := v.c.postJSON(ctx, "/detect", struct {
		BBox BBox `json:"bbox"`
	}{bbox}, &resp)
	return resp.Anomalies, err
}
