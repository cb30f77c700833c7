// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package detection

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/poseidon/internal/geo"
	"github.com/tomtom215/poseidon/internal/logging"
	"github.com/tomtom215/poseidon/internal/metrics"
	"github.com/tomtom215/poseidon/internal/models"
)

// Position jump rule and per-vessel dedupe spacing.
const (
	JumpDistanceNM  = 100.0
	JumpMaxInterval = 5 * time.Minute
	DedupeWindow    = 60 * time.Second
)

// SpoofConfig configures SpoofDetector.
type SpoofConfig struct {
	// ScanInterval is both the loop period and the lookback of each scan.
	ScanInterval         time.Duration
	ImpossibleSpeedKnots float64
	ClusterWindow        time.Duration
}

// DefaultSpoofConfig returns the standard thresholds.
func DefaultSpoofConfig() SpoofConfig {
	return SpoofConfig{
		ScanInterval:         120 * time.Second,
		ImpossibleSpeedKnots: 50,
		ClusterWindow:        5 * time.Minute,
	}
}

// SpoofDetector turns recent positions into spoof signals and groups
// unclustered signals into clusters. Each new cluster is announced on
// TopicClusterCreated when a publisher is configured.
type SpoofDetector struct {
	store     SpoofStore
	publisher message.Publisher
	cfg       SpoofConfig
	logger    zerolog.Logger
}

// NewSpoofDetector creates a detector. publisher may be nil.
func NewSpoofDetector(store SpoofStore, publisher message.Publisher, cfg SpoofConfig) *SpoofDetector {
	return &SpoofDetector{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		logger:    logging.WithDetector("detection", "spoof_detector"),
	}
}

// Name implements Detector.
func (d *SpoofDetector) Name() string { return "spoof_detector" }

// Scan implements Detector.
func (d *SpoofDetector) Scan(ctx context.Context, now time.Time) error {
	if err := d.detect(ctx, now.Add(-d.cfg.ScanInterval)); err != nil {
		return err
	}
	return d.cluster(ctx, now)
}

func (d *SpoofDetector) detect(ctx context.Context, since time.Time) error {
	speed, err := d.store.ImpossibleSpeedPositions(ctx, since, d.cfg.ImpossibleSpeedKnots)
	if err != nil {
		return fmt.Errorf("impossible speed scan: %w", err)
	}
	sart, err := d.store.SARTPositions(ctx, since)
	if err != nil {
		return fmt.Errorf("sart scan: %w", err)
	}
	noID, err := d.store.NoIdentityPositions(ctx, since)
	if err != nil {
		return fmt.Errorf("no identity scan: %w", err)
	}
	pairs, err := d.store.ConsecutivePositions(ctx, since, JumpMaxInterval)
	if err != nil {
		return fmt.Errorf("position jump scan: %w", err)
	}

	var signals []models.SpoofSignal
	for _, p := range spacedPerVessel(speed, DedupeWindow) {
		signals = append(signals, newSignal(&p, models.AnomalyImpossibleSpeed, map[string]any{"sog": *p.SOG}))
	}
	for _, p := range latestPerVessel(sart) {
		signals = append(signals, newSignal(&p, models.AnomalySARTOnNonSAR,
			map[string]any{"reason": "ais_sart on non-sar vessel"}))
	}
	for _, p := range latestPerVessel(noID) {
		signals = append(signals, newSignal(&p, models.AnomalyNoIdentity,
			map[string]any{"reason": "no name/imo/callsign"}))
	}
	jumps := 0
	for _, j := range positionJumps(pairs) {
		signals = append(signals, newSignal(&j.pair.Current, models.AnomalyPositionJump, map[string]any{
			"distance_nm":    round1(j.distNM),
			"dt_minutes":     round1(j.dt.Minutes()),
			"prev_lat":       j.pair.PrevLat,
			"prev_lon":       j.pair.PrevLon,
			"prev_timestamp": j.pair.PrevTimestamp,
		}))
		jumps++
	}

	if len(signals) == 0 {
		return nil
	}
	if _, err := d.store.InsertSpoofSignals(ctx, signals); err != nil {
		return fmt.Errorf("insert spoof signals: %w", err)
	}
	for i := range signals {
		metrics.SpoofSignals.WithLabelValues(string(signals[i].AnomalyType)).Inc()
	}

	d.logger.Info().
		Int("impossible_speed", countType(signals, models.AnomalyImpossibleSpeed)).
		Int("sart_on_non_sar", countType(signals, models.AnomalySARTOnNonSAR)).
		Int("no_identity", countType(signals, models.AnomalyNoIdentity)).
		Int("position_jump", jumps).
		Msg("Spoof anomalies detected")
	return nil
}

// cluster groups unclustered signals and commits each group. A failed group
// is logged and left for the next pass.
func (d *SpoofDetector) cluster(ctx context.Context, now time.Time) error {
	unclustered, err := d.store.UnclusteredSignals(ctx)
	if err != nil {
		return fmt.Errorf("load unclustered signals: %w", err)
	}
	groups := GroupSignals(unclustered, d.cfg.ClusterWindow)

	created := 0
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		c := BuildCluster(g, now)
		if err := d.store.CreateCluster(ctx, c); err != nil {
			d.logger.Warn().Err(err).Int("signals", len(g)).Msg("Cluster insert failed")
			continue
		}
		created++
		metrics.SpoofClusters.Inc()
		d.publish(c)
	}

	if created > 0 {
		d.logger.Info().
			Int("clusters", created).
			Int("unclustered", len(unclustered)).
			Msg("Spoof clusters created")
	}
	return nil
}

// publish announces a committed cluster. Failures are logged only; the
// cluster itself is already durable.
func (d *SpoofDetector) publish(c *models.SpoofCluster) {
	if d.publisher == nil {
		return
	}
	payload, err := json.Marshal(NewClusterCreated(c))
	if err != nil {
		logging.Cluster(d.logger, c.ID).Error().Err(err).Msg("Encode ClusterCreated failed")
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("cluster_id", strconv.FormatInt(c.ID, 10))
	if err := d.publisher.Publish(TopicClusterCreated, msg); err != nil {
		logging.Cluster(d.logger, c.ID).Warn().Err(err).Msg("Publish ClusterCreated failed")
	}
}

func newSignal(p *models.VesselPosition, t models.AnomalyType, details map[string]any) models.SpoofSignal {
	return models.SpoofSignal{
		MMSI:        p.MMSI,
		AnomalyType: t,
		Lat:         p.Lat,
		Lon:         p.Lon,
		SOG:         p.SOG,
		COG:         p.COG,
		NavStatus:   p.NavStatus,
		Details:     details,
		DetectedAt:  p.Timestamp,
	}
}

// spacedPerVessel keeps, per vessel, only positions more than gap after the
// previous kept one. Input is ordered by timestamp.
func spacedPerVessel(positions []models.VesselPosition, gap time.Duration) []models.VesselPosition {
	last := make(map[int64]time.Time)
	out := positions[:0:0]
	for _, p := range positions {
		if t, ok := last[p.MMSI]; ok && p.Timestamp.Sub(t) < gap {
			continue
		}
		last[p.MMSI] = p.Timestamp
		out = append(out, p)
	}
	return out
}

// latestPerVessel keeps the newest position of each vessel, in first-seen
// vessel order. Input is ordered by timestamp.
func latestPerVessel(positions []models.VesselPosition) []models.VesselPosition {
	idx := make(map[int64]int)
	var out []models.VesselPosition
	for _, p := range positions {
		if i, ok := idx[p.MMSI]; ok {
			out[i] = p
			continue
		}
		idx[p.MMSI] = len(out)
		out = append(out, p)
	}
	return out
}

type jump struct {
	pair   models.PositionPair
	distNM float64
	dt     time.Duration
}

// positionJumps applies the distance rule to consecutive pairs, already
// limited to JumpMaxInterval, then spaces hits per vessel by DedupeWindow.
func positionJumps(pairs []models.PositionPair) []jump {
	last := make(map[int64]time.Time)
	var out []jump
	for _, pp := range pairs {
		dt := pp.Current.Timestamp.Sub(pp.PrevTimestamp)
		if dt >= JumpMaxInterval {
			continue
		}
		dist := geo.GreatCircleNM(pp.PrevLat, pp.PrevLon, pp.Current.Lat, pp.Current.Lon)
		if dist <= JumpDistanceNM {
			continue
		}
		if t, ok := last[pp.Current.MMSI]; ok && pp.Current.Timestamp.Sub(t) < DedupeWindow {
			continue
		}
		last[pp.Current.MMSI] = pp.Current.Timestamp
		out = append(out, jump{pair: pp, distNM: dist, dt: dt})
	}
	return out
}

func countType(signals []models.SpoofSignal, t models.AnomalyType) int {
	n := 0
	for i := range signals {
		if signals[i].AnomalyType == t {
			n++
		}
	}
	return n
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
