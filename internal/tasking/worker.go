// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package tasking

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/poseidon/internal/config"
	"github.com/tomtom215/poseidon/internal/detection"
	"github.com/tomtom215/poseidon/internal/logging"
)

// Tasking parameters for a new spoof cluster.
const (
	// BBoxMargin is about 50 nm of latitude.
	BBoxMargin    = 0.83
	SARLookback   = 7 * 24 * time.Hour
	SARSceneLimit = 5
	VIIRSDays     = 2
)

// Worker requests follow-up collection around new spoof clusters. Either
// collaborator may be absent.
type Worker struct {
	sar    *SARClient
	viirs  *VIIRSClient
	now    func() time.Time
	logger zerolog.Logger
}

// NewWorker builds the collaborators named in cfg.
func NewWorker(cfg *config.TaskingConfig) *Worker {
	return &Worker{
		sar:    NewSARClient(cfg.SARURL, cfg.Timeout, cfg.RatePerSecond),
		viirs:  NewVIIRSClient(cfg.VIIRSURL, cfg.Timeout, cfg.RatePerSecond),
		now:    time.Now,
		logger: logging.WithComponent("tasking"),
	}
}

// Enabled reports whether any collaborator is configured.
func (w *Worker) Enabled() bool {
	return w.sar != nil || w.viirs != nil
}

// Handle is the router handler for detection.TopicClusterCreated. Only an
// undecodable payload is an error; collaborator failures are logged.
func (w *Worker) Handle(msg *message.Message) error {
	var ev detection.ClusterCreated
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("decode ClusterCreated %s: %w", msg.UUID, err)
	}
	w.Task(msg.Context(), &ev)
	return nil
}

// Task runs the SAR search and the VIIRS fetch for one cluster.
func (w *Worker) Task(ctx context.Context, ev *detection.ClusterCreated) {
	bbox := BBoxAround(ev.CentroidLat, ev.CentroidLon, BBoxMargin)
	log := logging.Cluster(w.logger, ev.ClusterID).With().
		Float64("lat", ev.CentroidLat).
		Float64("lon", ev.CentroidLon).
		Logger()

	if w.sar != nil {
		end := w.now().UTC()
		scenes, err := w.sar.SearchScenes(ctx, bbox, end.Add(-SARLookback), end, SARSceneLimit)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("SAR auto-task failed")
		case len(scenes) > 0:
			log.Info().Int("scenes", len(scenes)).Msg("Auto-tasked SAR")
		}
	}

	if w.viirs != nil {
		inserted, err := w.viirs.Fetch(ctx, bbox, VIIRSDays)
		if err != nil {
			log.Warn().Err(err).Msg("VIIRS auto-task failed")
			return
		}
		if inserted == 0 {
			log.Debug().Msg("VIIRS auto-task found no new observations")
			return
		}
		anomalies, err := w.viirs.Detect(ctx, bbox)
		if err != nil {
			log.Warn().Err(err).Int("observations", inserted).Msg("VIIRS anomaly detection failed")
			return
		}
		log.Info().Int("observations", inserted).Int("anomalies", anomalies).Msg("Auto-tasked VIIRS")
	}
}
