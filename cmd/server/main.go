// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/poseidon/internal/ais"
	"github.com/tomtom215/poseidon/internal/api"
	"github.com/tomtom215/poseidon/internal/buffer"
	"github.com/tomtom215/poseidon/internal/config"
	"github.com/tomtom215/poseidon/internal/database"
	"github.com/tomtom215/poseidon/internal/detection"
	"github.com/tomtom215/poseidon/internal/eventprocessor"
	"github.com/tomtom215/poseidon/internal/fusion"
	"github.com/tomtom215/poseidon/internal/geo"
	"github.com/tomtom215/poseidon/internal/logging"
	"github.com/tomtom215/poseidon/internal/persister"
	"github.com/tomtom215/poseidon/internal/supervisor"
	"github.com/tomtom215/poseidon/internal/supervisor/services"
	"github.com/tomtom215/poseidon/internal/tasking"
	"github.com/tomtom215/poseidon/internal/wal"
	"github.com/tomtom215/poseidon/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logging.Info().Msg("Starting Poseidon")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Poseidon exited with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}()
	logging.Info().Str("path", cfg.Database.Path).Msg("Database initialized")

	walCfg := wal.DefaultConfig()
	walCfg.Path = cfg.WAL.Path
	walCfg.SyncWrites = cfg.WAL.SyncWrites
	walCfg.SyncInterval = cfg.WAL.SyncInterval
	walCfg.GCInterval = cfg.WAL.GCInterval
	walCfg.GCRatio = cfg.WAL.GCRatio
	queue, err := wal.Open(&walCfg)
	if err != nil {
		return fmt.Errorf("open WAL: %w", err)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close WAL")
		}
	}()
	logging.Info().
		Str("path", walCfg.Path).
		Int64("pending", queue.Len()).
		Int64("dead_lettered", queue.DLQLen()).
		Msg("WAL opened")

	wmLogger := logging.NewWatermillLogger()
	bus, err := eventprocessor.NewBus(&cfg.NATS, wmLogger)
	if err != nil {
		return fmt.Errorf("connect event bus: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close event bus")
		}
	}()

	var classifier *geo.Classifier
	if cfg.Geo.CoastlinePath != "" {
		classifier, err = geo.LoadClassifier(cfg.Geo.CoastlinePath, cfg.Geo.BufferNM)
		if err != nil {
			return fmt.Errorf("load coastline: %w", err)
		}
	} else {
		logging.Warn().Msg("No coastline configured; receiver class will be unknown")
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLoggerFor("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	// === INGEST LAYER ===

	buf := buffer.NewBuffer(queue, cfg.Buffer.LiveCapacity)
	if cfg.AIS.Enabled {
		stream := ais.NewStreamClient(ais.StreamConfig{
			URL:            cfg.AIS.URL,
			APIKey:         cfg.AIS.APIKey,
			PingInterval:   cfg.AIS.PingInterval,
			ReconnectDelay: cfg.AIS.ReconnectDelay,
		}, ais.NewDecoder(), buf)
		tree.AddIngestService(services.NewRunnerService("ais-stream", stream))
	} else {
		logging.Info().Msg("AIS stream disabled (AIS_ENABLED=false)")
	}
	tree.AddIngestService(services.NewRunnerService("live-fanout", buffer.NewLiveFanout(buf, bus)))

	p, err := persister.New(queue, db, classifier, persister.Config{
		FlushInterval:        cfg.Buffer.FlushInterval,
		BatchSize:            cfg.Buffer.BatchSize,
		ImpossibleSpeedKnots: cfg.Spoof.ImpossibleSpeedKnots,
	})
	if err != nil {
		return fmt.Errorf("create persister: %w", err)
	}
	tree.AddIngestService(services.NewRunnerService("persister", p))
	tree.AddIngestService(services.NewWALCompactorService(wal.NewCompactor(queue)))

	// === DETECTION LAYER ===

	dark := detection.NewDarkDetector(db, detection.DarkConfig{
		Gap:          cfg.DarkVessel.Gap(),
		ActiveWindow: cfg.DarkVessel.ActiveWindow(),
	})
	tree.AddDetectionService(services.NewRunnerService("dark-detector",
		detection.NewRunner(dark, cfg.DarkVessel.CheckInterval)))

	spoof := detection.NewSpoofDetector(db, bus, detection.SpoofConfig{
		ScanInterval:         cfg.Spoof.ScanInterval,
		ImpossibleSpeedKnots: cfg.Spoof.ImpossibleSpeedKnots,
		ClusterWindow:        cfg.Spoof.ClusterWindow(),
	})
	tree.AddDetectionService(services.NewRunnerService("spoof-detector",
		detection.NewRunner(spoof, cfg.Spoof.ScanInterval)))

	engine := fusion.NewEngine(db, fusion.Config{
		BatchInterval: cfg.Fusion.BatchInterval,
		ActiveWindow:  cfg.Fusion.ActiveWindow,
	})
	tree.AddDetectionService(services.NewRunnerService("fusion-batch", engine))

	// === MESSAGING LAYER ===

	router, err := eventprocessor.NewRouter(eventprocessor.RouterConfigFrom(&cfg.NATS), bus.Publisher(), wmLogger)
	if err != nil {
		return fmt.Errorf("create router: %w", err)
	}
	checks := []eventprocessor.HealthCheckable{
		bus,
		api.PingCheck{Name: "duckdb", Ping: db.Ping},
		api.PingCheck{Name: "wal", Ping: func(context.Context) error {
			if !queue.IsOpen() {
				return errors.New("wal closed")
			}
			return nil
		}},
	}
	worker := tasking.NewWorker(&cfg.Tasking)
	if worker.Enabled() {
		router.AddConsumerHandler("tasking", detection.TopicClusterCreated, bus, worker.Handle)
		tree.AddMessagingService(services.NewRunnerService("tasking-router", router))
		checks = append(checks, router)
	} else {
		logging.Info().Msg("Tasking disabled (no SAR or VIIRS endpoint configured)")
	}

	hub := websocket.NewHub()
	tree.AddMessagingService(services.NewRunnerService("websocket-hub", hub))
	tree.AddMessagingService(services.NewRunnerService("live-bridge",
		websocket.NewLiveBridge(hub, bus, buffer.TopicLive)))

	// === API LAYER ===

	handler := api.NewHandler(db, engine, hub, checks...)
	server := &http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: api.NewRouter(handler, api.MiddlewareConfig{
			CORSAllowedOrigins: api.ParseOrigins(cfg.Server.CORSOrigins),
			RateLimitRequests:  cfg.Server.RateLimit,
			RateLimitWindow:    time.Minute,
			RequestTimeout:     cfg.Server.Timeout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewAPIServerService(server, hub, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Str("transport", bus.Transport()).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}
	return nil
}
