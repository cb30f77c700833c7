// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package ais

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/poseidon/internal/logging"
	"github.com/tomtom215/poseidon/internal/metrics"
	"github.com/tomtom215/poseidon/internal/models"
)

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
	progressEvery    = 1000
)

// Sink receives decoded records. Implemented by *buffer.Buffer.
type Sink interface {
	Append(ctx context.Context, rec models.Record) error
}

// StreamConfig configures a StreamClient.
type StreamConfig struct {
	URL            string
	APIKey         string
	PingInterval   time.Duration
	ReconnectDelay time.Duration
}

// StreamClient keeps a websocket session to the AIS stream open forever,
// reconnecting after a fixed delay whenever it drops.
type StreamClient struct {
	cfg     StreamConfig
	decoder *Decoder
	sink    Sink
	dialer  websocket.Dialer
	logger  zerolog.Logger

	// dropLog throttles per-record warnings so a bad feed cannot flood the log.
	dropLog *rate.Limiter

	messages atomic.Int64
}

// NewStreamClient creates a client writing decoded records to sink.
func NewStreamClient(cfg StreamConfig, decoder *Decoder, sink Sink) *StreamClient {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 20 * time.Second
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	return &StreamClient{
		cfg:     cfg,
		decoder: decoder,
		sink:    sink,
		dialer:  websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		logger:  logging.WithComponent("ais-stream"),
		dropLog: rate.NewLimiter(rate.Every(10*time.Second), 1),
	}
}

// MessagesProcessed returns the number of frames read since start.
func (c *StreamClient) MessagesProcessed() int64 {
	return c.messages.Load()
}

// RunWithContext connects and consumes until ctx is canceled.
func (c *StreamClient) RunWithContext(ctx context.Context) error {
	c.logger.Info().Str("url", c.cfg.URL).Msg("AIS stream ingestor starting")

	for {
		err := c.session(ctx)
		metrics.IngestConnected.Set(0)
		if ctx.Err() != nil {
			c.logger.Info().Int64("messages", c.messages.Load()).Msg("AIS stream ingestor stopped")
			return ctx.Err()
		}

		c.logger.Error().Err(err).Dur("retry_in", c.cfg.ReconnectDelay).Msg("AIS stream disconnected")
		metrics.IngestReconnects.Inc()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

// session runs one connection until it fails or ctx is canceled.
func (c *StreamClient) session(ctx context.Context) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	sub, err := json.Marshal(GlobalSubscription(c.cfg.APIKey))
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return fmt.Errorf("send subscription: %w", err)
	}
	c.logger.Info().Msg("Connected to AIS stream, subscription sent")
	metrics.IngestConnected.Set(1)

	readTimeout := 3 * c.cfg.PingInterval
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	sessCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.pingLoop(sessCtx, conn)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		if err := c.handle(ctx, data); err != nil {
			return err
		}
	}
}

// handle decodes one frame and hands it to the sink.
func (c *StreamClient) handle(ctx context.Context, data []byte) error {
	metrics.IngestMessagesReceived.Inc()
	n := c.messages.Add(1)
	if n%progressEvery == 0 {
		c.logger.Info().Int64("messages", n).Msg("AIS stream progress")
	}

	rec, ok := c.decoder.Decode(data, time.Now().UTC())
	if !ok {
		if c.dropLog.Allow() {
			c.logger.Debug().Int("bytes", len(data)).Msg("Dropped undecodable AIS frame")
		}
		return nil
	}

	if err := c.sink.Append(ctx, rec); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		// Ends the session; the reconnect delay applies.
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// pingLoop sends a ping every PingInterval and closes the connection when
// ctx is canceled so that ReadMessage unblocks.
func (c *StreamClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			_ = conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Warn().Err(err).Msg("AIS stream ping failed")
				_ = conn.Close()
				return
			}
		}
	}
}
