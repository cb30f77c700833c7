// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

// Package buffer sits between the stream decoder and the persister. Every
// decoded record is written to the durable WAL queue and offered to a bounded
// live channel that feeds real-time consumers over the event bus.
package buffer

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/poseidon/internal/logging"
	"github.com/tomtom215/poseidon/internal/metrics"
	"github.com/tomtom215/poseidon/internal/models"
)

// TopicLive is the bus topic carrying every decoded record.
const TopicLive = "ais.live"

// DefaultLiveCapacity is used when NewBuffer is given a non-positive capacity.
const DefaultLiveCapacity = 1024

// Queue is the durable side of the buffer. Implemented by *wal.Queue.
type Queue interface {
	Append(ctx context.Context, payload []byte) error
}

// Buffer implements ais.Sink.
type Buffer struct {
	queue Queue
	live  chan []byte

	liveDropped atomic.Int64
}

// NewBuffer creates a buffer over queue with a live channel of liveCapacity.
func NewBuffer(queue Queue, liveCapacity int) *Buffer {
	if liveCapacity <= 0 {
		liveCapacity = DefaultLiveCapacity
	}
	return &Buffer{
		queue: queue,
		live:  make(chan []byte, liveCapacity),
	}
}

// Append encodes rec, writes it to the durable queue and offers it to the live
// channel. A full live channel drops the record for live consumers only.
func (b *Buffer) Append(ctx context.Context, rec models.Record) error {
	data, err := models.MarshalRecord(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := b.queue.Append(ctx, data); err != nil {
		return fmt.Errorf("append to WAL: %w", err)
	}

	select {
	case b.live <- data:
	default:
		b.liveDropped.Add(1)
		metrics.RecordDropped("live_full")
	}
	return nil
}

// Live returns the receive side of the live channel.
func (b *Buffer) Live() <-chan []byte {
	return b.live
}

// LiveDropped returns how many records missed the live channel.
func (b *Buffer) LiveDropped() int64 {
	return b.liveDropped.Load()
}

// LiveFanout drains a Buffer's live channel onto the event bus.
type LiveFanout struct {
	buffer    *Buffer
	publisher message.Publisher
	topic     string
}

// NewLiveFanout creates a fan-out publishing to TopicLive.
func NewLiveFanout(b *Buffer, publisher message.Publisher) *LiveFanout {
	return &LiveFanout{buffer: b, publisher: publisher, topic: TopicLive}
}

// RunWithContext publishes live records until ctx is cancelled. Publish
// failures are logged and the record is discarded.
func (f *LiveFanout) RunWithContext(ctx context.Context) error {
	logger := logging.WithComponent("live-fanout")
	logger.Info().Str("topic", f.topic).Msg("Live fan-out started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Live fan-out stopped")
			return ctx.Err()
		case data := <-f.buffer.live:
			msg := message.NewMessage(watermill.NewUUID(), data)
			msg.SetContext(ctx)
			if err := f.publisher.Publish(f.topic, msg); err != nil {
				logger.Warn().Err(err).Msg("Live publish failed")
				continue
			}
			metrics.EventsPublished.WithLabelValues(f.topic).Inc()
		}
	}
}
