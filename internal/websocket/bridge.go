// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/poseidon/internal/logging"
	"github.com/tomtom215/poseidon/internal/models"
)

// ErrSubscriptionClosed is returned when the bus closes the live
// subscription while the bridge is still running.
var ErrSubscriptionClosed = errors.New("live subscription closed")

// LiveBridge forwards bus messages on one topic to the hub.
type LiveBridge struct {
	hub        *Hub
	subscriber message.Subscriber
	topic      string
	logger     zerolog.Logger

	forwarded atomic.Int64
	dropped   atomic.Int64
}

// NewLiveBridge creates a bridge from topic on subscriber to hub.
func NewLiveBridge(hub *Hub, subscriber message.Subscriber, topic string) *LiveBridge {
	return &LiveBridge{
		hub:        hub,
		subscriber: subscriber,
		topic:      topic,
		logger:     logging.WithComponent("live_bridge"),
	}
}

// RunWithContext subscribes and forwards until ctx is canceled. Every
// message is acked whether or not the hub accepted it.
func (b *LiveBridge) RunWithContext(ctx context.Context) error {
	messages, err := b.subscriber.Subscribe(ctx, b.topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.topic, err)
	}
	b.logger.Info().Str("topic", b.topic).Msg("Live bridge started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrSubscriptionClosed
			}
			b.forward(msg)
			msg.Ack()
		}
	}
}

// forward decodes one ais.live payload so client filters can see it.
// Undecodable payloads are counted as dropped.
func (b *LiveBridge) forward(msg *message.Message) {
	rec, err := models.UnmarshalRecord(msg.Payload)
	if err != nil {
		b.logger.Debug().Err(err).Str("uuid", msg.UUID).Msg("Skipping undecodable live record")
		b.dropped.Add(1)
		return
	}
	if b.hub.BroadcastRecord(rec, msg.Payload) {
		b.forwarded.Add(1)
	} else {
		b.dropped.Add(1)
	}
}

// Stats returns forwarded and dropped message counts.
func (b *LiveBridge) Stats() (forwarded, dropped int64) {
	return b.forwarded.Load(), b.dropped.Load()
}
