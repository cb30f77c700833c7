// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/poseidon/internal/config"
	"github.com/tomtom215/poseidon/internal/metrics"
)

// Transport names reported by Bus.Transport.
const (
	TransportNATS      = "nats"
	TransportGoChannel = "gochannel"
)

// gochannelBuffer is the per-subscriber output buffer of the in-process
// transport.
const gochannelBuffer = 1024

// Bus owns the publisher, subscriber and, when embedded, the NATS server.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	server     *EmbeddedServer
	transport  string
	logger     watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewBus connects the transport selected by cfg.
func NewBus(cfg *config.NATSConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if !cfg.Enabled {
		return NewGoChannelBus(logger), nil
	}

	b := &Bus{transport: TransportNATS, logger: logger}
	url := cfg.URL
	if cfg.EmbeddedServer {
		srv, err := NewEmbeddedServer("127.0.0.1", cfg.Port)
		if err != nil {
			return nil, err
		}
		b.server = srv
		url = srv.ClientURL()
	}

	natsOpts := connectionOptions(cfg, logger)
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		b.shutdownServer()
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}
	b.publisher = pub

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     cfg.RouterCloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		_ = pub.Close()
		b.shutdownServer()
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}
	b.subscriber = sub

	logger.Info("Event bus connected", watermill.LogFields{
		"transport": TransportNATS,
		"url":       url,
		"embedded":  cfg.EmbeddedServer,
	})
	return b, nil
}

// NewGoChannelBus returns an in-process bus.
func NewGoChannelBus(logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: gochannelBuffer}, logger)
	return &Bus{publisher: ps, subscriber: ps, transport: TransportGoChannel, logger: logger}
}

func connectionOptions(cfg *config.NATSConfig, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("poseidon"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
}

// Publish sends msgs on topic and counts them.
func (b *Bus) Publish(topic string, msgs ...*message.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	if err := b.publisher.Publish(topic, msgs...); err != nil {
		return err
	}
	metrics.EventsPublished.WithLabelValues(topic).Add(float64(len(msgs)))
	return nil
}

// Subscribe returns the message channel for topic. It closes when ctx ends
// or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

// Close implements message.Publisher and message.Subscriber; it shuts the
// whole bus down.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if any(b.subscriber) != any(b.publisher) {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	b.shutdownServer()
	return errors.Join(errs...)
}

func (b *Bus) shutdownServer() {
	if b.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := b.server.Shutdown(ctx); err != nil {
		b.logger.Error("NATS server shutdown", err, nil)
	}
}

// Publisher returns the raw Watermill publisher, for middleware such as the
// poison queue that must bypass Bus accounting.
func (b *Bus) Publisher() message.Publisher { return b.publisher }

// Subscriber returns the raw Watermill subscriber.
func (b *Bus) Subscriber() message.Subscriber { return b.subscriber }

// Transport returns TransportNATS or TransportGoChannel.
func (b *Bus) Transport() string { return b.transport }

// HealthCheck implements HealthCheckable.
func (b *Bus) HealthCheck(context.Context) ComponentHealth {
	h := ComponentHealth{Name: "event_bus", Healthy: true, Details: map[string]any{"transport": b.transport}}
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	switch {
	case closed:
		h.Healthy = false
		h.Error = ErrBusClosed.Error()
	case b.server != nil && !b.server.IsRunning():
		h.Healthy = false
		h.Error = "embedded NATS server is not running"
	}
	return h
}

var (
	_ message.Publisher  = (*Bus)(nil)
	_ message.Subscriber = (*Bus)(nil)
)
