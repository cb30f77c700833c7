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
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/poseidon/internal/config"
)

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// PoisonQueueTopic receives messages that fail after all retries.
	// Empty disables the poison queue.
	PoisonQueueTopic string
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     30 * time.Second,
		RetryMultiplier:      2.0,
		PoisonQueueTopic:     "tasking.poison",
	}
}

// RouterConfigFrom applies the bus settings to DefaultRouterConfig.
func RouterConfigFrom(cfg *config.NATSConfig) RouterConfig {
	rc := DefaultRouterConfig()
	if cfg.RouterCloseTimeout > 0 {
		rc.CloseTimeout = cfg.RouterCloseTimeout
	}
	if cfg.RouterRetryCount >= 0 {
		rc.RetryMaxRetries = cfg.RouterRetryCount
	}
	rc.PoisonQueueTopic = cfg.PoisonQueueTopic
	return rc
}

// Router runs consumer handlers on a Watermill router with the standard
// middleware stack. A Watermill router cannot be run twice, so each
// RunWithContext builds a fresh one from the registered handlers; this lets a
// supervisor restart a failed Router.
type Router struct {
	config RouterConfig
	poison message.Publisher
	logger watermill.LoggerAdapter

	mu       sync.Mutex
	handlers []consumerHandler
	current  *message.Router
	started  chan struct{}
	running  atomic.Bool
}

type consumerHandler struct {
	name       string
	topic      string
	subscriber message.Subscriber
	fn         message.NoPublishHandlerFunc
}

// NewRouter creates a router. A nil poisonPublisher disables the poison
// queue regardless of cfg.
func NewRouter(cfg RouterConfig, poisonPublisher message.Publisher, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	r := &Router{config: cfg, poison: poisonPublisher, logger: logger, started: make(chan struct{})}
	if _, err := r.build(); err != nil {
		return nil, err
	}
	return r, nil
}

// build creates a Watermill router with middleware and every registered
// handler.
func (r *Router) build() (*message.Router, error) {
	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: r.config.CloseTimeout}, r.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// The first middleware added is the outermost: a message reaches the
	// poison queue only after retries are exhausted, and panics are retried.
	if r.poison != nil && r.config.PoisonQueueTopic != "" {
		poisonQueue, err := middleware.PoisonQueue(r.poison, r.config.PoisonQueueTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	}

	retry := middleware.Retry{
		MaxRetries:      r.config.RetryMaxRetries,
		InitialInterval: r.config.RetryInitialInterval,
		MaxInterval:     r.config.RetryMaxInterval,
		Multiplier:      r.config.RetryMultiplier,
		Logger:          r.logger,
	}
	wmRouter.AddMiddleware(retry.Middleware)
	wmRouter.AddMiddleware(middleware.Recoverer)

	for _, h := range r.handlers {
		wmRouter.AddConsumerHandler(h.name, h.topic, h.subscriber, h.fn)
	}
	return wmRouter, nil
}

// AddConsumerHandler registers a handler that produces no output messages.
// It takes effect on the next RunWithContext.
func (r *Router) AddConsumerHandler(
	name string,
	subscribeTopic string,
	subscriber message.Subscriber,
	handler message.NoPublishHandlerFunc,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, consumerHandler{name: name, topic: subscribeTopic, subscriber: subscriber, fn: handler})
}

// RunWithContext runs the handlers until ctx is canceled. Any other stop is
// returned as an error.
func (r *Router) RunWithContext(ctx context.Context) error {
	r.mu.Lock()
	wmRouter, err := r.build()
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.current = wmRouter
	started := r.started
	r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	watcher := make(chan struct{})
	go func() {
		defer close(watcher)
		select {
		case <-wmRouter.Running():
			r.running.Store(true)
			close(started)
		case <-runCtx.Done():
		}
	}()

	err = wmRouter.Run(runCtx)
	cancel()
	<-watcher

	r.mu.Lock()
	r.running.Store(false)
	r.current = nil
	select {
	case <-started:
		r.started = make(chan struct{})
	default:
	}
	r.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("router stopped: %w", err)
	}
	return errors.New("router stopped")
}

// Running returns a channel that closes once the next (or current) run has
// subscribed every handler.
func (r *Router) Running() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Close stops the current run, waiting up to CloseTimeout for in-flight
// messages.
func (r *Router) Close() error {
	r.mu.Lock()
	cur := r.current
	r.mu.Unlock()
	if cur == nil {
		return nil
	}
	return cur.Close()
}

// HealthCheck implements HealthCheckable.
func (r *Router) HealthCheck(context.Context) ComponentHealth {
	r.mu.Lock()
	n := len(r.handlers)
	r.mu.Unlock()
	h := ComponentHealth{Name: "router", Healthy: r.running.Load(), Details: map[string]any{"handlers": n}}
	if !h.Healthy {
		h.Error = "router is not running"
	}
	return h
}
