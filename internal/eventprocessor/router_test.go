// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package eventprocessor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/poseidon/internal/config"
)

func testRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         time.Second,
		RetryMaxRetries:      2,
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     5 * time.Millisecond,
		RetryMultiplier:      2,
		PoisonQueueTopic:     "test.poison",
	}
}

func startRouter(t *testing.T, r *Router) (cancel func(), done <-chan error) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	ch := make(chan error, 1)
	go func() { ch <- r.RunWithContext(ctx) }()
	select {
	case <-r.Running():
	case <-time.After(5 * time.Second):
		stop()
		t.Fatal("router did not start")
	}
	return stop, ch
}

func TestRouterConfigFrom(t *testing.T) {
	rc := RouterConfigFrom(&config.NATSConfig{
		RouterRetryCount:   5,
		RouterCloseTimeout: 3 * time.Second,
		PoisonQueueTopic:   "x.poison",
	})
	if rc.RetryMaxRetries != 5 || rc.CloseTimeout != 3*time.Second || rc.PoisonQueueTopic != "x.poison" {
		t.Errorf("config = %+v", rc)
	}
	if rc.RetryInitialInterval != DefaultRouterConfig().RetryInitialInterval {
		t.Error("unset fields should keep defaults")
	}
}

func TestRouter_DeliversToHandler(t *testing.T) {
	bus := NewGoChannelBus(nil)
	defer bus.Close()

	r, err := NewRouter(testRouterConfig(), bus.Publisher(), nil)
	if err != nil {
		t.Fatal(err)
	}
	got := make(chan string, 1)
	r.AddConsumerHandler("echo", "test.in", bus, func(msg *message.Message) error {
		got <- string(msg.Payload)
		return nil
	})

	cancel, done := startRouter(t, r)
	if h := r.HealthCheck(context.Background()); !h.Healthy {
		t.Errorf("running router unhealthy: %+v", h)
	}

	if err := bus.Publish("test.in", message.NewMessage(watermill.NewUUID(), []byte("hello"))); err != nil {
		t.Fatal(err)
	}
	select {
	case p := <-got:
		if p != "hello" {
			t.Errorf("payload = %q", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler not called")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("RunWithContext = %v, want context.Canceled", err)
	}
}

func TestRouter_PoisonQueue(t *testing.T) {
	bus := NewGoChannelBus(nil)
	defer bus.Close()

	ctx, cancelSub := context.WithCancel(context.Background())
	defer cancelSub()
	poison, err := bus.Subscribe(ctx, "test.poison")
	if err != nil {
		t.Fatal(err)
	}

	r, err := NewRouter(testRouterConfig(), bus.Publisher(), nil)
	if err != nil {
		t.Fatal(err)
	}
	var attempts atomic.Int32
	r.AddConsumerHandler("failing", "test.in", bus, func(*message.Message) error {
		attempts.Add(1)
		return errors.New("collaborator down")
	})

	cancel, done := startRouter(t, r)
	defer func() {
		cancel()
		<-done
	}()

	msg := message.NewMessage(watermill.NewUUID(), []byte("doomed"))
	if err := bus.Publish("test.in", msg); err != nil {
		t.Fatal(err)
	}

	got := receive(t, poison)
	if string(got.Payload) != "doomed" {
		t.Errorf("poisoned payload = %q", got.Payload)
	}
	if n := attempts.Load(); n != 3 {
		t.Errorf("attempts = %d, want 3 (1 + 2 retries)", n)
	}
}

func TestRouter_RunsAgainAfterStop(t *testing.T) {
	bus := NewGoChannelBus(nil)
	defer bus.Close()

	r, err := NewRouter(testRouterConfig(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := make(chan string, 1)
	r.AddConsumerHandler("echo", "test.in", bus, func(msg *message.Message) error {
		got <- string(msg.Payload)
		return nil
	})

	cancel, done := startRouter(t, r)
	cancel()
	<-done
	if h := r.HealthCheck(context.Background()); h.Healthy {
		t.Error("stopped router reported healthy")
	}

	cancel, done = startRouter(t, r)
	defer func() {
		cancel()
		<-done
	}()
	if err := bus.Publish("test.in", message.NewMessage(watermill.NewUUID(), []byte("again"))); err != nil {
		t.Fatal(err)
	}
	select {
	case p := <-got:
		if p != "again" {
			t.Errorf("payload = %q", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("restarted router did not deliver")
	}
}
