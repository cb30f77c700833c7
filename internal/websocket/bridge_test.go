// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// chanSubscriber hands out a channel the test controls.
type chanSubscriber struct {
	ch chan *message.Message
}

func (s *chanSubscriber) Subscribe(context.Context, string) (<-chan *message.Message, error) {
	return s.ch, nil
}

func (s *chanSubscriber) Close() error { return nil }

func TestLiveBridge_Forwards(t *testing.T) {
	hub := startHub(t)
	c := fakeClient(hub, 4)
	hub.Register <- c
	waitFor(t, "registration", func() bool { return hub.GetClientCount() == 1 })

	sub := &chanSubscriber{ch: make(chan *message.Message, 1)}
	bridge := NewLiveBridge(hub, sub, "ais.live")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bridge.RunWithContext(ctx) }()

	payload := []byte(`{"kind":"position","position":{"mmsi":211000001,"lat":50.1,"lon":-1.2}}`)
	msg := message.NewMessage(watermill.NewUUID(), payload)
	sub.ch <- msg

	select {
	case <-msg.Acked():
	case <-time.After(5 * time.Second):
		t.Fatal("message not acked")
	}
	select {
	case m := <-c.send:
		if string(m.Data) != string(payload) || m.record.VesselMMSI() != 211000001 {
			t.Errorf("forwarded %s", m.Data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("nothing forwarded")
	}
	if fwd, _ := bridge.Stats(); fwd != 1 {
		t.Errorf("forwarded = %d", fwd)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("RunWithContext = %v", err)
	}
}

func TestLiveBridge_SubscriptionClosed(t *testing.T) {
	sub := &chanSubscriber{ch: make(chan *message.Message)}
	close(sub.ch)
	err := NewLiveBridge(NewHub(), sub, "ais.live").RunWithContext(context.Background())
	if !errors.Is(err, ErrSubscriptionClosed) {
		t.Errorf("err = %v, want ErrSubscriptionClosed", err)
	}
}

func TestLiveBridge_FiltersAndSkipsUndecodable(t *testing.T) {
	hub := startHub(t)
	all, narrow := fakeClient(hub, 4), fakeClient(hub, 4)
	f, err := NewFilter(FilterRequest{MMSIs: []int64{211000002}})
	if err != nil {
		t.Fatal(err)
	}
	narrow.filter.Store(f)
	hub.Register <- all
	hub.Register <- narrow
	waitFor(t, "registration", func() bool { return hub.GetClientCount() == 2 })

	sub := &chanSubscriber{ch: make(chan *message.Message, 3)}
	bridge := NewLiveBridge(hub, sub, "ais.live")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = bridge.RunWithContext(ctx) }()

	sub.ch <- message.NewMessage(watermill.NewUUID(), []byte(`not json`))
	sub.ch <- message.NewMessage(watermill.NewUUID(), []byte(`{"kind":"position","position":{"mmsi":211000001,"lat":1,"lon":1}}`))
	sub.ch <- message.NewMessage(watermill.NewUUID(), []byte(`{"kind":"static","static":{"mmsi":211000002}}`))

	waitFor(t, "two forwards", func() bool { fwd, _ := bridge.Stats(); return fwd == 2 })
	if _, dropped := bridge.Stats(); dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	waitFor(t, "unfiltered delivery", func() bool { return len(all.send) == 2 })
	if len(narrow.send) != 1 {
		t.Fatalf("filtered client got %d frames, want 1", len(narrow.send))
	}
	if m := <-narrow.send; m.record.VesselMMSI() != 211000002 {
		t.Errorf("filtered client got mmsi %d", m.record.VesselMMSI())
	}
}
