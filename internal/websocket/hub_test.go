// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package websocket

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/poseidon/internal/models"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func fakeClient(hub *Hub, buffer int) *Client {
	return &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, buffer)}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	hub := startHub(t)
	a, b := fakeClient(hub, 4), fakeClient(hub, 4)
	hub.Register <- a
	hub.Register <- b
	waitFor(t, "registration", func() bool { return hub.GetClientCount() == 2 })

	if !hub.BroadcastRaw(MessageTypeAIS, []byte(`{"mmsi":211000001}`)) {
		t.Fatal("broadcast rejected")
	}
	for _, c := range []*Client{a, b} {
		select {
		case m := <-c.send:
			if m.Type != MessageTypeAIS || string(m.Data) != `{"mmsi":211000001}` {
				t.Errorf("client %d got %+v", c.id, m)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("client %d got nothing", c.id)
		}
	}

	hub.Unregister <- a
	waitFor(t, "unregistration", func() bool { return hub.GetClientCount() == 1 })
	if _, ok := <-a.send; ok {
		t.Error("unregistered client's send channel still open")
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := startHub(t)
	slow := fakeClient(hub, 1)
	hub.Register <- slow
	waitFor(t, "registration", func() bool { return hub.GetClientCount() == 1 })

	hub.BroadcastRaw(MessageTypeAIS, []byte(`1`))
	hub.BroadcastRaw(MessageTypeAIS, []byte(`2`))
	waitFor(t, "slow client removal", func() bool { return hub.GetClientCount() == 0 })
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()
	c := fakeClient(hub, 4)
	hub.Register <- c
	waitFor(t, "registration", func() bool { return hub.GetClientCount() == 1 })

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("RunWithContext = %v, want context.Canceled", err)
	}
	if hub.GetClientCount() != 0 {
		t.Error("clients left after shutdown")
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel not closed on shutdown")
	}
}

func TestHub_ServeHTTP(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, "client registration", func() bool { return hub.GetClientCount() == 1 })

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	hub.BroadcastRaw(MessageTypeAIS, []byte(`{"kind":"position","mmsi":211000001}`))
	var got struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Type != MessageTypeAIS || got.Data["kind"] != "position" {
		t.Errorf("frame = %+v", got)
	}

	if err := conn.WriteJSON(map[string]string{"type": MessageTypePing}); err != nil {
		t.Fatal(err)
	}
	got.Type, got.Data = "", nil
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON pong: %v", err)
	}
	if got.Type != MessageTypePong {
		t.Errorf("reply type = %q, want pong", got.Type)
	}

	_ = conn.Close()
	waitFor(t, "client removal", func() bool { return hub.GetClientCount() == 0 })
}

func TestHub_ServeHTTPSubscribe(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, "client registration", func() bool { return hub.GetClientCount() == 1 })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var got struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	read := func() {
		t.Helper()
		got.Type, got.Data = "", nil
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
	}

	if err := conn.WriteJSON(map[string]any{"type": MessageTypeSubscribe, "data": map[string]any{"bbox": []float64{0, 0, 10, 10}}}); err != nil {
		t.Fatal(err)
	}
	read()
	if got.Type != MessageTypeSubscribed {
		t.Fatalf("reply type = %q, want subscribed", got.Type)
	}

	outside := &models.PositionReport{MMSI: 211000001, Lat: 50, Lon: -1}
	inside := &models.PositionReport{MMSI: 211000002, Lat: 5, Lon: 5}
	hub.BroadcastRecord(outside, []byte(`{"kind":"position","position":{"mmsi":211000001}}`))
	hub.BroadcastRecord(inside, []byte(`{"kind":"position","position":{"mmsi":211000002}}`))
	read()
	pos, _ := got.Data["position"].(map[string]any)
	if got.Type != MessageTypeAIS || pos["mmsi"] != float64(211000002) {
		t.Errorf("frame = %+v, want only the in-box vessel", got)
	}

	if err := conn.WriteJSON(map[string]any{"type": MessageTypeSubscribe, "data": map[string]any{"bbox": []float64{10, 0, 0, 10}}}); err != nil {
		t.Fatal(err)
	}
	read()
	if got.Type != MessageTypeError {
		t.Errorf("reply type = %q, want error for inverted bbox", got.Type)
	}

	if err := conn.WriteJSON(map[string]any{"type": MessageTypeUnsubscribe}); err != nil {
		t.Fatal(err)
	}
	read()
	hub.BroadcastRecord(outside, []byte(`{"kind":"position","position":{"mmsi":211000001}}`))
	read()
	if got.Type != MessageTypeAIS {
		t.Errorf("after unsubscribe got %q, want ais", got.Type)
	}
}

func TestHub_CloseClientsKeepsRunning(t *testing.T) {
	hub := startHub(t)
	c := fakeClient(hub, 4)
	hub.Register <- c
	waitFor(t, "registration", func() bool { return hub.GetClientCount() == 1 })

	if n := hub.CloseClients(); n != 1 {
		t.Errorf("CloseClients = %d, want 1", n)
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel not closed")
	}
	hub.Unregister <- c

	next := fakeClient(hub, 4)
	hub.Register <- next
	waitFor(t, "re-registration", func() bool { return hub.GetClientCount() == 1 })
}
