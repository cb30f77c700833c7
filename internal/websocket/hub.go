// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package websocket

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/poseidon/internal/logging"
	"github.com/tomtom215/poseidon/internal/metrics"
	"github.com/tomtom215/poseidon/internal/models"
)

// Message types.
const (
	MessageTypeAIS         = "ais"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypeSubscribed  = "subscribed"
	MessageTypeError       = "error"
)

// broadcastBuffer bounds queued hub broadcasts.
const broadcastBuffer = 256

// Message is the JSON frame exchanged with clients. record is the decoded
// form of an ais frame's data, kept for per-client filtering.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`

	record models.Record
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
	done       chan struct{}
	upgrader   websocket.Upgrader
	logger     zerolog.Logger
}

// NewHub creates a hub. Call RunWithContext to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, broadcastBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger: logging.WithComponent("websocket_hub"),
	}
}

// RunWithContext serves register, unregister and broadcast events until ctx
// is canceled, then closes every client and returns ctx.Err().
//
// Lifecycle events are drained before broadcasts so that a broadcast never
// races a pending registration.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.mu.Lock()
	h.done = make(chan struct{})
	h.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return h.shutdown(ctx)
		default:
		}

		select {
		case c := <-h.Register:
			h.add(c)
			continue
		case c := <-h.Unregister:
			h.remove(c)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return h.shutdown(ctx)
		case c := <-h.Register:
			h.add(c)
		case c := <-h.Unregister:
			h.remove(c)
		case m := <-h.broadcast:
			h.broadcastToClients(m)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketConnections.Set(float64(n))
	h.logger.Debug().Uint64("client_id", c.id).Int("total_clients", n).Msg("Client connected")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketConnections.Set(float64(n))
	h.logger.Debug().Uint64("client_id", c.id).Int("total_clients", n).Msg("Client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) error {
	h.mu.Lock()
	close(h.done)
	h.mu.Unlock()
	n := h.CloseClients()
	h.logger.Info().Int("clients_closed", n).Msg("Hub stopped")
	return ctx.Err()
}

// stopped returns a channel closed when the current run ends. It is nil
// before the first run.
func (h *Hub) stopped() <-chan struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.done
}

// sortedClients returns clients in ID order. Callers hold h.mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	return clients
}

// broadcastToClients delivers m to every client whose filter accepts it,
// dropping clients whose send buffer is full.
func (h *Hub) broadcastToClients(m Message) {
	h.mu.Lock()
	var dropped int
	for _, c := range h.sortedClients() {
		if !c.wants(m) {
			continue
		}
		select {
		case c.send <- m:
		default:
			close(c.send)
			delete(h.clients, c)
			dropped++
		}
	}
	n := len(h.clients)
	h.mu.Unlock()

	if dropped > 0 {
		metrics.WebSocketConnections.Set(float64(n))
		h.logger.Warn().Int("dropped", dropped).Msg("Slow clients disconnected")
	}
}

// CloseClients disconnects every live client and returns how many there
// were. The hub keeps running and accepts new clients.
func (h *Hub) CloseClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.sortedClients()
	for _, c := range clients {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.WebSocketConnections.Set(0)
	return len(clients)
}

// BroadcastRaw queues a frame whose data is the JSON document payload.
// Client filters do not apply to it.
func (h *Hub) BroadcastRaw(messageType string, payload []byte) bool {
	return h.enqueue(Message{Type: messageType, Data: json.RawMessage(payload)})
}

// BroadcastRecord queues an ais frame for rec, encoded as payload, to the
// clients whose filter matches rec.
func (h *Hub) BroadcastRecord(rec models.Record, payload []byte) bool {
	return h.enqueue(Message{Type: MessageTypeAIS, Data: json.RawMessage(payload), record: rec})
}

// enqueue never blocks; a full queue drops m and reports false.
func (h *Hub) enqueue(m Message) bool {
	select {
	case h.broadcast <- m:
		return true
	default:
		h.logger.Warn().Str("message_type", m.Type).Msg("Broadcast channel full, dropping message")
		return false
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and registers the new client. The hub must
// be running.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("Upgrade failed")
		return
	}
	c := NewClient(h, conn)
	select {
	case h.Register <- c:
	case <-h.stopped():
		_ = conn.Close()
		return
	case <-r.Context().Done():
		_ = conn.Close()
		return
	}
	c.Start()
}
