// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024 // room for a full MMSI list
	sendBuffer     = 256
)

var clientIDCounter atomic.Uint64

// Client is one /ws/live connection. It receives every ais.live record
// unless it has sent a subscribe frame narrowing the stream.
type Client struct {
	id     uint64
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message
	filter atomic.Pointer[Filter]
}

// NewClient creates a client with a unique ID and no filter.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
}

// ID returns the client's identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// wants reports whether m should be delivered. Control frames always are.
func (c *Client) wants(m Message) bool {
	return c.filter.Load().Match(m.record)
}

// reply queues a control frame without blocking the read loop.
func (c *Client) reply(m Message) {
	select {
	case c.send <- m:
	default:
	}
}

// handle applies one client frame.
func (c *Client) handle(msg Message) {
	switch msg.Type {
	case MessageTypePing:
		c.reply(Message{Type: MessageTypePong})

	case MessageTypeSubscribe:
		var req FilterRequest
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				c.reply(errorFrame("malformed subscribe data"))
				return
			}
		}
		f, err := NewFilter(req)
		if err != nil {
			c.reply(errorFrame(err.Error()))
			return
		}
		c.filter.Store(f)
		c.reply(Message{Type: MessageTypeSubscribed, Data: msg.Data})
		c.hub.logger.Debug().
			Uint64("client_id", c.id).
			Int("mmsis", len(req.MMSIs)).
			Bool("bbox", req.BBox != nil).
			Msg("Client filter set")

	case MessageTypeUnsubscribe:
		c.filter.Store(nil)
		c.reply(Message{Type: MessageTypeSubscribed})

	default:
		c.reply(errorFrame("unknown message type " + msg.Type))
	}
}

func errorFrame(text string) Message {
	data, _ := json.Marshal(map[string]string{"message": text})
	return Message{Type: MessageTypeError, Data: data}
}

// readPump applies client frames until the connection fails, then
// unregisters the client.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.Unregister <- c:
		case <-c.hub.stopped():
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug().Err(err).Uint64("client_id", c.id).Msg("Unexpected close")
			}
			return
		}
		c.handle(msg)
	}
}

// writePump drains send and keeps the connection alive with protocol
// pings. It exits when the hub closes send or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		var err error
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			err = c.conn.WriteJSON(msg)
		case <-ticker.C:
			err = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		}
		if err != nil {
			return
		}
	}
}

// Start launches the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
