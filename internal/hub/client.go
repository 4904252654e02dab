package hub

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const sendBufferSize = 256

// Client is one websocket connection attached to the Hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string
	send chan []byte

	// Owned by the hub loop.
	session *Session
	closed  bool
}

// NewClient creates a Client for an upgraded connection identified by id.
func NewClient(hub *Hub, conn *websocket.Conn, id string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		id:   id,
		send: make(chan []byte, sendBufferSize),
	}
}

// ID returns the transport connection id.
func (c *Client) ID() string { return c.id }

// Run starts the read and write pumps.
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// CloseConn closes the underlying connection.
func (c *Client) CloseConn() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// enqueue hands a frame to the write pump without blocking. It must only be
// called from the hub loop.
func (c *Client) enqueue(frame []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// closeSend stops the write pump. It must only be called from the hub loop.
func (c *Client) closeSend() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) logCtx() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"conn_id": c.id, "component": "client"})
}

// ReadPump forwards inbound frames to the hub until the connection fails.
func (c *Client) ReadPump() {
	// Whatever ends the read loop, the hub must run the disconnect path.
	defer func() {
		c.hub.queueUnregister(c)
		c.conn.Close()
		c.logCtx().Info("readPump exited, client unregistered")
	}()

	// Oversized frames close the connection with a read error.
	c.conn.SetReadLimit(c.hub.maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	// Every pong pushes the deadline out again; a silent peer times out.
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logCtx().WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				c.logCtx().Debug("WebSocket connection closed")
			}
			return
		}
		// The protocol is JSON text only.
		if messageType != websocket.TextMessage {
			c.logCtx().Debugf("Ignoring non-text message type: %d", messageType)
			continue
		}
		// Blocking here keeps per-connection ordering; a full hub queue
		// applies backpressure to this reader only.
		if !c.hub.queueEvent(c, message) {
			return // hub stopped
		}
	}
}

// WritePump drains the send queue to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logCtx().Debug("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the queue: unregistered or shutting down.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logCtx().WithError(err).Warn("Failed to write message to websocket")
				return
			}
		case <-ticker.C:
			// Keepalive; the peer answers with a pong handled in ReadPump.
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logCtx().WithError(err).Debug("Failed to send ping message")
				return
			}
		}
	}
}
