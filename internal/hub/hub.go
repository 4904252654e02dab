package hub

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"collaborative-whiteboard/internal/dto"
	"collaborative-whiteboard/internal/service"

	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// DefaultMaxMessageSize bounds inbound frames; serialized canvas objects
	// such as embedded images can be large.
	DefaultMaxMessageSize = 1 << 20

	messageQueueSize = 512
)

const (
	msgRegister   = "register"
	msgUnregister = "unregister"
	msgEvent      = "event"
)

// HubMessage is what pumps and handlers put on the hub's queue.
type HubMessage struct {
	Type    string
	Client  *Client
	RawData []byte
}

type eventHandler func(ctx context.Context, c *Client, env dto.Envelope)

// Hub owns the connection registry and runs every protocol handler on a
// single goroutine, so each inbound message is applied and fanned out before
// the next one starts.
type Hub struct {
	messageChan chan HubMessage
	done        chan struct{}

	registry      *Registry
	roomService   *service.RoomService
	canvasService *service.CanvasService
	handlers      map[string]eventHandler

	maxMessageSize int64
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithMaxMessageSize sets the inbound frame limit applied to every client.
func WithMaxMessageSize(n int64) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.maxMessageSize = n
		}
	}
}

// NewHub creates a Hub. Call Run to start processing.
func NewHub(roomService *service.RoomService, canvasService *service.CanvasService, opts ...HubOption) *Hub {
	if roomService == nil {
		panic("RoomService cannot be nil for Hub")
	}
	if canvasService == nil {
		panic("CanvasService cannot be nil for Hub")
	}
	h := &Hub{
		messageChan:    make(chan HubMessage, messageQueueSize),
		done:           make(chan struct{}),
		registry:       NewRegistry(),
		roomService:    roomService,
		canvasService:  canvasService,
		maxMessageSize: DefaultMaxMessageSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.handlers = map[string]eventHandler{
		dto.EventCreateRoom:     h.handleCreateRoom,
		dto.EventValidateRoom:   h.handleValidateRoom,
		dto.EventJoinRoom:       h.handleJoinRoom,
		dto.EventLeaveRoom:      h.handleLeaveRoom,
		dto.EventObjectAdded:    h.handleObjectAdded,
		dto.EventObjectModified: h.handleObjectModified,
		dto.EventObjectRemoved:  h.handleObjectRemoved,
		dto.EventCanvasClear:    h.handleCanvasClear,
		dto.EventThemeChange:    h.handleThemeChange,
		dto.EventCursorPosition: h.handleCursorPosition,
	}
	return h
}

// Run processes queued messages until ctx is cancelled, then closes every
// client's send queue.
func (h *Hub) Run(ctx context.Context) {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")
	defer func() {
		h.shutdown()
		log.Info("Hub stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.messageChan:
			h.handleMessage(ctx, msg)
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	for _, c := range h.registry.All() {
		h.registry.Remove(c)
		c.closeSend()
	}
}

// Register queues a newly upgraded client. It returns false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	if h.stopped() {
		return false
	}
	select {
	case h.messageChan <- HubMessage{Type: msgRegister, Client: c}:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) queueUnregister(c *Client) {
	select {
	case h.messageChan <- HubMessage{Type: msgUnregister, Client: c}:
	case <-h.done:
	}
}

func (h *Hub) queueEvent(c *Client, raw []byte) bool {
	if h.stopped() {
		return false
	}
	select {
	case h.messageChan <- HubMessage{Type: msgEvent, Client: c, RawData: raw}:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int { return h.registry.ConnectionCount() }

// ActiveRoomIDs returns the rooms with at least one bound connection.
func (h *Hub) ActiveRoomIDs() []string { return h.registry.ActiveRoomIDs() }

// handleMessage runs one queued message. A panic is contained to this
// message so other connections and rooms are unaffected.
func (h *Hub) handleMessage(ctx context.Context, msg HubMessage) {
	defer func() {
		if r := recover(); r != nil {
			fields := logrus.Fields{"component": "hub", "message_type": msg.Type, "panic": fmt.Sprint(r)}
			if msg.Client != nil {
				fields["conn_id"] = msg.Client.id
			}
			logrus.WithFields(fields).Errorf("Recovered from handler panic\n%s", debug.Stack())
		}
	}()

	if msg.Client == nil {
		logrus.WithField("message_type", msg.Type).Error("Hub: message without client")
		return
	}
	switch msg.Type {
	case msgRegister:
		h.registerClient(msg.Client)
	case msgUnregister:
		h.unregisterClient(ctx, msg.Client)
	case msgEvent:
		h.dispatch(ctx, msg.Client, msg.RawData)
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub: unknown message type")
	}
}

func (h *Hub) registerClient(c *Client) {
	h.registry.Add(c)
	logrus.WithFields(logrus.Fields{"conn_id": c.id, "connections": h.registry.ConnectionCount()}).Info("Client registered to Hub")
}

// unregisterClient performs the disconnect transition: the same membership
// cleanup as leave-room, then the connection is forgotten.
func (h *Hub) unregisterClient(ctx context.Context, c *Client) {
	if c.closed {
		return
	}
	if c.session != nil && c.session.Bound() {
		h.leaveRoom(ctx, c)
	}
	h.registry.Remove(c)
	c.closeSend()
	logrus.WithFields(logrus.Fields{"conn_id": c.id, "connections": h.registry.ConnectionCount()}).Info("Client unregistered from Hub")
}

func (h *Hub) dispatch(ctx context.Context, c *Client, raw []byte) {
	if c.closed || c.session == nil {
		return
	}
	env, err := dto.Decode(raw)
	if err != nil {
		logrus.WithField("conn_id", c.id).WithError(err).Warn("Dropping malformed frame")
		h.sendError(c, service.ErrInvalidPayload)
		return
	}
	handler, ok := h.handlers[env.Event]
	if !ok {
		logrus.WithFields(logrus.Fields{"conn_id": c.id, "event": env.Event}).Debug("Ignoring unknown event")
		return
	}
	handler(ctx, c, env)
}

// send encodes and queues one frame for c.
func (h *Hub) send(c *Client, event string, payload interface{}) {
	frame, err := dto.Encode(event, payload)
	if err != nil {
		logrus.WithFields(logrus.Fields{"conn_id": c.id, "event": event}).WithError(err).Error("Failed to encode frame")
		return
	}
	if !c.enqueue(frame) {
		logrus.WithFields(logrus.Fields{"conn_id": c.id, "event": event}).Warn("Client send queue full or closed, message dropped")
	}
}

func (h *Hub) sendError(c *Client, err error) {
	h.send(c, dto.EventError, dto.ErrorPayload{Message: service.ClientMessage(err)})
}

// broadcast sends to every connection bound to roomID except sender. Delivery
// is best effort: a full queue drops the frame for that recipient only.
func (h *Hub) broadcast(roomID string, sender *Client, event string, payload interface{}) {
	frame, err := dto.Encode(event, payload)
	if err != nil {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "event": event}).WithError(err).Error("Failed to encode broadcast")
		return
	}
	h.broadcastFrame(roomID, sender, event, frame)
}

// relay forwards the sender's payload to the room as it arrived.
func (h *Hub) relay(roomID string, sender *Client, env dto.Envelope) {
	frame, err := dto.EncodeRaw(env.Event, env.Data)
	if err != nil {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "event": env.Event}).WithError(err).Error("Failed to frame relayed payload")
		return
	}
	h.broadcastFrame(roomID, sender, env.Event, frame)
}

func (h *Hub) broadcastFrame(roomID string, sender *Client, event string, frame []byte) {
	peers := h.registry.Peers(roomID, sender)
	if len(peers) == 0 {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"room_id":         roomID,
		"event":           event,
		"message_size":    len(frame),
		"recipient_count": len(peers),
	})
	logCtx.Debug("Broadcasting message to room")
	for _, peer := range peers {
		if !peer.enqueue(frame) {
			logCtx.WithField("receiver_conn_id", peer.id).Warn("Client send queue full during broadcast, skipping this client")
		}
	}
}
