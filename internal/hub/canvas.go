package hub

import (
	"context"
	"errors"

	"collaborative-whiteboard/internal/dto"
	"collaborative-whiteboard/internal/service"

	"github.com/sirupsen/logrus"
)

// boundRoom returns the room c is bound to. Unbound connections get false and
// their mutation is dropped without a reply.
func boundRoom(c *Client, event string) (string, bool) {
	if c.session == nil || !c.session.Bound() {
		logrus.WithFields(logrus.Fields{"conn_id": c.id, "event": event}).Debug("Ignoring mutation from unbound connection")
		return "", false
	}
	return c.session.RoomID, true
}

// mutationFailed reports the failure to the sender when it is the sender's
// fault and reports whether fan-out must be skipped.
func (h *Hub) mutationFailed(c *Client, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, service.ErrInvalidPayload) {
		h.sendError(c, err)
	}
	return true
}

func (h *Hub) handleObjectAdded(ctx context.Context, c *Client, env dto.Envelope) {
	roomID, ok := boundRoom(c, env.Event)
	if !ok {
		return
	}
	var payload dto.ObjectPayload
	if err := env.DecodeData(&payload); err != nil {
		h.sendError(c, service.ErrInvalidPayload)
		return
	}
	if h.mutationFailed(c, h.canvasService.AddObject(ctx, roomID, payload.Object)) {
		return
	}
	h.relay(roomID, c, env)
}

func (h *Hub) handleObjectModified(ctx context.Context, c *Client, env dto.Envelope) {
	roomID, ok := boundRoom(c, env.Event)
	if !ok {
		return
	}
	var payload dto.ObjectPayload
	if err := env.DecodeData(&payload); err != nil {
		h.sendError(c, service.ErrInvalidPayload)
		return
	}
	// Relayed even when the object is unknown here so remote views follow
	// the sender's intent.
	if _, err := h.canvasService.ModifyObject(ctx, roomID, payload.Object); h.mutationFailed(c, err) {
		return
	}
	h.relay(roomID, c, env)
}

func (h *Hub) handleObjectRemoved(ctx context.Context, c *Client, env dto.Envelope) {
	roomID, ok := boundRoom(c, env.Event)
	if !ok {
		return
	}
	var payload dto.ObjectRemovedPayload
	if err := env.DecodeData(&payload); err != nil {
		h.sendError(c, service.ErrInvalidPayload)
		return
	}
	if h.mutationFailed(c, h.canvasService.RemoveObject(ctx, roomID, payload.ObjectID)) {
		return
	}
	h.relay(roomID, c, env)
}

func (h *Hub) handleCanvasClear(ctx context.Context, c *Client, env dto.Envelope) {
	roomID, ok := boundRoom(c, env.Event)
	if !ok {
		return
	}
	if h.mutationFailed(c, h.canvasService.Clear(ctx, roomID)) {
		return
	}
	h.broadcast(roomID, c, dto.EventCanvasClear, nil)
}

func (h *Hub) handleThemeChange(ctx context.Context, c *Client, env dto.Envelope) {
	roomID, ok := boundRoom(c, env.Event)
	if !ok {
		return
	}
	var payload dto.ThemePayload
	if err := env.DecodeData(&payload); err != nil {
		h.sendError(c, service.ErrInvalidPayload)
		return
	}
	// The payload is relayed as sent even when it carries no theme.
	if h.mutationFailed(c, h.canvasService.ChangeTheme(ctx, roomID, payload.Theme, payload.Color)) {
		return
	}
	h.relay(roomID, c, env)
}

// handleCursorPosition relays the pointer without touching room state.
func (h *Hub) handleCursorPosition(ctx context.Context, c *Client, env dto.Envelope) {
	roomID, ok := boundRoom(c, env.Event)
	if !ok {
		return
	}
	var payload dto.CursorPayload
	if err := env.DecodeData(&payload); err != nil {
		h.sendError(c, service.ErrInvalidPayload)
		return
	}
	payload.UserID = c.id
	h.broadcast(roomID, c, dto.EventCursorPosition, payload)
}
