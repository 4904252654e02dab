package hub

import (
	"context"
	"errors"

	"collaborative-whiteboard/internal/dto"
	"collaborative-whiteboard/internal/service"

	"github.com/sirupsen/logrus"
)

func (h *Hub) handleCreateRoom(ctx context.Context, c *Client, env dto.Envelope) {
	var payload dto.CreateRoomPayload
	if err := env.DecodeData(&payload); err != nil {
		logrus.WithField("conn_id", c.id).WithError(err).Warn("Invalid create-room payload")
		h.sendError(c, service.ErrInvalidPayload)
		return
	}
	if c.session.Bound() {
		h.leaveRoom(ctx, c)
	}

	created, err := h.roomService.CreateRoom(ctx, c.id, service.Profile{Name: payload.Name, Color: payload.Color})
	if err != nil {
		h.sendError(c, err)
		return
	}
	user := created.User
	h.registry.Bind(c, created.RoomID, &user)
	h.send(c, dto.EventRoomCreated, dto.RoomCreatedPayload{
		RoomID:   created.RoomID,
		Password: created.Password,
		User:     created.User,
	})
}

func (h *Hub) handleValidateRoom(ctx context.Context, c *Client, env dto.Envelope) {
	var payload dto.ValidateRoomPayload
	if err := env.DecodeData(&payload); err != nil || payload.RoomID == "" {
		h.sendValidationFailed(c, service.ErrInvalidPayload)
		return
	}
	if err := h.roomService.ValidateRoom(ctx, payload.RoomID, payload.Password); err != nil {
		h.sendValidationFailed(c, err)
		return
	}
	h.send(c, dto.EventValidationSuccess, dto.ValidationResultPayload{})
}

func (h *Hub) handleJoinRoom(ctx context.Context, c *Client, env dto.Envelope) {
	var payload dto.JoinRoomPayload
	if err := env.DecodeData(&payload); err != nil || payload.RoomID == "" {
		h.sendValidationFailed(c, service.ErrInvalidPayload)
		return
	}

	result, err := h.roomService.JoinRoom(ctx, c.id, service.JoinRequest{
		RoomID:   payload.RoomID,
		Password: payload.Password,
		UserID:   payload.UserData.UserID,
		Profile:  service.Profile{Name: payload.UserData.Name, Color: payload.UserData.Color},
	})
	if err != nil {
		// Join failures share the validation-failed event so clients handle
		// a rejected password the same way on either path.
		h.sendValidationFailed(c, err)
		return
	}

	if c.session.Bound() {
		if c.session.RoomID != result.RoomID {
			h.leaveRoom(ctx, c)
		} else {
			// The service replaced this connection's member entry; tell peers
			// the old one is gone before announcing the new one.
			h.broadcast(result.RoomID, c, dto.EventUserLeft, dto.UserLeftPayload{UserID: c.id})
		}
	}

	user := result.User
	h.registry.Bind(c, result.RoomID, &user)
	h.send(c, dto.EventRoomJoined, dto.RoomJoinedPayload{
		RoomID:      result.RoomID,
		User:        result.User,
		CanvasState: result.Canvas,
		Users:       result.Users,
		RejoinCount: result.RejoinCount,
	})
	h.broadcast(result.RoomID, c, dto.EventUserJoined, result.User)
}

func (h *Hub) sendValidationFailed(c *Client, err error) {
	h.send(c, dto.EventValidationFailed, dto.ValidationResultPayload{Message: service.ClientMessage(err)})
}

func (h *Hub) handleLeaveRoom(ctx context.Context, c *Client, _ dto.Envelope) {
	if !c.session.Bound() {
		return
	}
	h.leaveRoom(ctx, c)
}

// leaveRoom removes c's member entry, unsubscribes it and tells the
// remaining members. The room is kept even when it becomes empty.
func (h *Hub) leaveRoom(ctx context.Context, c *Client) {
	roomID := c.session.RoomID
	logCtx := logrus.WithFields(logrus.Fields{"conn_id": c.id, "room_id": roomID})
	if c.session.User != nil {
		logCtx = logCtx.WithField("user_name", c.session.User.Name)
	}

	if _, err := h.roomService.LeaveRoom(ctx, c.id, roomID); err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			logCtx.Debug("Leaving a room that was already swept")
		} else {
			logCtx.WithError(err).Warn("Leave did not update room members")
		}
	}
	h.registry.Unbind(c)
	h.broadcast(roomID, c, dto.EventUserLeft, dto.UserLeftPayload{UserID: c.id})
	logCtx.Debug("Connection unbound from room")
}
