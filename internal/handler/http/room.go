package http

import (
	"net/http"

	"collaborative-whiteboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ConnectionStats is implemented by the hub.
type ConnectionStats interface {
	ConnectionCount() int
	ActiveRoomIDs() []string
}

// RoomHandler serves the REST view of rooms.
type RoomHandler struct {
	roomService *service.RoomService
	stats       ConnectionStats
}

// NewRoomHandler creates a RoomHandler.
func NewRoomHandler(roomService *service.RoomService, stats ConnectionStats) *RoomHandler {
	if roomService == nil {
		panic("RoomService cannot be nil for RoomHandler")
	}
	return &RoomHandler{roomService: roomService, stats: stats}
}

// ValidateRoomRequest mirrors the validate-room websocket payload.
type ValidateRoomRequest struct {
	RoomID   string `json:"roomId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ValidateRoom checks a room id and password without joining.
func (h *RoomHandler) ValidateRoom(c *gin.Context) {
	var req ValidateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Debug("Handler.ValidateRoom: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "roomId and password are required")
		return
	}
	if err := h.roomService.ValidateRoom(c.Request.Context(), req.RoomID, req.Password); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"success": true})
}

// StatsResponse reports live counts.
type StatsResponse struct {
	Rooms       int `json:"rooms"`
	ActiveRooms int `json:"activeRooms"`
	Connections int `json:"connections"`
}

// Stats reports how many rooms and connections are live.
func (h *RoomHandler) Stats(c *gin.Context) {
	rooms, err := h.roomService.RoomCount(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	resp := StatsResponse{Rooms: rooms}
	if h.stats != nil {
		resp.ActiveRooms = len(h.stats.ActiveRoomIDs())
		resp.Connections = h.stats.ConnectionCount()
	}
	SuccessResponse(c, http.StatusOK, resp)
}
