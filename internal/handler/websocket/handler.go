package websocket

import (
	"net/http"

	"collaborative-whiteboard/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocketHandler upgrades HTTP requests and hands the connection to the Hub.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
}

// NewWebSocketHandler creates a WebSocketHandler. allowedOrigin "*" or empty
// accepts any Origin header.
func NewWebSocketHandler(h *hub.Hub, allowedOrigin string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigin),
	}
	return &WebSocketHandler{upgrader: upgrader, hub: h}
}

func originChecker(allowedOrigin string) func(r *http.Request) bool {
	if allowedOrigin == "" || allowedOrigin == "*" {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == allowedOrigin
	}
}

// HandleConnection upgrades the request. Every connection starts unbound and
// joins rooms through protocol messages.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	connID := uuid.NewString()
	logCtx := logrus.WithFields(logrus.Fields{"conn_id": connID, "client_ip": c.ClientIP()})

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		logCtx.WithError(err).Warn("WS Handler: Failed to upgrade connection")
		return
	}
	logCtx.Info("WS Handler: Connection upgraded to WebSocket")

	client := hub.NewClient(h.hub, conn, connID)
	if !h.hub.Register(client) {
		logCtx.Warn("WS Handler: Hub stopped, closing connection")
		client.CloseConn()
		return
	}
	client.Run()
}
