package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	httpHandler "collaborative-whiteboard/internal/handler/http"
	"collaborative-whiteboard/internal/infra/state/memory"
	"collaborative-whiteboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	connections int
	rooms       []string
}

func (f fakeStats) ConnectionCount() int    { return f.connections }
func (f fakeStats) ActiveRoomIDs() []string { return f.rooms }

func setupRouter(t *testing.T) (*gin.Engine, *service.CreatedRoom) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	roomService := service.NewRoomService(memory.NewRoomStore())
	created, err := roomService.CreateRoom(context.Background(), "conn-1", service.Profile{Name: "Alice"})
	require.NoError(t, err)

	h := httpHandler.NewRoomHandler(roomService, fakeStats{connections: 3, rooms: []string{created.RoomID}})
	router := gin.New()
	router.POST("/api/rooms/validate", h.ValidateRoom)
	router.GET("/api/stats", h.Stats)
	return router, created
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestValidateRoom(t *testing.T) {
	router, created := setupRouter(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid credentials",
			body:       `{"roomId":"` + created.RoomID + `","password":"` + created.Password + `"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true}`,
		},
		{
			name:       "wrong password",
			body:       `{"roomId":"` + created.RoomID + `","password":"WRONG1"}`,
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"success":false,"error":"Incorrect password"}`,
		},
		{
			name:       "unknown room",
			body:       `{"roomId":"ZZZZZZ","password":"x"}`,
			wantStatus: http.StatusNotFound,
			wantBody:   `{"success":false,"error":"Room not found"}`,
		},
		{
			name:       "missing fields",
			body:       `{"roomId":"ZZZZZZ"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(router, "/api/rooms/validate", tc.body)
			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantBody != "" {
				assert.JSONEq(t, tc.wantBody, w.Body.String())
			}
		})
	}
}

func TestStats(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/stats", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp httpHandler.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, httpHandler.StatsResponse{Rooms: 1, ActiveRooms: 1, Connections: 3}, resp)
}

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[error]int{
		service.ErrRoomNotFound:      http.StatusNotFound,
		service.ErrRoomExpired:       http.StatusGone,
		service.ErrIncorrectPassword: http.StatusUnauthorized,
		service.ErrRejoinLimit:       http.StatusTooManyRequests,
		service.ErrInvalidPayload:    http.StatusBadRequest,
		assert.AnError:               http.StatusInternalServerError,
	}
	for err, want := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		httpHandler.HandleServiceError(c, err)
		assert.Equal(t, want, w.Code, err.Error())
	}
}
