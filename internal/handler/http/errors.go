package http

import (
	"errors"
	"net/http"

	"collaborative-whiteboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HandleServiceError maps a service error to an HTTP status and client message.
func HandleServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrRoomExpired):
		status = http.StatusGone
	case errors.Is(err, service.ErrIncorrectPassword):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrRejoinLimit):
		status = http.StatusTooManyRequests
	case errors.Is(err, service.ErrInvalidPayload):
		status = http.StatusBadRequest
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
	}
	ErrorResponse(c, status, service.ClientMessage(err))
}
