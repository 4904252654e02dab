package service

import (
	"errors"

	"collaborative-whiteboard/internal/repository"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomExpired       = errors.New("room expired")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrRejoinLimit       = errors.New("maximum rejoin limit reached")
	ErrNotInRoom         = errors.New("connection is not in a room")
	ErrInvalidPayload    = errors.New("invalid payload")
	ErrInternalServer    = errors.New("internal server error")
)

// ClientMessage returns the human-readable text sent to clients for err.
func ClientMessage(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, ErrRoomExpired):
		return "Room has expired"
	case errors.Is(err, ErrIncorrectPassword):
		return "Incorrect password"
	case errors.Is(err, ErrRejoinLimit):
		return "Maximum rejoin limit reached"
	case errors.Is(err, ErrNotInRoom):
		return "Not in a room"
	case errors.Is(err, ErrInvalidPayload):
		return "Invalid message payload"
	default:
		return "Internal server error"
	}
}

// mapRepoError translates store errors into service errors. Errors already
// produced by this package pass through unchanged.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrRoomNotFound
	case errors.Is(err, repository.ErrExpired):
		return ErrRoomExpired
	case errors.Is(err, ErrIncorrectPassword), errors.Is(err, ErrRejoinLimit),
		errors.Is(err, ErrNotInRoom), errors.Is(err, ErrInvalidPayload):
		return err
	default:
		return ErrInternalServer
	}
}
