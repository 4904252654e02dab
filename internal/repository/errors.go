package repository

import "errors"

// Store-level errors shared by every RoomRepository implementation.
var (
	// ErrNotFound means no live room has the requested id.
	ErrNotFound = errors.New("repository: record not found")
	// ErrExpired means the room existed but was past its expiry; it has been evicted.
	ErrExpired = errors.New("repository: record expired")
	// ErrDuplicateEntry means a room with the same id is already stored.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)
