package repository

import (
	"context"
	"time"

	"collaborative-whiteboard/internal/domain"
)

// RoomRepository owns every Room entity. Callers never keep a *domain.Room
// beyond the callback it was passed to.
type RoomRepository interface {
	// Create stores a new room. It returns ErrDuplicateEntry if the id is taken.
	Create(ctx context.Context, room *domain.Room) error

	// Exists reports whether a room with id is stored, expired or not.
	Exists(ctx context.Context, id string) (bool, error)

	// UpdateLive runs fn with exclusive access to a live room. An expired room
	// is evicted and ErrExpired is returned; a missing one yields ErrNotFound.
	UpdateLive(ctx context.Context, id string, fn func(room *domain.Room) error) error

	// Update runs fn with exclusive access to the room without checking expiry,
	// so bound connections keep mutating until the next sweep.
	Update(ctx context.Context, id string, fn func(room *domain.Room) error) error

	// Delete removes the room. Deleting a missing room is not an error.
	Delete(ctx context.Context, id string) error

	// SweepExpired deletes every room past its expiry at now and returns how many went.
	SweepExpired(ctx context.Context, now time.Time) (int, error)

	// Count returns the number of stored rooms.
	Count(ctx context.Context) (int, error)
}
