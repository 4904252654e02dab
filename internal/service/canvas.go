package service

import (
	"context"

	"collaborative-whiteboard/internal/domain"
	"collaborative-whiteboard/internal/repository"

	"github.com/sirupsen/logrus"
)

// CanvasService applies canvas mutations to a room's replicated document.
// Callers are responsible for fan-out; every method only touches state.
type CanvasService struct {
	roomRepo repository.RoomRepository
}

// NewCanvasService creates a CanvasService.
func NewCanvasService(roomRepo repository.RoomRepository) *CanvasService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for CanvasService")
	}
	return &CanvasService{roomRepo: roomRepo}
}

// AddObject appends obj to the room's object list.
func (s *CanvasService) AddObject(ctx context.Context, roomID string, obj domain.CanvasObject) error {
	if obj.ID == "" {
		return ErrInvalidPayload
	}
	return s.update(ctx, roomID, "add_object", func(room *domain.Room) {
		room.AddObject(obj)
	})
}

// ModifyObject replaces the object with obj.ID in place. It reports false when
// the object is not there, e.g. removed by a racing delete.
func (s *CanvasService) ModifyObject(ctx context.Context, roomID string, obj domain.CanvasObject) (bool, error) {
	if obj.ID == "" {
		return false, ErrInvalidPayload
	}
	var replaced bool
	err := s.update(ctx, roomID, "modify_object", func(room *domain.Room) {
		replaced = room.ReplaceObject(obj)
	})
	if err == nil && !replaced {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "object_id": obj.ID}).Debug("Modify for unknown object dropped")
	}
	return replaced, err
}

// RemoveObject drops the object with objectID.
func (s *CanvasService) RemoveObject(ctx context.Context, roomID, objectID string) error {
	if objectID == "" {
		return ErrInvalidPayload
	}
	return s.update(ctx, roomID, "remove_object", func(room *domain.Room) {
		room.RemoveObject(objectID)
	})
}

// Clear empties the object list, keeping theme and canvas color.
func (s *CanvasService) Clear(ctx context.Context, roomID string) error {
	return s.update(ctx, roomID, "clear", func(room *domain.Room) {
		room.ClearObjects()
	})
}

// ChangeTheme sets the theme, and the canvas color when color is non-nil.
// An empty theme leaves the current one in place.
func (s *CanvasService) ChangeTheme(ctx context.Context, roomID, theme string, color *string) error {
	return s.update(ctx, roomID, "change_theme", func(room *domain.Room) {
		room.SetTheme(theme, color)
	})
}

// Snapshot returns a copy of the room's canvas.
func (s *CanvasService) Snapshot(ctx context.Context, roomID string) (domain.CanvasState, error) {
	var state domain.CanvasState
	err := s.roomRepo.Update(ctx, roomID, func(room *domain.Room) error {
		state = room.Canvas.Clone()
		return nil
	})
	return state, mapRepoError(err)
}

func (s *CanvasService) update(ctx context.Context, roomID, op string, fn func(room *domain.Room)) error {
	err := s.roomRepo.Update(ctx, roomID, func(room *domain.Room) error {
		fn(room)
		return nil
	})
	if err != nil {
		err = mapRepoError(err)
		logrus.WithFields(logrus.Fields{"room_id": roomID, "operation": op}).WithError(err).Warn("Canvas mutation not applied")
		return err
	}
	return nil
}
