package memory

import (
	"context"
	"sync"
	"time"

	"collaborative-whiteboard/internal/domain"
	"collaborative-whiteboard/internal/repository"

	"github.com/sirupsen/logrus"
)

// RoomStore is the in-process RoomRepository. A single mutex serialises every
// access so the periodic sweep never interleaves with a handler's mutation.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*domain.Room
	now   func() time.Time
}

// Option configures a RoomStore.
type Option func(*RoomStore)

// WithClock overrides the time source used for lazy eviction.
func WithClock(now func() time.Time) Option {
	return func(s *RoomStore) { s.now = now }
}

// NewRoomStore creates an empty store.
func NewRoomStore(opts ...Option) *RoomStore {
	s := &RoomStore{
		rooms: make(map[string]*domain.Room),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ repository.RoomRepository = (*RoomStore)(nil)

func (s *RoomStore) Create(ctx context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.ID]; exists {
		return repository.ErrDuplicateEntry
	}
	s.rooms[room.ID] = room
	return nil
}

func (s *RoomStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.rooms[id]
	return exists, nil
}

func (s *RoomStore) UpdateLive(ctx context.Context, id string, fn func(room *domain.Room) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, exists := s.rooms[id]
	if !exists {
		return repository.ErrNotFound
	}
	if room.IsExpired(s.now()) {
		delete(s.rooms, id)
		logrus.WithFields(logrus.Fields{
			"component":  "room_store",
			"room_id":    id,
			"expired_at": room.ExpiresAt,
		}).Info("Expired room evicted on access")
		return repository.ErrExpired
	}
	return fn(room)
}

func (s *RoomStore) Update(ctx context.Context, id string, fn func(room *domain.Room) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, exists := s.rooms[id]
	if !exists {
		return repository.ErrNotFound
	}
	return fn(room)
}

func (s *RoomStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.rooms, id)
	s.mu.Unlock()
	return nil
}

func (s *RoomStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	swept := 0
	for id, room := range s.rooms {
		if err := ctx.Err(); err != nil {
			return swept, err
		}
		if room == nil {
			// Should never happen; drop the slot rather than abort the sweep.
			logrus.WithFields(logrus.Fields{"component": "room_store", "room_id": id}).Error("Nil room entry found during sweep")
			delete(s.rooms, id)
			continue
		}
		if room.IsExpired(now) {
			delete(s.rooms, id)
			swept++
		}
	}
	return swept, nil
}

func (s *RoomStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms), nil
}
