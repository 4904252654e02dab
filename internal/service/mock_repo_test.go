package service_test

import (
	"context"
	"time"

	"collaborative-whiteboard/internal/domain"

	"github.com/stretchr/testify/mock"
)

// mockRoomRepository is a testify mock of repository.RoomRepository.
type mockRoomRepository struct {
	mock.Mock
}

func (m *mockRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	return m.Called(ctx, room).Error(0)
}

func (m *mockRoomRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRoomRepository) UpdateLive(ctx context.Context, id string, fn func(room *domain.Room) error) error {
	return m.Called(ctx, id, fn).Error(0)
}

func (m *mockRoomRepository) Update(ctx context.Context, id string, fn func(room *domain.Room) error) error {
	return m.Called(ctx, id, fn).Error(0)
}

func (m *mockRoomRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRoomRepository) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func (m *mockRoomRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
