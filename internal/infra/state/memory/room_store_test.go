package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"collaborative-whiteboard/internal/domain"
	"collaborative-whiteboard/internal/infra/state/memory"
	"collaborative-whiteboard/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newStore(t *testing.T) (*memory.RoomStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return memory.NewRoomStore(memory.WithClock(clock.Now)), clock
}

func TestRoomStore_CreateAndExists(t *testing.T) {
	ctx := context.Background()
	store, clock := newStore(t)

	require.NoError(t, store.Create(ctx, domain.NewRoom("ROOM01", nil, "c1", clock.Now())))
	err := store.Create(ctx, domain.NewRoom("ROOM01", nil, "c2", clock.Now()))
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)

	exists, err := store.Exists(ctx, "ROOM01")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = store.Exists(ctx, "NOPE00")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRoomStore_UpdateLive_EvictsExpired(t *testing.T) {
	ctx := context.Background()
	store, clock := newStore(t)
	require.NoError(t, store.Create(ctx, domain.NewRoom("ROOM01", nil, "c1", clock.Now())))

	called := false
	require.NoError(t, store.UpdateLive(ctx, "ROOM01", func(room *domain.Room) error {
		called = true
		return nil
	}))
	assert.True(t, called)

	clock.Advance(25 * time.Hour)
	err := store.UpdateLive(ctx, "ROOM01", func(room *domain.Room) error {
		t.Fatal("callback must not run for an expired room")
		return nil
	})
	assert.ErrorIs(t, err, repository.ErrExpired)

	exists, _ := store.Exists(ctx, "ROOM01")
	assert.False(t, exists, "expired room is evicted on access")
	err = store.UpdateLive(ctx, "ROOM01", func(room *domain.Room) error { return nil })
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRoomStore_Update_IgnoresExpiry(t *testing.T) {
	ctx := context.Background()
	store, clock := newStore(t)
	require.NoError(t, store.Create(ctx, domain.NewRoom("ROOM01", nil, "c1", clock.Now())))
	clock.Advance(25 * time.Hour)

	err := store.Update(ctx, "ROOM01", func(room *domain.Room) error {
		room.AddObject(domain.CanvasObject{ID: "o1"})
		return nil
	})
	require.NoError(t, err)

	err = store.Update(ctx, "MISSING", func(room *domain.Room) error { return nil })
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRoomStore_SweepExpired(t *testing.T) {
	ctx := context.Background()
	store, clock := newStore(t)
	start := clock.Now()
	require.NoError(t, store.Create(ctx, domain.NewRoom("OLD001", nil, "c1", start)))
	require.NoError(t, store.Create(ctx, domain.NewRoom("NEW001", nil, "c2", start.Add(2*time.Hour))))

	swept, err := store.SweepExpired(ctx, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	swept, err = store.SweepExpired(ctx, start.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	exists, _ := store.Exists(ctx, "NEW001")
	assert.True(t, exists)
}

func TestRoomStore_SweepExpired_CancelledContext(t *testing.T) {
	store, clock := newStore(t)
	require.NoError(t, store.Create(context.Background(), domain.NewRoom("OLD001", nil, "c1", clock.Now())))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.SweepExpired(ctx, clock.Now().Add(48*time.Hour))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRoomStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	store, clock := newStore(t)
	require.NoError(t, store.Create(ctx, domain.NewRoom("ROOM01", nil, "c1", clock.Now())))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(ctx, "ROOM01", func(room *domain.Room) error {
				room.AddObject(domain.CanvasObject{ID: "o"})
				return nil
			})
		}()
	}
	wg.Wait()

	var n int
	require.NoError(t, store.Update(ctx, "ROOM01", func(room *domain.Room) error {
		n = len(room.Canvas.Objects)
		return nil
	}))
	assert.Equal(t, 50, n)
}

func TestRoomStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, clock := newStore(t)
	require.NoError(t, store.Create(ctx, domain.NewRoom("ROOM01", nil, "c1", clock.Now())))

	require.NoError(t, store.Delete(ctx, "ROOM01"))
	require.NoError(t, store.Delete(ctx, "ROOM01"), "deleting a missing room is not an error")
	exists, _ := store.Exists(ctx, "ROOM01")
	assert.False(t, exists)
}
