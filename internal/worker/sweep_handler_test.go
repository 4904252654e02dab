package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"collaborative-whiteboard/internal/tasks"
	"collaborative-whiteboard/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) SweepExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestSweepHandler_Sweep(t *testing.T) {
	sweeper := new(mockSweeper)
	sweeper.On("SweepExpired", mock.Anything).Return(3, nil).Once()

	assert.Equal(t, 3, worker.NewSweepHandler(sweeper).Sweep(context.Background()))
	sweeper.AssertExpectations(t)
}

func TestSweepHandler_ProcessTaskSwallowsFailures(t *testing.T) {
	sweeper := new(mockSweeper)
	sweeper.On("SweepExpired", mock.Anything).Return(0, errors.New("store unavailable")).Once()

	err := worker.NewSweepHandler(sweeper).ProcessTask(context.Background(), tasks.NewRoomSweepTask())
	assert.NoError(t, err, "a failed pass must not fail the task")
	sweeper.AssertExpectations(t)
}

func TestSweepHandler_RecoversFromPanic(t *testing.T) {
	sweeper := new(mockSweeper)
	sweeper.On("SweepExpired", mock.Anything).Panic("boom").Once()

	assert.NotPanics(t, func() {
		assert.Equal(t, 0, worker.NewSweepHandler(sweeper).Sweep(context.Background()))
	})
}

func TestTickerScheduler_SweepsUntilCancelled(t *testing.T) {
	sweeper := new(mockSweeper)
	swept := make(chan struct{}, 10)
	sweeper.On("SweepExpired", mock.Anything).Run(func(mock.Arguments) {
		select {
		case swept <- struct{}{}:
		default:
		}
	}).Return(0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.NewTickerScheduler(worker.NewSweepHandler(sweeper), 10*time.Millisecond).Run(ctx)
		close(done)
	}()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker never swept")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker did not stop")
	}
}
