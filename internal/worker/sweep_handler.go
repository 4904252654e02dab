package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Sweeper deletes expired rooms.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// SweepHandler runs one cleanup pass. Failures are logged and swallowed so a
// bad pass never stops the schedule.
type SweepHandler struct {
	sweeper Sweeper
}

// NewSweepHandler creates a SweepHandler.
func NewSweepHandler(sweeper Sweeper) *SweepHandler {
	if sweeper == nil {
		panic("Sweeper cannot be nil for SweepHandler")
	}
	return &SweepHandler{sweeper: sweeper}
}

// Sweep runs one pass and returns how many rooms were evicted.
func (h *SweepHandler) Sweep(ctx context.Context) int {
	logCtx := logrus.WithField("component", "cleanup")
	start := time.Now()

	swept, err := h.safeSweep(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Room sweep failed, will retry on next tick")
		return swept
	}
	logCtx.WithFields(logrus.Fields{
		"swept":       swept,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Expired rooms swept")
	return swept
}

func (h *SweepHandler) safeSweep(ctx context.Context) (swept int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during sweep: %v", r)
		}
	}()
	return h.sweeper.SweepExpired(ctx)
}

// ProcessTask implements asynq.Handler.
func (h *SweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
	}).Debug("Processing room sweep task")
	h.Sweep(ctx)
	return nil
}
