package tasks

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TypeRoomSweep evicts every room past its expiry.
	TypeRoomSweep = "room:sweep"

	sweepTimeout = 1 * time.Minute
)

// NewRoomSweepTask builds the periodic sweep task. It carries no payload and
// is never retried; the next tick sweeps again anyway.
func NewRoomSweepTask() *asynq.Task {
	return asynq.NewTask(TypeRoomSweep, nil, asynq.MaxRetry(0), asynq.Timeout(sweepTimeout))
}

// SweepSchedule returns the asynq cron entry for sweeping every interval.
func SweepSchedule(interval time.Duration) string {
	if interval <= 0 {
		interval = time.Hour
	}
	return fmt.Sprintf("@every %s", interval)
}
