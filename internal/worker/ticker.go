package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// TickerScheduler runs the sweep on a fixed wall-clock interval inside the
// process. It is used when no Redis is configured for asynq.
type TickerScheduler struct {
	handler  *SweepHandler
	interval time.Duration
}

// NewTickerScheduler creates a TickerScheduler.
func NewTickerScheduler(handler *SweepHandler, interval time.Duration) *TickerScheduler {
	if handler == nil {
		panic("SweepHandler cannot be nil for TickerScheduler")
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &TickerScheduler{handler: handler, interval: interval}
}

// Run sweeps every interval until ctx is cancelled.
func (s *TickerScheduler) Run(ctx context.Context) {
	log := logrus.WithFields(logrus.Fields{"component": "cleanup", "interval": s.interval.String()})
	log.Info("Cleanup ticker started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("Cleanup ticker stopped")
			return
		case <-ticker.C:
			s.handler.Sweep(ctx)
		}
	}
}
