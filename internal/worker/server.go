package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"collaborative-whiteboard/internal/tasks"
)

// WorkerServer runs the sweep through asynq: a scheduler enqueues the task on
// every interval and an in-process server executes it against the local store.
type WorkerServer struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	handler   *SweepHandler
	schedule  string
	log       *logrus.Entry
}

// NewWorkerServer creates a WorkerServer backed by Redis at redisOpt.
func NewWorkerServer(redisOpt asynq.RedisClientOpt, handler *SweepHandler, interval time.Duration, logger *logrus.Logger) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 1,
			Queues:      map[string]int{"default": 1},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logEntry.WithField("task_type", task.Type()).WithError(err).Error("Task failed")
			}),
			Logger: logEntry,
		},
	)
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: logEntry})

	return &WorkerServer{
		server:    server,
		scheduler: scheduler,
		handler:   handler,
		schedule:  tasks.SweepSchedule(interval),
		log:       logEntry,
	}
}

// Start registers the periodic sweep and starts both the scheduler and the
// task server. It does not block.
func (ws *WorkerServer) Start() error {
	entryID, err := ws.scheduler.Register(ws.schedule, tasks.NewRoomSweepTask(), asynq.Queue("default"))
	if err != nil {
		return fmt.Errorf("register room sweep task: %w", err)
	}
	ws.log.Infof("Room sweep registered with schedule '%s' (EntryID: %s)", ws.schedule, entryID)

	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeRoomSweep, ws.handler)
	if err := ws.server.Start(mux); err != nil {
		return fmt.Errorf("start worker server: %w", err)
	}
	if err := ws.scheduler.Start(); err != nil {
		ws.server.Shutdown()
		return fmt.Errorf("start scheduler: %w", err)
	}
	ws.log.Info("Worker server and scheduler started")
	return nil
}

// Shutdown stops the scheduler and waits for in-flight tasks.
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.scheduler.Shutdown()
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
