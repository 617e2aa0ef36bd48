package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"locusfocus-backend/internal/tasks"
)

// WorkerServer runs the asynq worker and the scheduler that enqueues the
// periodic room cleanup.
type WorkerServer struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	cleaner   Cleaner
	schedule  string
	daysOld   int
	log       *logrus.Entry
}

// NewWorkerServer wires a worker for redisOpt. schedule is a cron line or an
// "@every <duration>" expression.
func NewWorkerServer(redisOpt asynq.RedisClientOpt, cleaner Cleaner, schedule string, daysOld int, logger *logrus.Logger) *WorkerServer {
	if cleaner == nil {
		panic("Cleaner cannot be nil for WorkerServer")
	}
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				taskID := ""
				if rw := task.ResultWriter(); rw != nil {
					taskID = rw.TaskID()
				}
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_id":   taskID,
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
			Logger: logEntry,
		},
	)
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: logEntry})

	return &WorkerServer{
		server:    server,
		scheduler: scheduler,
		cleaner:   cleaner,
		schedule:  schedule,
		daysOld:   daysOld,
		log:       logEntry,
	}
}

// RegisterPeriodicTasks registers the cleanup task with the scheduler.
func (ws *WorkerServer) RegisterPeriodicTasks() error {
	task, err := tasks.NewRoomCleanupTask(ws.daysOld)
	if err != nil {
		return err
	}
	entryID, err := ws.scheduler.Register(ws.schedule, task, asynq.Queue("default"))
	if err != nil {
		return fmt.Errorf("register room cleanup schedule %q: %w", ws.schedule, err)
	}
	ws.log.Infof("Periodic room cleanup registered with schedule '%s' (EntryID: %s)", ws.schedule, entryID)
	return nil
}

// Start launches the scheduler and the worker. Both run in background
// goroutines owned by asynq until Shutdown.
func (ws *WorkerServer) Start() error {
	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeRoomCleanup, NewRoomCleanupHandler(ws.cleaner))

	if err := ws.server.Start(mux); err != nil {
		return fmt.Errorf("start worker server: %w", err)
	}
	ws.log.Info("Worker server started")
	if err := ws.scheduler.Start(); err != nil {
		ws.server.Shutdown()
		return fmt.Errorf("start scheduler: %w", err)
	}
	ws.log.Info("Asynq scheduler started")
	return nil
}

// Shutdown stops the scheduler and drains the worker.
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.scheduler.Shutdown()
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
