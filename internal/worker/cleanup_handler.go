package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"locusfocus-backend/internal/service"
	"locusfocus-backend/internal/tasks"
)

// Cleaner deletes rooms idle for longer than daysOld days.
type Cleaner interface {
	Cleanup(ctx context.Context, daysOld float64) (int64, error)
}

// RoomCleanupHandler processes TypeRoomCleanup tasks.
type RoomCleanupHandler struct {
	cleaner Cleaner
}

func NewRoomCleanupHandler(cleaner Cleaner) *RoomCleanupHandler {
	if cleaner == nil {
		panic("Cleaner cannot be nil for RoomCleanupHandler")
	}
	return &RoomCleanupHandler{cleaner: cleaner}
}

// ProcessTask implements asynq.Handler.
func (h *RoomCleanupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	currentRetry, _ := asynq.GetRetryCount(ctx)
	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     currentRetry,
	})

	payload, err := tasks.ParseRoomCleanupPayload(t.Payload())
	if err != nil {
		logCtx.WithError(err).Error("Failed to parse task payload")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	// Tasks enqueued without an age use the default rather than purging
	// every room.
	days := payload.DaysOld
	if days == 0 {
		days = service.DefaultCleanupDays
	}
	deleted, err := h.cleaner.Cleanup(ctx, float64(days))
	if err != nil {
		if service.IsValidationError(err) {
			return fmt.Errorf("invalid cleanup payload: %v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("room cleanup failed: %w", err)
	}

	logCtx.WithFields(logrus.Fields{"days_old": days, "deleted_rooms": deleted}).
		Info("Room cleanup task processed")
	return nil
}
