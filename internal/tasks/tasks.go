package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task types.
const (
	TypeRoomCleanup = "room:cleanup"
)

// RoomCleanupPayload is the payload of a TypeRoomCleanup task.
type RoomCleanupPayload struct {
	// DaysOld is the idle age after which a room is deleted. Zero means
	// service.DefaultCleanupDays.
	DaysOld int `json:"days_old"`
}

// NewRoomCleanupTask builds a cleanup task for the scheduler.
func NewRoomCleanupTask(daysOld int) (*asynq.Task, error) {
	payload, err := json.Marshal(RoomCleanupPayload{DaysOld: daysOld})
	if err != nil {
		return nil, fmt.Errorf("marshal room cleanup payload: %w", err)
	}
	return asynq.NewTask(TypeRoomCleanup, payload, asynq.MaxRetry(3)), nil
}

// ParseRoomCleanupPayload decodes a task payload. An empty payload is valid.
func ParseRoomCleanupPayload(data []byte) (RoomCleanupPayload, error) {
	var p RoomCleanupPayload
	if len(data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("unmarshal room cleanup payload: %w", err)
	}
	return p, nil
}
