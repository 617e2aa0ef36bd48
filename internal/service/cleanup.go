package service

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultCleanupDays is the idle age used when a caller gives none.
const DefaultCleanupDays = 30

// Cleanup deletes rooms idle for more than daysOld days together with their
// members and locks, and returns how many rooms were removed. Fractions of a
// day are allowed; zero removes every room not touched in the current
// millisecond.
func (s *RoomService) Cleanup(ctx context.Context, daysOld float64) (int64, error) {
	if daysOld < 0 || math.IsNaN(daysOld) || math.IsInf(daysOld, 0) {
		return 0, &ValidationError{
			Message:     "daysOld must not be negative",
			FieldErrors: map[string]string{"daysOld": "must be a number >= 0, got " + strconv.FormatFloat(daysOld, 'g', -1, 64)},
		}
	}
	maxAge := time.Duration(daysOld * float64(24*time.Hour))

	deleted, err := s.repo.SweepStaleRooms(ctx, maxAge)
	if err != nil {
		logrus.WithError(err).WithField("days_old", daysOld).Error("Cleanup: sweep failed")
		return 0, mapRepoError("sweep stale rooms", err)
	}
	logrus.WithFields(logrus.Fields{"days_old": daysOld, "deleted_rooms": deleted}).Info("Stale rooms cleaned up")
	return deleted, nil
}
