package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"locusfocus-backend/internal/domain"
	"locusfocus-backend/internal/repository"
)

const invalidLockData = "Invalid lock data"

// SetLock writes the lock flag of targetUserID and notifies subscribers with a
// lock_changed message. Any caller may set any lock; ownership is left to the
// clients.
func (s *RoomService) SetLock(ctx context.Context, roomID, targetUserID, lockedByUserID string, locked *bool) (*domain.Lock, error) {
	if err := requireFields(invalidLockData, map[string]string{
		"roomId":         roomID,
		"targetUserId":   targetUserID,
		"lockedByUserId": lockedByUserID,
	}); err != nil {
		return nil, err
	}
	if locked == nil {
		return nil, &ValidationError{
			Message:     invalidLockData,
			FieldErrors: map[string]string{"locked": "must be a boolean"},
		}
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"room_id":   roomID,
		"target":    targetUserID,
		"locked_by": lockedByUserID,
		"locked":    *locked,
	})

	// The store checks the room inside the write transaction.
	lock, err := s.repo.SetLock(ctx, roomID, targetUserID, lockedByUserID, *locked, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("SetLock: failed to write lock")
		return nil, mapRepoError("set lock", err)
	}

	snap, err := s.repo.Snapshot(ctx, roomID)
	if err != nil {
		// The write already committed; report it and skip the push.
		logCtx.WithError(err).Warn("SetLock: snapshot after write failed, push skipped")
		return lock, nil
	}
	delivered := s.pub.Publish(roomID, domain.LockChangedEvent{
		Type:           domain.MessageLockChanged,
		TargetUserID:   targetUserID,
		LockedByUserID: lockedByUserID,
		Locked:         *locked,
		State:          snap,
	})
	logCtx.WithField("delivered", delivered).Info("Lock updated")
	return lock, nil
}

// GetLockStatus never fails for an absent record; it reports the user unlocked.
func (s *RoomService) GetLockStatus(ctx context.Context, roomID, userID string) (domain.LockInfo, error) {
	if err := requireFields("roomId and userId are required", map[string]string{
		"roomId": roomID,
		"userId": userID,
	}); err != nil {
		return domain.LockInfo{}, err
	}
	lock, err := s.repo.GetLock(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrLockNotFound) {
			return domain.UnlockedInfo(), nil
		}
		return domain.LockInfo{}, mapRepoError("get lock", err)
	}
	return lock.Info(), nil
}

// GetAllLocks maps target user id to lock info. Unknown rooms yield an empty map.
func (s *RoomService) GetAllLocks(ctx context.Context, roomID string) (map[string]domain.LockInfo, error) {
	if err := requireFields("roomId is required", map[string]string{"roomId": roomID}); err != nil {
		return nil, err
	}
	locks, err := s.repo.ListLocks(ctx, roomID)
	if err != nil {
		return nil, mapRepoError("list locks", err)
	}
	return domain.LockMap(locks), nil
}
