package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"locusfocus-backend/internal/domain"
	"locusfocus-backend/internal/repository"
)

// Publisher delivers a message to every live subscriber of a room and
// returns how many channels accepted it. Delivery is best effort.
type Publisher interface {
	Publish(roomID string, message any) int
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, any) int { return 0 }

// RoomService implements joining, leaving and reading rooms, plus the lock
// operations in lock.go. It holds no state besides its dependencies.
type RoomService struct {
	repo repository.RoomRepository
	pub  Publisher
	now  func() time.Time
}

// Option customizes a RoomService.
type Option func(*RoomService)

// WithClock replaces time.Now as the source of member and lock timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *RoomService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewRoomService creates a RoomService. A nil publisher disables push.
func NewRoomService(repo repository.RoomRepository, pub Publisher, opts ...Option) *RoomService {
	if repo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	if pub == nil {
		pub = noopPublisher{}
	}
	s := &RoomService{repo: repo, pub: pub, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// JoinRoom creates the room if needed, upserts the member and returns the
// fresh snapshot. Subscribers are notified with a user_joined message.
func (s *RoomService) JoinRoom(ctx context.Context, roomID, userID, username string) (*domain.Snapshot, error) {
	if err := requireFields("roomId is required", map[string]string{"roomId": roomID}); err != nil {
		return nil, err
	}
	if err := requireFields("userId and username are required", map[string]string{
		"userId":   userID,
		"username": username,
	}); err != nil {
		return nil, err
	}
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	if _, err := s.repo.UpsertRoom(ctx, roomID); err != nil {
		logCtx.WithError(err).Error("JoinRoom: failed to upsert room")
		return nil, mapRepoError("upsert room", err)
	}
	if err := s.repo.UpsertMember(ctx, roomID, userID, username, s.now()); err != nil {
		logCtx.WithError(err).Error("JoinRoom: failed to upsert member")
		return nil, mapRepoError("upsert member", err)
	}
	snap, err := s.repo.Snapshot(ctx, roomID)
	if err != nil {
		logCtx.WithError(err).Error("JoinRoom: failed to read snapshot")
		return nil, mapRepoError("snapshot", err)
	}

	delivered := s.pub.Publish(roomID, domain.UserJoinedEvent{
		Type:     domain.MessageUserJoined,
		UserID:   userID,
		Username: username,
		State:    snap,
	})
	logCtx.WithField("delivered", delivered).Info("User joined room")
	return snap, nil
}

// GetSnapshot returns ErrRoomNotFound when the room does not exist.
func (s *RoomService) GetSnapshot(ctx context.Context, roomID string) (*domain.Snapshot, error) {
	if err := requireFields("roomId is required", map[string]string{"roomId": roomID}); err != nil {
		return nil, err
	}
	snap, err := s.repo.Snapshot(ctx, roomID)
	if err != nil {
		return nil, mapRepoError("snapshot", err)
	}
	return snap, nil
}

// LeaveRoom removes the member and returns the snapshot. A user_left message
// is published only when a member row was actually removed.
func (s *RoomService) LeaveRoom(ctx context.Context, roomID, userID string) (*domain.Snapshot, error) {
	if err := requireFields("roomId and userId are required", map[string]string{
		"roomId": roomID,
		"userId": userID,
	}); err != nil {
		return nil, err
	}
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	if _, err := s.repo.GetRoom(ctx, roomID); err != nil {
		return nil, mapRepoError("get room", err)
	}
	removed, err := s.repo.RemoveMember(ctx, roomID, userID)
	if err != nil {
		logCtx.WithError(err).Error("LeaveRoom: failed to remove member")
		return nil, mapRepoError("remove member", err)
	}
	snap, err := s.repo.Snapshot(ctx, roomID)
	if err != nil {
		return nil, mapRepoError("snapshot", err)
	}
	if removed {
		delivered := s.pub.Publish(roomID, domain.UserLeftEvent{
			Type:   domain.MessageUserLeft,
			UserID: userID,
			State:  snap,
		})
		logCtx.WithField("delivered", delivered).Info("User left room")
	}
	return snap, nil
}

// Ping reports whether the store is reachable.
func (s *RoomService) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return mapRepoError("ping", err)
	}
	return nil
}
