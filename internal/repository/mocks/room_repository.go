// Package mocks holds testify mocks for the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"locusfocus-backend/internal/domain"
	"locusfocus-backend/internal/repository"
)

// RoomRepository is a mock of repository.RoomRepository.
type RoomRepository struct {
	mock.Mock
}

var _ repository.RoomRepository = (*RoomRepository)(nil)

func (m *RoomRepository) UpsertRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	args := m.Called(ctx, roomID)
	room, _ := args.Get(0).(*domain.Room)
	return room, args.Error(1)
}

func (m *RoomRepository) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	args := m.Called(ctx, roomID)
	room, _ := args.Get(0).(*domain.Room)
	return room, args.Error(1)
}

func (m *RoomRepository) TouchRoom(ctx context.Context, roomID string, now time.Time) error {
	args := m.Called(ctx, roomID, now)
	return args.Error(0)
}

func (m *RoomRepository) UpsertMember(ctx context.Context, roomID, userID, username string, now time.Time) error {
	args := m.Called(ctx, roomID, userID, username, now)
	return args.Error(0)
}

func (m *RoomRepository) ListMembers(ctx context.Context, roomID string) ([]domain.Member, error) {
	args := m.Called(ctx, roomID)
	members, _ := args.Get(0).([]domain.Member)
	return members, args.Error(1)
}

func (m *RoomRepository) RemoveMember(ctx context.Context, roomID, userID string) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepository) SetLock(ctx context.Context, roomID, targetUserID, lockedByUserID string, locked bool, now time.Time) (*domain.Lock, error) {
	args := m.Called(ctx, roomID, targetUserID, lockedByUserID, locked, now)
	lock, _ := args.Get(0).(*domain.Lock)
	return lock, args.Error(1)
}

func (m *RoomRepository) GetLock(ctx context.Context, roomID, targetUserID string) (*domain.Lock, error) {
	args := m.Called(ctx, roomID, targetUserID)
	lock, _ := args.Get(0).(*domain.Lock)
	return lock, args.Error(1)
}

func (m *RoomRepository) ListLocks(ctx context.Context, roomID string) ([]domain.Lock, error) {
	args := m.Called(ctx, roomID)
	locks, _ := args.Get(0).([]domain.Lock)
	return locks, args.Error(1)
}

func (m *RoomRepository) Snapshot(ctx context.Context, roomID string) (*domain.Snapshot, error) {
	args := m.Called(ctx, roomID)
	snap, _ := args.Get(0).(*domain.Snapshot)
	return snap, args.Error(1)
}

func (m *RoomRepository) SweepStaleRooms(ctx context.Context, maxAge time.Duration) (int64, error) {
	args := m.Called(ctx, maxAge)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

func (m *RoomRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
