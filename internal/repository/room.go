package repository

import (
	"context"
	"time"

	"locusfocus-backend/internal/domain"
)

// RoomRepository stores rooms, their members and lock records.
// Implementations must be safe for concurrent use.
type RoomRepository interface {
	// UpsertRoom creates the room if absent. An existing room keeps its
	// timestamps. Returns the stored row.
	UpsertRoom(ctx context.Context, roomID string) (*domain.Room, error)

	// GetRoom returns ErrRoomNotFound when the room does not exist.
	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)

	// TouchRoom sets last_updated. Touching an absent room is a no-op.
	TouchRoom(ctx context.Context, roomID string, now time.Time) error

	// UpsertMember inserts or replaces the (room, user) row.
	UpsertMember(ctx context.Context, roomID, userID, username string, now time.Time) error

	// ListMembers is ordered by joined_at, then user_id.
	ListMembers(ctx context.Context, roomID string) ([]domain.Member, error)

	// RemoveMember reports whether a row was deleted.
	RemoveMember(ctx context.Context, roomID, userID string) (bool, error)

	// SetLock replaces the lock row for (room, target) and touches the room
	// in the same transaction. It returns ErrRoomNotFound without writing
	// when the room does not exist. Timestamps of one row strictly increase.
	SetLock(ctx context.Context, roomID, targetUserID, lockedByUserID string, locked bool, now time.Time) (*domain.Lock, error)

	// GetLock returns ErrLockNotFound when no record exists.
	GetLock(ctx context.Context, roomID, targetUserID string) (*domain.Lock, error)

	// ListLocks is ordered by target_user_id.
	ListLocks(ctx context.Context, roomID string) ([]domain.Lock, error)

	// Snapshot reads the room, members and locks consistently.
	// Returns ErrRoomNotFound when the room does not exist.
	Snapshot(ctx context.Context, roomID string) (*domain.Snapshot, error)

	// SweepStaleRooms deletes rooms whose last_updated is older than maxAge,
	// together with their members and locks. Returns the number of rooms deleted.
	SweepStaleRooms(ctx context.Context, maxAge time.Duration) (int64, error)

	// Ping checks the underlying connection.
	Ping(ctx context.Context) error
}
