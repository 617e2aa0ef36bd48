package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"locusfocus-backend/internal/domain"
	"locusfocus-backend/internal/repository"
)

// GormRoomRepository is the GORM implementation of repository.RoomRepository.
type GormRoomRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ repository.RoomRepository = (*GormRoomRepository)(nil)

// NewGormRoomRepository creates a repository. A nil clock defaults to time.Now;
// the clock is used for room creation and the sweep cutoff.
func NewGormRoomRepository(db *gorm.DB, clock func() time.Time) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	if clock == nil {
		clock = time.Now
	}
	return &GormRoomRepository{db: db, now: clock}
}

func (r *GormRoomRepository) UpsertRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	ts := r.now().UnixMilli()
	room := domain.Room{ID: roomID, CreatedAt: ts, LastUpdated: ts}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&room).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: upsert room %q: %w", roomID, err)
	}
	// Re-read so an existing row reports its original timestamps.
	return r.GetRoom(ctx, roomID)
}

func (r *GormRoomRepository) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	return findRoom(r.db.WithContext(ctx), roomID)
}

func findRoom(db *gorm.DB, roomID string) (*domain.Room, error) {
	var room domain.Room
	err := db.Where("id = ?", roomID).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room %q: %w", roomID, err)
	}
	return &room, nil
}

func (r *GormRoomRepository) TouchRoom(ctx context.Context, roomID string, now time.Time) error {
	return touchRoom(r.db.WithContext(ctx), roomID, now)
}

func touchRoom(db *gorm.DB, roomID string, now time.Time) error {
	err := db.Model(&domain.Room{}).
		Where("id = ?", roomID).
		Update("last_updated", now.UnixMilli()).Error
	if err != nil {
		return fmt.Errorf("gorm: touch room %q: %w", roomID, err)
	}
	return nil
}

func (r *GormRoomRepository) UpsertMember(ctx context.Context, roomID, userID, username string, now time.Time) error {
	member := domain.Member{
		RoomID:   roomID,
		UserID:   userID,
		Username: username,
		JoinedAt: now.UnixMilli(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "joined_at"}),
		}).
		Create(&member).Error
	if err != nil {
		return fmt.Errorf("gorm: upsert member %q in room %q: %w", userID, roomID, err)
	}
	return nil
}

func (r *GormRoomRepository) ListMembers(ctx context.Context, roomID string) ([]domain.Member, error) {
	return listMembers(r.db.WithContext(ctx), roomID)
}

func listMembers(db *gorm.DB, roomID string) ([]domain.Member, error) {
	members := make([]domain.Member, 0)
	err := db.Where("room_id = ?", roomID).
		Order("joined_at ASC").Order("user_id ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list members of room %q: %w", roomID, err)
	}
	return members, nil
}

func (r *GormRoomRepository) RemoveMember(ctx context.Context, roomID, userID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&domain.Member{})
	if result.Error != nil {
		return false, fmt.Errorf("gorm: remove member %q from room %q: %w", userID, roomID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// SetLock fails with ErrRoomNotFound when the room is gone by the time the
// transaction runs, so a concurrent sweep cannot leave an orphan lock behind.
// The stored timestamp is strictly greater than the previous one for the
// same row, even for writes within one millisecond.
func (r *GormRoomRepository) SetLock(ctx context.Context, roomID, targetUserID, lockedByUserID string, locked bool, now time.Time) (*domain.Lock, error) {
	lock := domain.Lock{
		RoomID:         roomID,
		TargetUserID:   targetUserID,
		LockedByUserID: lockedByUserID,
		Locked:         locked,
		Timestamp:      now.UnixMilli(),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findRoom(tx, roomID); err != nil {
			return err
		}
		var prev []domain.Lock
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("room_id = ? AND target_user_id = ?", roomID, targetUserID).
			Limit(1).Find(&prev).Error
		if err != nil {
			return fmt.Errorf("gorm: read lock on %q in room %q: %w", targetUserID, roomID, err)
		}
		if len(prev) > 0 && prev[0].Timestamp >= lock.Timestamp {
			lock.Timestamp = prev[0].Timestamp + 1
		}

		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "target_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"locked_by_user_id", "locked", "timestamp"}),
		}).Create(&lock).Error
		if err != nil {
			return fmt.Errorf("gorm: set lock on %q in room %q: %w", targetUserID, roomID, err)
		}
		return touchRoom(tx, roomID, time.UnixMilli(lock.Timestamp))
	})
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func (r *GormRoomRepository) GetLock(ctx context.Context, roomID, targetUserID string) (*domain.Lock, error) {
	var lock domain.Lock
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND target_user_id = ?", roomID, targetUserID).
		First(&lock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrLockNotFound
		}
		return nil, fmt.Errorf("gorm: get lock on %q in room %q: %w", targetUserID, roomID, err)
	}
	return &lock, nil
}

func (r *GormRoomRepository) ListLocks(ctx context.Context, roomID string) ([]domain.Lock, error) {
	return listLocks(r.db.WithContext(ctx), roomID)
}

func listLocks(db *gorm.DB, roomID string) ([]domain.Lock, error) {
	locks := make([]domain.Lock, 0)
	err := db.Where("room_id = ?", roomID).
		Order("target_user_id ASC").
		Find(&locks).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list locks of room %q: %w", roomID, err)
	}
	return locks, nil
}

func (r *GormRoomRepository) Snapshot(ctx context.Context, roomID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := findRoom(tx, roomID)
		if err != nil {
			return err
		}
		members, err := listMembers(tx, roomID)
		if err != nil {
			return err
		}
		locks, err := listLocks(tx, roomID)
		if err != nil {
			return err
		}
		snap = domain.NewSnapshot(*room, members, locks)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *GormRoomRepository) SweepStaleRooms(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := r.now().Add(-maxAge).UnixMilli()
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Subqueries keep the statement size independent of how many rooms
		// are stale.
		stale := func() *gorm.DB {
			return tx.Model(&domain.Room{}).Select("id").Where("last_updated < ?", cutoff)
		}
		if err := tx.Where("room_id IN (?)", stale()).Delete(&domain.Lock{}).Error; err != nil {
			return fmt.Errorf("gorm: delete locks of stale rooms: %w", err)
		}
		if err := tx.Where("room_id IN (?)", stale()).Delete(&domain.Member{}).Error; err != nil {
			return fmt.Errorf("gorm: delete members of stale rooms: %w", err)
		}
		result := tx.Where("last_updated < ?", cutoff).Delete(&domain.Room{})
		if result.Error != nil {
			return fmt.Errorf("gorm: delete stale rooms: %w", result.Error)
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (r *GormRoomRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("gorm: get sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("gorm: ping: %w", err)
	}
	return nil
}
