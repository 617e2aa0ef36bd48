package domain

// Lock is the current lock flag for one target user in a room. There is at
// most one row per (room, target); every write replaces it.
type Lock struct {
	RoomID         string `gorm:"primaryKey;size:191;index:idx_locks_room" json:"room_id"`
	TargetUserID   string `gorm:"primaryKey;size:191" json:"target_user_id"`
	LockedByUserID string `gorm:"column:locked_by_user_id;size:191;not null" json:"locked_by_user_id"`
	Locked         bool   `gorm:"not null" json:"locked"`
	Timestamp      int64  `gorm:"not null" json:"timestamp"`
}

func (Lock) TableName() string {
	return "locks"
}

// LockInfo is the read-side view of a lock as the extension consumes it.
// LockedBy is nil and Timestamp omitted when no lock record exists.
type LockInfo struct {
	Locked    bool    `json:"locked"`
	LockedBy  *string `json:"lockedBy"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

// Info projects the stored row into its read-side view.
func (l Lock) Info() LockInfo {
	by := l.LockedByUserID
	return LockInfo{Locked: l.Locked, LockedBy: &by, Timestamp: l.Timestamp}
}

// UnlockedInfo is returned for users that were never locked.
func UnlockedInfo() LockInfo {
	return LockInfo{Locked: false, LockedBy: nil}
}
