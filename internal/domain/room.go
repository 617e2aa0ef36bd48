package domain

// Room is a coordination context shared by members who may lock each other.
// Timestamps are Unix milliseconds.
type Room struct {
	ID          string `gorm:"primaryKey;size:191" json:"id"`
	CreatedAt   int64  `gorm:"column:created_at;autoCreateTime:milli;not null" json:"created_at"`
	LastUpdated int64  `gorm:"column:last_updated;index;not null" json:"last_updated"`
}

// TableName keeps the table name stable across drivers.
func (Room) TableName() string {
	return "rooms"
}

// Member is a (room, user) pairing. Rejoining overwrites Username and JoinedAt.
type Member struct {
	RoomID   string `gorm:"primaryKey;size:191;index:idx_room_users_room" json:"-"`
	UserID   string `gorm:"primaryKey;size:191" json:"user_id"`
	Username string `gorm:"not null" json:"username"`
	JoinedAt int64  `gorm:"column:joined_at;not null" json:"joined_at"`
}

func (Member) TableName() string {
	return "room_users"
}
