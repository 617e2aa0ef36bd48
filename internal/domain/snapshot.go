package domain

// Snapshot is the derived read view of a room. It is recomputed from the
// store on every read and never cached.
type Snapshot struct {
	RoomID      string              `json:"roomId"`
	LastUpdated int64               `json:"lastUpdated"`
	Users       []Member            `json:"users"`
	Locks       map[string]LockInfo `json:"locks"`
}

// NewSnapshot assembles a snapshot from a room and its child rows.
func NewSnapshot(room Room, members []Member, locks []Lock) *Snapshot {
	s := &Snapshot{
		RoomID:      room.ID,
		LastUpdated: room.LastUpdated,
		Users:       make([]Member, 0, len(members)),
		Locks:       LockMap(locks),
	}
	s.Users = append(s.Users, members...)
	return s
}

// LockMap indexes lock rows by target user id.
func LockMap(locks []Lock) map[string]LockInfo {
	m := make(map[string]LockInfo, len(locks))
	for _, l := range locks {
		m[l.TargetUserID] = l.Info()
	}
	return m
}

// Member looks up a member of the snapshot by user id.
func (s *Snapshot) Member(userID string) (Member, bool) {
	if s == nil {
		return Member{}, false
	}
	for _, m := range s.Users {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}
