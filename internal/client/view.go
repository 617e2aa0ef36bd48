package client

import (
	"reflect"
	"sync"

	"locusfocus-backend/internal/domain"
)

// View is the locally held state of one room. Both the poller and the push
// subscription feed it, so it must tolerate the same snapshot arriving twice
// and an older snapshot arriving after a newer one.
type View struct {
	roomID string

	mu       sync.RWMutex
	current  *domain.Snapshot
	onChange func(*domain.Snapshot)
}

// NewView creates an empty view for roomID. onChange, when set, is called
// after every applied change with the mutex released.
func NewView(roomID string, onChange func(*domain.Snapshot)) *View {
	return &View{roomID: roomID, onChange: onChange}
}

// Apply replaces the held state with s and reports whether anything changed.
// Snapshots of other rooms and snapshots older than the held one are ignored.
func (v *View) Apply(s *domain.Snapshot) bool {
	if s == nil || s.RoomID != v.roomID {
		return false
	}

	v.mu.Lock()
	if v.current != nil {
		if s.LastUpdated < v.current.LastUpdated || reflect.DeepEqual(v.current, s) {
			v.mu.Unlock()
			return false
		}
	}
	v.current = s
	cb := v.onChange
	v.mu.Unlock()

	if cb != nil {
		cb(s)
	}
	return true
}

// Snapshot returns the held state, or nil before the first Apply.
func (v *View) Snapshot() *domain.Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Locked reports what the view shows for userID: the lock flag and who set it.
func (v *View) Locked(userID string) (bool, string) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.current == nil {
		return false, ""
	}
	info, ok := v.current.Locks[userID]
	if !ok || !info.Locked {
		return false, ""
	}
	if info.LockedBy == nil {
		return true, ""
	}
	return true, *info.LockedBy
}
