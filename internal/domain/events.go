package domain

// Push message types exchanged over the websocket channel.
const (
	MessageJoin        = "join"
	MessageLeave       = "leave"
	MessageState       = "state"
	MessageUserJoined  = "user_joined"
	MessageUserLeft    = "user_left"
	MessageLockChanged = "lock_changed"
	MessageError       = "error"
)

// StateEvent carries the current snapshot to a freshly joined channel.
// Data is null when the room does not exist yet.
type StateEvent struct {
	Type string    `json:"type"`
	Data *Snapshot `json:"data"`
}

// UserJoinedEvent is broadcast after any join.
type UserJoinedEvent struct {
	Type     string    `json:"type"`
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	State    *Snapshot `json:"state"`
}

// UserLeftEvent is broadcast after a member leaves a room.
type UserLeftEvent struct {
	Type   string    `json:"type"`
	UserID string    `json:"userId"`
	State  *Snapshot `json:"state"`
}

// LockChangedEvent is broadcast after any lock write.
type LockChangedEvent struct {
	Type           string    `json:"type"`
	TargetUserID   string    `json:"targetUserId"`
	LockedByUserID string    `json:"lockedByUserId"`
	Locked         bool      `json:"locked"`
	State          *Snapshot `json:"state"`
}

// Envelope is the decoding target for any server frame on the client side.
type Envelope struct {
	Type           string    `json:"type"`
	Data           *Snapshot `json:"data,omitempty"`
	State          *Snapshot `json:"state,omitempty"`
	UserID         string    `json:"userId,omitempty"`
	Username       string    `json:"username,omitempty"`
	TargetUserID   string    `json:"targetUserId,omitempty"`
	LockedByUserID string    `json:"lockedByUserId,omitempty"`
	Locked         bool      `json:"locked,omitempty"`
	Message        string    `json:"message,omitempty"`
}

// Snapshot returns whichever snapshot the frame carries.
func (e Envelope) Snapshot() *Snapshot {
	if e.Data != nil {
		return e.Data
	}
	return e.State
}
