package dto

// Request bodies of the HTTP API. Field presence is checked by the service so
// that error messages stay stable for the extension.

// JoinRoomRequest is the body of POST /api/rooms/:roomId/join.
type JoinRoomRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// LeaveRoomRequest is the body of POST /api/rooms/:roomId/leave.
type LeaveRoomRequest struct {
	UserID string `json:"userId"`
}

// SetLockRequest is the body of POST /api/rooms/:roomId/lock.
// Locked is a pointer so that a missing flag is distinguishable from false.
type SetLockRequest struct {
	TargetUserID   string `json:"targetUserId"`
	LockedByUserID string `json:"lockedByUserId"`
	Locked         *bool  `json:"locked"`
}

// CleanupRequest is the optional body of POST /api/admin/cleanup. DaysOld may
// be fractional; absent means service.DefaultCleanupDays and 0 sweeps every
// idle room.
type CleanupRequest struct {
	DaysOld *float64 `json:"daysOld"`
}
