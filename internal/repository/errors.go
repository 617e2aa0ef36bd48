package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound means the requested record does not exist.
var ErrNotFound = errors.New("repository: record not found")

// Resource specific errors. Both match ErrNotFound with errors.Is.
var (
	ErrRoomNotFound = fmt.Errorf("%w: room", ErrNotFound)
	ErrLockNotFound = fmt.Errorf("%w: lock", ErrNotFound)
)
