package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"locusfocus-backend/internal/repository"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	// ErrStorage wraps any fault of the underlying store.
	ErrStorage = errors.New("storage error")
)

// ValidationError reports caller supplied data that is missing or malformed.
type ValidationError struct {
	Message     string
	FieldErrors map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	fields := make([]string, 0, len(e.FieldErrors))
	for f := range e.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid fields: " + strings.Join(fields, ", ")
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// requireFields returns a *ValidationError naming every blank field, or nil.
func requireFields(message string, fields map[string]string) error {
	var missing map[string]string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			if missing == nil {
				missing = make(map[string]string)
			}
			missing[name] = "required"
		}
	}
	if missing == nil {
		return nil
	}
	return &ValidationError{Message: message, FieldErrors: missing}
}

// mapRepoError translates repository errors into service errors.
func mapRepoError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrRoomNotFound) {
		return ErrRoomNotFound
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
