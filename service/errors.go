package service

import (
	"errors"
)

var (
	// ErrInvalidInput means the request was malformed; not retryable
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownUser means the referenced user does not exist; not retryable
	ErrUnknownUser = errors.New("unknown user")

	// ErrUnknownAchievement means an achievement id is not in the catalog
	ErrUnknownAchievement = errors.New("unknown achievement")

	// ErrPersistenceConflict is a transient write conflict, such as a
	// duplicate unlock insert racing another request
	ErrPersistenceConflict = errors.New("persistence conflict")

	// ErrPersistenceUnavailable means the database could not be reached or
	// timed out; callers may retry the whole operation
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

// IsRetryable reports whether err is worth retrying by the caller
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistenceUnavailable)
}
