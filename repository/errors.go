package repository

import (
	"context"
	"errors"
	"fmt"

	"arcade/service"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes we map onto the service error taxonomy
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgQueryCanceled        = "57014"
)

// classify wraps a driver error with the matching service sentinel so callers
// can branch with errors.Is while keeping the driver detail in the message.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var sentinel error
	var pgErr *pgconn.PgError
	var connErr *pgconn.ConnectError
	switch {
	case errors.As(err, &pgErr):
		switch pgErr.Code {
		case pgUniqueViolation:
			sentinel = service.ErrPersistenceConflict
		case pgForeignKeyViolation:
			sentinel = service.ErrUnknownUser
		case pgSerializationFailure, pgDeadlockDetected, pgQueryCanceled:
			sentinel = service.ErrPersistenceUnavailable
		}
	case errors.As(err, &connErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		pgconn.Timeout(err),
		pgconn.SafeToRetry(err):
		sentinel = service.ErrPersistenceUnavailable
	}

	if sentinel == nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return fmt.Errorf("failed to %s: %w: %w", op, sentinel, err)
}
