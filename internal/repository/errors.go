package repository

import (
	"errors"
	"fmt"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgLockNotAvailable     = "55P03"
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"
	pgQueryCanceled        = "57014"
)

// mapError translates driver errors into the domain taxonomy. Errors that
// already carry a domain meaning pass through untouched.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgDeadlockDetected, pgSerializationFailure, pgQueryCanceled:
			return fmt.Errorf("%w: %s", domain.ErrTransient, pgErr.Message)
		case pgCheckViolation:
			// quantity_sold <= quantity_total is backed by a CHECK constraint.
			return fmt.Errorf("%w: %s", domain.ErrInsufficientCapacity, pgErr.ConstraintName)
		case pgUniqueViolation:
			return fmt.Errorf("unique violation on %s: %w", pgErr.ConstraintName, err)
		}
	}
	return err
}
