package domain

import (
	"errors"
	"fmt"
)

// Capacity errors: expected outcomes, surfaced as "sold out / try again".
var (
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrSeatUnavailable      = errors.New("seat unavailable")
	ErrNotOnSale            = fmt.Errorf("ticket type not on sale: %w", ErrInsufficientCapacity)
)

// State errors: caller logic errors.
var (
	ErrAlreadyQueued        = errors.New("already queued")
	ErrAlreadyAdmitted      = errors.New("already admitted")
	ErrInvalidToken         = errors.New("invalid admission token")
	ErrNotInQueue           = errors.New("not in queue")
	ErrNothingToAdmit       = errors.New("nothing to admit")
	ErrReservationNotActive = errors.New("reservation is not active")
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
)

// ErrTransient marks lock timeouts, deadlocks and serialization failures. The
// transaction was rolled back and the caller may retry with backoff.
var ErrTransient = errors.New("transient storage conflict")

// ValidationError reports malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// SeatsUnavailableError lists the seats that blocked an all-or-nothing seat
// reservation. It matches ErrSeatUnavailable with errors.Is.
type SeatsUnavailableError struct {
	SeatIDs []int64
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %v", e.SeatIDs)
}

func (e *SeatsUnavailableError) Is(target error) bool {
	return target == ErrSeatUnavailable
}
