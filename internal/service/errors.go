package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed booking input.  It is always wrapped
	// with the offending field.
	ErrValidation = errors.New("validation error")

	// ErrSeatTaken reports that another booking already holds the seat.
	// The caller should reload occupancy before retrying.
	ErrSeatTaken = errors.New("seat already taken")

	ErrShowtimeNotFound = errors.New("showtime not found")

	// ErrShowtimeClosed reports a showtime that exists but can no longer
	// be booked: it is archived or has already started.
	ErrShowtimeClosed = errors.New("showtime closed for booking")

	ErrMovieNotFound = errors.New("movie not found")

	// ErrMaintenanceLocked reports that another maintenance pass holds
	// the lock.
	ErrMaintenanceLocked = errors.New("maintenance already running")
)

// StorageError wraps an unexpected store failure (anything other than
// the uniqueness conflict a booking race produces).  The write it
// interrupted has been rolled back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
