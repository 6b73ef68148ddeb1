// Package repository holds the hand-written SQL behind movies,
// showtimes and bookings.  Every statement uses ? placeholders and runs
// unchanged on MySQL and SQLite.
//
// The sentinel errors below let services tell apart the failures they
// react to; anything else is returned wrapped with the failing
// operation.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrConflict is returned when a write is rejected by a uniqueness
// constraint, such as a second booking for the same seat of a showtime.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrMovieNotFound indicates that a movie was not located in the DB.
var ErrMovieNotFound = errors.New("movie not found")

// ErrShowtimeNotFound indicates that a showtime was not located in the DB.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrNotBookable is returned when a booking insert matched no showtime
// that is still open (missing, archived or already started).
var ErrNotBookable = errors.New("showtime not bookable")

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dbTime normalizes an instant for storage: UTC, whole seconds.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// dbBound rounds a comparison bound up to the next whole second.  Stored
// instants are whole seconds, so starts_at < dbBound(t) holds exactly when
// starts_at < t, and likewise for >=.
func dbBound(t time.Time) time.Time {
	s := dbTime(t)
	if s.Before(t) {
		s = s.Add(time.Second)
	}
	return s
}
