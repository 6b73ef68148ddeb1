package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/cinema-showtimes/internal/database"
	"github.com/iliyamo/cinema-showtimes/internal/model"
)

// BookingRepo manages persistence for bookings.  The table carries
// UNIQUE (showtime_id, seat); that constraint alone decides which of two
// racing bookings wins.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying sql.DB.
func (r *BookingRepo) DB() *sql.DB {
	return r.db
}

// CreateTx inserts b in one statement that only matches a showtime that
// is active and starts after now.  There is no read before the write.
//
//   - seat already booked for the showtime: ErrConflict
//   - no open showtime matched: ErrNotBookable
//
// On success the generated ID is written back to b.  The caller must
// commit or roll back the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking, now time.Time) error {
	const q = `INSERT INTO bookings (showtime_id, seat, renter, reference, created_at)
               SELECT id, ?, ?, ?, ?
               FROM showtimes
               WHERE id = ? AND is_archived = ? AND starts_at > ?`
	b.CreatedAt = dbTime(b.CreatedAt)
	res, err := tx.ExecContext(ctx, q,
		b.Seat, b.Renter, b.Reference, b.CreatedAt,
		b.ShowtimeID, false, dbTime(now))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create booking showtime %d seat %s: %w", b.ShowtimeID, b.Seat, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	if n == 0 {
		return ErrNotBookable
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	b.ID = id
	return nil
}

// ListByShowtime returns every booking of showtimeID ordered by seat.
// It always reads from storage.
func (r *BookingRepo) ListByShowtime(ctx context.Context, showtimeID int64) ([]model.Booking, error) {
	const q = `SELECT id, showtime_id, seat, renter, reference, created_at
               FROM bookings
               WHERE showtime_id = ?
               ORDER BY seat ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, fmt.Errorf("list bookings showtime %d: %w", showtimeID, err)
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.ShowtimeID, &b.Seat, &b.Renter, &b.Reference, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		b.CreatedAt = b.CreatedAt.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookings showtime %d: %w", showtimeID, err)
	}
	return out, nil
}
