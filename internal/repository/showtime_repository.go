package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/cinema-showtimes/internal/model"
)

// ShowtimeRepo manages persistence for showtimes.  Start instants are
// stored in UTC at whole-second precision; range predicates compare
// those values directly.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo {
	return &ShowtimeRepo{db: db}
}

// DB exposes the underlying sql.DB.
func (r *ShowtimeRepo) DB() *sql.DB {
	return r.db
}

const showtimeColumns = `id, movie_id, starts_at, is_archived, created_at`

// GetByID retrieves a showtime by its ID.  It returns ErrShowtimeNotFound
// if there is no matching row.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id int64) (*model.Showtime, error) {
	return r.get(ctx, r.db, id)
}

// GetByIDTx is GetByID inside the caller's transaction.
func (r *ShowtimeRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*model.Showtime, error) {
	return r.get(ctx, tx, id)
}

func (r *ShowtimeRepo) get(ctx context.Context, q querier, id int64) (*model.Showtime, error) {
	var s model.Showtime
	err := q.QueryRowContext(ctx, `SELECT `+showtimeColumns+` FROM showtimes WHERE id = ?`, id).
		Scan(&s.ID, &s.MovieID, &s.StartsAt, &s.IsArchived, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowtimeNotFound
		}
		return nil, fmt.Errorf("get showtime %d: %w", id, err)
	}
	s.StartsAt = s.StartsAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}

// ListActiveInRangeTx returns the non-archived showtimes of movieID that
// start in [from, to), ordered by start then ID.
func (r *ShowtimeRepo) ListActiveInRangeTx(ctx context.Context, tx *sql.Tx, movieID int64, from, to time.Time) ([]model.Showtime, error) {
	return r.listActive(ctx, tx, movieID, from, to)
}

// ListUpcoming returns the non-archived showtimes of movieID that start
// in [from, to), ordered by start then ID.
func (r *ShowtimeRepo) ListUpcoming(ctx context.Context, movieID int64, from, to time.Time) ([]model.Showtime, error) {
	return r.listActive(ctx, r.db, movieID, from, to)
}

func (r *ShowtimeRepo) listActive(ctx context.Context, q querier, movieID int64, from, to time.Time) ([]model.Showtime, error) {
	const sel = `SELECT ` + showtimeColumns + `
                 FROM showtimes
                 WHERE movie_id = ? AND is_archived = ? AND starts_at >= ? AND starts_at < ?
                 ORDER BY starts_at ASC, id ASC`
	return scanShowtimes(q.QueryContext(ctx, sel, movieID, false, dbBound(from), dbBound(to)))
}

// ListByMovie returns every showtime of movieID, archived included,
// ordered by start then ID.
func (r *ShowtimeRepo) ListByMovie(ctx context.Context, movieID int64) ([]model.Showtime, error) {
	const sel = `SELECT ` + showtimeColumns + ` FROM showtimes WHERE movie_id = ? ORDER BY starts_at ASC, id ASC`
	return scanShowtimes(r.db.QueryContext(ctx, sel, movieID))
}

// CreateTx inserts s as an active showtime and assigns the generated ID.
func (r *ShowtimeRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Showtime) error {
	const q = `INSERT INTO showtimes (movie_id, starts_at, is_archived, created_at) VALUES (?, ?, ?, ?)`
	s.StartsAt = dbTime(s.StartsAt)
	s.CreatedAt = dbTime(s.CreatedAt)
	s.IsArchived = false
	res, err := tx.ExecContext(ctx, q, s.MovieID, s.StartsAt, false, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create showtime movie %d at %s: %w", s.MovieID, s.StartsAt.Format(time.RFC3339), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create showtime: %w", err)
	}
	s.ID = id
	return nil
}

// ArchiveTx flips the given showtimes to archived and returns how many
// rows changed.  Already archived rows are left untouched.
func (r *ShowtimeRepo) ArchiveTx(ctx context.Context, tx *sql.Tx, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(ids)+2)
	args = append(args, true, false)
	for _, id := range ids {
		args = append(args, id)
	}
	q := `UPDATE showtimes SET is_archived = ? WHERE is_archived = ? AND id IN (?` +
		strings.Repeat(", ?", len(ids)-1) + `)`
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("archive showtimes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("archive showtimes: %w", err)
	}
	return n, nil
}

// ArchiveBefore archives every active showtime that starts strictly
// before now and returns how many rows changed.  Archived rows are never
// touched, so repeated or earlier calls change nothing.
func (r *ShowtimeRepo) ArchiveBefore(ctx context.Context, now time.Time) (int64, error) {
	const q = `UPDATE showtimes SET is_archived = ? WHERE is_archived = ? AND starts_at < ?`
	res, err := r.db.ExecContext(ctx, q, true, false, dbBound(now))
	if err != nil {
		return 0, fmt.Errorf("archive past showtimes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("archive past showtimes: %w", err)
	}
	return n, nil
}

func scanShowtimes(rows *sql.Rows, err error) ([]model.Showtime, error) {
	if err != nil {
		return nil, fmt.Errorf("list showtimes: %w", err)
	}
	defer rows.Close()
	var out []model.Showtime
	for rows.Next() {
		var s model.Showtime
		if err := rows.Scan(&s.ID, &s.MovieID, &s.StartsAt, &s.IsArchived, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan showtime: %w", err)
		}
		s.StartsAt = s.StartsAt.UTC()
		s.CreatedAt = s.CreatedAt.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list showtimes: %w", err)
	}
	return out, nil
}
