package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-showtimes/internal/clock"
	"github.com/iliyamo/cinema-showtimes/internal/database"
	"github.com/iliyamo/cinema-showtimes/internal/model"
	"github.com/iliyamo/cinema-showtimes/internal/repository"
	"github.com/iliyamo/cinema-showtimes/internal/schedule"
	"github.com/iliyamo/cinema-showtimes/internal/seatmap"
)

// 2026-03-10 05:00 on the venue clock (+07:00).
var dawn = time.Date(2026, 3, 9, 22, 0, 0, 0, time.UTC)

type env struct {
	db        *sql.DB
	movies    *repository.MovieRepo
	showtimes *repository.ShowtimeRepo
	bookings  *repository.BookingRepo
	clock     *clock.FixedClock
	cfg       ScheduleConfig
	scheduler *Scheduler
	booking   *BookingService
	catalog   *CatalogService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func venue(t *testing.T) schedule.Venue {
	t.Helper()
	loc, err := schedule.ParseOffset("+07:00")
	require.NoError(t, err)
	return schedule.NewVenue(loc)
}

func newEnv(t *testing.T, windowDays int) *env {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "cinema.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite))

	e := &env{
		db:        db,
		movies:    repository.NewMovieRepo(db),
		showtimes: repository.NewShowtimeRepo(db),
		bookings:  repository.NewBookingRepo(db),
		clock:     clock.Fixed(dawn),
		cfg: ScheduleConfig{
			Venue:      venue(t),
			Policy:     schedule.DefaultPolicy(),
			StartHour:  7,
			WindowDays: windowDays,
		},
	}
	require.NoError(t, e.cfg.Validate())
	log := discardLogger()
	e.scheduler = NewScheduler(e.movies, e.showtimes, e.cfg, e.clock, log)
	e.booking = NewBookingService(e.movies, e.showtimes, e.bookings, e.cfg.Venue, e.clock, log)
	e.catalog = NewCatalogService(e.movies, e.showtimes, e.bookings, seatmap.Default(), e.cfg, e.clock, log)
	return e
}

func (e *env) addMovie(t *testing.T, title string, studio int) *model.Movie {
	t.Helper()
	m := &model.Movie{Title: title, StudioNumber: studio, CreatedAt: dawn}
	e.inTx(t, func(tx *sql.Tx) error { return e.movies.CreateTx(context.Background(), tx, m) })
	return m
}

func (e *env) addShowtime(t *testing.T, movieID int64, at time.Time) *model.Showtime {
	t.Helper()
	st := &model.Showtime{MovieID: movieID, StartsAt: at, CreatedAt: dawn}
	e.inTx(t, func(tx *sql.Tx) error { return e.showtimes.CreateTx(context.Background(), tx, st) })
	return st
}

func (e *env) archive(t *testing.T, ids ...int64) {
	t.Helper()
	e.inTx(t, func(tx *sql.Tx) error {
		_, err := e.showtimes.ArchiveTx(context.Background(), tx, ids)
		return err
	})
}

func (e *env) inTx(t *testing.T, fn func(tx *sql.Tx) error) {
	t.Helper()
	tx, err := e.db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())
}

// active returns the active start instants of movieID in order.
func (e *env) active(t *testing.T, movieID int64) []time.Time {
	t.Helper()
	all, err := e.showtimes.ListByMovie(context.Background(), movieID)
	require.NoError(t, err)
	var out []time.Time
	for _, st := range all {
		if !st.IsArchived {
			out = append(out, st.StartsAt)
		}
	}
	return out
}

// local builds an instant from a venue wall clock.
func local(t *testing.T, day, hour, minute int) time.Time {
	t.Helper()
	return venue(t).ToStorage(time.Date(2026, 3, day, hour, minute, 0, 0, time.UTC))
}

func utcHours(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.UTC().Format("01-02 15:04")
	}
	return out
}
