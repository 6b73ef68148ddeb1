package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-showtimes/internal/database"
	"github.com/iliyamo/cinema-showtimes/internal/model"
)

var t0 = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "cinema.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite))
	return db
}

func inTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx) error) error {
	t.Helper()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func seedMovie(t *testing.T, db *sql.DB, title string, studio int, genres ...model.Genre) *model.Movie {
	t.Helper()
	repo := NewMovieRepo(db)
	m := &model.Movie{Title: title, StudioNumber: studio, Genres: genres, CreatedAt: t0}
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		for _, g := range genres {
			if err := repo.SaveGenreTx(context.Background(), tx, g); err != nil {
				return err
			}
		}
		return repo.CreateTx(context.Background(), tx, m)
	}))
	return m
}

func seedShowtime(t *testing.T, db *sql.DB, movieID int64, at time.Time) *model.Showtime {
	t.Helper()
	s := &model.Showtime{MovieID: movieID, StartsAt: at, CreatedAt: t0}
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return NewShowtimeRepo(db).CreateTx(context.Background(), tx, s)
	}))
	return s
}

func TestMovieRepo_ListOrderedByStudioWithGenres(t *testing.T) {
	db := newTestDB(t)
	drama := model.Genre{ID: 18, Name: "Drama"}
	action := model.Genre{ID: 28, Name: "Action"}
	seedMovie(t, db, "Second", 2, drama)
	seedMovie(t, db, "First", 1, drama, action)

	movies, err := NewMovieRepo(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "First", movies[0].Title)
	assert.Equal(t, []model.Genre{action, drama}, movies[0].Genres)
	assert.Equal(t, []model.Genre{drama}, movies[1].Genres)
	assert.True(t, movies[0].CreatedAt.Equal(t0))
}

func TestMovieRepo_StudioIsUnique(t *testing.T) {
	db := newTestDB(t)
	seedMovie(t, db, "First", 4)

	err := inTx(t, db, func(tx *sql.Tx) error {
		return NewMovieRepo(db).CreateTx(context.Background(), tx,
			&model.Movie{Title: "Other", StudioNumber: 4, CreatedAt: t0})
	})
	assert.ErrorIs(t, err, ErrConflict)

	n, err := NewMovieRepo(db).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMovieRepo_GetByID(t *testing.T) {
	db := newTestDB(t)
	release := time.Date(2020, 7, 24, 0, 0, 0, 0, time.UTC)
	repo := NewMovieRepo(db)
	m := &model.Movie{Title: "Dated", StudioNumber: 3, Description: "desc", ReleaseDate: &release, CreatedAt: t0}
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		if err := repo.SaveGenreTx(context.Background(), tx, model.Genre{ID: 35, Name: "Comedy"}); err != nil {
			return err
		}
		m.Genres = []model.Genre{{ID: 35, Name: "Comedy"}}
		return repo.CreateTx(context.Background(), tx, m)
	}))

	got, err := repo.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, "desc", got.Description)
	require.NotNil(t, got.ReleaseDate)
	assert.True(t, got.ReleaseDate.Equal(release))
	assert.Equal(t, []model.Genre{{ID: 35, Name: "Comedy"}}, got.Genres)

	_, err = repo.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestMovieRepo_SaveGenreRenames(t *testing.T) {
	db := newTestDB(t)
	repo := NewMovieRepo(db)
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		if err := repo.SaveGenreTx(context.Background(), tx, model.Genre{ID: 878, Name: "SciFi"}); err != nil {
			return err
		}
		return repo.SaveGenreTx(context.Background(), tx, model.Genre{ID: 878, Name: "Science Fiction"})
	}))
	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM genres WHERE id = ?`, 878).Scan(&name))
	assert.Equal(t, "Science Fiction", name)
}

func TestShowtimeRepo_ListActiveInRange(t *testing.T) {
	db := newTestDB(t)
	m := seedMovie(t, db, "Film", 2)
	repo := NewShowtimeRepo(db)

	before := seedShowtime(t, db, m.ID, t0.Add(-time.Hour))
	first := seedShowtime(t, db, m.ID, t0)
	second := seedShowtime(t, db, m.ID, t0.Add(3*time.Hour))
	seedShowtime(t, db, m.ID, t0.Add(24*time.Hour)) // end is exclusive
	archived := seedShowtime(t, db, m.ID, t0.Add(6*time.Hour))
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		_, err := repo.ArchiveTx(context.Background(), tx, []int64{archived.ID})
		return err
	}))

	got, err := repo.ListUpcoming(context.Background(), m.ID, t0, t0.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	assert.True(t, got[0].StartsAt.Equal(t0))
	assert.Equal(t, time.UTC, got[0].StartsAt.Location())

	all, err := repo.ListByMovie(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, before.ID, all[0].ID)
}

func TestShowtimeRepo_ArchiveTxSkipsArchived(t *testing.T) {
	db := newTestDB(t)
	m := seedMovie(t, db, "Film", 2)
	repo := NewShowtimeRepo(db)
	a := seedShowtime(t, db, m.ID, t0)
	b := seedShowtime(t, db, m.ID, t0.Add(time.Hour))

	var n int64
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) (err error) {
		n, err = repo.ArchiveTx(context.Background(), tx, []int64{a.ID})
		return err
	}))
	assert.Equal(t, int64(1), n)

	require.NoError(t, inTx(t, db, func(tx *sql.Tx) (err error) {
		n, err = repo.ArchiveTx(context.Background(), tx, []int64{a.ID, b.ID})
		return err
	}))
	assert.Equal(t, int64(1), n)

	require.NoError(t, inTx(t, db, func(tx *sql.Tx) (err error) {
		n, err = repo.ArchiveTx(context.Background(), tx, nil)
		return err
	}))
	assert.Zero(t, n)
}

func TestShowtimeRepo_ArchiveBeforeIsMonotone(t *testing.T) {
	db := newTestDB(t)
	m := seedMovie(t, db, "Film", 2)
	repo := NewShowtimeRepo(db)
	past := seedShowtime(t, db, m.ID, t0.Add(-2*time.Hour))
	exact := seedShowtime(t, db, m.ID, t0)
	seedShowtime(t, db, m.ID, t0.Add(2*time.Hour))

	n, err := repo.ArchiveBefore(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "strictly before now")

	n, err = repo.ArchiveBefore(context.Background(), t0)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.ArchiveBefore(context.Background(), t0.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := repo.GetByID(context.Background(), past.ID)
	require.NoError(t, err)
	assert.True(t, got.IsArchived)

	got, err = repo.GetByID(context.Background(), exact.ID)
	require.NoError(t, err)
	assert.False(t, got.IsArchived)

	_, err = repo.GetByID(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrShowtimeNotFound)
}

func TestShowtimeRepo_ArchiveBeforeSubSecond(t *testing.T) {
	db := newTestDB(t)
	m := seedMovie(t, db, "Film", 2)
	repo := NewShowtimeRepo(db)
	s := seedShowtime(t, db, m.ID, t0)

	n, err := repo.ArchiveBefore(context.Background(), t0.Add(-500*time.Millisecond))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.ArchiveBefore(context.Background(), t0.Add(500*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "started half a second ago")

	got, err := repo.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.True(t, got.IsArchived)
}

func TestShowtimeRepo_ListUpcomingSubSecond(t *testing.T) {
	db := newTestDB(t)
	m := seedMovie(t, db, "Film", 2)
	repo := NewShowtimeRepo(db)
	seedShowtime(t, db, m.ID, t0)
	later := seedShowtime(t, db, m.ID, t0.Add(time.Hour))

	got, err := repo.ListUpcoming(context.Background(), m.ID, t0.Add(500*time.Millisecond), t0.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, later.ID, got[0].ID)

	got, err = repo.ListUpcoming(context.Background(), m.ID, t0.Add(-500*time.Millisecond), t0.Add(time.Hour+500*time.Millisecond))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestBookingRepo_CreateTx(t *testing.T) {
	db := newTestDB(t)
	m := seedMovie(t, db, "Film", 2)
	s := seedShowtime(t, db, m.ID, t0.Add(5*time.Hour))
	repo := NewBookingRepo(db)

	book := func(seat string, now time.Time, id int64) error {
		return inTx(t, db, func(tx *sql.Tx) error {
			return repo.CreateTx(context.Background(), tx, &model.Booking{
				ShowtimeID: id, Seat: seat, Renter: "ann", Reference: seat + now.String(), CreatedAt: now,
			}, now)
		})
	}

	require.NoError(t, book("A1", t0, s.ID))
	assert.ErrorIs(t, book("A1", t0.Add(time.Minute), s.ID), ErrConflict)
	assert.ErrorIs(t, book("A2", t0.Add(5*time.Hour), s.ID), ErrNotBookable, "show has started")
	assert.ErrorIs(t, book("A2", t0, 999), ErrNotBookable)

	got, err := repo.ListByShowtime(context.Background(), s.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A1", got[0].Seat)
	assert.Equal(t, "ann", got[0].Renter)
}

func TestBookingRepo_ArchivedShowtimeNotBookable(t *testing.T) {
	db := newTestDB(t)
	m := seedMovie(t, db, "Film", 2)
	s := seedShowtime(t, db, m.ID, t0.Add(5*time.Hour))
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		_, err := NewShowtimeRepo(db).ArchiveTx(context.Background(), tx, []int64{s.ID})
		return err
	}))

	err := inTx(t, db, func(tx *sql.Tx) error {
		return NewBookingRepo(db).CreateTx(context.Background(), tx,
			&model.Booking{ShowtimeID: s.ID, Seat: "B2", Renter: "bo", Reference: "r1", CreatedAt: t0}, t0)
	})
	assert.ErrorIs(t, err, ErrNotBookable)
}

func TestBookingRepo_ConcurrentSameSeat(t *testing.T) {
	db := newTestDB(t)
	m := seedMovie(t, db, "Film", 2)
	s := seedShowtime(t, db, m.ID, t0.Add(5*time.Hour))
	repo := NewBookingRepo(db)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx, err := db.BeginTx(context.Background(), nil)
			if err != nil {
				errs[i] = err
				return
			}
			err = repo.CreateTx(context.Background(), tx, &model.Booking{
				ShowtimeID: s.ID, Seat: "C7", Renter: "r", Reference: string(rune('a' + i)), CreatedAt: t0,
			}, t0)
			if err != nil {
				_ = tx.Rollback()
				errs[i] = err
				return
			}
			errs[i] = tx.Commit()
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrConflict):
			conflict++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflict)
}
