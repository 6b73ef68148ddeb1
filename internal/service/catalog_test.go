package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-showtimes/internal/model"
)

func TestGroupByDay(t *testing.T) {
	v := venue(t)
	list := []model.Showtime{
		{ID: 3, StartsAt: local(t, 11, 7, 0)},
		{ID: 1, StartsAt: local(t, 10, 22, 0)},
		{ID: 2, StartsAt: local(t, 10, 7, 0)}, // 00:00 UTC, still the 10th locally
		{ID: 4, StartsAt: local(t, 10, 23, 30)},
	}

	groups := GroupByDay(v, list)
	require.Len(t, groups, 2)
	assert.Equal(t, "2026-03-10", groups[0].Date)
	assert.Equal(t, "2026-03-11", groups[1].Date)

	var ids []int64
	for _, s := range groups[0].Showtimes {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []int64{2, 1, 4}, ids)
	assert.Equal(t, 7, groups[0].Showtimes[0].Local.Hour())
	assert.Equal(t, 0, groups[0].Showtimes[0].StartsAt.Hour())

	assert.Nil(t, GroupByDay(v, nil))
}

func TestCatalog_UpcomingByDay(t *testing.T) {
	e := newEnv(t, 3)
	m := e.addMovie(t, "Even", 2)
	e.addMovie(t, "Odd", 3)
	_, err := e.scheduler.Reconcile(context.Background(), dawn, 3)
	require.NoError(t, err)

	e.clock.Set(local(t, 10, 11, 0))
	groups, err := e.catalog.UpcomingByDay(context.Background(), m.ID)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "2026-03-10", groups[0].Date)
	assert.Len(t, groups[0].Showtimes, 4, "07:00 and 10:00 have started")
	assert.Len(t, groups[1].Showtimes, 6)
	assert.Len(t, groups[2].Showtimes, 6)
	for _, g := range groups {
		for _, s := range g.Showtimes {
			assert.Equal(t, m.ID, s.MovieID)
		}
	}

	_, err = e.catalog.UpcomingByDay(context.Background(), 999)
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestCatalog_UpcomingByDayEmpty(t *testing.T) {
	e := newEnv(t, 3)
	m := e.addMovie(t, "Even", 2)
	groups, err := e.catalog.UpcomingByDay(context.Background(), m.ID)
	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestCatalog_Movies(t *testing.T) {
	e := newEnv(t, 1)
	list, err := e.catalog.Movies(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	e.addMovie(t, "Three", 3)
	one := e.addMovie(t, "One", 1)
	list, err = e.catalog.Movies(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "One", list[0].Title)

	got, err := e.catalog.Movie(context.Background(), one.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StudioNumber)

	_, err = e.catalog.Movie(context.Background(), 42)
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestCatalog_SeatChart(t *testing.T) {
	e := newEnv(t, 1)
	m := e.addMovie(t, "Feature", 2)
	st := e.addShowtime(t, m.ID, local(t, 10, 10, 0))
	_, err := e.booking.Book(context.Background(), st.ID, "A1", "ann")
	require.NoError(t, err)
	_, err = e.booking.Book(context.Background(), st.ID, "M18", "bo")
	require.NoError(t, err)

	chart, err := e.catalog.SeatChart(context.Background(), st.ID)
	require.NoError(t, err)
	assert.True(t, chart.Bookable)
	assert.Equal(t, "Feature", chart.Movie.Title)
	assert.Equal(t, 2, chart.Taken)
	assert.Equal(t, 12*18-2, chart.Free)
	require.Len(t, chart.Rows, 13)
	assert.Equal(t, SeatCell{Label: "A1", Taken: true}, chart.Rows[0][0])
	assert.Equal(t, SeatCell{Label: "A2"}, chart.Rows[0][1])
	assert.Equal(t, SeatCell{Aisle: true}, chart.Rows[0][9])
	assert.Equal(t, SeatCell{Label: "M18", Taken: true}, chart.Rows[12][18])
	assert.Equal(t, 10, chart.Showtime.Local.Hour())

	e.clock.Set(local(t, 10, 10, 0))
	chart, err = e.catalog.SeatChart(context.Background(), st.ID)
	require.NoError(t, err)
	assert.False(t, chart.Bookable)

	_, err = e.catalog.SeatChart(context.Background(), 999)
	assert.ErrorIs(t, err, ErrShowtimeNotFound)
}

func TestCatalog_OccupancyIsFresh(t *testing.T) {
	e := newEnv(t, 1)
	m := e.addMovie(t, "Feature", 2)
	st := e.addShowtime(t, m.ID, local(t, 10, 10, 0))

	chart, err := e.catalog.SeatChart(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Zero(t, chart.Taken)

	_, err = e.booking.Book(context.Background(), st.ID, "D4", "ann")
	require.NoError(t, err)

	chart, err = e.catalog.SeatChart(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, chart.Taken)
}
