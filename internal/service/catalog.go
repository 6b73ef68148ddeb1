package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/iliyamo/cinema-showtimes/internal/clock"
	"github.com/iliyamo/cinema-showtimes/internal/model"
	"github.com/iliyamo/cinema-showtimes/internal/repository"
	"github.com/iliyamo/cinema-showtimes/internal/schedule"
	"github.com/iliyamo/cinema-showtimes/internal/seatmap"
)

// ShowtimeView is a showtime as shown to a guest: the storage instant
// and the same instant on the venue clock.
type ShowtimeView struct {
	ID         int64     `json:"id"`
	MovieID    int64     `json:"movie_id"`
	StartsAt   time.Time `json:"starts_at"`
	Local      time.Time `json:"starts_at_local"`
	IsArchived bool      `json:"is_archived"`
}

// DayGroup is the showtimes of one venue date.
type DayGroup struct {
	Date      string         `json:"date"` // YYYY-MM-DD on the venue clock
	Showtimes []ShowtimeView `json:"showtimes"`
}

// SeatCell is one cell of a seat chart.  Aisle cells have no label.
type SeatCell struct {
	Label string `json:"label,omitempty"`
	Aisle bool   `json:"aisle,omitempty"`
	Taken bool   `json:"taken,omitempty"`
}

// SeatChart is the seat grid of one showtime with occupancy applied.
type SeatChart struct {
	Showtime ShowtimeView `json:"showtime"`
	Movie    model.Movie  `json:"movie"`
	Bookable bool         `json:"bookable"`
	Taken    int          `json:"taken"`
	Free     int          `json:"free"`
	Rows     [][]SeatCell `json:"rows"`
}

// GroupByDay groups showtimes by their venue date.  Groups come out in
// date order and showtimes within a group in start order.
func GroupByDay(v schedule.Venue, list []model.Showtime) []DayGroup {
	sorted := append([]model.Showtime(nil), list...)
	sortShowtimes(sorted)

	var out []DayGroup
	for _, st := range sorted {
		local := v.ToLocal(st.StartsAt)
		date := local.Format(time.DateOnly)
		if len(out) == 0 || out[len(out)-1].Date != date {
			out = append(out, DayGroup{Date: date})
		}
		g := &out[len(out)-1]
		g.Showtimes = append(g.Showtimes, viewOf(v, st))
	}
	return out
}

// CatalogService serves the read side: movies, upcoming showtimes and
// seat charts.  Occupancy is read from storage on every call.
type CatalogService struct {
	movies    *repository.MovieRepo
	showtimes *repository.ShowtimeRepo
	bookings  *repository.BookingRepo
	seats     *seatmap.Map
	cfg       ScheduleConfig
	clock     clock.Clock
	log       *slog.Logger
}

// NewCatalogService wires a CatalogService.
func NewCatalogService(movies *repository.MovieRepo, showtimes *repository.ShowtimeRepo, bookings *repository.BookingRepo, seats *seatmap.Map, cfg ScheduleConfig, clk clock.Clock, logger *slog.Logger) *CatalogService {
	if movies == nil || showtimes == nil || bookings == nil || seats == nil || clk == nil {
		panic("nil dependency passed to NewCatalogService")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		movies:    movies,
		showtimes: showtimes,
		bookings:  bookings,
		seats:     seats,
		cfg:       cfg,
		clock:     clk,
		log:       logger.With("component", "catalog"),
	}
}

// SeatMap returns the auditorium layout.
func (s *CatalogService) SeatMap() *seatmap.Map { return s.seats }

// Movies lists every movie ordered by studio number.
func (s *CatalogService) Movies(ctx context.Context) ([]model.Movie, error) {
	list, err := s.movies.List(ctx)
	if err != nil {
		return nil, storageErr("list movies", err)
	}
	if list == nil {
		list = []model.Movie{}
	}
	return list, nil
}

// Movie returns one movie with its genres.
func (s *CatalogService) Movie(ctx context.Context, id int64) (*model.Movie, error) {
	m, err := s.movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, storageErr("get movie", err)
	}
	return m, nil
}

// UpcomingByDay returns the active showtimes of movieID from now to the
// end of the last date of the window, grouped by venue date.
func (s *CatalogService) UpcomingByDay(ctx context.Context, movieID int64) ([]DayGroup, error) {
	if _, err := s.Movie(ctx, movieID); err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	days := s.cfg.Venue.Days(now, s.cfg.WindowDays)
	if len(days) == 0 {
		return []DayGroup{}, nil
	}
	_, end := s.cfg.Venue.DayBounds(days[len(days)-1])

	list, err := s.showtimes.ListUpcoming(ctx, movieID, now, end)
	if err != nil {
		return nil, storageErr("list upcoming showtimes", err)
	}
	groups := GroupByDay(s.cfg.Venue, list)
	if groups == nil {
		groups = []DayGroup{}
	}
	return groups, nil
}

// SeatChart returns the seat grid of showtimeID with every booked seat
// marked taken.
func (s *CatalogService) SeatChart(ctx context.Context, showtimeID int64) (*SeatChart, error) {
	st, err := s.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return nil, ErrShowtimeNotFound
		}
		return nil, storageErr("get showtime", err)
	}
	m, err := s.movies.GetByID(ctx, st.MovieID)
	if err != nil {
		return nil, storageErr("get movie", err)
	}
	booked, err := s.bookings.ListByShowtime(ctx, showtimeID)
	if err != nil {
		return nil, storageErr("list bookings", err)
	}
	taken := make(map[string]bool, len(booked))
	for _, b := range booked {
		taken[b.Seat] = true
	}

	chart := &SeatChart{
		Showtime: viewOf(s.cfg.Venue, *st),
		Movie:    *m,
		Bookable: !st.IsArchived && st.StartsAt.After(s.clock.Now()),
	}
	for _, row := range s.seats.Rows() {
		cells := make([]SeatCell, len(row))
		for i, label := range row {
			switch {
			case label == "":
				cells[i] = SeatCell{Aisle: true}
			case taken[label]:
				cells[i] = SeatCell{Label: label, Taken: true}
				chart.Taken++
			default:
				cells[i] = SeatCell{Label: label}
				chart.Free++
			}
		}
		chart.Rows = append(chart.Rows, cells)
	}
	return chart, nil
}

func viewOf(v schedule.Venue, st model.Showtime) ShowtimeView {
	return ShowtimeView{
		ID:         st.ID,
		MovieID:    st.MovieID,
		StartsAt:   st.StartsAt.UTC(),
		Local:      v.ToLocal(st.StartsAt),
		IsArchived: st.IsArchived,
	}
}

func sortShowtimes(list []model.Showtime) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].StartsAt.Equal(list[j].StartsAt) {
			return list[i].StartsAt.Before(list[j].StartsAt)
		}
		return list[i].ID < list[j].ID
	})
}
