// Package handler adapts the services to JSON over HTTP.  Handlers parse
// input, call one service method and map its errors to status codes; no
// business rules live here.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-showtimes/internal/model"
	"github.com/iliyamo/cinema-showtimes/internal/service"
)

// PublicHandler serves the read-only browse endpoints.
type PublicHandler struct {
	Catalog *service.CatalogService
	Log     *slog.Logger
}

// NewPublicHandler returns a PublicHandler.  catalog must be non-nil.
func NewPublicHandler(catalog *service.CatalogService, logger *slog.Logger) *PublicHandler {
	if catalog == nil {
		panic("nil catalog passed to NewPublicHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PublicHandler{Catalog: catalog, Log: logger.With("component", "http")}
}

// PublicGenre is a genre in API responses.
type PublicGenre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PublicMovie is a movie in API responses.
type PublicMovie struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	StudioNumber int           `json:"studio_number"`
	Description  string        `json:"description,omitempty"`
	PosterPath   string        `json:"poster_path,omitempty"`
	BackdropPath string        `json:"backdrop_path,omitempty"`
	ReleaseDate  string        `json:"release_date,omitempty"` // YYYY-MM-DD
	Genres       []PublicGenre `json:"genres"`
}

func toPublicMovie(m model.Movie) PublicMovie {
	out := PublicMovie{
		ID:           m.ID,
		Title:        m.Title,
		StudioNumber: m.StudioNumber,
		Description:  m.Description,
		PosterPath:   m.PosterPath,
		BackdropPath: m.BackdropPath,
		Genres:       make([]PublicGenre, 0, len(m.Genres)),
	}
	if m.ReleaseDate != nil {
		out.ReleaseDate = m.ReleaseDate.Format(time.DateOnly)
	}
	for _, g := range m.Genres {
		out.Genres = append(out.Genres, PublicGenre{ID: g.ID, Name: g.Name})
	}
	return out
}

// ListMovies handles GET /v1/movies.  Movies are ordered by studio number.
func (h *PublicHandler) ListMovies(c echo.Context) error {
	movies, err := h.Catalog.Movies(c.Request().Context())
	if err != nil {
		return h.internal(c, "list movies", err)
	}
	out := make([]PublicMovie, 0, len(movies))
	for _, m := range movies {
		out = append(out, toPublicMovie(m))
	}
	return c.JSON(http.StatusOK, out)
}

// GetMovie handles GET /v1/movies/:id.
func (h *PublicHandler) GetMovie(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	m, err := h.Catalog.Movie(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return h.internal(c, "get movie", err)
	}
	return c.JSON(http.StatusOK, toPublicMovie(*m))
}

// ListShowtimes handles GET /v1/movies/:id/showtimes.  It returns the
// upcoming showtimes of the scheduling window grouped by venue date.
func (h *PublicHandler) ListShowtimes(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	days, err := h.Catalog.UpcomingByDay(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return h.internal(c, "list showtimes", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"movie_id": id, "days": days})
}

// SeatMap handles GET /v1/seatmap: the static auditorium layout, with
// null for aisle cells.
func (h *PublicHandler) SeatMap(c echo.Context) error {
	rows := h.Catalog.SeatMap().Rows()
	out := make([][]*string, len(rows))
	for i, row := range rows {
		out[i] = make([]*string, len(row))
		for j := range row {
			if row[j] != "" {
				out[i][j] = &row[j]
			}
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"rows": out})
}

// SeatChart handles GET /v1/showtimes/:id/seats: the seat grid with
// current occupancy.  Never cached.
func (h *PublicHandler) SeatChart(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	chart, err := h.Catalog.SeatChart(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return h.internal(c, "seat chart", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(http.StatusOK, echo.Map{
		"showtime": chart.Showtime,
		"movie":    toPublicMovie(chart.Movie),
		"bookable": chart.Bookable,
		"taken":    chart.Taken,
		"free":     chart.Free,
		"rows":     chart.Rows,
	})
}

func (h *PublicHandler) internal(c echo.Context, op string, err error) error {
	h.Log.Error(op, "err", err, "path", c.Request().URL.Path)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// parseID reads the :id path parameter as a positive integer.
func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
