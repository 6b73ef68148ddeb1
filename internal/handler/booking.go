package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-showtimes/internal/service"
)

// BookingHandler serves seat bookings.
type BookingHandler struct {
	Booking *service.BookingService
	Log     *slog.Logger
}

// NewBookingHandler returns a BookingHandler.  booking must be non-nil.
func NewBookingHandler(booking *service.BookingService, logger *slog.Logger) *BookingHandler {
	if booking == nil {
		panic("nil booking service passed to NewBookingHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingHandler{Booking: booking, Log: logger.With("component", "http")}
}

type bookingRequest struct {
	Seat   string `json:"seat"`
	Renter string `json:"renter"`
}

// BookingResponse is returned with 201 Created.
type BookingResponse struct {
	ID         int64     `json:"id"`
	Reference  string    `json:"reference"`
	ShowtimeID int64     `json:"showtime_id"`
	Seat       string    `json:"seat"`
	Renter     string    `json:"renter"`
	CreatedAt  time.Time `json:"created_at"`
}

// Create handles POST /v1/showtimes/:id/bookings with a JSON body
// {"seat": "A1", "renter": "name"}.
//
//	201 booking created
//	400 invalid id, body, seat or renter
//	404 showtime not found
//	409 seat already taken, or showtime closed for booking
//	500 storage failure
func (h *BookingHandler) Create(c echo.Context) error {
	showtimeID, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	var body bookingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	b, err := h.Booking.Book(c.Request().Context(), showtimeID, body.Seat, body.Renter)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": validationMessage(err)})
	case errors.Is(err, service.ErrShowtimeNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
	case errors.Is(err, service.ErrSeatTaken):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "seat already taken",
			"seat":  strings.TrimSpace(body.Seat),
		})
	case errors.Is(err, service.ErrShowtimeClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "showtime is closed for booking"})
	default:
		h.Log.Error("create booking", "err", err, "showtime_id", showtimeID)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}

	return c.JSON(http.StatusCreated, BookingResponse{
		ID:         b.ID,
		Reference:  b.Reference,
		ShowtimeID: b.ShowtimeID,
		Seat:       b.Seat,
		Renter:     b.Renter,
		CreatedAt:  b.CreatedAt,
	})
}

// validationMessage strips the sentinel prefix: "validation error: seat
// is required" becomes "seat is required".
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, service.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(service.ErrValidation.Error())+2:]
	}
	return msg
}
