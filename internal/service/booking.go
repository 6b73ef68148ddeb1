package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-showtimes/internal/clock"
	"github.com/iliyamo/cinema-showtimes/internal/model"
	"github.com/iliyamo/cinema-showtimes/internal/queue"
	"github.com/iliyamo/cinema-showtimes/internal/repository"
	"github.com/iliyamo/cinema-showtimes/internal/schedule"
)

const maxRenterLen = 255

// EventPublisher receives a notification for every committed booking.
// *queue.Publisher implements it.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error
}

// SeatSet reports whether a label names a seat.  *seatmap.Map implements
// it.
type SeatSet interface {
	Contains(label string) bool
}

// BookingService books seats.  It never checks whether a seat is free
// before writing: the insert itself is the check, and the uniqueness
// constraint on (showtime, seat) picks the single winner of a race.
type BookingService struct {
	movies    *repository.MovieRepo
	showtimes *repository.ShowtimeRepo
	bookings  *repository.BookingRepo
	venue     schedule.Venue
	clock     clock.Clock
	log       *slog.Logger

	seats     SeatSet
	publisher EventPublisher
}

// NewBookingService wires a BookingService.
func NewBookingService(movies *repository.MovieRepo, showtimes *repository.ShowtimeRepo, bookings *repository.BookingRepo, venue schedule.Venue, clk clock.Clock, logger *slog.Logger) *BookingService {
	if movies == nil || showtimes == nil || bookings == nil || clk == nil || venue.Location() == nil {
		panic("nil dependency passed to NewBookingService")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{
		movies:    movies,
		showtimes: showtimes,
		bookings:  bookings,
		venue:     venue,
		clock:     clk,
		log:       logger.With("component", "booking"),
	}
}

// RestrictSeats makes Book reject labels that are not in seats.
func (s *BookingService) RestrictSeats(seats SeatSet) { s.seats = seats }

// PublishTo makes Book notify p after each committed booking.
func (s *BookingService) PublishTo(p EventPublisher) { s.publisher = p }

// Book reserves seat on showtimeID for renter.
//
// Errors:
//   - ErrValidation: empty (after trimming) or unknown seat, empty renter
//   - ErrShowtimeNotFound: no such showtime
//   - ErrShowtimeClosed: showtime archived or already started
//   - ErrSeatTaken: the seat is booked; reload occupancy before retrying
//   - *StorageError: anything else; nothing was written
func (s *BookingService) Book(ctx context.Context, showtimeID int64, seat, renter string) (*model.Booking, error) {
	seat = strings.TrimSpace(seat)
	renter = strings.TrimSpace(renter)
	if seat == "" {
		return nil, validationErr("seat is required")
	}
	if renter == "" {
		return nil, validationErr("renter is required")
	}
	if utf8.RuneCountInString(renter) > maxRenterLen {
		return nil, validationErr("renter is longer than %d characters", maxRenterLen)
	}
	if s.seats != nil && !s.seats.Contains(seat) {
		return nil, validationErr("unknown seat %q", seat)
	}

	now := s.clock.Now().UTC()
	b := &model.Booking{
		ShowtimeID: showtimeID,
		Seat:       seat,
		Renter:     renter,
		Reference:  uuid.NewString(),
		CreatedAt:  now,
	}

	tx, err := s.bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin booking", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	err = s.bookings.CreateTx(ctx, tx, b, now)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrConflict):
		s.log.Info("seat already taken", "showtime_id", showtimeID, "seat", seat)
		return nil, ErrSeatTaken
	case errors.Is(err, repository.ErrNotBookable):
		if _, gerr := s.showtimes.GetByIDTx(ctx, tx, showtimeID); gerr != nil {
			if errors.Is(gerr, repository.ErrShowtimeNotFound) {
				return nil, ErrShowtimeNotFound
			}
			return nil, storageErr("load showtime", gerr)
		}
		return nil, ErrShowtimeClosed
	default:
		return nil, storageErr("insert booking", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit booking", err)
	}
	committed = true

	s.log.Info("booking created",
		"booking_id", b.ID, "reference", b.Reference, "showtime_id", showtimeID, "seat", seat)
	s.publish(ctx, b)
	return b, nil
}

// publish notifies the publisher.  Failures are logged; the booking is
// already durable.
func (s *BookingService) publish(ctx context.Context, b *model.Booking) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	ev := queue.BookingCreatedEvent{
		BookingID:  b.ID,
		Reference:  b.Reference,
		ShowtimeID: b.ShowtimeID,
		Seat:       b.Seat,
		Renter:     b.Renter,
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
	}
	if st, err := s.showtimes.GetByID(ctx, b.ShowtimeID); err == nil {
		ev.StartsAt = st.StartsAt.Format(time.RFC3339)
		ev.StartsAtLocal = s.venue.ToLocal(st.StartsAt).Format(time.RFC3339)
		ev.MovieID = st.MovieID
		if m, err := s.movies.GetByID(ctx, st.MovieID); err == nil {
			ev.MovieTitle = m.Title
			ev.StudioNumber = m.StudioNumber
		}
	}
	if err := s.publisher.PublishBookingCreated(ctx, ev); err != nil {
		s.log.Warn("publish booking event failed", "reference", b.Reference, "err", err)
	}
}

// Occupancy returns the bookings of showtimeID keyed by seat label.  It
// reads storage on every call.
func (s *BookingService) Occupancy(ctx context.Context, showtimeID int64) (map[string]model.Booking, error) {
	list, err := s.bookings.ListByShowtime(ctx, showtimeID)
	if err != nil {
		return nil, storageErr("list bookings", err)
	}
	out := make(map[string]model.Booking, len(list))
	for _, b := range list {
		out[b.Seat] = b
	}
	return out, nil
}
