package model

import "time"

// Booking reserves one seat of one showtime for a renter.  The pair
// (ShowtimeID, Seat) is unique in storage; that constraint is what
// decides the winner when two requests race for the same seat.
//
// Fields:
//  ID         – primary key identifier.
//  ShowtimeID – showtime being booked.
//  Seat       – seat label from the seat map (e.g. "A1").
//  Renter     – name given by the person booking.
//  Reference  – public booking reference (UUID).
//  CreatedAt  – when the booking was made.
type Booking struct {
	ID         int64     // bookings.id
	ShowtimeID int64     // bookings.showtime_id
	Seat       string    // bookings.seat
	Renter     string    // bookings.renter
	Reference  string    // bookings.reference
	CreatedAt  time.Time // bookings.created_at
}
