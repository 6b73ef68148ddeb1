// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingQueueName is the durable queue carrying BookingCreatedEvent.
const BookingQueueName = "booking.created"

// BookingCreatedEvent is published after a booking commits.  It carries
// enough context for downstream consumers to log or notify without
// querying the primary database.  Times are RFC 3339: StartsAt in UTC,
// StartsAtLocal on the venue clock.
type BookingCreatedEvent struct {
	BookingID     int64  `json:"booking_id"`
	Reference     string `json:"reference"`
	ShowtimeID    int64  `json:"showtime_id"`
	MovieID       int64  `json:"movie_id"`
	MovieTitle    string `json:"movie_title"`
	StudioNumber  int    `json:"studio_number"`
	Seat          string `json:"seat"`
	Renter        string `json:"renter"`
	StartsAt      string `json:"starts_at"`
	StartsAtLocal string `json:"starts_at_local"`
	CreatedAt     string `json:"created_at"`
}
