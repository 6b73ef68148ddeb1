package model

import "time"

// Showtime is one scheduled screening of a movie.  StartsAt is an
// absolute instant and is always stored in UTC; conversion to the
// venue's wall clock happens in package schedule.
//
// A showtime is ACTIVE when created and becomes ARCHIVED once it has
// started or once the reconciler finds it off-cadence.  Archived rows
// are never reactivated and never deleted.
//
// Fields:
//  ID         – primary key identifier.
//  MovieID    – owning movie.
//  StartsAt   – start instant (UTC).
//  IsArchived – soft-delete flag.
//  CreatedAt  – creation timestamp.
type Showtime struct {
	ID         int64     // showtimes.id
	MovieID    int64     // showtimes.movie_id
	StartsAt   time.Time // showtimes.starts_at
	IsArchived bool      // showtimes.is_archived
	CreatedAt  time.Time // showtimes.created_at
}
