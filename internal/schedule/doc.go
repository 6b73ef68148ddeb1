// Package schedule holds the storage-independent half of showtime
// scheduling: venue time conversion, the per-auditorium cadence policy,
// and the pure diff between the expected slots of a day and the
// showtimes already persisted for it.
//
// Everything here is deterministic and free of I/O.  Package service
// wraps it with the transactional shell that reads and writes the
// database.
//
// Conventions: instants handed to or returned from storage are UTC.
// Generation arithmetic (start hour, intervals, day boundaries) is done
// on the venue's wall clock and converted once, via Venue.
package schedule
