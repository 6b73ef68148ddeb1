package schedule

import "time"

// Cadence is how many shows an auditorium runs per day and how far
// apart they start.
type Cadence struct {
	Slots    int
	Interval time.Duration
}

// Policy maps auditorium parity to a cadence.  Even and odd auditoriums
// run different schedules on purpose (shorter turnaround in the even
// rooms).
type Policy struct {
	Even Cadence
	Odd  Cadence
}

// DefaultPolicy is the published cadence: even auditoriums show six
// times at three-hour spacing, odd ones five times at four-hour spacing.
func DefaultPolicy() Policy {
	return Policy{
		Even: Cadence{Slots: 6, Interval: 3 * time.Hour},
		Odd:  Cadence{Slots: 5, Interval: 4 * time.Hour},
	}
}

// For returns the cadence for studio.
func (p Policy) For(studio int) Cadence {
	if studio%2 == 0 {
		return p.Even
	}
	return p.Odd
}

// SlotsFor returns the slot count and spacing of the default policy for
// studio.
func SlotsFor(studio int) (int, time.Duration) {
	c := DefaultPolicy().For(studio)
	return c.Slots, c.Interval
}
