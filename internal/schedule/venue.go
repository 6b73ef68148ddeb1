package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Venue converts between the cinema's wall clock and storage instants.
// The venue runs on a fixed UTC offset; DST is not modelled.
type Venue struct {
	loc *time.Location
}

// NewVenue returns a Venue for loc.  A nil location is a programming
// error: falling back to UTC would silently shift every showtime.
func NewVenue(loc *time.Location) Venue {
	if loc == nil {
		panic("schedule: nil venue location")
	}
	return Venue{loc: loc}
}

// Location returns the venue's time zone.
func (v Venue) Location() *time.Location { return v.loc }

// ToStorage interprets the wall-clock fields of local (date, hour,
// minute, second, nanosecond) in the venue zone and returns the UTC
// instant.  The location carried by local is ignored on purpose: callers
// hand in wall clocks, not instants.
func (v Venue) ToStorage(local time.Time) time.Time {
	y, m, d := local.Date()
	hh, mm, ss := local.Clock()
	return time.Date(y, m, d, hh, mm, ss, local.Nanosecond(), v.loc).UTC()
}

// ToLocal returns instant expressed on the venue's wall clock.
func (v Venue) ToLocal(instant time.Time) time.Time {
	return instant.In(v.loc)
}

// Midnight returns local midnight, in the venue zone, of the venue date
// on which instant falls.
func (v Venue) Midnight(instant time.Time) time.Time {
	y, m, d := instant.In(v.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, v.loc)
}

// DayBounds returns the half-open UTC range [start, end) covering the
// local calendar date of day's wall clock.
func (v Venue) DayBounds(day time.Time) (start, end time.Time) {
	y, m, d := day.Date()
	local := time.Date(y, m, d, 0, 0, 0, 0, v.loc)
	return local.UTC(), local.AddDate(0, 0, 1).UTC()
}

// Days returns local midnights for the n venue dates starting with the
// date of now.  n <= 0 yields nil.
func (v Venue) Days(now time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	today := v.Midnight(now)
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, today.AddDate(0, 0, i))
	}
	return out
}

// ParseOffset parses a fixed UTC offset such as "+07:00", "-0530" or
// "+7" and returns a matching fixed zone.  "UTC" and "Z" are accepted.
func ParseOffset(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "UTC", "Z":
		return time.UTC, nil
	case "":
		return nil, fmt.Errorf("schedule: empty utc offset")
	}
	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return nil, fmt.Errorf("schedule: utc offset %q must start with + or -", s)
	}
	body := strings.ReplaceAll(s[1:], ":", "")
	var hh, mm int
	var err error
	switch len(body) {
	case 1, 2:
		hh, err = strconv.Atoi(body)
	case 4:
		hh, err = strconv.Atoi(body[:2])
		if err == nil {
			mm, err = strconv.Atoi(body[2:])
		}
	default:
		return nil, fmt.Errorf("schedule: malformed utc offset %q", s)
	}
	if err != nil || hh > 14 || mm > 59 {
		return nil, fmt.Errorf("schedule: malformed utc offset %q", s)
	}
	secs := sign * (hh*3600 + mm*60)
	name := fmt.Sprintf("UTC%c%02d:%02d", s[0], hh, mm)
	return time.FixedZone(name, secs), nil
}
