package schedule

import (
	"sort"
	"time"

	"github.com/iliyamo/cinema-showtimes/internal/model"
)

// ExpectedSlots returns the UTC start instants that studio should have on
// the venue date of day: cadence.Slots shows, the first at startHour
// local, each following one cadence.Interval later.  Slots are whole
// local hours.
func ExpectedSlots(v Venue, p Policy, studio, startHour int, day time.Time) []time.Time {
	c := p.For(studio)
	y, m, d := day.Date()
	first := time.Date(y, m, d, startHour, 0, 0, 0, v.Location())
	out := make([]time.Time, 0, c.Slots)
	for i := 0; i < c.Slots; i++ {
		at := first.Add(time.Duration(i) * c.Interval)
		local := time.Date(at.Year(), at.Month(), at.Day(), at.Hour(), 0, 0, 0, v.Location())
		out = append(out, v.ToStorage(local))
	}
	return out
}

// Plan is the set of writes that brings one (movie, date) in line with
// its expected slots.
type Plan struct {
	Archive []int64     // showtime IDs to flip to archived
	Insert  []time.Time // UTC instants to create
}

// Empty reports whether the plan writes nothing.
func (p Plan) Empty() bool { return len(p.Archive) == 0 && len(p.Insert) == 0 }

// Merge appends o to p.
func (p *Plan) Merge(o Plan) {
	p.Archive = append(p.Archive, o.Archive...)
	p.Insert = append(p.Insert, o.Insert...)
}

// Diff compares expected slots against the active showtimes persisted
// for the same movie and date.
//
// Every active showtime whose start is not an expected slot is drift and
// is archived; so is every duplicate of a slot already matched (the
// lowest ID is kept).  Every expected slot with no active showtime is
// inserted, unless it starts before notBefore: past slots are never
// created.  Archived entries in existing are ignored.
func Diff(expected []time.Time, existing []model.Showtime, notBefore time.Time) Plan {
	want := make(map[int64]bool, len(expected))
	for _, t := range expected {
		want[t.Unix()] = true
	}

	active := make([]model.Showtime, 0, len(existing))
	for _, s := range existing {
		if !s.IsArchived {
			active = append(active, s)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if !active[i].StartsAt.Equal(active[j].StartsAt) {
			return active[i].StartsAt.Before(active[j].StartsAt)
		}
		return active[i].ID < active[j].ID
	})

	var plan Plan
	have := make(map[int64]bool, len(active))
	for _, s := range active {
		key := s.StartsAt.Unix()
		if !want[key] || have[key] {
			plan.Archive = append(plan.Archive, s.ID)
			continue
		}
		have[key] = true
	}

	for _, t := range expected {
		if have[t.Unix()] || t.Before(notBefore) {
			continue
		}
		have[t.Unix()] = true
		plan.Insert = append(plan.Insert, t.UTC())
	}
	sort.Slice(plan.Insert, func(i, j int) bool { return plan.Insert[i].Before(plan.Insert[j]) })
	sort.Slice(plan.Archive, func(i, j int) bool { return plan.Archive[i] < plan.Archive[j] })
	return plan
}
