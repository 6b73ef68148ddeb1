// Package clock provides an injectable source of the current time.
//
// Services that compare against "now" (the archival sweep, the
// reconciler, booking) take a Clock instead of calling time.Now so
// tests can pin the instant.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// Real returns a Clock backed by the system time, in UTC.
func Real() Clock { return realClock{} }

// FixedClock is a Clock that stands still until Set or Advance is called.
// Safe for concurrent use.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// Fixed returns a FixedClock set to t.
func Fixed(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the pinned instant.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
