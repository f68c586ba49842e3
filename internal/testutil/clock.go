// Package testutil provides deterministic test doubles shared across
// the sync core's test suites.
package testutil

import (
	"sync"
	"time"
)

// FakeClock is a thread-safe manually advanced clock for tests.
//
// Debounce windows and settle delays compare wall-clock instants; a
// FakeClock makes those comparisons deterministic without sleeping.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock pinned to start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake instant.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
