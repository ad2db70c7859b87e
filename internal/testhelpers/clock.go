package testhelpers

import (
	"sync"
	"time"
)

// FakeClock is a utils.Clock whose time only moves when told to. Safe for
// concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func NewFakeClock(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}
