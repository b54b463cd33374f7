package state

import (
	"sync"

	"github.com/google/uuid"
)

// NewID returns a unique identifier for a drawing entity.
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// NewSessionID returns a unique identifier for a broadcast session.
func NewSessionID() string {
	return uuid.NewString()
}

// Clock is a revision counter. The host ticks it on every mutation; viewers
// update it from received payloads so stale deliveries can be reported.
type Clock struct {
	counter uint64
	mu      sync.Mutex
}

// Tick increments the clock and returns the new value.
func (c *Clock) Tick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counter++
	return c.counter
}

// Update records a received revision. It returns false when the revision is
// older than one already seen.
func (c *Clock) Update(revision uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if revision < c.counter {
		return false
	}
	c.counter = revision
	return true
}

// Current returns the latest revision.
func (c *Clock) Current() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counter
}

// Reset sets the clock back to zero.
func (c *Clock) Reset() {
	c.mu.Lock()
	c.counter = 0
	c.mu.Unlock()
}
