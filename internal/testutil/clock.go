package testutil

import "sync"

// Clock is a thread-safe monotonic logical clock that stands in for
// wall time in tests. Each call to NowUnixMs advances by one
// millisecond, so two sessions with the same workload produce
// byte-identical persistence logs.
type Clock struct {
	mu sync.Mutex
	ms int64
}

// NewClock creates a clock starting at base unix milliseconds.
//
// The first call to NowUnixMs returns base+1.
func NewClock(base int64) *Clock {
	return &Clock{ms: base}
}

// NowUnixMs advances the clock and returns the new timestamp.
func (c *Clock) NowUnixMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms++
	return c.ms
}

// Current returns the current timestamp without advancing.
func (c *Clock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ms
}

// Reset rewinds the clock to base for scenario reuse.
func (c *Clock) Reset(base int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms = base
}
