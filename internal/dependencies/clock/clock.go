package clock

import "time"

// Clock provides the current time. Phase deadlines and queue wait times
// are computed from it, so tests swap in a mock to control them.
type Clock interface {
	Now() time.Time
}

var _ Clock = (*RealClock)(nil)

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}
