package clock

import "time"

// FakeClock pins Now to a fixed instant so exemption windows, period
// arithmetic, and reconciliation transitions can be driven from tests.
// Advance moves time forward, never backward.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
