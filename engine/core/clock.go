package core

import "time"

// Clock measures per-frame elapsed time for the main loop.
type Clock struct {
	last    time.Time
	started bool
}

// Start resets the clock to now.
func (c *Clock) Start() {
	c.last = time.Now()
	c.started = true
}

// Tick returns the seconds elapsed since the previous Tick (or Start)
// and advances the clock. The first Tick of an unstarted clock returns
// zero.
func (c *Clock) Tick() float64 {
	if !c.started {
		c.Start()
		return 0
	}
	now := time.Now()
	delta := now.Sub(c.last).Seconds()
	c.last = now
	return delta
}
