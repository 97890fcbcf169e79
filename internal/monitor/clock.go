package monitor

// Clock is the logical clock driven by record timestamps. It starts at the
// first observed timestamp and only ever moves forward one second at a time.
type Clock struct {
	now     int64
	started bool
}

// Observe advances the clock toward ts, calling tick once per synthesized
// second, and returns the number of ticks emitted. The first observation
// initializes the clock without ticking. Timestamps at or before the current
// time leave the clock where it is.
func (c *Clock) Observe(ts int64, tick func(now int64)) int {
	if !c.started {
		c.now = ts
		c.started = true
		return 0
	}

	ticks := 0
	for c.now < ts {
		c.now++
		ticks++
		tick(c.now)
	}
	return ticks
}

// Now returns the current logical time in epoch seconds.
func (c *Clock) Now() int64 { return c.now }

// Started reports whether the clock has seen its first timestamp.
func (c *Clock) Started() bool { return c.started }
