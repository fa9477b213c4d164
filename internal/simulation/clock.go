package simulation

// DefaultStepSeconds is the simulated time added by every tick.
const DefaultStepSeconds = 3

// Clock advances simulated time by a fixed step.
//
// Time is held in an int64 of seconds, which does not overflow for any
// realistic session length.
type Clock struct {
	step int64
	now  int64
}

// NewClock creates a clock starting at t=0.
// A non-positive step falls back to DefaultStepSeconds.
func NewClock(stepSeconds int64) *Clock {
	if stepSeconds <= 0 {
		stepSeconds = DefaultStepSeconds
	}
	return &Clock{step: stepSeconds}
}

// Tick advances the clock by one step and returns the previous and new time.
func (c *Clock) Tick() (prev, now int64) {
	prev = c.now
	c.now += c.step
	return prev, c.now
}

// Now returns the current simulated time in seconds.
func (c *Clock) Now() int64 {
	return c.now
}

// Step returns the fixed step in seconds.
func (c *Clock) Step() int64 {
	return c.step
}
