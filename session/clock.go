package session

import "github.com/pthm-cable/windtrail/particles"

// frameClock is the host frame clock handed to the scheduler. Ticks count
// frames; seconds accumulate the frame deltas.
type frameClock struct {
	tick    int64
	seconds float64
}

// advance moves the clock one frame forward.
func (c *frameClock) advance(dt float64) particles.FrameTime {
	c.tick++
	c.seconds += max(dt, 0)
	return particles.FrameTime{Tick: c.tick, Seconds: c.seconds}
}
