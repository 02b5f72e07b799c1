package telemetry

import "github.com/pthm-cable/windtrail/particles"

// Collector accumulates step stats within windows and produces WindowStats.
type Collector struct {
	windowSteps  int
	numParticles int

	// Current window tracking
	windowStartTick int64
	steps           int
	totals          particles.StepStats
	last            particles.StepStats
	meanSpeeds      []float64
	segments        int
}

// NewCollector creates a new stats collector.
// windowSteps: how many executed steps each window spans.
func NewCollector(windowSteps int) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{
		windowSteps: windowSteps,
		meanSpeeds:  make([]float64, 0, windowSteps),
	}
}

// SetNumParticles sets the population used to normalize drop rates.
func (c *Collector) SetNumParticles(n int) {
	c.numParticles = n
}

// RecordStep records the stats of one executed step.
func (c *Collector) RecordStep(st particles.StepStats) {
	if c.steps == 0 {
		c.windowStartTick = st.Tick
	}
	c.steps++
	c.last = st
	c.totals.Respawned += st.Respawned
	c.totals.DroppedThinning += st.DroppedThinning
	c.totals.DroppedAge += st.DroppedAge
	c.totals.DroppedBounds += st.DroppedBounds
	c.totals.DroppedViewport += st.DroppedViewport
	c.totals.DroppedNodata += st.DroppedNodata
	c.totals.MaxSpeed = max(c.totals.MaxSpeed, st.MaxSpeed)
	if st.Advected > 0 {
		c.meanSpeeds = append(c.meanSpeeds, st.MeanSpeed())
	}
}

// RecordSegments records how many segments the last draw produced.
func (c *Collector) RecordSegments(n int) {
	c.segments = n
}

// ShouldFlush returns true once the window holds enough steps.
func (c *Collector) ShouldFlush() bool {
	return c.steps >= c.windowSteps
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(simTimeSec float64) WindowStats {
	mean, std, p10, p50, p90 := ComputeSpeedStats(c.meanSpeeds)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   c.last.Tick,
		SimTimeSec:      simTimeSec,
		Steps:           c.steps,

		Alive:    c.last.Alive(),
		Segments: c.segments,

		Respawned:       c.totals.Respawned,
		DroppedThinning: c.totals.DroppedThinning,
		DroppedAge:      c.totals.DroppedAge,
		DroppedBounds:   c.totals.DroppedBounds,
		DroppedViewport: c.totals.DroppedViewport,
		DroppedNodata:   c.totals.DroppedNodata,

		SpeedMean: mean,
		SpeedStd:  std,
		SpeedP10:  p10,
		SpeedP50:  p50,
		SpeedP90:  p90,
		SpeedMax:  c.totals.MaxSpeed,
	}
	if c.numParticles > 0 && c.steps > 0 {
		stats.DropRate = float64(c.totals.Dropped()) / float64(c.numParticles*c.steps)
	}

	// Reset for next window
	c.steps = 0
	c.totals = particles.StepStats{}
	c.meanSpeeds = c.meanSpeeds[:0]

	return stats
}

// WindowSteps returns the number of steps per window.
func (c *Collector) WindowSteps() int {
	return c.windowSteps
}
