package particles

import "time"

// SchedulerState is the step scheduler's state.
type SchedulerState uint8

const (
	Idle SchedulerState = iota
	StepPending
)

func (s SchedulerState) String() string {
	if s == StepPending {
		return "step_pending"
	}
	return "idle"
}

// Cadence selects when a pending step runs.
type Cadence uint8

const (
	CadenceFrame Cadence = iota // On the next frame tick
	CadenceFixed                // On the first tick at least one interval after the last step
)

// ParseCadence maps a config name to a Cadence.
func ParseCadence(name string) Cadence {
	if name == "fixed" {
		return CadenceFixed
	}
	return CadenceFrame
}

// FrameTime is the external frame clock reading passed to OnTick.
type FrameTime struct {
	Tick    int64   // Monotonic frame counter
	Seconds float64 // Wall time since start
}

// Scheduler coalesces step requests so at most one step is pending.
type Scheduler struct {
	state    SchedulerState
	cadence  Cadence
	interval float64 // Seconds between steps for CadenceFixed

	lastStep   float64
	hasStepped bool

	requests int
	executed int
}

// NewScheduler creates an idle scheduler.
func NewScheduler(cadence Cadence, interval time.Duration) *Scheduler {
	return &Scheduler{
		cadence:  cadence,
		interval: interval.Seconds(),
	}
}

// RequestStep moves Idle to StepPending. It reports whether the request was
// accepted; requests while a step is pending are coalesced.
func (s *Scheduler) RequestStep() bool {
	s.requests++
	if s.state == StepPending {
		return false
	}
	s.state = StepPending
	return true
}

// OnTick runs the pending step, if any and if the cadence allows it, and
// returns to Idle. It reports whether step was invoked.
func (s *Scheduler) OnTick(ft FrameTime, step func(FrameTime)) bool {
	if s.state != StepPending {
		return false
	}
	if s.cadence == CadenceFixed && s.hasStepped && ft.Seconds-s.lastStep < s.interval {
		return false
	}

	step(ft)
	s.state = Idle
	s.lastStep = ft.Seconds
	s.hasStepped = true
	s.executed++
	return true
}

// Cancel abandons a pending step.
func (s *Scheduler) Cancel() {
	s.state = Idle
}

// State returns the current state.
func (s *Scheduler) State() SchedulerState { return s.state }

// Requests returns how many steps were requested, coalesced ones included.
func (s *Scheduler) Requests() int { return s.requests }

// Executed returns how many pending steps ran.
func (s *Scheduler) Executed() int { return s.executed }
