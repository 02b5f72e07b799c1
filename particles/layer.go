package particles

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/pthm-cable/windtrail/colorramp"
	"github.com/pthm-cable/windtrail/config"
	"github.com/pthm-cable/windtrail/field"
	"github.com/pthm-cable/windtrail/viewport"
)

// ErrUnsupported is returned when the renderer lacks a required capability.
var ErrUnsupported = errors.New("particles: renderer capability unavailable")

// Phase names reported to a PhaseRecorder during a step.
const (
	PhaseAdvect = "advect"
	PhaseShift  = "shift"
)

// Capabilities describes what the host renderer can do.
type Capabilities struct {
	InstancedLines bool // Can draw one line segment per instance
}

// PhaseRecorder receives phase boundaries of a step.
// *telemetry.PerfCollector satisfies it.
type PhaseRecorder interface {
	StartPhase(phase string)
}

// Props is the layer's configuration surface.
type Props struct {
	NumParticles  int
	MaxAge        int
	SpeedFactor   float64
	Width         float64
	Opacity       float64
	Animate       bool
	ColorMode     ColorMode
	StaticColor   string
	ColorStops    []colorramp.Stop
	ExtendRamp    bool
	Bounds        [4]float64 // Raster extent: minLon, minLat, maxLon, maxLat
	WrapLongitude bool
}

// PropsFromConfig converts the particle config section.
func PropsFromConfig(c config.ParticleConfig) Props {
	stops := make([]colorramp.Stop, len(c.ColorStops))
	for i, s := range c.ColorStops {
		stops[i] = colorramp.Stop{Speed: s.Speed, Color: s.Color}
	}
	return Props{
		NumParticles:  c.NumParticles,
		MaxAge:        c.MaxAge,
		SpeedFactor:   c.SpeedFactor,
		Width:         c.Width,
		Opacity:       c.Opacity,
		Animate:       c.Animate,
		ColorMode:     ParseColorMode(c.ColorMode),
		StaticColor:   c.StaticColor,
		ColorStops:    stops,
		ExtendRamp:    c.ExtendRamp,
		Bounds:        c.Bounds,
		WrapLongitude: c.WrapLongitude,
	}
}

func (p Props) allocation() Allocation {
	return Allocation{
		NumParticles: p.NumParticles,
		MaxAge:       p.MaxAge,
		Width:        float32(p.Width),
		Color:        colorramp.ParseColor(p.StaticColor),
		Opacity:      float32(p.Opacity),
	}
}

// Options configures a Layer beyond its props.
type Options struct {
	Workers   int           // <= 0 uses GOMAXPROCS
	Seed      uint64        // Respawn seed source
	Scheduler *Scheduler    // Defaults to frame cadence
	Perf      PhaseRecorder // Optional
}

// Layer is the particle simulation: the state store, the step pipeline and
// the scheduler driving it.
type Layer struct {
	props  Props
	store  Store
	ramp   colorramp.Cache
	sched  *Scheduler
	pool   *workerPool
	perf   PhaseRecorder
	rng    *rand.Rand
	raster *field.Raster
	view   viewport.Viewport

	// Snapshot of the last executed step
	prevZoom    float64
	prevTick    int64
	hasPrevTick bool

	stats   []StepStats
	last    StepStats
	onStep  func(StepStats)
	advect  advector
	shading shader
}

// NewLayer creates a layer. It fails with ErrUnsupported when the renderer
// cannot draw instanced lines; invalid props are not an error and leave the
// layer disabled.
func NewLayer(caps Capabilities, props Props, opts Options) (*Layer, error) {
	if !caps.InstancedLines {
		return nil, fmt.Errorf("instanced lines: %w", ErrUnsupported)
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = NewScheduler(CadenceFrame, 0)
	}
	l := &Layer{
		sched:    sched,
		pool:     newWorkerPool(opts.Workers),
		perf:     opts.Perf,
		rng:      rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		view:     viewport.Viewport{Bounds: [4]float64{-180, -90, 180, 90}},
		prevZoom: math.NaN(),
	}
	l.stats = make([]StepStats, l.pool.numWorkers)
	l.props = props
	if !l.store.Allocate(props.allocation()) {
		slog.Info("particle layer disabled", "reason", "invalid props")
	}
	return l, nil
}

// SetProps applies new props. Changing numParticles, maxAge, width or the
// color stops reallocates the buffers and abandons any pending step. Invalid
// props tear the buffers down.
func (l *Layer) SetProps(p Props) {
	old := l.props
	l.props = p

	cause := ""
	switch {
	case !l.store.Initialized():
		cause = "uninitialized"
	case p.NumParticles != old.NumParticles:
		cause = "num_particles"
	case p.MaxAge != old.MaxAge:
		cause = "max_age"
	case p.Width != old.Width:
		cause = "width"
	case !colorramp.Equal(p.ColorStops, old.ColorStops):
		cause = "color_stops"
	}

	if cause == "" {
		if p.Opacity != old.Opacity || p.StaticColor != old.StaticColor {
			a := p.allocation()
			l.store.Recolor(a.Color, a.Opacity)
		}
		return
	}

	l.sched.Cancel()
	if !p.allocation().Valid() {
		if l.store.Initialized() {
			slog.Info("particle layer disabled", "reason", "invalid props")
		}
		l.store.Dispose()
		return
	}
	slog.Info("particle buffers reallocating", "cause", cause)
	l.store.Allocate(p.allocation())
}

// Props returns the active props.
func (l *Layer) Props() Props { return l.props }

// SetRaster binds the vector field. A nil raster pauses stepping.
func (l *Layer) SetRaster(r *field.Raster) { l.raster = r }

// Raster returns the bound vector field.
func (l *Layer) Raster() *field.Raster { return l.raster }

// SetViewport records the host view used by the next step.
func (l *Layer) SetViewport(v viewport.Viewport) { l.view = v }

// OnStep registers a callback receiving the stats of every executed step.
func (l *Layer) OnStep(fn func(StepStats)) { l.onStep = fn }

// RequestStep asks the scheduler for one step on a later tick.
func (l *Layer) RequestStep() {
	if !l.store.Initialized() {
		return
	}
	l.sched.RequestStep()
}

// OnTick advances the scheduler with the host frame clock.
func (l *Layer) OnTick(ft FrameTime) bool {
	if !l.store.Initialized() {
		l.sched.Cancel()
		return false
	}
	return l.sched.OnTick(ft, func(ft FrameTime) { l.Step(ft) })
}

// Step runs one advection and aging cycle. It is skipped, returning false,
// when the store is uninitialized, no raster is bound or the clock has not
// advanced since the last step.
func (l *Layer) Step(ft FrameTime) bool {
	s := &l.store
	if !s.Initialized() || l.raster == nil {
		return false
	}
	if l.hasPrevTick && ft.Tick == l.prevTick {
		return false
	}

	l.advect = advector{
		u: stepUniforms{
			raster:       l.raster,
			bounds:       l.props.Bounds,
			view:         l.view,
			wrap:         l.props.WrapLongitude,
			numParticles: s.numParticles,
			maxAge:       s.maxAge,
			speedScale:   viewport.SpeedScale(l.props.SpeedFactor, l.view.Zoom),
			dropFactor:   viewport.ZoomChangeFactor(l.prevZoom, l.view.Zoom, zoomDropExponent),
			tick:         ft.Tick,
			seed:         l.rng.Float64(),
		},
		src:   s.current,
		dst:   s.next,
		stats: l.stats,
	}
	clear(l.stats)

	l.startPhase(PhaseAdvect)
	l.pool.run(s.numParticles, &l.advect)

	l.startPhase(PhaseShift)
	shiftAges(s)
	s.swap()

	l.prevZoom = l.view.Zoom
	l.prevTick = ft.Tick
	l.hasPrevTick = true

	l.last = StepStats{Tick: ft.Tick}
	for _, ws := range l.stats {
		l.last.add(ws)
	}
	slog.Debug("particle step", "stats", l.last)
	if l.onStep != nil {
		l.onStep(l.last)
	}
	return true
}

// LastStats returns the stats of the most recent step.
func (l *Layer) LastStats() StepStats { return l.last }

// Clear zeroes every trail. It does not touch the scheduler.
func (l *Layer) Clear() {
	l.store.Reset()
}

// Draw appends the visible segments to dst and, when animating, requests
// the next step.
func (l *Layer) Draw(dst []Segment) []Segment {
	dst = l.Shade(dst)
	if l.props.Animate {
		l.RequestStep()
	}
	return dst
}

// Shade appends the visible segments of the current buffers to dst.
func (l *Layer) Shade(dst []Segment) []Segment {
	if !l.store.Initialized() {
		return dst
	}
	l.ramp.Extend = l.props.ExtendRamp
	l.shading = shader{
		mode:   l.props.ColorMode,
		static: colorramp.ParseColor(l.props.StaticColor),
		table:  l.ramp.Get(l.props.ColorStops),
		raster: l.raster,
		bounds: l.props.Bounds,
	}
	return l.shading.shade(&l.store, dst)
}

// Store exposes the buffers for renderers.
func (l *Layer) Store() *Store { return &l.store }

// Scheduler returns the layer's scheduler.
func (l *Layer) Scheduler() *Scheduler { return l.sched }

// Dispose releases the buffers and stops the workers.
func (l *Layer) Dispose() {
	l.sched.Cancel()
	l.store.Dispose()
	l.pool.stop()
}

func (l *Layer) startPhase(phase string) {
	if l.perf != nil {
		l.perf.StartPhase(phase)
	}
}
