// Package session wires the particle layer to its host: the frame clock,
// the camera, telemetry, frame export and streaming.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/windtrail/canvas"
	"github.com/pthm-cable/windtrail/config"
	"github.com/pthm-cable/windtrail/field"
	"github.com/pthm-cable/windtrail/particles"
	"github.com/pthm-cable/windtrail/stream"
	"github.com/pthm-cable/windtrail/telemetry"
	"github.com/pthm-cable/windtrail/viewport"
)

// errStop ends a headless run without reporting failure.
var errStop = errors.New("stop")

// Options configures a session beyond the loaded config.
type Options struct {
	Seed       int64
	LogStats   bool   // Log each stats window via slog
	OutputDir  string // CSV logs and config snapshot; empty disables
	FramesDir  string // PNG frames; empty disables
	FrameEvery int64  // Export every Nth frame
	Raster     *field.Raster
}

// Session owns the particle layer and everything that observes it.
type Session struct {
	cfg    *config.Config
	layer  *particles.Layer
	camera *viewport.Camera
	clock  frameClock

	perf      *telemetry.PerfCollector
	collector *telemetry.Collector
	output    *telemetry.OutputManager
	exporter  *canvas.PNGExporter
	hub       *stream.Hub
	logStats  bool

	segments []particles.Segment
	stepped  bool
	last     telemetry.WindowStats
}

// New creates a session from the loaded config. The raster comes from
// opts.Raster when set, otherwise from the field config.
func New(cfg *config.Config, opts Options) (*Session, error) {
	raster := opts.Raster
	if raster == nil {
		var err error
		if raster, err = LoadRaster(cfg.Field); err != nil {
			return nil, fmt.Errorf("loading field: %w", err)
		}
	}

	s := &Session{
		cfg:       cfg,
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		logStats:  opts.LogStats,
	}

	s.camera = viewport.NewCamera(float64(cfg.Screen.Width), float64(cfg.Screen.Height))
	s.camera.Projection = viewport.ParseProjection(cfg.Viewport.Projection)
	s.camera.Longitude = cfg.Viewport.Longitude
	s.camera.Latitude = cfg.Viewport.Latitude
	s.camera.MinZoom = cfg.Viewport.MinZoom
	s.camera.MaxZoom = cfg.Viewport.MaxZoom
	s.camera.SetZoom(cfg.Viewport.Zoom)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	sched := particles.NewScheduler(particles.ParseCadence(cfg.Scheduler.Cadence), cfg.Derived.FixedInterval)
	layer, err := particles.NewLayer(
		particles.Capabilities{InstancedLines: true},
		particles.PropsFromConfig(cfg.Particle),
		particles.Options{
			Workers:   workers,
			Seed:      uint64(opts.Seed),
			Scheduler: sched,
			Perf:      s.perf,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("creating particle layer: %w", err)
	}
	layer.SetRaster(raster)
	layer.OnStep(s.collector.RecordStep)
	s.layer = layer
	s.collector.SetNumParticles(cfg.Particle.NumParticles)

	if s.output, err = telemetry.NewOutputManager(opts.OutputDir); err != nil {
		layer.Dispose()
		return nil, err
	}
	if err := s.output.WriteConfig(cfg); err != nil {
		s.Close()
		return nil, err
	}
	if s.exporter, err = canvas.NewPNGExporter(opts.FramesDir, opts.FrameEvery, [3]uint8{8, 12, 20}); err != nil {
		s.Close()
		return nil, err
	}

	slog.Info("session created",
		"num_particles", cfg.Particle.NumParticles,
		"max_age", cfg.Particle.MaxAge,
		"workers", workers,
		"cadence", cfg.Scheduler.Cadence,
		"projection", s.camera.Projection.String(),
		"raster_width", raster.Width,
		"raster_height", raster.Height,
	)
	return s, nil
}

// AttachHub streams every executed step to websocket clients and applies
// their controls.
func (s *Session) AttachHub(h *stream.Hub) {
	s.hub = h
}

// Frame advances the host by one frame of dt seconds: the scheduler runs a
// pending step, the layer is drawn (requesting the next step when
// animating) and the observers see the result.
func (s *Session) Frame(dt float64) {
	s.perf.BeginFrame()
	ft := s.clock.advance(dt)

	s.perf.StartPhase(telemetry.PhaseField)
	s.applyControls()
	s.layer.SetViewport(s.camera.Snapshot())

	// The scheduler can fire while the layer skips (no raster, stale tick)
	s.stepped = s.layer.OnTick(ft) && s.layer.LastStats().Tick == ft.Tick
	if s.stepped {
		s.perf.MarkStepped()
	}

	s.perf.StartPhase(telemetry.PhaseShade)
	s.segments = s.layer.Draw(s.segments[:0])
	s.collector.RecordSegments(len(s.segments))

	s.perf.StartPhase(telemetry.PhaseStream)
	if s.stepped && s.hub != nil {
		s.hub.Broadcast(ft.Tick, s.streamed())
	}
	if err := s.exporter.Export(ft.Tick, s.segments, s.camera); err != nil {
		slog.Error("failed to export frame", "error", err)
	}

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.flushTelemetry()

	s.perf.EndFrame()
}

// streamed caps the broadcast segment count.
func (s *Session) streamed() []particles.Segment {
	if n := s.cfg.Stream.MaxSegments; n > 0 && len(s.segments) > n {
		return s.segments[:n]
	}
	return s.segments
}

func (s *Session) applyControls() {
	if s.hub == nil {
		return
	}
	for {
		select {
		case c := <-s.hub.Controls():
			props, step, clear := c.Apply(s.layer.Props())
			s.SetProps(props)
			if step {
				s.StepOnce()
			}
			if clear {
				s.Clear()
			}
		default:
			return
		}
	}
}

// SetProps applies new particle props.
func (s *Session) SetProps(p particles.Props) {
	s.layer.SetProps(p)
	s.collector.SetNumParticles(p.NumParticles)
}

// StepOnce requests a single step regardless of animate.
func (s *Session) StepOnce() {
	s.layer.RequestStep()
}

// Clear zeroes every trail.
func (s *Session) Clear() {
	s.layer.Clear()
}

// Run drives headless frames at dt seconds until ctx is done or maxTicks
// frames have run (0 = unlimited). The stream server, when addr is set,
// shares the context.
func (s *Session) Run(ctx context.Context, dt float64, maxTicks int64, addr string) error {
	g, ctx := errgroup.WithContext(ctx)
	if addr != "" {
		h := stream.NewHub()
		s.AttachHub(h)
		g.Go(func() error { return h.Serve(ctx, addr, s.cfg.Stream.Path) })
	}
	g.Go(func() error {
		for ctx.Err() == nil {
			s.Frame(dt)
			if maxTicks > 0 && s.Tick() >= maxTicks {
				slog.Info("max ticks reached", "tick", s.Tick())
				return errStop
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, errStop) {
		return err
	}
	return nil
}

// Tick returns the frame count.
func (s *Session) Tick() int64 { return s.clock.tick }

// Seconds returns the accumulated frame time.
func (s *Session) Seconds() float64 { return s.clock.seconds }

// Stepped reports whether the last frame executed a step.
func (s *Session) Stepped() bool { return s.stepped }

// Segments returns the segments shaded on the last frame.
func (s *Session) Segments() []particles.Segment { return s.segments }

// Layer returns the particle layer.
func (s *Session) Layer() *particles.Layer { return s.layer }

// Camera returns the camera.
func (s *Session) Camera() *viewport.Camera { return s.camera }

// Perf returns the frame performance collector.
func (s *Session) Perf() *telemetry.PerfCollector { return s.perf }

// LastWindow returns the last flushed stats window.
func (s *Session) LastWindow() telemetry.WindowStats { return s.last }

// Close releases the layer and flushes outputs.
func (s *Session) Close() error {
	s.layer.Dispose()
	return s.output.Close()
}
