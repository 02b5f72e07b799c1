package telemetry

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/windtrail/particles"
)

// Phase names for one frame. Advect and shift are reported by the particle
// layer itself.
const (
	PhaseField     = "field"
	PhaseAdvect    = particles.PhaseAdvect
	PhaseShift     = particles.PhaseShift
	PhaseShade     = "shade"
	PhaseStream    = "stream"
	PhaseTelemetry = "telemetry"
)

// phases lists phases in pipeline order for logging and CSV export.
var phases = []string{
	PhaseField, PhaseAdvect, PhaseShift, PhaseShade, PhaseStream, PhaseTelemetry,
}

type frameSample struct {
	total   time.Duration
	phases  map[string]time.Duration
	stepped bool
}

// PerfCollector times host frames and their phases over a ring of recent
// frames. It also implements particles.PhaseRecorder.
type PerfCollector struct {
	ring  []frameSample
	next  int
	count int

	cur        frameSample
	frameStart time.Time
	phase      string
	phaseStart time.Time

	lastPresent time.Time
	interval    time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize frames.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{ring: make([]frameSample, windowSize)}
}

// BeginFrame starts timing a host frame.
func (p *PerfCollector) BeginFrame() {
	p.frameStart = time.Now()
	p.cur = frameSample{phases: make(map[string]time.Duration, len(phases))}
	p.phase = ""
}

// MarkStepped records that the current frame executed a particle step.
func (p *PerfCollector) MarkStepped() {
	p.cur.stepped = true
}

// StartPhase closes the running phase and opens the named one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.phase, p.phaseStart = phase, now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase == "" {
		return
	}
	if p.cur.phases == nil {
		p.cur.phases = make(map[string]time.Duration, len(phases))
	}
	p.cur.phases[p.phase] += now.Sub(p.phaseStart)
}

// EndFrame closes the frame and stores it in the ring.
func (p *PerfCollector) EndFrame() {
	now := time.Now()
	p.closePhase(now)
	p.phase = ""
	p.cur.total = now.Sub(p.frameStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.count = min(p.count+1, len(p.ring))
}

// RecordPresent measures the interval between presented window frames.
func (p *PerfCollector) RecordPresent() {
	now := time.Now()
	if !p.lastPresent.IsZero() {
		p.interval = now.Sub(p.lastPresent)
	}
	p.lastPresent = now
}

// PerfStats holds frame timing aggregated over the ring.
type PerfStats struct {
	AvgFrame time.Duration
	MinFrame time.Duration
	MaxFrame time.Duration
	P95Frame time.Duration

	// Average duration and share of the average frame per phase
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	// Frames the host could run per second at the average cost
	Budget float64

	// Fraction of frames that executed a step (below 1 under fixed cadence)
	StepRatio float64

	// Window presentation, zero when headless
	PresentInterval time.Duration
	FPS             float64
}

// Stats reduces the frames currently held in the ring.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg:        make(map[string]time.Duration),
		PhasePct:        make(map[string]float64),
		PresentInterval: p.interval,
	}
	if p.interval > 0 {
		s.FPS = float64(time.Second) / float64(p.interval)
	}
	if p.count == 0 {
		return s
	}

	totals := make([]float64, p.count)
	phaseSum := make(map[string]time.Duration)
	stepped := 0
	for i, f := range p.ring[:p.count] {
		totals[i] = float64(f.total)
		if f.stepped {
			stepped++
		}
		for name, d := range f.phases {
			phaseSum[name] += d
		}
	}

	s.AvgFrame = time.Duration(stat.Mean(totals, nil))
	slices.Sort(totals)
	s.MinFrame = time.Duration(totals[0])
	s.MaxFrame = time.Duration(totals[len(totals)-1])
	s.P95Frame = time.Duration(stat.Quantile(0.95, stat.Empirical, totals, nil))
	s.StepRatio = float64(stepped) / float64(p.count)

	for name, sum := range phaseSum {
		avg := sum / time.Duration(p.count)
		s.PhaseAvg[name] = avg
		if s.AvgFrame > 0 {
			s.PhasePct[name] = float64(avg) / float64(s.AvgFrame) * 100
		}
	}
	if s.AvgFrame > 0 {
		s.Budget = float64(time.Second) / float64(s.AvgFrame)
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrame.Microseconds()),
		slog.Int64("p95_frame_us", s.P95Frame.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrame.Microseconds()),
		slog.Int("budget_fps", int(s.Budget)),
		slog.Float64("step_ratio", s.StepRatio),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for _, phase := range phases {
		if pct := s.PhasePct[phase]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// LogStats logs the perf stats at Info.
func (s PerfStats) LogStats() {
	slog.LogAttrs(context.Background(), slog.LevelInfo, "perf", s.LogValue().Group()...)
}

// PerfStatsCSV is a flat row for perf.csv.
type PerfStatsCSV struct {
	WindowEnd    int64   `csv:"window_end"`
	AvgFrameUS   int64   `csv:"avg_frame_us"`
	MinFrameUS   int64   `csv:"min_frame_us"`
	MaxFrameUS   int64   `csv:"max_frame_us"`
	P95FrameUS   int64   `csv:"p95_frame_us"`
	Budget       float64 `csv:"budget_fps"`
	StepRatio    float64 `csv:"step_ratio"`
	FPS          float64 `csv:"fps"`
	FieldPct     float64 `csv:"field_pct"`
	AdvectPct    float64 `csv:"advect_pct"`
	ShiftPct     float64 `csv:"shift_pct"`
	ShadePct     float64 `csv:"shade_pct"`
	StreamPct    float64 `csv:"stream_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgFrameUS:   s.AvgFrame.Microseconds(),
		MinFrameUS:   s.MinFrame.Microseconds(),
		MaxFrameUS:   s.MaxFrame.Microseconds(),
		P95FrameUS:   s.P95Frame.Microseconds(),
		Budget:       s.Budget,
		StepRatio:    s.StepRatio,
		FPS:          s.FPS,
		FieldPct:     s.PhasePct[PhaseField],
		AdvectPct:    s.PhasePct[PhaseAdvect],
		ShiftPct:     s.PhasePct[PhaseShift],
		ShadePct:     s.PhasePct[PhaseShade],
		StreamPct:    s.PhasePct[PhaseStream],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
