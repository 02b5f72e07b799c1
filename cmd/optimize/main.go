// Command optimize searches particle parameters that give trails of a target
// on-screen length and density, scoring headless sessions with CMA-ES.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/windtrail/config"
	"github.com/pthm-cable/windtrail/session"
)

type options struct {
	configPath string
	outputDir  string
	frames     int64
	seeds      int
	maxEvals   int
	population int
	targets    Targets
}

// evalRow is one line of optimize_log.csv.
type evalRow struct {
	Eval         int     `csv:"eval"`
	Fitness      float64 `csv:"fitness"`
	SegmentPx    float64 `csv:"segment_px"`
	Segments     float64 `csv:"segments"`
	DropRate     float64 `csv:"drop_rate"`
	SpeedFactor  float64 `csv:"speed_factor"`
	MaxAge       float64 `csv:"max_age"`
	NumParticles float64 `csv:"num_particles"`
}

// progress records every evaluation and tracks the best one.
type progress struct {
	params   *ParamVector
	eval     *FitnessEvaluator
	log      *os.File
	maxEvals int
	start    time.Time

	count       int
	bestFitness float64
	best        []float64
}

func (p *progress) observe(x []float64, fitness float64) error {
	p.count++
	clamped := p.params.Clamp(p.params.Denormalize(x))
	if p.best == nil || fitness < p.bestFitness {
		p.bestFitness = fitness
		p.best = clamped
	}

	px, segs, drops := p.eval.Last()
	row := evalRow{
		Eval:      p.count,
		Fitness:   fitness,
		SegmentPx: px,
		Segments:  segs,
		DropRate:  drops,
	}
	row.SpeedFactor, row.MaxAge, row.NumParticles = clamped[0], clamped[1], clamped[2]

	rows := []evalRow{row}
	var err error
	if p.count == 1 {
		err = gocsv.Marshal(rows, p.log)
	} else {
		err = gocsv.MarshalWithoutHeaders(rows, p.log)
	}

	elapsed := time.Since(p.start)
	remaining := time.Duration(p.maxEvals-p.count) * (elapsed / time.Duration(p.count))
	slog.Info("eval",
		"n", p.count,
		"of", p.maxEvals,
		"fitness", fitness,
		"segment_px", px,
		"segments", int(segs),
		"drop_rate", drops,
		"best", p.bestFitness,
		"elapsed", formatDuration(elapsed),
		"eta", formatDuration(remaining),
	)
	return err
}

// formatDuration renders 1h02m03s, or 2m03s below an hour.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.StringVar(&opts.outputDir, "output", "", "Output directory for results")
	flag.Int64Var(&opts.frames, "frames", 600, "Frames per evaluation run")
	flag.IntVar(&opts.seeds, "seeds", 3, "Number of seeds per evaluation")
	flag.IntVar(&opts.maxEvals, "max-evals", 100, "Maximum number of evaluations")
	flag.IntVar(&opts.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.Float64Var(&opts.targets.SegmentPx, "target-segment-px", 2.5, "Target median segment length in pixels")
	flag.Float64Var(&opts.targets.Segments, "target-segments", 20000, "Target visible segments per frame")
	flag.Float64Var(&opts.targets.MaxDropRate, "max-drop-rate", 0.1, "Drop rate per particle-step above which runs are penalized")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if err := run(opts); err != nil {
		slog.Error("optimize failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.outputDir == "" {
		return fmt.Errorf("-output is required")
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	baseCfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	raster, err := session.LoadRaster(baseCfg.Field)
	if err != nil {
		return fmt.Errorf("loading field: %w", err)
	}

	params := NewParamVector(baseCfg)
	seeds := make([]int64, opts.seeds)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, opts.frames, seeds, baseCfg, raster, opts.targets)

	logFile, err := os.Create(filepath.Join(opts.outputDir, "optimize_log.csv"))
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	prog := &progress{
		params:   params,
		eval:     evaluator,
		log:      logFile,
		maxEvals: opts.maxEvals,
		start:    time.Now(),
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			fitness := evaluator.Evaluate(params.Denormalize(x))
			if err := prog.observe(x, fitness); err != nil {
				slog.Warn("writing eval log", "error", err)
			}
			return fitness
		},
	}

	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + 3*params.Dim()/2
	}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize}

	// Seeds already run in parallel, so evaluations stay sequential
	settings := &optimize.Settings{FuncEvaluations: opts.maxEvals}

	slog.Info("starting CMA-ES",
		"params", params.Dim(),
		"population", popSize,
		"max_evals", opts.maxEvals,
		"seeds", opts.seeds,
		"frames", opts.frames,
	)

	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	best := prog.best
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		return fmt.Errorf("no evaluations completed")
	}

	attrs := []any{"evals", prog.count, "elapsed", formatDuration(time.Since(prog.start)), "fitness", prog.bestFitness}
	for i, spec := range params.Specs {
		attrs = append(attrs, spec.Path, best[i])
	}
	slog.Info("optimization complete", attrs...)

	params.ApplyToConfig(baseCfg, best)
	out := filepath.Join(opts.outputDir, "best_config.yaml")
	if err := baseCfg.WriteYAML(out); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	slog.Info("best config saved", "path", out)
	return nil
}
