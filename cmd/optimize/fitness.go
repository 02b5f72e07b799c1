package main

import (
	"math"
	"slices"
	"sync"

	"github.com/pthm-cable/windtrail/canvas"
	"github.com/pthm-cable/windtrail/config"
	"github.com/pthm-cable/windtrail/field"
	"github.com/pthm-cable/windtrail/session"
)

// Targets are the on-screen trail statistics the tuner aims for.
type Targets struct {
	SegmentPx   float64 // Mean projected segment length in pixels
	Segments    float64 // Visible segments per frame
	MaxDropRate float64 // Drops per particle-step above this are penalized
}

// Fitness component weights.
const (
	weightLength   = 1.0
	weightSegments = 0.5
	weightDrops    = 4.0
)

// FitnessEvaluator runs headless sessions and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	frames     int64
	seeds      []int64
	baseConfig *config.Config
	raster     *field.Raster
	targets    Targets

	mu   sync.Mutex
	last runResult // averaged result of the most recent Evaluate call
}

// runResult holds the measurements from a single run.
type runResult struct {
	segmentPx float64
	segments  float64
	dropRate  float64
}

// NewFitnessEvaluator creates a new evaluator. The raster is shared
// read-only by every run.
func NewFitnessEvaluator(params *ParamVector, frames int64, seeds []int64, baseCfg *config.Config, raster *field.Raster, targets Targets) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		frames:     frames,
		seeds:      seeds,
		baseConfig: baseCfg,
		raster:     raster,
		targets:    targets,
	}
}

// Last returns the averaged measurements of the most recent evaluation.
func (fe *FitnessEvaluator) Last() (segmentPx, segments, dropRate float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last.segmentPx, fe.last.segments, fe.last.dropRate
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSession(x, s)
		}(i, seed)
	}
	wg.Wait()

	var avg runResult
	for _, r := range results {
		avg.segmentPx += r.segmentPx
		avg.segments += r.segments
		avg.dropRate += r.dropRate
	}
	n := float64(len(results))
	avg.segmentPx /= n
	avg.segments /= n
	avg.dropRate /= n

	fe.mu.Lock()
	fe.last = avg
	fe.mu.Unlock()

	return fe.computeFitness(avg)
}

// runSession executes one headless run and measures the second half of it,
// after the trails have filled in.
func (fe *FitnessEvaluator) runSession(x []float64, seed int64) runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	s, err := session.New(cfg, session.Options{Seed: seed, Raster: fe.raster})
	if err != nil {
		return runResult{}
	}
	defer s.Close()

	dt := 1.0 / float64(max(cfg.Screen.TargetFPS, 1))
	var projected []canvas.ScreenSegment
	var lengths []float64
	var segments, samples float64

	for s.Tick() < fe.frames {
		s.Frame(dt)
		if s.Tick() < fe.frames/2 {
			continue
		}
		projected = canvas.ProjectSegments(s.Segments(), s.Camera(), projected[:0])
		for _, p := range projected {
			lengths = append(lengths, math.Hypot(float64(p.X1-p.X0), float64(p.Y1-p.Y0)))
		}
		segments += float64(len(projected))
		samples++
	}

	r := runResult{dropRate: s.LastWindow().DropRate}
	if samples > 0 {
		r.segments = segments / samples
	}
	if len(lengths) > 0 {
		// Median is robust to the odd long segment across a seam
		slices.Sort(lengths)
		r.segmentPx = lengths[len(lengths)/2]
	}
	return r
}

// copyConfig creates a copy of the base config with its own color stops.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Particle.ColorStops = slices.Clone(fe.baseConfig.Particle.ColorStops)
	return &cfg
}

// computeFitness is the weighted squared relative error against targets.
func (fe *FitnessEvaluator) computeFitness(r runResult) float64 {
	t := fe.targets
	lengthErr := relErr(r.segmentPx, t.SegmentPx)
	segErr := relErr(r.segments, t.Segments)
	dropExcess := max(0, r.dropRate-t.MaxDropRate)

	return weightLength*lengthErr*lengthErr +
		weightSegments*segErr*segErr +
		weightDrops*dropExcess*dropExcess
}

func relErr(got, want float64) float64 {
	if want == 0 {
		return got
	}
	return (got - want) / want
}
