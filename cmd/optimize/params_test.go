package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/windtrail/config"
)

func TestParamVectorNormalizeRoundtrip(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector(cfg)

	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: expected %v, got %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestParamVectorApplyClampsAndRounds(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector(cfg)

	pv.ApplyToConfig(cfg, []float64{500, 12.6, 100})

	if cfg.Particle.SpeedFactor != 200 {
		t.Errorf("expected speed factor clamped to 200, got %v", cfg.Particle.SpeedFactor)
	}
	if cfg.Particle.MaxAge != 13 {
		t.Errorf("expected max age rounded to 13, got %d", cfg.Particle.MaxAge)
	}
	if cfg.Particle.NumParticles != 500 {
		t.Errorf("expected particles clamped to 500, got %d", cfg.Particle.NumParticles)
	}

	got := pv.ExtractFromConfig(cfg)
	if got[0] != 200 || got[1] != 13 || got[2] != 500 {
		t.Errorf("unexpected extracted values %v", got)
	}
}

func TestComputeFitnessPrefersTargets(t *testing.T) {
	fe := &FitnessEvaluator{targets: Targets{SegmentPx: 2.5, Segments: 1000, MaxDropRate: 0.1}}

	exact := fe.computeFitness(runResult{segmentPx: 2.5, segments: 1000, dropRate: 0.05})
	if exact != 0 {
		t.Errorf("expected zero fitness at target, got %v", exact)
	}
	off := fe.computeFitness(runResult{segmentPx: 5, segments: 1000, dropRate: 0.05})
	drops := fe.computeFitness(runResult{segmentPx: 2.5, segments: 1000, dropRate: 0.3})
	if off <= exact || drops <= exact {
		t.Errorf("expected penalties, got off=%v drops=%v", off, drops)
	}
}
