package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/windtrail/config"
	"github.com/pthm-cable/windtrail/particles"
)

func TestComputeSpeedStats(t *testing.T) {
	values := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	mean, std, p10, p50, p90 := ComputeSpeedStats(values)

	if math.Abs(mean-5.5) > 1e-9 {
		t.Errorf("mean = %v, want 5.5", mean)
	}
	if math.Abs(std-math.Sqrt(8.25)) > 1e-9 {
		t.Errorf("std = %v, want %v", std, math.Sqrt(8.25))
	}

	// Empirical quantiles pick the first value whose cumulative weight reaches p
	if p10 != 1 || p50 != 5 || p90 != 9 {
		t.Errorf("percentiles = %v/%v/%v, want 1/5/9", p10, p50, p90)
	}
	if values[0] != 10 {
		t.Error("expected input slice left unsorted")
	}
}

func TestComputeSpeedStatsEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeSpeedStats(nil)

	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(3)
	c.SetNumParticles(10)

	for tick := int64(1); tick <= 3; tick++ {
		if c.ShouldFlush() {
			t.Fatalf("unexpected flush before step %d", tick)
		}
		c.RecordStep(particles.StepStats{
			Tick:          tick,
			Advected:      8,
			Respawned:     1,
			DroppedBounds: 1,
			SpeedSum:      8 * float64(tick),
			MaxSpeed:      float64(tick) + 1,
		})
	}
	c.RecordSegments(42)

	if !c.ShouldFlush() {
		t.Fatal("expected flush after 3 steps")
	}
	s := c.Flush(1.5)

	if s.WindowStartTick != 1 || s.WindowEndTick != 3 || s.Steps != 3 {
		t.Errorf("unexpected window %d-%d (%d steps)", s.WindowStartTick, s.WindowEndTick, s.Steps)
	}
	if s.Alive != 9 || s.Respawned != 3 || s.DroppedBounds != 3 || s.Segments != 42 {
		t.Errorf("unexpected counts %+v", s)
	}
	if math.Abs(s.DropRate-0.1) > 1e-9 {
		t.Errorf("drop rate = %v, want 0.1", s.DropRate)
	}
	if s.SpeedMean != 2 || s.SpeedMax != 4 {
		t.Errorf("speed mean/max = %v/%v, want 2/4", s.SpeedMean, s.SpeedMax)
	}

	if c.ShouldFlush() {
		t.Error("expected counters reset after flush")
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := int64(1); i <= 2; i++ {
		if err := om.WriteStats(WindowStats{WindowEndTick: i * 60, Steps: 60}); err != nil {
			t.Fatalf("WriteStats: %v", err)
		}
		if err := om.WritePerf(PerfStats{}, i*60); err != nil {
			t.Fatalf("WritePerf: %v", err)
		}
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "steps.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,sim_time,steps") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if strings.Contains(lines[2], "window_end") {
		t.Error("expected header only once")
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("expected config.yaml: %v", err)
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager, got %v, %v", om, err)
	}
	// Nil receiver is safe
	if err := om.WriteStats(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}
