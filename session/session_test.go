package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/windtrail/config"
)

const dt = 1.0 / 60

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Screen.Width = 320
	cfg.Screen.Height = 200
	cfg.Particle.NumParticles = 64
	cfg.Particle.MaxAge = 5
	cfg.Field.Synthetic.Width = 36
	cfg.Field.Synthetic.Height = 18
	cfg.Viewport.Zoom = 0
	cfg.Viewport.Latitude = 0
	cfg.Workers = 2
	cfg.Telemetry.StatsWindow = 5
	return cfg
}

func newTestSession(t *testing.T, cfg *config.Config, opts Options) *Session {
	t.Helper()
	opts.Seed = 1
	s, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionStepsAfterFirstDraw(t *testing.T) {
	s := newTestSession(t, testConfig(t), Options{})

	s.Frame(dt)
	if s.Stepped() {
		t.Fatal("expected no step before the first draw requested one")
	}
	for i := 0; i < 9; i++ {
		s.Frame(dt)
		if !s.Stepped() {
			t.Fatalf("expected a step on frame %d", s.Tick())
		}
	}

	if got := s.Layer().Scheduler().Executed(); got != 9 {
		t.Errorf("expected 9 executed steps, got %d", got)
	}
	if len(s.Segments()) == 0 {
		t.Error("expected visible segments after several steps")
	}
}

func openFiles(t *testing.T) int {
	t.Helper()
	fds, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skipf("open file count unavailable: %v", err)
	}
	return len(fds)
}

func TestNewClosesOutputOnFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	before := openFiles(t)

	// The frames dir sits under a regular file, so creating it fails after
	// steps.csv and perf.csv are open
	_, err := New(testConfig(t), Options{
		OutputDir: filepath.Join(dir, "out"),
		FramesDir: filepath.Join(blocker, "frames"),
	})
	if err == nil {
		t.Fatal("expected error for unusable frames dir")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "out", "steps.csv")); statErr != nil {
		t.Fatalf("expected output created before the failure: %v", statErr)
	}
	if after := openFiles(t); after != before {
		t.Errorf("expected %d open files after failed New, got %d", before, after)
	}
}

func TestSessionPausedDoesNotStep(t *testing.T) {
	cfg := testConfig(t)
	cfg.Particle.Animate = false
	s := newTestSession(t, cfg, Options{})

	for i := 0; i < 5; i++ {
		s.Frame(dt)
	}
	if s.Layer().Scheduler().Executed() != 0 {
		t.Fatal("expected no steps while paused")
	}

	s.StepOnce()
	s.Frame(dt)
	if !s.Stepped() {
		t.Error("expected a manual step to run on the next frame")
	}
}

func TestSessionFixedCadence(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scheduler.Cadence = "fixed"
	cfg.Scheduler.FixedHz = 10
	cfg = reload(t, cfg)
	s := newTestSession(t, cfg, Options{})

	for i := 0; i < 31; i++ {
		s.Frame(dt)
	}

	// Half a second at 10 Hz
	got := s.Layer().Scheduler().Executed()
	if got < 4 || got > 6 {
		t.Errorf("expected about 5 steps at 10 Hz, got %d", got)
	}
}

func TestSessionWritesTelemetry(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, testConfig(t), Options{OutputDir: dir})

	for i := 0; i < 20; i++ {
		s.Frame(dt)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "steps.csv"))
	if err != nil {
		t.Fatal(err)
	}
	// 19 steps in windows of 5
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Errorf("expected header plus 3 windows, got %d lines", len(lines))
	}
	if s.LastWindow().Steps != 5 {
		t.Errorf("expected a 5-step window, got %d", s.LastWindow().Steps)
	}
	if _, err := os.Stat(filepath.Join(dir, "perf.csv")); err != nil {
		t.Errorf("expected perf.csv: %v", err)
	}
}

func TestSessionExportsFrames(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, testConfig(t), Options{FramesDir: dir, FrameEvery: 5})

	for i := 0; i < 10; i++ {
		s.Frame(dt)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "frame_*.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Errorf("expected 2 frames, got %d", len(matches))
	}
}

func TestSessionRunStopsAtMaxTicks(t *testing.T) {
	s := newTestSession(t, testConfig(t), Options{})

	if err := s.Run(context.Background(), dt, 12, ""); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Tick() != 12 {
		t.Errorf("expected 12 ticks, got %d", s.Tick())
	}
}

func TestSessionRunCancelled(t *testing.T) {
	s := newTestSession(t, testConfig(t), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, dt, 0, ""); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Tick() != 0 {
		t.Errorf("expected no frames after cancel, got %d", s.Tick())
	}
}

// reload recomputes derived values after editing a loaded config.
func reload(t *testing.T, cfg *config.Config) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}
	out, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return out
}
