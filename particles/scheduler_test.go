package particles

import (
	"testing"
	"time"
)

func TestRequestStepCoalesces(t *testing.T) {
	s := NewScheduler(CadenceFrame, 0)

	if !s.RequestStep() {
		t.Error("expected first request to be accepted")
	}
	if s.RequestStep() {
		t.Error("expected second request to be coalesced")
	}
	if s.State() != StepPending {
		t.Errorf("expected %v, got %v", StepPending, s.State())
	}

	steps := 0
	s.OnTick(FrameTime{Tick: 1}, func(FrameTime) { steps++ })
	s.OnTick(FrameTime{Tick: 2}, func(FrameTime) { steps++ })

	if steps != 1 {
		t.Errorf("expected exactly one step, got %d", steps)
	}
	if s.State() != Idle {
		t.Errorf("expected %v after step, got %v", Idle, s.State())
	}
	if s.Requests() != 2 || s.Executed() != 1 {
		t.Errorf("expected 2 requests and 1 execution, got %d and %d", s.Requests(), s.Executed())
	}
}

func TestOnTickIdleDoesNothing(t *testing.T) {
	s := NewScheduler(CadenceFrame, 0)
	if s.OnTick(FrameTime{Tick: 1}, func(FrameTime) { t.Error("unexpected step") }) {
		t.Error("expected idle tick to report no step")
	}
}

func TestFixedCadenceWaitsForInterval(t *testing.T) {
	s := NewScheduler(CadenceFixed, time.Second/30)
	steps := 0
	step := func(FrameTime) { steps++ }

	s.RequestStep()
	s.OnTick(FrameTime{Tick: 1, Seconds: 0}, step)

	s.RequestStep()
	if s.OnTick(FrameTime{Tick: 2, Seconds: 0.01}, step) {
		t.Error("expected step to wait for the interval")
	}
	if s.State() != StepPending {
		t.Error("expected request to stay pending")
	}
	if !s.OnTick(FrameTime{Tick: 3, Seconds: 0.04}, step) {
		t.Error("expected step once the interval elapsed")
	}
	if steps != 2 {
		t.Errorf("expected 2 steps, got %d", steps)
	}
}

func TestCancelAbandonsPendingStep(t *testing.T) {
	s := NewScheduler(CadenceFrame, 0)
	s.RequestStep()
	s.Cancel()

	if s.OnTick(FrameTime{Tick: 1}, func(FrameTime) { t.Error("unexpected step") }) {
		t.Error("expected cancelled step not to run")
	}
}

func TestParseCadence(t *testing.T) {
	if ParseCadence("fixed") != CadenceFixed || ParseCadence("frame") != CadenceFrame || ParseCadence("") != CadenceFrame {
		t.Error("unexpected cadence parsing")
	}
}
