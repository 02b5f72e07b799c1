package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windtrail/particles"
	"github.com/pthm-cable/windtrail/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title      string
	Tick       int64
	FPS        int32
	Zoom       float64
	Center     [2]float64
	Projection string
	Stats      particles.StepStats
	Segments   int
	Paused     bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD at the top right of the screen.
func (h *HUD) Draw(screenW int32, data HUDData) {
	lines := []string{
		data.Title,
		fmt.Sprintf("Tick: %d | FPS: %d | %s", data.Tick, data.FPS, data.Projection),
		fmt.Sprintf("Center: %.2f, %.2f | Zoom: %.2f", data.Center[0], data.Center[1], data.Zoom),
		fmt.Sprintf("Alive: %d | Respawned: %d | Dropped: %d", data.Stats.Alive(), data.Stats.Respawned, data.Stats.Dropped()),
		fmt.Sprintf("Segments: %d | Mean speed: %.1f", data.Segments, data.Stats.MeanSpeed()),
	}

	y := int32(10)
	for i, line := range lines {
		size := int32(16)
		if i == 0 {
			size = 20
		}
		w := rl.MeasureText(line, size)
		rl.DrawText(line, screenW-w-10, y, size, rl.RayWhite)
		y += size + 4
	}
	if data.Paused {
		rl.DrawText("PAUSED", screenW-80, y, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders frame phase timings.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	t := r.Theme
	phases := []string{
		telemetry.PhaseField, telemetry.PhaseAdvect, telemetry.PhaseShift,
		telemetry.PhaseShade, telemetry.PhaseStream, telemetry.PhaseTelemetry,
	}
	height := t.Padding*2 + (t.LineHeight+2)*int32(len(phases)+4)
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + t.Padding
	y := r.DrawSectionHeader(x, p.y+t.Padding, "Performance")
	y = r.DrawLabelValue(x, y, "frame", fmt.Sprintf("%d us", stats.AvgFrame.Microseconds()))
	y = r.DrawLabelValue(x, y, "p95", fmt.Sprintf("%d us", stats.P95Frame.Microseconds()))
	y = r.DrawLabelValue(x, y, "step ratio", fmt.Sprintf("%.2f", stats.StepRatio))
	for _, phase := range phases {
		y = r.DrawBar(x, y, phase, float32(stats.PhasePct[phase]/100), p.width-t.Padding*2)
	}
}
