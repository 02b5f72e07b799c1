package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windtrail/canvas"
	"github.com/pthm-cable/windtrail/colorramp"
	"github.com/pthm-cable/windtrail/particles"
)

// Action is a one-shot command issued from the controls panel.
type Action uint8

const (
	ActionNone Action = iota
	ActionStep
	ActionClear
	ActionProjection
)

// Slider ranges for the particle props.
const (
	minParticles = 100
	maxParticles = 100_000
	maxTrailAge  = 100
	maxSpeed     = 200
	maxWidth     = 8
)

// ControlsPanel edits the particle props with raygui sliders.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
	ramp     colorramp.Cache
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point is over the panel, so camera
// input can ignore it.
func (c *ControlsPanel) Contains(x, y float32) bool {
	if !c.visible {
		return false
	}
	return x >= float32(c.x) && x <= float32(c.x+c.width) && y >= float32(c.y) && y <= float32(c.y+c.height())
}

func (c *ControlsPanel) height() int32 {
	t := c.renderer.Theme
	return t.Padding*2 + t.LineHeight*2 + 5*(t.LineHeight+24) + 3*38 + 40
}

// Draw renders the panel and returns the edited props and any action.
func (c *ControlsPanel) Draw(p particles.Props) (particles.Props, Action) {
	if !c.visible {
		return p, ActionNone
	}

	r := c.renderer
	t := r.Theme
	r.DrawPanel(c.x, c.y, c.width, c.height())

	x := float32(c.x + t.Padding)
	y := c.y + t.Padding
	w := float32(c.width - t.Padding*2)

	y = r.DrawSectionHeader(c.x+t.Padding, y, "Particles")

	slider := func(label, value string, v, lo, hi float32) float32 {
		rl.DrawText(label, int32(x), y, t.FontSize, t.LabelColor)
		rl.DrawText(value, int32(x+w-60), y, t.FontSize, t.ValueColor)
		y += t.LineHeight
		out := gui.SliderBar(rl.Rectangle{X: x, Y: float32(y), Width: w - 70, Height: 16}, "", "", v, lo, hi)
		y += 24
		return out
	}

	p.NumParticles = SnapInt(slider("numParticles", fmt.Sprint(p.NumParticles),
		float32(p.NumParticles), minParticles, maxParticles), 100)
	p.MaxAge = SnapInt(slider("maxAge", fmt.Sprint(p.MaxAge),
		float32(p.MaxAge), 1, maxTrailAge), 1)
	p.SpeedFactor = float64(slider("speedFactor", fmt.Sprintf("%.1f", p.SpeedFactor),
		float32(p.SpeedFactor), 0, maxSpeed))
	p.Width = Snap(float64(slider("width", fmt.Sprintf("%.1f", p.Width),
		float32(p.Width), 0.5, maxWidth)), 0.5)
	p.Opacity = Snap(float64(slider("opacity", fmt.Sprintf("%.2f", p.Opacity),
		float32(p.Opacity), 0, 1)), 0.05)

	action := ActionNone
	bw := (w - 10) / 2
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: bw, Height: 30}, toggleText(p.Animate, "Pause", "Animate")) {
		p.Animate = !p.Animate
	}
	if gui.Button(rl.Rectangle{X: x + bw + 10, Y: float32(y), Width: bw, Height: 30}, colorModeText(p.ColorMode)) {
		if p.ColorMode == particles.ColorSpeed {
			p.ColorMode = particles.ColorStatic
		} else {
			p.ColorMode = particles.ColorSpeed
		}
	}
	y += 38
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: bw, Height: 30}, "Step") {
		action = ActionStep
	}
	if gui.Button(rl.Rectangle{X: x + bw + 10, Y: float32(y), Width: bw, Height: 30}, "Clear") {
		action = ActionClear
	}
	y += 38
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: w, Height: 30}, "Toggle projection") {
		action = ActionProjection
	}
	y += 38

	c.drawLegend(int32(x), y, int32(w), p)
	return p, action
}

// drawLegend draws the speed ramp as a gradient strip.
func (c *ControlsPanel) drawLegend(x, y, w int32, p particles.Props) {
	t := c.renderer.Theme
	if p.ColorMode == particles.ColorStatic {
		rl.DrawText("static "+p.StaticColor, x, y, t.FontSize, t.LabelColor)
		return
	}
	top := topSpeed(p.ColorStops)
	c.ramp.Extend = p.ExtendRamp
	samples := canvas.RampSamples(c.ramp.Get(p.ColorStops), top, int(w))
	for i, rgb := range samples {
		rl.DrawRectangle(x+int32(i), y, 1, 12, ToColor([4]float32{rgb[0], rgb[1], rgb[2], 1}))
	}
	rl.DrawText("0", x, y+14, t.FontSize, t.LabelColor)
	label := fmt.Sprintf("%.0f", top)
	rl.DrawText(label, x+w-rl.MeasureText(label, t.FontSize), y+14, t.FontSize, t.LabelColor)
}

// SnapInt rounds v to the nearest multiple of step, at least step.
func SnapInt(v float32, step int) int {
	n := int(math.Round(float64(v)/float64(step))) * step
	return max(n, step)
}

// Snap rounds v to the nearest multiple of step.
func Snap(v, step float64) float64 {
	return math.Round(v/step) * step
}

func topSpeed(stops []colorramp.Stop) float64 {
	if len(stops) == 0 {
		return 1
	}
	n := min(len(stops), colorramp.MaxStops)
	return max(stops[n-1].Speed, 1)
}

func colorModeText(m particles.ColorMode) string {
	if m == particles.ColorStatic {
		return "Static color"
	}
	return "Speed color"
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
