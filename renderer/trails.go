// Package renderer draws wind trails and the map beneath them with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windtrail/canvas"
	"github.com/pthm-cable/windtrail/particles"
	"github.com/pthm-cable/windtrail/viewport"
)

// TrailRenderer draws shaded segments as screen-space lines.
type TrailRenderer struct {
	// Additive blending brightens overlapping trails
	Additive bool

	projected []canvas.ScreenSegment
}

// NewTrailRenderer creates a new trail renderer.
func NewTrailRenderer(additive bool) *TrailRenderer {
	return &TrailRenderer{Additive: additive}
}

// Draw renders segments and returns how many were drawn.
func (r *TrailRenderer) Draw(segs []particles.Segment, cam *viewport.Camera) int {
	r.projected = canvas.ProjectSegments(segs, cam, r.projected[:0])

	if r.Additive {
		rl.BeginBlendMode(rl.BlendAdditive)
	} else {
		rl.BeginBlendMode(rl.BlendAlpha)
	}
	for i := range r.projected {
		s := &r.projected[i]
		rl.DrawLineEx(
			rl.Vector2{X: s.X0, Y: s.Y0},
			rl.Vector2{X: s.X1, Y: s.Y1},
			s.Width,
			toColor(s.Color),
		)
	}
	rl.EndBlendMode()

	return len(r.projected)
}

func toColor(c [4]float32) rl.Color {
	return rl.Color{R: canvas.ToByte(c[0]), G: canvas.ToByte(c[1]), B: canvas.ToByte(c[2]), A: canvas.ToByte(c[3])}
}
