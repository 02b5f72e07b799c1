// Package canvas projects trail segments to pixels and rasterizes frames
// offscreen.
package canvas

import (
	"math"

	"github.com/pthm-cable/windtrail/particles"
	"github.com/pthm-cable/windtrail/viewport"
)

// ScreenSegment is a trail segment projected to pixels.
type ScreenSegment struct {
	X0, Y0, X1, Y1 float32
	Width          float32
	Color          [4]float32
}

// minAlpha drops segments too faint to see.
const minAlpha = 1.0 / 255

// ProjectSegments projects shaded segments through the camera and appends
// the visible ones to dst. Segments facing away on the globe or crossing
// the planar seam are skipped.
func ProjectSegments(segs []particles.Segment, cam *viewport.Camera, dst []ScreenSegment) []ScreenSegment {
	seam := cam.ViewportW / 2
	for i := range segs {
		s := &segs[i]
		if s.Color[3] < minAlpha {
			continue
		}
		x0, y0, ok0 := cam.WorldToScreen(float64(s.From[0]), float64(s.From[1]))
		x1, y1, ok1 := cam.WorldToScreen(float64(s.To[0]), float64(s.To[1]))
		if !ok0 || !ok1 {
			continue
		}
		if cam.Projection == viewport.Planar && math.Abs(x1-x0) > seam {
			continue
		}
		if offscreen(x0, y0, x1, y1, cam.ViewportW, cam.ViewportH) {
			continue
		}
		dst = append(dst, ScreenSegment{
			X0: float32(x0), Y0: float32(y0),
			X1: float32(x1), Y1: float32(y1),
			Width: s.Width,
			Color: s.Color,
		})
	}
	return dst
}

func offscreen(x0, y0, x1, y1, w, h float64) bool {
	return (x0 < 0 && x1 < 0) || (y0 < 0 && y1 < 0) || (x0 > w && x1 > w) || (y0 > h && y1 > h)
}
