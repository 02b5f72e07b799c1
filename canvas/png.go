package canvas

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"

	"github.com/pthm-cable/windtrail/particles"
	"github.com/pthm-cable/windtrail/viewport"
)

// PNGExporter rasterizes trail frames offscreen, for headless runs.
type PNGExporter struct {
	dir        string
	every      int64
	background color.Color

	projected []ScreenSegment
	written   int
}

// NewPNGExporter creates an exporter writing every Nth frame into dir.
// Returns nil if dir is empty (export disabled).
func NewPNGExporter(dir string, every int64, background [3]uint8) (*PNGExporter, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating frames directory: %w", err)
	}
	return &PNGExporter{
		dir:        dir,
		every:      max(every, 1),
		background: color.NRGBA{R: background[0], G: background[1], B: background[2], A: 255},
	}, nil
}

// Render draws segments into a new image sized to the camera viewport.
func (e *PNGExporter) Render(segs []particles.Segment, cam *viewport.Camera) image.Image {
	dc := gg.NewContext(int(cam.ViewportW), int(cam.ViewportH))
	dc.SetColor(e.background)
	dc.Clear()
	dc.SetLineCapRound()

	e.projected = ProjectSegments(segs, cam, e.projected[:0])
	for i := range e.projected {
		s := &e.projected[i]
		dc.SetRGBA(float64(s.Color[0]), float64(s.Color[1]), float64(s.Color[2]), float64(s.Color[3]))
		dc.SetLineWidth(float64(s.Width))
		dc.DrawLine(float64(s.X0), float64(s.Y0), float64(s.X1), float64(s.Y1))
		dc.Stroke()
	}
	return dc.Image()
}

// Export writes the frame for tick if it falls on the export interval.
func (e *PNGExporter) Export(tick int64, segs []particles.Segment, cam *viewport.Camera) error {
	if e == nil || tick%e.every != 0 {
		return nil
	}
	path := filepath.Join(e.dir, fmt.Sprintf("frame_%06d.png", tick))
	if err := gg.SavePNG(path, e.Render(segs, cam)); err != nil {
		return fmt.Errorf("writing frame %d: %w", tick, err)
	}
	e.written++
	slog.Debug("frame exported", "tick", tick, "path", path, "segments", len(e.projected))
	return nil
}

// Written returns how many frames have been written.
func (e *PNGExporter) Written() int {
	if e == nil {
		return 0
	}
	return e.written
}
