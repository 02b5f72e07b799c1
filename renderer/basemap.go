package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windtrail/canvas"
	"github.com/pthm-cable/windtrail/viewport"
)

// Basemap draws the backdrop: ocean fill, the globe limb and a graticule.
type Basemap struct {
	Background rl.Color
	Ocean      rl.Color
	Grid       rl.Color

	// Graticule spacing in degrees; 0 disables the grid
	GridStep float64
}

// NewBasemap creates a basemap with the given colors.
func NewBasemap(background, ocean [3]uint8, gridStep float64) *Basemap {
	return &Basemap{
		Background: rl.Color{R: background[0], G: background[1], B: background[2], A: 255},
		Ocean:      rl.Color{R: ocean[0], G: ocean[1], B: ocean[2], A: 255},
		Grid:       rl.Color{R: 255, G: 255, B: 255, A: 28},
		GridStep:   gridStep,
	}
}

// Draw renders the backdrop for the current camera.
func (b *Basemap) Draw(cam *viewport.Camera) {
	rl.ClearBackground(b.Background)

	if cam.Projection == viewport.Globe {
		rl.DrawCircle(int32(cam.ViewportW/2), int32(cam.ViewportH/2), float32(cam.GlobePixelRadius()), b.Ocean)
	} else {
		_, y0, _ := cam.WorldToScreen(cam.Longitude, 90)
		_, y1, _ := cam.WorldToScreen(cam.Longitude, -90)
		rl.DrawRectangle(0, int32(y0), int32(cam.ViewportW), int32(y1-y0), b.Ocean)
	}

	if b.GridStep <= 0 {
		return
	}
	for _, line := range canvas.Graticule(b.GridStep, 2) {
		for i := 1; i < len(line); i++ {
			x0, y0, ok0 := cam.WorldToScreen(line[i-1][0], line[i-1][1])
			x1, y1, ok1 := cam.WorldToScreen(line[i][0], line[i][1])
			if !ok0 || !ok1 {
				continue
			}
			if cam.Projection == viewport.Planar && abs(x1-x0) > cam.ViewportW/2 {
				continue
			}
			rl.DrawLineV(rl.Vector2{X: float32(x0), Y: float32(y0)}, rl.Vector2{X: float32(x1), Y: float32(y1)}, b.Grid)
		}
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
