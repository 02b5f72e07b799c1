package renderer

import (
	"image"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windtrail/canvas"
	"github.com/pthm-cable/windtrail/colorramp"
	"github.com/pthm-cable/windtrail/field"
	"github.com/pthm-cable/windtrail/viewport"
)

// FieldOverlay draws the wind speed raster beneath the trails.
type FieldOverlay struct {
	texture rl.Texture2D
	loaded  bool
	source  *field.Raster
	table   colorramp.Table
	img     *image.NRGBA

	// Opacity of the overlay in [0, 1]
	Opacity float32
}

// NewFieldOverlay creates an overlay; textures load lazily on first draw.
func NewFieldOverlay(opacity float32) *FieldOverlay {
	return &FieldOverlay{Opacity: opacity}
}

// Update re-colors the overlay when the raster or ramp changes.
func (o *FieldOverlay) Update(r *field.Raster, table *colorramp.Table) {
	if r == o.source && *table == o.table && (o.img != nil || r == nil) {
		return
	}
	o.source = r
	o.table = *table
	o.img = nil
	if r != nil {
		o.img = canvas.SpeedImage(r, table)
	}
	o.unloadTexture()
}

// Draw renders the overlay over the raster bounds. Planar views repeat the
// overlay across the antimeridian; globe views draw one projected cell per
// texel.
func (o *FieldOverlay) Draw(cam *viewport.Camera, bounds [4]float64) {
	if o.img == nil || o.Opacity <= 0 {
		return
	}
	tint := rl.Fade(rl.White, o.Opacity)

	if cam.Projection == viewport.Globe {
		o.drawGlobe(cam, bounds, tint)
		return
	}

	if !o.loaded {
		img := rl.NewImageFromImage(o.img)
		o.texture = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		rl.SetTextureFilter(o.texture, rl.FilterBilinear)
		o.loaded = true
	}

	scale := cam.DegreesPerPixel()
	src := rl.Rectangle{Width: float32(o.texture.Width), Height: float32(o.texture.Height)}
	for _, shift := range []float64{-360, 0, 360} {
		x0 := cam.ViewportW/2 + (bounds[0]+shift-cam.Longitude)/scale
		x1 := cam.ViewportW/2 + (bounds[2]+shift-cam.Longitude)/scale
		y0 := cam.ViewportH/2 - (bounds[3]-cam.Latitude)/scale
		y1 := cam.ViewportH/2 - (bounds[1]-cam.Latitude)/scale
		if x1 < 0 || x0 > cam.ViewportW {
			continue
		}
		dst := rl.Rectangle{X: float32(x0), Y: float32(y0), Width: float32(x1 - x0), Height: float32(y1 - y0)}
		rl.DrawTexturePro(o.texture, src, dst, rl.Vector2{}, 0, tint)
	}
}

func (o *FieldOverlay) drawGlobe(cam *viewport.Camera, bounds [4]float64, tint rl.Color) {
	b := o.img.Bounds()
	w, h := b.Dx(), b.Dy()
	dLon := (bounds[2] - bounds[0]) / float64(w)
	dLat := (bounds[3] - bounds[1]) / float64(h)
	for y := 0; y < h; y++ {
		lat := bounds[3] - (float64(y)+0.5)*dLat
		for x := 0; x < w; x++ {
			c := o.img.NRGBAAt(x, y)
			if c.A == 0 {
				continue
			}
			lon := bounds[0] + (float64(x)+0.5)*dLon
			sx, sy, ok := cam.WorldToScreen(lon, lat)
			if !ok {
				continue
			}
			ex, _, _ := cam.WorldToScreen(lon+dLon, lat)
			size := max(1, float32(ex-sx))
			col := rl.Color{R: c.R, G: c.G, B: c.B, A: tint.A}
			rl.DrawRectangleV(rl.Vector2{X: float32(sx) - size/2, Y: float32(sy) - size/2}, rl.Vector2{X: size, Y: size}, col)
		}
	}
}

func (o *FieldOverlay) unloadTexture() {
	if o.loaded {
		rl.UnloadTexture(o.texture)
		o.loaded = false
	}
}

// Unload frees resources.
func (o *FieldOverlay) Unload() {
	o.unloadTexture()
}
