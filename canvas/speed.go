package canvas

import (
	"image"
	"image/color"

	"github.com/pthm-cable/windtrail/colorramp"
	"github.com/pthm-cable/windtrail/field"
)

// SpeedImage colors every raster texel by its speed through the ramp.
// Nodata texels stay transparent.
func SpeedImage(r *field.Raster, table *colorramp.Table) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			c := r.Texel(x, y)
			if !r.HasValues(c) {
				continue
			}
			u, v := r.Values(c)
			rgb := table.Lookup(float32(u*u + v*v))
			img.SetNRGBA(x, y, color.NRGBA{R: ToByte(rgb[0]), G: ToByte(rgb[1]), B: ToByte(rgb[2]), A: 255})
		}
	}
	return img
}

// RampSamples returns n colors evenly spaced in speed over [0, top].
func RampSamples(table *colorramp.Table, top float64, n int) [][3]float32 {
	if n <= 0 {
		return nil
	}
	out := make([][3]float32, n)
	for i := range out {
		s := top * float64(i) / float64(max(n-1, 1))
		out[i] = table.Lookup(float32(s * s))
	}
	return out
}

// ToByte converts a normalized channel to 8 bits.
func ToByte(x float32) uint8 {
	return uint8(max(0, min(x, 1))*255 + 0.5)
}

// Graticule returns meridians and parallels every step degrees as
// polylines sampled every res degrees.
func Graticule(step, res float64) [][][2]float64 {
	var lines [][][2]float64
	for lon := -180.0; lon < 180; lon += step {
		var line [][2]float64
		for lat := -90.0; lat <= 90; lat += res {
			line = append(line, [2]float64{lon, lat})
		}
		lines = append(lines, line)
	}
	for lat := -90 + step; lat < 90; lat += step {
		var line [][2]float64
		for lon := -180.0; lon <= 180; lon += res {
			line = append(line, [2]float64{lon, lat})
		}
		lines = append(lines, line)
	}
	return lines
}
