// Package field provides the image-encoded 2D vector field sampled by the
// particle layer.
package field

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyRaster is returned for rasters without texels.
var ErrEmptyRaster = errors.New("field: empty raster")

// Filter selects how texels are combined when sampling.
type Filter uint8

const (
	FilterLinear Filter = iota
	FilterNearest
)

// ParseFilter maps a config name to a Filter. Unknown names mean linear.
func ParseFilter(name string) Filter {
	if name == "nearest" {
		return FilterNearest
	}
	return FilterLinear
}

// Raster is an RGBA image whose R and G channels encode the u and v vector
// components. Channels are normalized to [0,1]. Row 0 is the northern edge.
//
// When a declared range is non-degenerate (min < max) channel values decode
// linearly into it and a texel carries data iff its alpha is 1. Otherwise
// channels hold raw component values and a texel carries data iff R is not
// NaN.
type Raster struct {
	Width, Height int
	Data          []float32 // RGBA, 4 per texel, row-major
	URange        [2]float64
	VRange        [2]float64
	Filter        Filter
}

// New creates a zeroed raster (every texel nodata).
func New(width, height int, uRange, vRange [2]float64) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height*4),
		URange: uRange,
		VRange: vRange,
	}
}

// Uniform creates a raster where every texel encodes the same vector.
func Uniform(width, height int, u, v float64, uRange, vRange [2]float64) *Raster {
	r := New(width, height, uRange, vRange)
	cu, cv := r.Encode(u, v)
	for i := 0; i < width*height; i++ {
		r.Data[i*4] = cu
		r.Data[i*4+1] = cv
		r.Data[i*4+3] = 1
	}
	return r
}

// Validate checks the raster dimensions against its data.
func (r *Raster) Validate() error {
	if r == nil || r.Width <= 0 || r.Height <= 0 {
		return ErrEmptyRaster
	}
	if len(r.Data) != r.Width*r.Height*4 {
		return fmt.Errorf("field: data length %d does not match %dx%d RGBA", len(r.Data), r.Width, r.Height)
	}
	return nil
}

// Scaled reports whether channels are range-encoded rather than raw.
func (r *Raster) Scaled() bool {
	return r.URange[0] < r.URange[1]
}

// Set writes one texel.
func (r *Raster) Set(x, y int, c [4]float32) {
	i := (y*r.Width + x) * 4
	copy(r.Data[i:i+4], c[:])
}

// Texel returns one texel.
func (r *Raster) Texel(x, y int) [4]float32 {
	i := (y*r.Width + x) * 4
	return [4]float32{r.Data[i], r.Data[i+1], r.Data[i+2], r.Data[i+3]}
}

// Encode maps vector components to channel values for this raster's ranges.
func (r *Raster) Encode(u, v float64) (cu, cv float32) {
	if !r.Scaled() {
		return float32(u), float32(v)
	}
	cu = float32((u - r.URange[0]) / (r.URange[1] - r.URange[0]))
	cv = float32((v - r.VRange[0]) / (r.VRange[1] - r.VRange[0]))
	return cu, cv
}

// HasValues reports whether a sampled texel carries data.
func (r *Raster) HasValues(c [4]float32) bool {
	if r.Scaled() {
		return c[3] == 1
	}
	return !math.IsNaN(float64(c[0]))
}

// Values decodes the vector components of a sampled texel.
func (r *Raster) Values(c [4]float32) (u, v float64) {
	if !r.Scaled() {
		return float64(c[0]), float64(c[1])
	}
	u = lerp(r.URange[0], r.URange[1], float64(c[0]))
	v = lerp(r.VRange[0], r.VRange[1], float64(c[1]))
	return u, v
}

// SampleUV samples at normalized texture coordinates with clamp-to-edge
// addressing.
func (r *Raster) SampleUV(s, t float64) [4]float32 {
	if r.Filter == FilterNearest {
		x := clampInt(int(math.Floor(s*float64(r.Width))), 0, r.Width-1)
		y := clampInt(int(math.Floor(t*float64(r.Height))), 0, r.Height-1)
		return r.Texel(x, y)
	}

	// Texel centers sit at half-integer coordinates
	fx := s*float64(r.Width) - 0.5
	fy := t*float64(r.Height) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	ax := float32(fx - float64(x0))
	ay := float32(fy - float64(y0))

	x1 := clampInt(x0+1, 0, r.Width-1)
	y1 := clampInt(y0+1, 0, r.Height-1)
	x0 = clampInt(x0, 0, r.Width-1)
	y0 = clampInt(y0, 0, r.Height-1)

	c00 := r.Texel(x0, y0)
	c10 := r.Texel(x1, y0)
	c01 := r.Texel(x0, y1)
	c11 := r.Texel(x1, y1)

	var out [4]float32
	for ch := 0; ch < 3; ch++ {
		top := c00[ch]*(1-ax) + c10[ch]*ax
		bottom := c01[ch]*(1-ax) + c11[ch]*ax
		out[ch] = top*(1-ay) + bottom*ay
	}
	// Alpha is the minimum of the footprint so one nodata texel poisons the sample
	out[3] = min(c00[3], c10[3], c01[3], c11[3])
	return out
}

// Sample samples and decodes at normalized texture coordinates.
func (r *Raster) Sample(s, t float64) (u, v float64, ok bool) {
	c := r.SampleUV(s, t)
	if !r.HasValues(c) {
		return 0, 0, false
	}
	u, v = r.Values(c)
	return u, v, true
}

// UV maps a geographic position to texture coordinates for a raster covering
// bounds [minLon, minLat, maxLon, maxLat]. The northern edge maps to t=0.
func UV(lon, lat float64, bounds [4]float64) (s, t float64) {
	s = (lon - bounds[0]) / (bounds[2] - bounds[0])
	t = (lat - bounds[3]) / (bounds[1] - bounds[3])
	return s, t
}

func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
