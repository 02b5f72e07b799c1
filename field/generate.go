package field

import (
	"math"

	"github.com/ojrac/opensimplex-go"
)

// Params configures the synthetic wind generator.
type Params struct {
	Width, Height int
	Seed          int64
	Scale         float64 // Base noise frequency around the globe
	Octaves       int
	Strength      float64 // Peak component magnitude
	Time          float64 // Animation offset along the fourth noise axis
	URange        [2]float64
	VRange        [2]float64
}

// Generate builds a global (-180..180, -90..90) wind raster from simplex
// noise. Noise is sampled on a cylinder so the field is seamless across the
// antimeridian, and a zonal jet profile is added so the result reads as wind
// rather than turbulence.
func Generate(p Params) *Raster {
	r := New(p.Width, p.Height, p.URange, p.VRange)
	noiseU := opensimplex.New(p.Seed)
	noiseV := opensimplex.New(p.Seed + 1)

	octaves := max(p.Octaves, 1)
	for y := 0; y < p.Height; y++ {
		lat := 90 - (float64(y)+0.5)/float64(p.Height)*180
		latRad := lat * math.Pi / 180
		// Westerlies at mid-latitudes, easterlies near the equator
		jet := -math.Cos(3*latRad) * 0.6

		for x := 0; x < p.Width; x++ {
			lon := -180 + (float64(x)+0.5)/float64(p.Width)*360
			theta := lon * math.Pi / 180

			cx := math.Cos(theta) * p.Scale
			cy := math.Sin(theta) * p.Scale
			cz := latRad * p.Scale

			u := fbm(noiseU, cx, cy, cz, p.Time, octaves) + jet
			v := fbm(noiseV, cx, cy, cz, p.Time, octaves) * 0.6

			cu, cv := r.Encode(clampRange(u*p.Strength, p.URange), clampRange(v*p.Strength, p.VRange))
			r.Set(x, y, [4]float32{cu, cv, 0, 1})
		}
	}
	return r
}

func fbm(n opensimplex.Noise, x, y, z, t float64, octaves int) float64 {
	sum := 0.0
	amp := 0.5
	freq := 1.0
	for o := 0; o < octaves; o++ {
		sum += amp * n.Eval4(x*freq, y*freq, z*freq, t)
		freq *= 2
		amp *= 0.5
	}
	return sum
}

func clampRange(x float64, r [2]float64) float64 {
	if r[0] >= r[1] {
		return x
	}
	return math.Max(r[0], math.Min(r[1], x))
}
