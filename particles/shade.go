package particles

import (
	"github.com/pthm-cable/windtrail/colorramp"
	"github.com/pthm-cable/windtrail/field"
	"github.com/pthm-cable/windtrail/viewport"
)

// ColorMode selects how trail segments are colored.
type ColorMode uint8

const (
	ColorSpeed  ColorMode = iota // Speed-shaded ramp
	ColorStatic                  // Single static color
)

// ParseColorMode maps a config name to a ColorMode.
func ParseColorMode(name string) ColorMode {
	if name == "static" {
		return ColorStatic
	}
	return ColorSpeed
}

// Segment is one renderable trail piece between consecutive ages.
type Segment struct {
	From  [2]float32 // Newer endpoint, lon/lat
	To    [2]float32 // Older endpoint, lon/lat
	Color [4]float32 // RGBA, alpha from the age fade
	Width float32
	Age   int
}

// shader carries the per-draw inputs of segment shading.
type shader struct {
	mode   ColorMode
	static [3]float32
	table  *colorramp.Table
	raster *field.Raster
	bounds [4]float64
}

// shade appends a segment for every instance whose endpoints are both live.
// Instance j connects current[j] to next[j]; after a step next holds the
// previous state, whose bucket j is the current bucket j+1.
func (sh *shader) shade(s *Store, dst []Segment) []Segment {
	if !s.initialized {
		return dst
	}
	cur, prev := s.current, s.next
	n := s.NumInstances()
	for j := 0; j < n; j++ {
		o := j * 3
		fx, fy := cur[o], cur[o+1]
		tx, ty := prev[o], prev[o+1]
		if isDropped(fx, fy) || isDropped(tx, ty) {
			continue
		}

		rgb := sh.static
		if sh.mode == ColorSpeed {
			rgb = sh.table.Lookup(sh.speedSq(fx, fy))
		}
		dst = append(dst, Segment{
			From:  [2]float32{fx, fy},
			To:    [2]float32{tx, ty},
			Color: [4]float32{rgb[0], rgb[1], rgb[2], s.Alpha(j)},
			Width: s.width,
			Age:   j / s.numParticles,
		})
	}
	return dst
}

// speedSq samples the field at a segment's source endpoint and returns the
// squared magnitude, 0 when there is no data.
func (sh *shader) speedSq(x, y float32) float32 {
	if sh.raster == nil {
		return 0
	}
	lon := viewport.WrapLongitudeFrom(float64(x), sh.bounds[0])
	s, t := field.UV(lon, float64(y), sh.bounds)
	u, v, ok := sh.raster.Sample(s, t)
	if !ok {
		return 0
	}
	return float32(u*u + v*v)
}
