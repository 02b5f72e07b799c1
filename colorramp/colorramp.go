// Package colorramp compiles sparse (speed, color) control points into a fixed
// eight-slot table and maps squared speeds to colors.
package colorramp

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// MaxStops is the number of slots in a compiled table.
const MaxStops = 8

// Stop is one control point. Speed is in ordinary (not squared) units.
type Stop struct {
	Speed float64
	Color string // "#rrggbb", "rrggbb" or "#rgb"
}

// Table is a compiled ramp. Breakpoints hold squared speeds so lookups can
// use squared magnitudes directly.
type Table struct {
	Breakpoints [MaxStops]float32
	Colors      [MaxStops][3]float32
	Stops       int // Number of caller-supplied stops that were compiled
}

// Compile converts up to MaxStops stops into a table. Stops past MaxStops are
// ignored and unused trailing slots stay zero, so speeds beyond the last
// breakpoint of a short ramp resolve to black.
func Compile(stops []Stop) Table {
	var t Table
	n := min(len(stops), MaxStops)
	for i := 0; i < n; i++ {
		s := float32(stops[i].Speed)
		t.Breakpoints[i] = s * s
		t.Colors[i] = ParseColor(stops[i].Color)
	}
	t.Stops = n
	return t
}

// CompileExtended is Compile with the trailing slots repeating the last stop,
// so speeds beyond the last breakpoint keep the last color.
func CompileExtended(stops []Stop) Table {
	t := Compile(stops)
	n := t.Stops
	if n == 0 {
		return t
	}
	for i := n; i < MaxStops; i++ {
		t.Breakpoints[i] = t.Breakpoints[n-1]
		t.Colors[i] = t.Colors[n-1]
	}
	return t
}

// ParseColor decodes a hex color into normalized RGB. Malformed input decodes
// to black.
func ParseColor(s string) [3]float32 {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 7 && len(s) != 4 {
		return [3]float32{}
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return [3]float32{}
	}
	return [3]float32{float32(c.R), float32(c.G), float32(c.B)}
}

// FromFlat builds stops from the flat [speed0, color0, speed1, color1, ...]
// form. Colors may be hex strings or packed 0xRRGGBB integers. Pairs with a
// non-numeric speed are skipped.
func FromFlat(values ...any) []Stop {
	stops := make([]Stop, 0, len(values)/2)
	for i := 0; i+1 < len(values); i += 2 {
		speed, ok := toFloat(values[i])
		if !ok {
			continue
		}
		var color string
		switch c := values[i+1].(type) {
		case string:
			color = c
		case int:
			color = fmt.Sprintf("#%06x", c&0xffffff)
		case uint32:
			color = fmt.Sprintf("#%06x", c&0xffffff)
		}
		stops = append(stops, Stop{Speed: speed, Color: color})
	}
	return stops
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// Lookup maps a squared speed to a color. It finds the first breakpoint i
// with speedSq <= Breakpoints[i] and interpolates between colors i-1 and i
// with a factor clamped to [0,1]; above every breakpoint it returns the last
// color.
func (t *Table) Lookup(speedSq float32) [3]float32 {
	if speedSq <= t.Breakpoints[0] {
		return t.Colors[0]
	}
	for i := 1; i < MaxStops; i++ {
		if speedSq > t.Breakpoints[i] {
			continue
		}
		lo, hi := t.Breakpoints[i-1], t.Breakpoints[i]
		f := float32(1)
		if hi > lo {
			f = clamp01((speedSq - lo) / (hi - lo))
		}
		return mix(t.Colors[i-1], t.Colors[i], f)
	}
	return t.Colors[MaxStops-1]
}

// Cache holds the table compiled from the last-seen stops. Callers may
// rebuild their stop slice every frame; recompilation only happens when the
// content changes.
type Cache struct {
	// Extend compiles with CompileExtended.
	Extend bool

	extended bool
	last     []Stop
	table    Table
	valid    bool
	compiles int
}

// Get returns the compiled table for stops, recompiling on content change.
func (c *Cache) Get(stops []Stop) *Table {
	if !c.valid || c.extended != c.Extend || !slices.Equal(c.last, stops) {
		if c.Extend {
			c.table = CompileExtended(stops)
		} else {
			c.table = Compile(stops)
		}
		c.extended = c.Extend
		c.last = slices.Clone(stops)
		c.valid = true
		c.compiles++
	}
	return &c.table
}

// Compiles returns how many times the cache has compiled a table.
func (c *Cache) Compiles() int {
	return c.compiles
}

// Equal reports whether two stop sequences have the same content.
func Equal(a, b []Stop) bool {
	return slices.Equal(a, b)
}

func mix(a, b [3]float32, f float32) [3]float32 {
	g := 1 - f
	return [3]float32{
		a[0]*g + b[0]*f,
		a[1]*g + b[1]*f,
		a[2]*g + b[2]*f,
	}
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
