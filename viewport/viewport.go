// Package viewport describes what part of the world the host is showing and
// provides the planar and globe geometry the particle layer needs.
package viewport

import "math"

// EarthRadius is the sphere radius in meters used for globe distances.
const EarthRadius = 6370972.0

// TileSize is the pixel width of the whole world at zoom 0.
const TileSize = 512.0

// Projection identifies how the host maps geographic coordinates to screen.
type Projection uint8

const (
	Planar Projection = iota
	Globe
)

// String returns the config name of the projection.
func (p Projection) String() string {
	if p == Globe {
		return "globe"
	}
	return "planar"
}

// ParseProjection maps a config name to a Projection.
func ParseProjection(name string) Projection {
	if name == "globe" {
		return Globe
	}
	return Planar
}

// Viewport is a snapshot of the host view, captured once per step.
type Viewport struct {
	Projection  Projection
	Zoom        float64
	Bounds      [4]float64 // Visible minLon, minLat, maxLon, maxLat (planar)
	GlobeCenter [2]float64 // lon, lat (globe)
	GlobeRadius float64    // Visible great-circle radius in meters (globe)
}

// IsGlobe reports whether the snapshot uses the globe projection.
func (v Viewport) IsGlobe() bool {
	return v.Projection == Globe
}

// Contains reports whether a position is inside the visible area.
func (v Viewport) Contains(lon, lat float64) bool {
	if v.IsGlobe() {
		return DistanceTo(v.GlobeCenter, [2]float64{lon, lat}) <= v.GlobeRadius
	}
	return InBounds(lon, lat, v.Bounds)
}

// PointToPosition maps a point in the unit square to a position inside the
// visible area. Globe points are spread over the visible cap with sqrt
// radial density so they are uniform by area.
func (v Viewport) PointToPosition(px, py float64) (lon, lat float64) {
	if v.IsGlobe() {
		px += 0.0001 // keep respawns off the exact center
		dist := math.Sqrt(px) * v.GlobeRadius
		heading := py * 360
		p := DestinationPoint(v.GlobeCenter, dist, heading)
		return p[0], p[1]
	}
	lon = v.Bounds[0] + (v.Bounds[2]-v.Bounds[0])*px
	lat = v.Bounds[1] + (v.Bounds[3]-v.Bounds[1])*py
	return lon, lat
}

// ZoomChangeFactor returns 2^((prev-cur)*k). Non-finite results (including an
// unset previous zoom) default to the neutral factor 1.
func ZoomChangeFactor(prev, cur, k float64) float64 {
	f := math.Exp2((prev - cur) * k)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}
	return f
}

// SpeedScale converts a user speed factor into degrees per unit of field
// value at the given zoom: speedFactor / 2^(zoom+7). Non-finite scales
// collapse to zero so they never reach particle positions.
func SpeedScale(speedFactor, zoom float64) float64 {
	s := speedFactor / math.Exp2(zoom+7)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return s
}
