package viewport

import "math"

// Camera controls the map view and produces per-step viewport snapshots.
// Zoom is logarithmic: the world is TileSize*2^Zoom pixels wide.
type Camera struct {
	// Center of the view in degrees
	Longitude, Latitude float64

	Zoom float64

	// Viewport dimensions (screen size in pixels)
	ViewportW, ViewportH float64

	Projection Projection

	// Zoom constraints
	MinZoom, MaxZoom float64
}

// NewCamera creates a planar camera centered on (0, 0) at zoom 0.
func NewCamera(viewportW, viewportH float64) *Camera {
	return &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		MinZoom:   0,
		MaxZoom:   12,
	}
}

// DegreesPerPixel returns the planar scale at the current zoom.
func (c *Camera) DegreesPerPixel() float64 {
	return 360 / (TileSize * math.Exp2(c.Zoom))
}

// GlobePixelRadius returns the on-screen globe radius at the current zoom.
func (c *Camera) GlobePixelRadius() float64 {
	return TileSize * math.Exp2(c.Zoom) / (2 * math.Pi)
}

// WorldToScreen converts a geographic position to screen coordinates and
// reports whether it faces the viewer. Planar longitudes take the shortest
// way around the antimeridian.
func (c *Camera) WorldToScreen(lon, lat float64) (sx, sy float64, visible bool) {
	if c.Projection == Globe {
		phi0 := c.Latitude * deg2rad
		phi := lat * deg2rad
		dl := (lon - c.Longitude) * deg2rad
		cosC := math.Sin(phi0)*math.Sin(phi) + math.Cos(phi0)*math.Cos(phi)*math.Cos(dl)
		r := c.GlobePixelRadius()
		x := r * math.Cos(phi) * math.Sin(dl)
		y := r * (math.Cos(phi0)*math.Sin(phi) - math.Sin(phi0)*math.Cos(phi)*math.Cos(dl))
		return c.ViewportW/2 + x, c.ViewportH/2 - y, cosC >= 0
	}

	scale := c.DegreesPerPixel()
	dx := toroidalDelta(lon, c.Longitude, 360)
	dy := lat - c.Latitude
	return c.ViewportW/2 + dx/scale, c.ViewportH/2 - dy/scale, true
}

// ScreenToWorld converts screen coordinates to a geographic position.
// ok is false when a globe pixel misses the sphere.
func (c *Camera) ScreenToWorld(sx, sy float64) (lon, lat float64, ok bool) {
	if c.Projection == Globe {
		r := c.GlobePixelRadius()
		x := (sx - c.ViewportW/2) / r
		y := (c.ViewportH/2 - sy) / r
		rho := math.Hypot(x, y)
		if rho > 1 {
			return 0, 0, false
		}
		if rho == 0 {
			return c.Longitude, c.Latitude, true
		}
		cc := math.Asin(rho)
		phi0 := c.Latitude * deg2rad
		lat = math.Asin(math.Cos(cc)*math.Sin(phi0)+y*math.Sin(cc)*math.Cos(phi0)/rho) * rad2deg
		lon = c.Longitude + math.Atan2(x*math.Sin(cc), rho*math.Cos(cc)*math.Cos(phi0)-y*math.Sin(cc)*math.Sin(phi0))*rad2deg
		return WrapLongitude(lon), lat, true
	}

	scale := c.DegreesPerPixel()
	lon = WrapLongitude(c.Longitude + (sx-c.ViewportW/2)*scale)
	lat = c.Latitude - (sy-c.ViewportH/2)*scale
	return lon, lat, true
}

// Snapshot captures the current view for one step.
func (c *Camera) Snapshot() Viewport {
	v := Viewport{
		Projection:  c.Projection,
		Zoom:        c.Zoom,
		Bounds:      c.VisibleBounds(),
		GlobeCenter: [2]float64{c.Longitude, c.Latitude},
	}
	if c.Projection == Globe {
		v.GlobeRadius = c.visibleGlobeRadius()
	}
	return v
}

// VisibleBounds returns the planar geographic bounds of the visible area,
// normalized with WrapBounds.
func (c *Camera) VisibleBounds() [4]float64 {
	scale := c.DegreesPerPixel()
	halfW := c.ViewportW / 2 * scale
	halfH := c.ViewportH / 2 * scale
	return WrapBounds([4]float64{
		c.Longitude - halfW,
		c.Latitude - halfH,
		c.Longitude + halfW,
		c.Latitude + halfH,
	})
}

// visibleGlobeRadius is the largest distance from the center to the viewport
// corners and edge midpoints; pixels beyond the limb count as the horizon.
func (c *Camera) visibleGlobeRadius() float64 {
	horizon := math.Pi / 2 * EarthRadius
	center := [2]float64{c.Longitude, c.Latitude}
	probes := [][2]float64{
		{0, 0},
		{c.ViewportW / 2, 0},
		{0, c.ViewportH / 2},
		{c.ViewportW, c.ViewportH},
	}
	radius := 0.0
	for _, p := range probes {
		lon, lat, ok := c.ScreenToWorld(p[0], p[1])
		if !ok {
			return horizon
		}
		radius = math.Max(radius, DistanceTo(center, [2]float64{lon, lat}))
	}
	return radius
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float64) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Pan moves the camera by the given delta in screen pixels.
// Longitude wraps; latitude is clamped to the poles.
func (c *Camera) Pan(dx, dy float64) {
	scale := c.DegreesPerPixel()
	if c.Projection == Globe {
		scale = rad2deg / c.GlobePixelRadius()
	}
	c.Longitude = WrapLongitude(c.Longitude + dx*scale)
	c.Latitude = clamp(c.Latitude-dy*scale, -85, 85)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float64) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy adds delta zoom levels.
func (c *Camera) ZoomBy(delta float64) {
	c.SetZoom(c.Zoom + delta)
}

// Reset returns the camera to the origin at minimum zoom.
func (c *Camera) Reset() {
	c.Longitude = 0
	c.Latitude = 0
	c.Zoom = c.MinZoom
}

// toroidalDelta computes the shortest signed distance from 'from' to 'to'
// in a toroidal space of the given size.
func toroidalDelta(to, from, size float64) float64 {
	d := glslMod(to-from, size)
	if d > size/2 {
		d -= size
	}
	return d
}
