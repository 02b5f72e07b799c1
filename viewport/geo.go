package viewport

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

// WrapLongitude maps a longitude into [-180, 180).
func WrapLongitude(lng float64) float64 {
	return glslMod(lng+180, 360) - 180
}

// WrapLongitudeFrom wraps a longitude and moves it to the right of minLng,
// so bounds that straddle the antimeridian compare correctly.
func WrapLongitudeFrom(lng, minLng float64) float64 {
	w := WrapLongitude(lng)
	if w < minLng {
		w += 360
	}
	return w
}

// InBounds reports whether a position lies in [minLon,minLat,maxLon,maxLat],
// wrapping the longitude relative to minLon.
func InBounds(lon, lat float64, b [4]float64) bool {
	lng := WrapLongitudeFrom(lon, b[0])
	return b[0] <= lng && lng <= b[2] && b[1] <= lat && lat <= b[3]
}

// InRasterBounds is InBounds for the raster extent. Without wrap the
// longitude is compared as is, so positions past either edge are outside.
func InRasterBounds(lon, lat float64, b [4]float64, wrap bool) bool {
	if wrap {
		return InBounds(lon, lat, b)
	}
	return b[0] <= lon && lon <= b[2] && b[1] <= lat && lat <= b[3]
}

// WrapBounds normalizes visible bounds: a span of 360 degrees or more becomes
// the whole world, otherwise minLon is wrapped and maxLon follows it.
func WrapBounds(b [4]float64) [4]float64 {
	minLat := math.Max(b[1], -90)
	maxLat := math.Min(b[3], 90)
	if b[2]-b[0] >= 360 {
		return [4]float64{-180, minLat, 180, maxLat}
	}
	minLon := WrapLongitude(b[0])
	return [4]float64{minLon, minLat, minLon + (b[2] - b[0]), maxLat}
}

// DistanceTo returns the haversine distance in meters between two
// (lon, lat) positions.
func DistanceTo(from, to [2]float64) float64 {
	y1 := from[1] * deg2rad
	x1 := from[0] * deg2rad
	y2 := to[1] * deg2rad
	x2 := to[0] * deg2rad
	dy := y2 - y1
	dx := x2 - x1

	a := math.Sin(dy/2)*math.Sin(dy/2) + math.Cos(y1)*math.Cos(y2)*math.Sin(dx/2)*math.Sin(dx/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadius * c
}

// DestinationPoint returns the position reached from (lon, lat) after
// travelling dist meters along the initial heading (degrees from north).
func DestinationPoint(from [2]float64, dist, heading float64) [2]float64 {
	d := dist / EarthRadius
	h := heading * deg2rad
	y1 := from[1] * deg2rad
	x1 := from[0] * deg2rad

	siny2 := math.Sin(y1)*math.Cos(d) + math.Cos(y1)*math.Sin(d)*math.Cos(h)
	y2 := math.Asin(siny2)
	y := math.Sin(h) * math.Sin(d) * math.Cos(y1)
	x := math.Cos(d) - math.Sin(y1)*siny2
	x2 := x1 + math.Atan2(y, x)

	return [2]float64{x2 * rad2deg, y2 * rad2deg}
}

// ToCartesian maps (lon, lat) in degrees to a point on the unit sphere.
func ToCartesian(lon, lat float64) r3.Vec {
	phi := lat * deg2rad
	lambda := lon * deg2rad
	cosPhi := math.Cos(phi)
	return r3.Vec{
		X: cosPhi * math.Cos(lambda),
		Y: math.Sin(phi),
		Z: cosPhi * math.Sin(lambda),
	}
}

// FromCartesian maps a point (any radius) back to (lon, lat) in degrees.
func FromCartesian(p r3.Vec) (lon, lat float64) {
	n := r3.Norm(p)
	if n < 1e-12 {
		return 0, 0
	}
	lat = math.Asin(clamp(p.Y/n, -1, 1)) * rad2deg
	lon = math.Atan2(p.Z, p.X) * rad2deg
	return lon, lat
}

// TangentFrame returns the local east and north unit vectors at (lon, lat).
func TangentFrame(lon, lat float64) (east, north r3.Vec) {
	phi := lat * deg2rad
	lambda := lon * deg2rad
	sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)
	sinLambda, cosLambda := math.Sin(lambda), math.Cos(lambda)

	east = r3.Vec{X: -sinLambda, Y: 0, Z: cosLambda}
	north = r3.Vec{X: -sinPhi * cosLambda, Y: cosPhi, Z: -sinPhi * sinLambda}
	return east, north
}

// Displace moves (lon, lat) by eastward and northward arc lengths given in
// degrees, linearizing in the tangent plane and projecting back to the
// sphere. Unlike a flat offset this stays well behaved near the poles.
func Displace(lon, lat, eastDeg, northDeg float64) (float64, float64) {
	p := ToCartesian(lon, lat)
	east, north := TangentFrame(lon, lat)
	d := r3.Add(r3.Scale(eastDeg*deg2rad, east), r3.Scale(northDeg*deg2rad, north))
	return FromCartesian(r3.Unit(r3.Add(p, d)))
}

// glslMod is x - y*floor(x/y), which unlike math.Mod is never negative for
// positive y.
func glslMod(x, y float64) float64 {
	return x - y*math.Floor(x/y)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
