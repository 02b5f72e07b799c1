package particles

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/windtrail/field"
	"github.com/pthm-cable/windtrail/viewport"
)

// zoomDropExponent is the k used for zoom-out thinning: zooming out by one
// level keeps one particle in 16.
const zoomDropExponent = 4

// minDistortion is the smallest |cos(lat)| the planar offset divides by.
const minDistortion = 1e-6

// StepStats counts what happened to age-0 particles during one step.
type StepStats struct {
	Tick int64

	Advected  int
	Respawned int

	DroppedThinning int
	DroppedAge      int
	DroppedBounds   int
	DroppedViewport int
	DroppedNodata   int

	SpeedSum float64 // Sum of decoded field magnitudes of advected particles
	MaxSpeed float64
}

// Dropped returns the total number of particles dropped this step.
func (s StepStats) Dropped() int {
	return s.DroppedThinning + s.DroppedAge + s.DroppedBounds + s.DroppedViewport + s.DroppedNodata
}

// Alive returns the number of particles holding a position after the step.
func (s StepStats) Alive() int {
	return s.Advected + s.Respawned
}

// MeanSpeed returns the mean field magnitude over advected particles.
func (s StepStats) MeanSpeed() float64 {
	if s.Advected == 0 {
		return 0
	}
	return s.SpeedSum / float64(s.Advected)
}

func (s *StepStats) add(o StepStats) {
	s.Advected += o.Advected
	s.Respawned += o.Respawned
	s.DroppedThinning += o.DroppedThinning
	s.DroppedAge += o.DroppedAge
	s.DroppedBounds += o.DroppedBounds
	s.DroppedViewport += o.DroppedViewport
	s.DroppedNodata += o.DroppedNodata
	s.SpeedSum += o.SpeedSum
	s.MaxSpeed = max(s.MaxSpeed, o.MaxSpeed)
}

// LogValue implements slog.LogValuer for structured logging.
func (s StepStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("tick", s.Tick),
		slog.Int("alive", s.Alive()),
		slog.Int("respawned", s.Respawned),
		slog.Int("dropped", s.Dropped()),
		slog.Float64("mean_speed", s.MeanSpeed()),
	)
}

// stepUniforms holds everything the kernel reads besides the buffers.
// It is built once per step and shared read-only by all workers.
type stepUniforms struct {
	raster *field.Raster
	bounds [4]float64
	view   viewport.Viewport
	wrap   bool

	numParticles int
	maxAge       int
	speedScale   float64 // Degrees per unit of field value
	dropFactor   float64 // Zoom-out thinning factor, 1 when not zooming out
	tick         int64
	seed         float64
}

// advector runs the age-0 kernel over a range of particles.
type advector struct {
	u     stepUniforms
	src   []float32
	dst   []float32
	stats []StepStats // One slot per worker
}

func (a *advector) runChunk(start, end, worker int) {
	stats := &a.stats[worker]
	for i := start; i < end; i++ {
		o := i * 3
		x, y, z := a.advect(i, a.src[o], a.src[o+1], stats)
		a.dst[o], a.dst[o+1], a.dst[o+2] = x, y, z
	}
}

// advect computes the next age-0 position of particle i.
func (a *advector) advect(i int, x, y float32, stats *StepStats) (float32, float32, float32) {
	u := &a.u

	if isDropped(x, y) {
		// Reseed inside the view so particles do not converge on the origin
		s := float64(i) * u.seed / float64(u.numParticles)
		px, py := randPoint(s)
		lon, lat := u.view.PointToPosition(px, py)
		stats.Respawned++
		return float32(viewport.WrapLongitude(lon)), float32(lat), 0
	}

	if u.dropFactor > 1 && glslMod(float64(i), u.dropFactor) >= 1 {
		stats.DroppedThinning++
		return 0, 0, 0
	}

	period := int64(u.maxAge + 2)
	if posMod(int64(i), period) == posMod(u.tick, period) {
		stats.DroppedAge++
		return 0, 0, 0
	}

	lon, lat := float64(x), float64(y)
	if !viewport.InRasterBounds(lon, lat, u.bounds, u.wrap) {
		stats.DroppedBounds++
		return 0, 0, 0
	}
	if !u.view.Contains(lon, lat) {
		stats.DroppedViewport++
		return 0, 0, 0
	}

	s, t := field.UV(viewport.WrapLongitudeFrom(lon, u.bounds[0]), lat, u.bounds)
	fu, fv, ok := u.raster.Sample(s, t)
	if !ok {
		stats.DroppedNodata++
		return 0, 0, 0
	}

	du := fu * u.speedScale
	dv := fv * u.speedScale

	var nlon, nlat float64
	if u.view.IsGlobe() {
		nlon, nlat = viewport.Displace(lon, lat, du, dv)
	} else {
		distortion := math.Cos(lat * math.Pi / 180)
		if math.Abs(distortion) < minDistortion {
			stats.DroppedBounds++
			return 0, 0, 0
		}
		nlon = lon + du/distortion
		nlat = lat + dv
	}
	if u.wrap {
		nlon = viewport.WrapLongitude(nlon)
	}

	if !viewport.InRasterBounds(nlon, nlat, u.bounds, u.wrap) || isDropped(float32(nlon), float32(nlat)) {
		stats.DroppedBounds++
		return 0, 0, 0
	}

	speed := math.Hypot(fu, fv)
	stats.Advected++
	stats.SpeedSum += speed
	stats.MaxSpeed = max(stats.MaxSpeed, speed)
	return float32(nlon), float32(nlat), 0
}

// hash is the classic fract(sin(dot(co, k)) * 43758.5453) shader hash.
func hash(x, y float64) float64 {
	return fract(math.Sin(x*12.9898+y*78.233) * 43758.5453)
}

// randPoint maps a seed to a point in the unit square.
func randPoint(seed float64) (float64, float64) {
	a := seed + 1.3
	b := seed + 2.1
	return hash(a, a), hash(b, b)
}

func fract(x float64) float64 {
	return x - math.Floor(x)
}

func glslMod(x, y float64) float64 {
	return x - y*math.Floor(x/y)
}

func posMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
