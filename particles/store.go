// Package particles simulates wind trails on packed float32 buffers.
//
// Trail positions live in two age-major buffers: all particles of age 0,
// then all particles of age 1, and so on, three components per position.
// A step reads the current buffer, writes the next one and swaps them.
package particles

import "log/slog"

// MaxAge is the largest supported trail length.
const MaxAge = 255

// Allocation describes the buffer shape and the per-instance color fade.
type Allocation struct {
	NumParticles int
	MaxAge       int
	Width        float32
	Color        [3]float32 // Base RGB written into the colors attribute
	Opacity      float32    // Alpha of the age-0 bucket
}

// Valid reports whether the allocation describes a non-empty layer.
func (a Allocation) Valid() bool {
	return a.NumParticles >= 1 && a.MaxAge >= 1 && a.Width > 0
}

// Store owns the trail buffer pair and the per-instance color attribute.
// The zero value is an uninitialized store; every operation on it is a no-op.
type Store struct {
	numParticles int
	maxAge       int
	width        float32

	current []float32 // Read by advection and shading
	next    []float32 // Written by advection, swapped in after aging

	colors []float32 // RGBA per instance

	initialized bool
}

// Allocate creates zeroed buffers for the given shape, releasing any existing
// ones first. An invalid allocation leaves the store disposed and returns
// false.
func (s *Store) Allocate(a Allocation) bool {
	s.Dispose()
	if !a.Valid() {
		return false
	}
	if a.MaxAge > MaxAge {
		a.MaxAge = MaxAge
	}

	n := a.NumParticles * a.MaxAge
	s.numParticles = a.NumParticles
	s.maxAge = a.MaxAge
	s.width = a.Width
	s.current = make([]float32, n*3)
	s.next = make([]float32, n*3)
	s.colors = make([]float32, n*4)
	s.Recolor(a.Color, a.Opacity)
	s.initialized = true

	slog.Info("particle buffers allocated",
		"num_particles", a.NumParticles,
		"max_age", a.MaxAge,
		"width", a.Width,
		"components", n*3,
	)
	return true
}

// Recolor rewrites the colors attribute. Alpha fades linearly with age:
// opacity * (1 - age/maxAge).
func (s *Store) Recolor(rgb [3]float32, opacity float32) {
	if s.colors == nil {
		return
	}
	for age := 0; age < s.maxAge; age++ {
		alpha := opacity * (1 - float32(age)/float32(s.maxAge))
		base := age * s.numParticles * 4
		for i := 0; i < s.numParticles; i++ {
			c := s.colors[base+i*4 : base+i*4+4]
			c[0], c[1], c[2], c[3] = rgb[0], rgb[1], rgb[2], alpha
		}
	}
}

// Reset zero-fills both buffers in place. Every position becomes the drop
// sentinel.
func (s *Store) Reset() {
	if !s.initialized {
		return
	}
	clear(s.current)
	clear(s.next)
}

// Dispose releases the buffers and marks the store uninitialized.
func (s *Store) Dispose() {
	if !s.initialized {
		return
	}
	*s = Store{}
	slog.Info("particle buffers disposed")
}

// Initialized reports whether buffers are allocated.
func (s *Store) Initialized() bool { return s.initialized }

func (s *Store) NumParticles() int { return s.numParticles }
func (s *Store) MaxAge() int       { return s.maxAge }
func (s *Store) Width() float32    { return s.width }

// NumInstances is the number of trail positions per buffer.
func (s *Store) NumInstances() int { return s.numParticles * s.maxAge }

// Current returns the buffer shading reads from.
func (s *Store) Current() []float32 { return s.current }

// Next returns the buffer the next step writes to. Between steps it holds
// the previous state.
func (s *Store) Next() []float32 { return s.next }

// Colors returns the RGBA per-instance attribute.
func (s *Store) Colors() []float32 { return s.colors }

// Position returns the position of particle i at the given age in buf.
func (s *Store) Position(buf []float32, age, i int) (x, y float32) {
	o := (age*s.numParticles + i) * 3
	return buf[o], buf[o+1]
}

// Alpha returns the age-fade alpha of instance j.
func (s *Store) Alpha(j int) float32 {
	return s.colors[j*4+3]
}

// swap exchanges the buffer roles after a completed step.
func (s *Store) swap() {
	s.current, s.next = s.next, s.current
}

// isDropped reports whether a position is the drop sentinel.
func isDropped(x, y float32) bool {
	return x == 0 && y == 0
}
