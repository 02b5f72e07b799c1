// Package main provides CMA-ES tuning of particle layer parameters toward
// target on-screen trail statistics.
package main

import (
	"math"

	"github.com/pthm-cable/windtrail/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Integer bool    // Rounded when applied
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters,
// defaulting to the values in cfg.
func NewParamVector(cfg *config.Config) *ParamVector {
	p := cfg.Particle
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "speed_factor", Path: "particle.speed_factor", Min: 1, Max: 200, Default: p.SpeedFactor},
			{Name: "max_age", Path: "particle.max_age", Min: 4, Max: 100, Default: float64(p.MaxAge), Integer: true},
			{Name: "num_particles", Path: "particle.num_particles", Min: 500, Max: 30000, Default: float64(p.NumParticles), Integer: true},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds and integer parameters are
// whole.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := max(spec.Min, min(v[i], spec.Max))
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	values = pv.Clamp(values)
	for i, spec := range pv.Specs {
		switch spec.Name {
		case "speed_factor":
			cfg.Particle.SpeedFactor = values[i]
		case "max_age":
			cfg.Particle.MaxAge = int(values[i])
		case "num_particles":
			cfg.Particle.NumParticles = int(values[i])
		}
	}
}

// ExtractFromConfig reads parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		switch spec.Name {
		case "speed_factor":
			v[i] = cfg.Particle.SpeedFactor
		case "max_age":
			v[i] = float64(cfg.Particle.MaxAge)
		case "num_particles":
			v[i] = float64(cfg.Particle.NumParticles)
		}
	}
	return v
}
