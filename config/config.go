// Package config provides configuration loading and access for the particle layer.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Particle  ParticleConfig  `yaml:"particle"`
	Field     FieldConfig     `yaml:"field"`
	Viewport  ViewportConfig  `yaml:"viewport"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Workers   int             `yaml:"workers"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Stream    StreamConfig    `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// ParticleConfig is the layer's recognized option surface.
type ParticleConfig struct {
	NumParticles  int               `yaml:"num_particles"`
	MaxAge        int               `yaml:"max_age"`      // 1-255
	SpeedFactor   float64           `yaml:"speed_factor"` // >= 0
	Width         float64           `yaml:"width"`
	Opacity       float64           `yaml:"opacity"` // Base alpha of the age-0 bucket
	Animate       bool              `yaml:"animate"`
	ColorMode     string            `yaml:"color_mode"`   // speed | static
	StaticColor   string            `yaml:"static_color"` // Used when color_mode is static
	ColorStops    []ColorStopConfig `yaml:"color_stops"`
	ExtendRamp    bool              `yaml:"extend_ramp"` // Speeds past the last stop keep its color instead of black
	Bounds        [4]float64        `yaml:"bounds"` // minLon, minLat, maxLon, maxLat
	WrapLongitude bool              `yaml:"wrap_longitude"`
}

// ColorStopConfig is one (speed, color) control point.
type ColorStopConfig struct {
	Speed float64 `yaml:"speed"`
	Color string  `yaml:"color"`
}

// FieldConfig describes where the vector field raster comes from.
type FieldConfig struct {
	Path      string          `yaml:"path"`
	URange    [2]float64      `yaml:"u_range"`
	VRange    [2]float64      `yaml:"v_range"`
	Filter    string          `yaml:"filter"`   // linear | nearest
	MaxSize   int             `yaml:"max_size"` // Loaded rasters are downsampled to fit
	Synthetic SyntheticConfig `yaml:"synthetic"`
}

// SyntheticConfig holds parameters of the noise-based wind generator.
type SyntheticConfig struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	Seed     int64   `yaml:"seed"`
	Scale    float64 `yaml:"scale"`    // Base noise frequency over the raster
	Octaves  int     `yaml:"octaves"`  // FBM octaves
	Strength float64 `yaml:"strength"` // Peak wind component magnitude
}

// ViewportConfig holds the initial camera.
type ViewportConfig struct {
	Projection string  `yaml:"projection"` // planar | globe
	Longitude  float64 `yaml:"longitude"`
	Latitude   float64 `yaml:"latitude"`
	Zoom       float64 `yaml:"zoom"`
	MinZoom    float64 `yaml:"min_zoom"`
	MaxZoom    float64 `yaml:"max_zoom"`
}

// SchedulerConfig selects the step cadence.
type SchedulerConfig struct {
	Cadence string  `yaml:"cadence"` // frame | fixed
	FixedHz float64 `yaml:"fixed_hz"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"` // Steps per aggregated window
	PerfCollectorWindow int `yaml:"perf_collector_window"`
}

// StreamConfig holds websocket streaming parameters.
type StreamConfig struct {
	Addr        string `yaml:"addr"` // Empty = disabled
	Path        string `yaml:"path"`
	MaxSegments int    `yaml:"max_segments"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	FixedInterval time.Duration // 1/fixed_hz
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Scheduler.FixedHz > 0 {
		c.Derived.FixedInterval = time.Duration(float64(time.Second) / c.Scheduler.FixedHz)
	}

	if c.Particle.ColorMode == "" {
		c.Particle.ColorMode = "speed"
	}
	if c.Field.Filter == "" {
		c.Field.Filter = "linear"
	}
	if c.Stream.Path == "" {
		c.Stream.Path = "/ws"
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
