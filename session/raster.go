package session

import (
	"log/slog"

	"github.com/pthm-cable/windtrail/config"
	"github.com/pthm-cable/windtrail/field"
)

// LoadRaster loads the configured PNG raster, or generates a synthetic one
// when no path is set.
func LoadRaster(cfg config.FieldConfig) (*field.Raster, error) {
	filter := field.ParseFilter(cfg.Filter)
	if cfg.Path != "" {
		r, err := field.LoadPNG(cfg.Path, cfg.URange, cfg.VRange, cfg.MaxSize)
		if err != nil {
			return nil, err
		}
		r.Filter = filter
		return r, nil
	}

	syn := cfg.Synthetic
	r := field.Generate(SyntheticParams(cfg))
	r.Filter = filter
	slog.Info("generated synthetic vector field",
		"width", syn.Width,
		"height", syn.Height,
		"seed", syn.Seed,
		"octaves", syn.Octaves,
	)
	return r, r.Validate()
}

// SyntheticParams converts the synthetic generator config.
func SyntheticParams(cfg config.FieldConfig) field.Params {
	syn := cfg.Synthetic
	return field.Params{
		Width:    syn.Width,
		Height:   syn.Height,
		Seed:     syn.Seed,
		Scale:    syn.Scale,
		Octaves:  syn.Octaves,
		Strength: syn.Strength,
		URange:   cfg.URange,
		VRange:   cfg.VRange,
	}
}
