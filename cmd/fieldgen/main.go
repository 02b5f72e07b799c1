// Synthetic wind field generator - writes a vector field raster PNG.
//
// Usage: go run ./cmd/fieldgen -out wind.png -seed 7
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"

	"github.com/pthm-cable/windtrail/config"
	"github.com/pthm-cable/windtrail/field"
	"github.com/pthm-cable/windtrail/session"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	out := flag.String("out", "wind.png", "Output PNG path")
	width := flag.Int("width", 0, "Raster width (0 = config)")
	height := flag.Int("height", 0, "Raster height (0 = config)")
	seed := flag.Int64("seed", -1, "Noise seed (-1 = config)")
	octaves := flag.Int("octaves", 0, "FBM octaves (0 = config)")
	strength := flag.Float64("strength", 0, "Peak wind component (0 = config)")
	t := flag.Float64("time", 0, "Offset along the noise time axis")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(*configPath, *out, *width, *height, *seed, *octaves, *strength, *t); err != nil {
		slog.Error("fieldgen failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, out string, width, height int, seed int64, octaves int, strength, t float64) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	p := session.SyntheticParams(cfg.Field)
	if width > 0 {
		p.Width = width
	}
	if height > 0 {
		p.Height = height
	}
	if seed >= 0 {
		p.Seed = seed
	}
	if octaves > 0 {
		p.Octaves = octaves
	}
	if strength > 0 {
		p.Strength = strength
	}
	p.Time = t

	r := field.Generate(p)
	if err := r.Validate(); err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Close()
	if err := png.Encode(f, r.ToImage()); err != nil {
		return fmt.Errorf("encoding %s: %w", out, err)
	}

	slog.Info("wrote vector field",
		"path", out,
		"width", p.Width,
		"height", p.Height,
		"seed", p.Seed,
		"u_range", p.URange,
		"v_range", p.VRange,
	)
	return nil
}
