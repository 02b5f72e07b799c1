package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated particle statistics for a window of steps.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`
	Steps           int     `csv:"steps"`

	// Population at window end
	Alive    int `csv:"alive"`
	Segments int `csv:"segments"` // Segments shaded on the last draw

	// Events during window
	Respawned       int     `csv:"respawned"`
	DroppedThinning int     `csv:"dropped_thinning"`
	DroppedAge      int     `csv:"dropped_age"`
	DroppedBounds   int     `csv:"dropped_bounds"`
	DroppedViewport int     `csv:"dropped_viewport"`
	DroppedNodata   int     `csv:"dropped_nodata"`
	DropRate        float64 `csv:"drop_rate"` // Drops per particle-step

	// Field speed distribution over per-step means
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`
}

// Dropped returns the total drops in the window.
func (s WindowStats) Dropped() int {
	return s.DroppedThinning + s.DroppedAge + s.DroppedBounds + s.DroppedViewport + s.DroppedNodata
}

// ComputeSpeedStats calculates mean, std and percentiles from speed values.
func ComputeSpeedStats(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	// Quantile requires sorted input
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("steps", s.Steps),
		slog.Int("alive", s.Alive),
		slog.Int("segments", s.Segments),
		slog.Int("respawned", s.Respawned),
		slog.Int("dropped", s.Dropped()),
		slog.Float64("drop_rate", s.DropRate),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_max", s.SpeedMax),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"steps", s.Steps,
		"alive", s.Alive,
		"segments", s.Segments,
		"respawned", s.Respawned,
		"dropped_thinning", s.DroppedThinning,
		"dropped_age", s.DroppedAge,
		"dropped_bounds", s.DroppedBounds,
		"dropped_viewport", s.DroppedViewport,
		"dropped_nodata", s.DroppedNodata,
		"drop_rate", s.DropRate,
		"speed_mean", s.SpeedMean,
		"speed_std", s.SpeedStd,
		"speed_p10", s.SpeedP10,
		"speed_p50", s.SpeedP50,
		"speed_p90", s.SpeedP90,
		"speed_max", s.SpeedMax,
	)
}
