package session

import "log/slog"

// flushTelemetry writes a stats window once enough steps have run.
func (s *Session) flushTelemetry() {
	if !s.collector.ShouldFlush() {
		return
	}

	stats := s.collector.Flush(s.clock.seconds)
	perfStats := s.perf.Stats()
	s.last = stats

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.output.WriteStats(stats); err != nil {
		slog.Error("failed to write stats", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}
