package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/windtrail/app"
	"github.com/pthm-cable/windtrail/config"
	"github.com/pthm-cable/windtrail/session"
	"github.com/pthm-cable/windtrail/stream"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N frames (0 = unlimited)")
	fieldPath := flag.String("field", "", "Vector field PNG (overrides config)")
	serve := flag.String("serve", "", "Stream segments over websocket on this address (overrides config)")
	framesDir := flag.String("frames-dir", "", "Directory for PNG frames")
	frameEvery := flag.Int64("frame-every", 10, "Write every Nth frame to -frames-dir")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *fieldPath != "" {
		cfg.Field.Path = *fieldPath
	}
	addr := cfg.Stream.Addr
	if *serve != "" {
		addr = *serve
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	raster, err := session.LoadRaster(cfg.Field)
	if err != nil {
		slog.Error("failed to load vector field", "error", err)
		os.Exit(1)
	}

	opts := session.Options{
		Seed:       rngSeed,
		LogStats:   *logStats,
		OutputDir:  *outputDir,
		FramesDir:  *framesDir,
		FrameEvery: *frameEvery,
		Raster:     raster,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *headless {
		err = runHeadless(ctx, cfg, opts, *maxTicks, addr)
	} else {
		err = runWindow(ctx, cfg, opts, *maxTicks, addr)
	}
	if err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

// runHeadless steps the session at the configured frame rate without a
// window, as fast as the CPU allows.
func runHeadless(ctx context.Context, cfg *config.Config, opts session.Options, maxTicks int64, addr string) error {
	s, err := session.New(cfg, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	dt := 1.0 / float64(max(cfg.Screen.TargetFPS, 1))
	slog.Info("starting headless run",
		"seed", opts.Seed,
		"max_ticks", maxTicks,
		"dt", dt,
		"stream", addr,
	)
	return s.Run(ctx, dt, maxTicks, addr)
}

// runWindow opens the raylib window; the stream server runs alongside
// under the same context.
func runWindow(ctx context.Context, cfg *config.Config, opts session.Options, maxTicks int64, addr string) error {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Wind Trails")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	s, err := session.New(cfg, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	a := app.New(cfg, s)
	defer a.Unload()

	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	if addr != "" {
		h := stream.NewHub()
		a.AttachHub(h)
		g.Go(func() error { return h.Serve(ctx, addr, cfg.Stream.Path) })
	}

	// raylib must stay on the main goroutine
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		a.Update()
		a.Draw()

		if maxTicks > 0 && a.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", a.Tick())
			break
		}
	}
	cancel()
	return g.Wait()
}
