package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flap/config"
	"github.com/pthm-cable/flap/game"
	"github.com/pthm-cable/flap/sim"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	historyPath := flag.String("history", "", "SQLite file for per-generation run history (empty = disabled)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	maxGenerations := flag.Int("max-generations", 0, "Stop after N completed generations (0 = unlimited)")
	speed := flag.Int("speed", 0, "Simulation steps per update (0 = use config)")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *speed > 0 {
		cfg.Schedule.Speed = *speed
		if err := cfg.Finalize(); err != nil {
			slog.Error("invalid --speed", "error", err)
			os.Exit(1)
		}
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := game.Options{
		Config:      cfg,
		Seed:        rngSeed,
		OutputDir:   *outputDir,
		HistoryPath: *historyPath,
		LogStats:    *logStats,
		Headless:    *headless,
		Limits: sim.Limits{
			MaxTicks:       *maxTicks,
			MaxGenerations: *maxGenerations,
		},
	}

	if err := run(ctx, opts); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts game.Options) (err error) {
	if !opts.Headless {
		cfg := opts.Config
		rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Flap")
		defer rl.CloseWindow()

		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	}

	g, err := game.NewGame(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := g.Unload(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if opts.Headless {
		return game.RunHeadless(ctx, g)
	}

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		g.Update()
		g.Draw()

		if g.Done() {
			break
		}
	}
	return g.Err()
}
