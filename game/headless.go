package game

import (
	"context"
	"log/slog"
)

// RunHeadless drives g until a limit is reached, a step fails or ctx is
// cancelled. Updates are paced by schedule.tick_rate.
func RunHeadless(ctx context.Context, g *Game) error {
	slog.Info("starting headless simulation",
		"run_id", g.runID,
		"seed", g.opts.Seed,
		"games", g.cfg.Population.Games,
		"birds_per_game", g.cfg.Population.BirdsPerGame,
		"tick_rate", g.cfg.Schedule.TickRate,
		"speed", g.coord.Speed(),
		"max_ticks", g.opts.Limits.MaxTicks,
		"max_generations", g.opts.Limits.MaxGenerations,
	)

	err := g.sched.Run(ctx)
	if err != nil {
		g.fail(err)
		return err
	}
	g.done = true
	slog.Info("simulation finished", "stats", g.coord.Stats())
	return nil
}
