// Package game wires the simulation core to telemetry and rendering and
// drives it either in a window or headless.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flap/config"
	"github.com/pthm-cable/flap/neural"
	"github.com/pthm-cable/flap/renderer"
	"github.com/pthm-cable/flap/sim"
	"github.com/pthm-cable/flap/telemetry"
	"github.com/pthm-cable/flap/ui"
)

// Options configures a game instance.
type Options struct {
	Config      *config.Config
	Seed        int64
	OutputDir   string // CSV output and config snapshot; empty disables
	HistoryPath string // SQLite run history; empty disables
	LogStats    bool
	Headless    bool
	Limits      sim.Limits
}

// Game owns one run: the simulation, its scheduler and its sinks.
type Game struct {
	cfg  *config.Config
	opts Options

	sim   *sim.Context
	coord *sim.Coordinator
	sched *sim.Scheduler

	runID    string
	out      *telemetry.OutputManager
	history  *telemetry.HistoryStore
	recorder *telemetry.Recorder
	perf     *telemetry.PerfCollector

	// Graphics, nil when headless
	scene    *renderer.Scene
	hud      *ui.HUD
	controls *ui.ControlsPanel

	paused      bool
	showNetwork bool
	selected    uint64 // Bird picked with the mouse
	hasSelected bool
	done        bool
	err         error
}

// NewGame builds a run from opts. ctx bounds history writes for the
// lifetime of the game. The raylib window must already exist unless
// opts.Headless is set.
func NewGame(ctx context.Context, opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("game: config is required")
	}

	g := &Game{
		cfg:         cfg,
		opts:        opts,
		runID:       telemetry.NewRunID(),
		perf:        telemetry.NewPerfCollector(cfg.Screen.TargetFPS),
		showNetwork: true,
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	factory, err := neural.NewFactoryFromConfig(cfg, rng)
	if err != nil {
		return nil, fmt.Errorf("network factory: %w", err)
	}

	var vis sim.Visualizer
	if !opts.Headless {
		g.scene = renderer.NewScene(cfg)
		g.hud = ui.NewHUD(10, 10, 230)
		g.controls = ui.NewControlsPanel(10, 0, 230, cfg.Schedule.MaxSpeed)
		vis = g.scene
	}

	g.sim, err = sim.NewContext(cfg, rng, sim.NeuralFactory(factory), vis)
	if err != nil {
		return nil, err
	}
	if err := g.sim.Init(); err != nil {
		return nil, err
	}

	if err := g.openTelemetry(ctx); err != nil {
		g.closeTelemetry()
		return nil, err
	}

	g.coord = sim.NewCoordinator(g.sim)
	g.coord.AddObserver(g.recorder)
	g.coord.OnStateChange = func(from, to sim.State) {
		slog.Debug("coordinator state", "from", from, "to", to)
	}
	g.coord.OnPhase = func(p sim.Phase) {
		g.perf.StartPhase(string(p))
	}
	if err := g.coord.Init(); err != nil {
		g.closeTelemetry()
		return nil, err
	}

	rate := 0
	if opts.Headless {
		rate = cfg.Schedule.TickRate
	}
	g.sched = sim.NewScheduler(g.coord, rate, opts.Limits)
	g.sched.BeforeStep = g.beforeStep
	g.sched.AfterStep = g.afterStep

	return g, nil
}

// openTelemetry creates the output directory, the history store and the recorder.
func (g *Game) openTelemetry(ctx context.Context) error {
	var err error
	if g.out, err = telemetry.NewOutputManager(g.opts.OutputDir); err != nil {
		return err
	}
	if err := g.out.WriteConfig(g.cfg); err != nil {
		return err
	}

	if g.opts.HistoryPath != "" {
		g.history = telemetry.NewHistoryStore(g.opts.HistoryPath)
		if err := g.history.Init(ctx); err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		err := g.history.StartRun(ctx, telemetry.RunInfo{
			ID:         g.runID,
			StartedAt:  time.Now(),
			Games:      g.cfg.Population.Games,
			Birds:      g.cfg.Population.BirdsPerGame,
			SeedPolicy: g.cfg.Neural.SeedPolicy,
		})
		if err != nil {
			return err
		}
	}

	g.recorder = telemetry.NewRecorder(ctx, g.runID, g.out, g.history, g.cfg.Telemetry.StatsInterval, g.opts.LogStats)
	if err := g.recorder.LoadBest(); err != nil {
		return fmt.Errorf("reading history: %w", err)
	}
	return nil
}

func (g *Game) beforeStep() {
	g.perf.StartTick()
}

func (g *Game) afterStep(s sim.Stats) error {
	g.perf.StartPhase(telemetry.PhaseTelemetry)
	defer g.perf.EndTick()

	if err := g.recorder.ObserveTick(s); err != nil {
		return err
	}

	interval := g.cfg.Telemetry.StatsInterval
	if interval <= 0 || s.Tick%interval != 0 {
		return nil
	}
	perf := g.perf.Stats()
	if g.opts.LogStats {
		perf.LogStats()
	}
	return g.out.WritePerf(perf, s.Tick)
}

// Update handles input and runs one scheduler update unless paused.
func (g *Game) Update() {
	g.handleInput()
	g.perf.RecordFrame()

	if g.paused || g.done {
		return
	}
	g.update()
}

// UpdateHeadless runs one scheduler update without input handling.
func (g *Game) UpdateHeadless() {
	if g.done {
		return
	}
	g.update()
}

func (g *Game) update() {
	done, err := g.sched.Update()
	if err != nil {
		g.fail(err)
		return
	}
	if done {
		g.done = true
		slog.Info("limit reached", "stats", g.coord.Stats())
	}
}

func (g *Game) fail(err error) {
	g.err = err
	g.done = true
	slog.Error("simulation stopped", "tick", g.coord.Stats().Tick, "error", err)
}

// Draw renders the scene, the fittest network and the HUD.
func (g *Game) Draw() {
	screenW, screenH := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())

	rl.BeginDrawing()
	defer rl.EndDrawing()

	if a, _, ok := g.inspected(); ok {
		g.scene.Highlight(a.ID)
	} else {
		g.scene.ClearHighlight()
	}
	g.scene.Draw(screenW, screenH)

	s := g.coord.Stats()
	last, hasLast := g.recorder.Last()
	best, hasBest := g.recorder.Best()
	hudBottom := g.hud.Draw(ui.HUDData{
		Stats:   s,
		Birds:   g.cfg.Population.Games * g.cfg.Population.BirdsPerGame,
		FPS:     rl.GetFPS(),
		Paused:  g.paused,
		Last:    last,
		HasLast: hasLast,
		RunID:   g.runID,
		Best:    best,
		HasBest: hasBest,
	})

	g.controls.SetPosition(10, hudBottom+10)
	state := g.controls.Draw(ui.ControlsState{
		Speed:       g.coord.Speed(),
		Paused:      g.paused,
		ShowNetwork: g.showNetwork,
	})
	g.coord.SetSpeed(state.Speed)
	g.paused = state.Paused
	g.showNetwork = state.ShowNetwork

	if g.showNetwork {
		g.drawNetwork(screenW)
	}

	g.hud.DrawControls(screenH, "[Space] Pause  [Up/Down] Speed  [N] Network  [C] Controls  [Click/Bksp] Inspect  [Wheel/RMB] Zoom/Pan  [R] Reset view")
}

// inspected returns the picked bird while it is alive, else the fittest.
func (g *Game) inspected() (sim.AgentView, string, bool) {
	if g.hasSelected {
		if a, ok := g.scene.Agent(g.selected); ok {
			return a, "Selected", true
		}
		g.hasSelected = false
	}
	a, ok := g.coord.Fittest()
	return a, "Fittest", ok
}

// drawNetwork shows the inspected bird's network in the top right.
func (g *Game) drawNetwork(screenW int32) {
	const w, h = 280, 200
	x, y := screenW-w-10, int32(10)

	r := ui.NewRenderer()
	r.DrawPanel(x, y, w, h)

	a, label, ok := g.inspected()
	if !ok || a.Network == nil {
		renderer.DrawNetworkDiagram(x, y, w, h, nil, nil, nil, nil)
		return
	}
	title := fmt.Sprintf("%s bird %d  fitness %d", label, a.ID, a.Fitness)
	r.DrawSectionHeader(x+8, y+6, title)
	renderer.DrawNetworkDiagram(x+60, y+24, w-100, h-30,
		a.Network.ActivationLayers(), a.Network.WeightLayers(),
		g.cfg.Neural.Sensors, g.cfg.Neural.Actuators)
}

// Done reports whether a limit was reached or a step failed.
func (g *Game) Done() bool {
	return g.done
}

// Err returns the step error that stopped the game, if any.
func (g *Game) Err() error {
	return g.err
}

// Unload releases simulation state and closes telemetry sinks.
func (g *Game) Unload() error {
	g.coord.Teardown()
	g.sim.Teardown()
	return g.closeTelemetry()
}

func (g *Game) closeTelemetry() error {
	var errs []error
	if err := g.out.Close(); err != nil {
		errs = append(errs, err)
	}
	if g.history != nil {
		if err := g.history.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
