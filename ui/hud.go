package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flap/sim"
	"github.com/pthm-cable/flap/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Stats   sim.Stats
	Birds   int // Total birds across all games
	FPS     int32
	Paused  bool
	Last    telemetry.GenerationRecord
	HasLast bool

	// Best generation in the run history, possibly from an earlier run
	RunID   string
	Best    telemetry.RunBest
	HasBest bool
}

// HUD renders the run counters panel.
type HUD struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewHUD creates a new HUD anchored at x, y.
func NewHUD(x, y, width int32) *HUD {
	return &HUD{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// Draw renders the HUD and returns the Y position below it.
func (h *HUD) Draw(data HUDData) int32 {
	r := h.renderer
	s := data.Stats

	lines := 11
	if data.HasLast {
		lines += 4
	}
	if data.HasBest {
		lines++
	}
	height := int32(lines)*r.Theme.LineHeight + r.Theme.Padding*2
	r.DrawPanel(h.x, h.y, h.width, height)

	x := h.x + r.Theme.Padding
	y := h.y + r.Theme.Padding

	status := "running"
	if data.Paused {
		status = "PAUSED"
	}
	y = r.DrawSectionHeader(x, y, "Flap "+status)
	y = r.DrawLabelValue(x, y, "tick", fmt.Sprint(s.Tick))
	y = r.DrawLabelValue(x, y, "roundTick", fmt.Sprint(s.RoundTick))
	y = r.DrawLabelValue(x, y, "generation", fmt.Sprint(s.Generation))
	y = r.DrawLabelValue(x, y, "gamesAmount", fmt.Sprint(s.GamesAmount))
	y = r.DrawLabelValue(x, y, "topFitness", fmt.Sprint(s.TopFitness))
	y = r.DrawLabelValue(x, y, "currentFitness", fmt.Sprint(s.CurrentFitness))
	y = r.DrawLabelValue(x, y, "speed", fmt.Sprintf("%dx", s.Speed))
	y = r.DrawLabelValue(x, y, "lastReset", fmt.Sprint(s.LastReset))
	y = r.DrawLabelValue(x, y, "FPS", fmt.Sprint(data.FPS))

	var aliveFrac float32
	if data.Birds > 0 {
		aliveFrac = float32(s.Alive) / float32(data.Birds)
	}
	y = r.DrawBar(x, y, fmt.Sprintf("alive %d", s.Alive), aliveFrac, h.width-r.Theme.Padding*2)

	if data.HasLast {
		y = r.DrawSectionHeader(x, y, fmt.Sprintf("Generation %d", data.Last.Generation))
		y = r.DrawLabelValue(x, y, "fittest", fmt.Sprint(data.Last.Fittest))
		y = r.DrawLabelValue(x, y, "mean", fmt.Sprintf("%.1f", data.Last.FitnessMean))
		y = r.DrawLabelValue(x, y, "median", fmt.Sprintf("%.1f", data.Last.FitnessMedian))
	}
	if data.HasBest {
		where := "earlier run"
		if data.Best.RunID == data.RunID {
			where = "this run"
		}
		y = r.DrawLabelValue(x, y, "record", fmt.Sprintf("%d gen %d, %s", data.Best.Fitness, data.Best.Generation, where))
	}

	return y + r.Theme.Padding
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.DarkGray)
}
