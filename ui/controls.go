package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlsState is what the controls panel reports back each frame.
type ControlsState struct {
	Speed       int
	Paused      bool
	ShowNetwork bool
}

// ControlsPanel renders the speed slider and toggle buttons.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	maxSpeed int
	visible  bool
}

// NewControlsPanel creates a new controls panel whose speed slider spans
// [1, maxSpeed].
func NewControlsPanel(x, y, width int32, maxSpeed int) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		maxSpeed: max(maxSpeed, 1),
		visible:  true,
	}
}

// SetPosition moves the panel.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x, c.y = x, y
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the panel and returns the state after user interaction.
func (c *ControlsPanel) Draw(state ControlsState) ControlsState {
	if !c.visible {
		return state
	}

	r := c.renderer
	padding := r.Theme.Padding
	r.DrawPanel(c.x, c.y, c.width, 100)

	x := float32(c.x + padding)
	y := c.y + padding
	y = r.DrawSectionHeader(c.x+padding, y, "Controls")

	inner := float32(c.width - padding*2)
	speed := gui.SliderBar(
		rl.Rectangle{X: x + 40, Y: float32(y), Width: inner - 90, Height: 16},
		"speed", fmt.Sprintf("%dx", state.Speed),
		float32(state.Speed), 1, float32(c.maxSpeed),
	)
	state.Speed = max(int(speed), 1)
	y += 24

	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: inner/2 - 4, Height: 24}, toggleText(state.Paused, "Resume", "Pause")) {
		state.Paused = !state.Paused
	}
	if gui.Button(rl.Rectangle{X: x + inner/2 + 4, Y: float32(y), Width: inner/2 - 4, Height: 24}, toggleText(state.ShowNetwork, "Hide net", "Show net")) {
		state.ShowNetwork = !state.ShowNetwork
	}

	return state
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
