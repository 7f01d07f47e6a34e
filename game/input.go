package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// handleInput processes keyboard input.
func (g *Game) handleInput() {
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps per update: up/down, or < > (comma and period) as fine control
	speed := g.coord.Speed()
	maxSpeed := g.cfg.Schedule.MaxSpeed
	switch {
	case rl.IsKeyPressed(rl.KeyUp):
		speed = min(speed*2, maxSpeed)
	case rl.IsKeyPressed(rl.KeyDown):
		speed /= 2
	case rl.IsKeyPressed(rl.KeyPeriod):
		speed = min(speed+1, maxSpeed)
	case rl.IsKeyPressed(rl.KeyComma):
		speed--
	}
	g.coord.SetSpeed(speed)

	if rl.IsKeyPressed(rl.KeyN) {
		g.showNetwork = !g.showNetwork
	}
	if rl.IsKeyPressed(rl.KeyC) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyBackspace) {
		g.hasSelected = false
	}

	g.handleCameraInput()
}

// handleCameraInput zooms and pans the lane under the mouse and picks birds.
func (g *Game) handleCameraInput() {
	mouse := rl.GetMousePosition()

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		factor := float32(1.1)
		if wheel < 0 {
			factor = 1 / factor
		}
		g.scene.ZoomAt(mouse.X, mouse.Y, factor)
	}
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		d := rl.GetMouseDelta()
		g.scene.PanAt(mouse.X, mouse.Y, -d.X, -d.Y)
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.scene.ResetCameras()
	}

	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		if a, ok := g.scene.Pick(mouse.X, mouse.Y); ok {
			g.selected, g.hasSelected = a.ID, true
		}
	}
}
