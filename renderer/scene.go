// Package renderer draws populations and networks with raylib.
package renderer

import (
	"slices"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flap/camera"
	"github.com/pthm-cable/flap/components"
	"github.com/pthm-cable/flap/config"
	"github.com/pthm-cable/flap/sim"
)

// Scene colors.
var (
	ColorSky      = rl.Color{R: 112, G: 197, B: 206, A: 255}
	ColorFloor    = rl.Color{R: 222, G: 216, B: 149, A: 255}
	ColorFloorTop = rl.Color{R: 84, G: 56, B: 71, A: 255}
	ColorPipe     = rl.Color{R: 115, G: 191, B: 46, A: 255}
	ColorPipeRim  = rl.Color{R: 84, G: 128, B: 36, A: 255}
	ColorBirdDown = rl.Color{R: 245, G: 200, B: 66, A: 230}
	ColorBirdUp   = rl.Color{R: 250, G: 120, B: 60, A: 230}
	ColorFittest  = rl.Color{R: 255, G: 255, B: 255, A: 255}
	ColorLaneLine = rl.Color{R: 40, G: 60, B: 70, A: 160}
)

// Scene is a sim.Visualizer that keeps the latest view of every population
// and draws them as horizontal lanes, one camera per lane.
type Scene struct {
	field  config.FieldConfig
	floorY float64

	views   map[uint64]sim.PopulationView
	order   []uint64 // Population IDs in first-seen order
	cameras []*camera.Camera

	highlight uint64
	hasMark   bool
}

// NewScene creates an empty scene for the configured field.
func NewScene(cfg *config.Config) *Scene {
	return &Scene{
		field:  cfg.Field,
		floorY: cfg.Derived.FloorY,
		views:  make(map[uint64]sim.PopulationView),
	}
}

// Visualize implements sim.Visualizer.
func (s *Scene) Visualize(view sim.PopulationView) {
	if _, ok := s.views[view.ID]; !ok {
		s.order = append(s.order, view.ID)
		s.cameras = append(s.cameras, camera.New(0, 0, 1, 1, float32(s.field.Width), float32(s.field.Height)))
	}
	s.views[view.ID] = view
}

// Highlight outlines the bird with the given ID.
func (s *Scene) Highlight(id uint64) {
	s.highlight, s.hasMark = id, true
}

// ClearHighlight removes the outline.
func (s *Scene) ClearHighlight() {
	s.hasMark = false
}

// Layout assigns each lane its share of the screen height.
func (s *Scene) Layout(screenW, screenH int32) {
	if len(s.cameras) == 0 {
		return
	}
	laneH := float32(screenH) / float32(len(s.cameras))
	for i, cam := range s.cameras {
		cam.SetViewport(0, float32(i)*laneH, float32(screenW), laneH)
	}
}

// laneAt returns the index of the lane containing the screen point.
func (s *Scene) laneAt(sx, sy float32) (int, bool) {
	for i, cam := range s.cameras {
		if cam.Contains(sx, sy) {
			return i, true
		}
	}
	return 0, false
}

// ZoomAt zooms the lane under the screen point.
func (s *Scene) ZoomAt(sx, sy, factor float32) {
	if i, ok := s.laneAt(sx, sy); ok {
		s.cameras[i].ZoomBy(factor)
	}
}

// PanAt pans the lane under the screen point by a screen-pixel delta.
func (s *Scene) PanAt(sx, sy, dx, dy float32) {
	if i, ok := s.laneAt(sx, sy); ok {
		s.cameras[i].Pan(dx, dy)
	}
}

// ResetCameras shows the whole field in every lane.
func (s *Scene) ResetCameras() {
	for _, cam := range s.cameras {
		cam.Reset()
	}
}

// Pick returns the living bird under the screen point, if any.
func (s *Scene) Pick(sx, sy float32) (sim.AgentView, bool) {
	i, ok := s.laneAt(sx, sy)
	if !ok {
		return sim.AgentView{}, false
	}
	wx, wy := s.cameras[i].ScreenToWorld(sx, sy)
	x, y := float64(wx), float64(wy)
	for _, a := range s.views[s.order[i]].Agents {
		if a.Alive && x >= a.Left && x <= a.Left+a.Width && y >= a.Top && y <= a.Top+a.Height {
			return a, true
		}
	}
	return sim.AgentView{}, false
}

// Agent returns the latest view of a living bird by ID.
func (s *Scene) Agent(id uint64) (sim.AgentView, bool) {
	for _, pid := range s.order {
		for _, a := range s.views[pid].Agents {
			if a.ID == id && a.Alive {
				return a, true
			}
		}
	}
	return sim.AgentView{}, false
}

// Draw renders every population into its lane.
func (s *Scene) Draw(screenW, screenH int32) {
	rl.DrawRectangle(0, 0, screenW, screenH, ColorSky)
	s.Layout(screenW, screenH)

	for i, id := range s.order {
		cam := s.cameras[i]
		rl.BeginScissorMode(int32(cam.ViewportX), int32(cam.ViewportY), int32(cam.ViewportW), int32(cam.ViewportH))
		s.drawLane(cam, s.views[id])
		rl.EndScissorMode()
		if i > 0 {
			rl.DrawLineEx(rl.Vector2{X: 0, Y: cam.ViewportY}, rl.Vector2{X: float32(screenW), Y: cam.ViewportY}, 2, ColorLaneLine)
		}
	}
}

func (s *Scene) drawLane(cam *camera.Camera, view sim.PopulationView) {
	rect := func(left, top, w, h float64) rl.Rectangle {
		x, y := cam.WorldToScreen(float32(left), float32(top))
		sw, sh := cam.ScaleSize(float32(w), float32(h))
		return rl.Rectangle{X: x, Y: y, Width: sw, Height: sh}
	}

	for _, p := range view.Obstacles {
		if !cam.IsVisible(float32(p.Left), float32(p.Top), float32(p.Width), float32(p.Height)) {
			continue
		}
		r := rect(p.Left, p.Top, p.Width, p.Height)
		rl.DrawRectangleRec(r, ColorPipe)
		rl.DrawRectangleLinesEx(r, 2, ColorPipeRim)
	}

	floor := rect(0, s.floorY, s.field.Width, s.field.FloorHeight)
	rl.DrawRectangleRec(floor, ColorFloor)
	rl.DrawLineEx(rl.Vector2{X: floor.X, Y: floor.Y}, rl.Vector2{X: floor.X + floor.Width, Y: floor.Y}, 3, ColorFloorTop)

	// Draw living birds back to front by fitness so leaders end up on top.
	alive := make([]sim.AgentView, 0, len(view.Agents))
	for _, a := range view.Agents {
		if a.Alive {
			alive = append(alive, a)
		}
	}
	slices.SortStableFunc(alive, func(a, b sim.AgentView) int {
		return a.Fitness - b.Fitness
	})

	for _, a := range alive {
		r := rect(a.Left, a.Top, a.Width, a.Height)
		color := ColorBirdDown
		if a.Frame == components.FrameUp {
			color = ColorBirdUp
		}
		rl.DrawRectangleRounded(r, 0.4, 4, color)
		if s.hasMark && a.ID == s.highlight {
			rl.DrawRectangleLinesEx(r, 2, ColorFittest)
		}
	}
}
