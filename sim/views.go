package sim

import "github.com/pthm-cable/flap/components"

// AgentView is a read-only snapshot of one bird.
type AgentView struct {
	ID           uint64
	PopulationID uint64
	Left, Top    float64
	Width        float64
	Height       float64
	Velocity     float64
	Fitness      int
	Alive        bool
	Frame        components.Frame
	Inputs       []float64 // Last sensor vector, nil before the first update
	Network      Network
}

// PipeView is a read-only snapshot of one pipe.
type PipeView struct {
	ID        uint64
	PairID    uint64 // ID of the paired top pipe; equals ID for top pipes
	Kind      components.PipeKind
	Left, Top float64
	Width     float64
	Height    float64
}

// Right returns the right edge of the pipe.
func (p PipeView) Right() float64 {
	return p.Left + p.Width
}

// Bottom returns the bottom edge of the pipe.
func (p PipeView) Bottom() float64 {
	return p.Top + p.Height
}

// PopulationView is what a Visualizer receives once per population per tick.
type PopulationView struct {
	ID        uint64
	Agents    []AgentView
	Obstacles []PipeView
}

// Visualizer is the rendering sink. It must not mutate simulation state;
// views are copies but Network references are shared.
type Visualizer interface {
	Visualize(view PopulationView)
}

// VisualizerFunc adapts a function to Visualizer.
type VisualizerFunc func(view PopulationView)

// Visualize calls f.
func (f VisualizerFunc) Visualize(view PopulationView) {
	f(view)
}
