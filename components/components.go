// Package components defines ECS components for the simulation.
package components

import "github.com/mlange-42/ark/ecs"

// Frame selects the bird sprite.
type Frame uint8

const (
	FrameDown Frame = iota // Falling or level
	FrameUp                // Rising
)

// String returns the sprite name for a Frame.
func (f Frame) String() string {
	if f == FrameUp {
		return "birdUp"
	}
	return "birdDown"
}

// Bird holds agent state. Birds are never removed mid-generation;
// a dead bird stays in its population with its fitness frozen.
type Bird struct {
	ID       uint64
	Fitness  int // Ticks survived while alive
	Dead     bool
	LastJump int // Cooldown counter, informational only
	Frame    Frame
}

// PipeKind distinguishes the two halves of an obstacle pair.
type PipeKind uint8

const (
	PipeTop PipeKind = iota
	PipeBottom
)

// String returns the display name for a PipeKind.
func (k PipeKind) String() string {
	if k == PipeBottom {
		return "bottom"
	}
	return "top"
}

// Pipe holds obstacle state. A bottom pipe references its paired top pipe;
// top pipes leave Pair as the zero entity.
type Pipe struct {
	ID     uint64
	Kind   PipeKind
	PairID uint64
	Pair   ecs.Entity
}
