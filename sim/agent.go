package sim

import (
	"errors"
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flap/components"
	"github.com/pthm-cable/flap/neural"
)

// SensorKind identifies one network input.
type SensorKind uint8

const (
	SensorYUnitPos    SensorKind = iota // Bird top minus half its height
	SensorYGapPos                       // Vertical center of the closest gap
	SensorVelocity                      // Vertical velocity
	SensorGapDistance                   // Horizontal distance to the closest pair's right edge
)

var sensorNames = map[string]SensorKind{
	"y_unit_pos":   SensorYUnitPos,
	"y_gap_pos":    SensorYGapPos,
	"velocity":     SensorVelocity,
	"gap_distance": SensorGapDistance,
}

// ParseSensors resolves configured sensor names in order.
func ParseSensors(names []string) ([]SensorKind, error) {
	kinds := make([]SensorKind, len(names))
	for i, name := range names {
		k, ok := sensorNames[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSensor, name)
		}
		kinds[i] = k
	}
	return kinds, nil
}

// ActuatorKind identifies one network output and the effect it triggers.
type ActuatorKind uint8

const (
	ActuatorFlap ActuatorKind = iota
)

var actuatorNames = map[string]ActuatorKind{
	"flap": ActuatorFlap,
}

// ParseActuators resolves configured actuator names in order.
func ParseActuators(names []string) ([]ActuatorKind, error) {
	kinds := make([]ActuatorKind, len(names))
	for i, name := range names {
		k, ok := actuatorNames[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownActuator, name)
		}
		kinds[i] = k
	}
	return kinds, nil
}

// ActuatorPolicy turns the output layer into the set of actuators to fire.
type ActuatorPolicy interface {
	Name() string
	// Decide writes one flag per output into fire, which has len(outputs).
	Decide(outputs []float64, fire []bool)
}

// ThresholdPolicy fires every actuator whose output is strictly positive.
type ThresholdPolicy struct{}

func (ThresholdPolicy) Name() string {
	return "threshold"
}

func (ThresholdPolicy) Decide(outputs []float64, fire []bool) {
	for i, v := range outputs {
		fire[i] = v > 0
	}
}

// ArgmaxPolicy fires only the largest output, and only if it is positive.
// Equal maxima resolve to the lowest index.
type ArgmaxPolicy struct{}

func (ArgmaxPolicy) Name() string {
	return "argmax"
}

func (ArgmaxPolicy) Decide(outputs []float64, fire []bool) {
	best := 0
	for i, v := range outputs {
		fire[i] = false
		if v > outputs[best] {
			best = i
		}
	}
	if len(outputs) > 0 && outputs[best] > 0 {
		fire[best] = true
	}
}

// NewActuatorPolicy resolves a policy by its configured name.
func NewActuatorPolicy(name string) (ActuatorPolicy, error) {
	switch name {
	case "threshold":
		return ThresholdPolicy{}, nil
	case "argmax":
		return ArgmaxPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown actuator policy %q", name)
	}
}

// spawnBird creates one bird with a network built from seed.
func (p *Population) spawnBird(seed *neural.Layers) error {
	cfg := p.ctx.Cfg

	nn, err := p.ctx.Networks.NewNetwork(seed)
	if err != nil {
		return fmt.Errorf("building network: %w", err)
	}

	pos := components.Position{Left: cfg.Bird.Left, Top: cfg.Bird.StartTop}
	vel := components.Velocity{}
	body := components.Body{Width: cfg.Bird.Width, Height: cfg.Bird.Height}
	bird := components.Bird{ID: p.ctx.IDs.Next()}

	e := p.ctx.birds.NewEntity(&pos, &vel, &body, &bird)
	p.birds = append(p.birds, e)
	p.brains[bird.ID] = nn
	return nil
}

// updateBird runs one tick for a living bird: sense, decide, act, move,
// check for death and accrue fitness. It reports whether the bird is
// still alive afterwards.
func (p *Population) updateBird(e, top ecs.Entity) (bool, error) {
	cfg := p.ctx.Cfg
	pos, vel, body, bird := p.ctx.birds.Get(e)

	bird.LastJump--
	vel.Y += cfg.Bird.Gravity

	inputs := p.inputs[bird.ID]
	if inputs == nil {
		inputs = make([]float64, len(p.ctx.sensors))
		p.inputs[bird.ID] = inputs
	}
	p.sense(inputs, pos, vel, body, top)

	nn := p.brains[bird.ID]
	if err := nn.ForwardPropagate(inputs); err != nil {
		if errors.Is(err, neural.ErrInputWidth) {
			return false, fmt.Errorf("bird %d: %w: %v", bird.ID, ErrInvalidSensorShape, err)
		}
		return false, fmt.Errorf("bird %d: forward pass: %w", bird.ID, err)
	}

	acts := nn.ActivationLayers()
	if len(acts) == 0 || len(acts[0]) != len(p.ctx.sensors) {
		return false, fmt.Errorf("bird %d: %w: input layer does not have %d values",
			bird.ID, ErrInvalidSensorShape, len(p.ctx.sensors))
	}
	outputs := acts[len(acts)-1]
	if len(outputs) != len(p.ctx.actuators) {
		return false, fmt.Errorf("bird %d: %w: got %d outputs, want %d",
			bird.ID, ErrInvalidActuatorShape, len(outputs), len(p.ctx.actuators))
	}

	p.ctx.Actuation.Decide(outputs, p.fire)
	for i, kind := range p.ctx.actuators {
		if p.fire[i] {
			p.actuate(kind, vel, bird)
		}
	}

	pos.Top = max(pos.Top+vel.Y, 0)

	if body.Bottom(*pos) >= cfg.Derived.FloorY {
		bird.Dead = true
		return false, nil
	}
	if cfg.Bird.PipeCollision && p.hitsPipe(*pos, *body) {
		bird.Dead = true
		return false, nil
	}

	if vel.Y < 0 {
		bird.Frame = components.FrameUp
	} else {
		bird.Frame = components.FrameDown
	}
	bird.Fitness++

	return true, nil
}

// sense fills inputs in configured sensor order.
func (p *Population) sense(inputs []float64, pos *components.Position, vel *components.Velocity, body *components.Body, top ecs.Entity) {
	for i, kind := range p.ctx.sensors {
		switch kind {
		case SensorYUnitPos:
			inputs[i] = pos.Top - body.Height/2
		case SensorYGapPos:
			inputs[i] = p.gapCenter(top)
		case SensorVelocity:
			inputs[i] = vel.Y
		case SensorGapDistance:
			topPos, topBody, _ := p.ctx.pipes.Get(top)
			inputs[i] = topBody.Right(*topPos) - pos.Left
		}
	}
}

func (p *Population) actuate(kind ActuatorKind, vel *components.Velocity, bird *components.Bird) {
	switch kind {
	case ActuatorFlap:
		vel.Y = p.ctx.Cfg.Bird.JumpVelocity
		bird.LastJump = p.ctx.Cfg.Bird.JumpCooldown
	}
}

// hitsPipe reports whether a bird body overlaps any pipe in the population.
func (p *Population) hitsPipe(pos components.Position, body components.Body) bool {
	for _, pair := range p.pairs {
		for _, e := range [2]ecs.Entity{pair.top, pair.bottom} {
			pipePos, pipeBody, _ := p.ctx.pipes.Get(e)
			if components.Overlaps(pos, body, *pipePos, *pipeBody) {
				return true
			}
		}
	}
	return false
}
