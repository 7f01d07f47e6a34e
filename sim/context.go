// Package sim runs the generational simulation-and-selection loop:
// obstacle spawning, bird sensing and actuation, fitness accrual,
// fittest-bird selection and generation reset.
package sim

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flap/components"
	"github.com/pthm-cable/flap/config"
)

// Context is the simulation state shared by every population of a run.
// It is passed explicitly to everything that needs it.
//
// The policy fields are resolved from the config by NewContext and may be
// replaced before Init.
type Context struct {
	Cfg        *config.Config
	RNG        *rand.Rand
	Networks   NetworkFactory
	Visualizer Visualizer // nil disables visualization

	Gaps      GapPlacer
	Prune     PrunePolicy
	Actuation ActuatorPolicy

	World *ecs.World
	IDs   *IDAllocator

	sensors   []SensorKind
	actuators []ActuatorKind

	birds *ecs.Map4[components.Position, components.Velocity, components.Body, components.Bird]
	pipes *ecs.Map3[components.Position, components.Body, components.Pipe]
}

// NewContext resolves sensors, actuators and policies from cfg.
// vis may be nil.
func NewContext(cfg *config.Config, rng *rand.Rand, networks NetworkFactory, vis Visualizer) (*Context, error) {
	if cfg == nil {
		return nil, errors.New("sim: nil config")
	}
	if networks == nil {
		return nil, errors.New("sim: nil network factory")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	sensors, err := ParseSensors(cfg.Neural.Sensors)
	if err != nil {
		return nil, err
	}
	actuators, err := ParseActuators(cfg.Neural.Actuators)
	if err != nil {
		return nil, err
	}

	gaps, err := NewGapPlacer(cfg.Obstacles.GapPlacement, cfg.Obstacles, rng)
	if err != nil {
		return nil, err
	}
	prune, err := NewPrunePolicy(cfg.Obstacles.Prune)
	if err != nil {
		return nil, err
	}
	actuation, err := NewActuatorPolicy(cfg.Neural.ActuatorPolicy)
	if err != nil {
		return nil, err
	}

	return &Context{
		Cfg:        cfg,
		RNG:        rng,
		Networks:   networks,
		Visualizer: vis,
		Gaps:       gaps,
		Prune:      prune,
		Actuation:  actuation,
		sensors:    sensors,
		actuators:  actuators,
	}, nil
}

// Init creates the entity world and the ID allocator.
func (c *Context) Init() error {
	if c.World != nil {
		return fmt.Errorf("sim: context already initialized")
	}
	c.World = ecs.NewWorld()
	c.IDs = NewIDAllocator()
	c.birds = ecs.NewMap4[components.Position, components.Velocity, components.Body, components.Bird](c.World)
	c.pipes = ecs.NewMap3[components.Position, components.Body, components.Pipe](c.World)
	return nil
}

// Initialized reports whether Init has run and Teardown has not.
func (c *Context) Initialized() bool {
	return c.World != nil
}

// Teardown drops the entity world. The context can be initialized again.
func (c *Context) Teardown() {
	c.World = nil
	c.IDs = nil
	c.birds = nil
	c.pipes = nil
}
