package sim

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// State is the generation lifecycle state.
type State uint8

const (
	StateRunning State = iota
	StateExtinct
	StateResetting
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExtinct:
		return "extinct"
	case StateResetting:
		return "resetting"
	default:
		return "unknown"
	}
}

// Phase names a stage of Coordinator.Step.
type Phase string

const (
	PhaseObstacles Phase = "obstacles" // pipe spawn, advance and prune
	PhaseAgents    Phase = "agents"    // sensing, actuation, movement and fitness
	PhaseSelection Phase = "selection" // fittest bird and counters
	PhaseReset     Phase = "reset"     // extinction summary and repopulation
)

// Coordinator owns every population, runs the per-tick update, selects
// the fittest bird and resets the run when all birds are dead.
// It is not safe for concurrent use; one driver calls Step at a time.
type Coordinator struct {
	ctx  *Context
	pops []*Population

	tick           int
	roundTick      int
	generation     int
	topFitness     int
	currentFitness int
	lastReset      int
	speed          int
	alive          int

	state      State
	fittest    AgentView
	hasFittest bool

	observers []GenerationObserver

	// OnStateChange, if set, is called on every lifecycle transition.
	OnStateChange func(from, to State)

	// OnPhase, if set, is called as Step enters each stage. A stage may be
	// entered once per population within one Step.
	OnPhase func(phase Phase)
}

// NewCoordinator creates a coordinator for ctx. Call Init before Step.
func NewCoordinator(ctx *Context) *Coordinator {
	return &Coordinator{
		ctx:        ctx,
		generation: 1,
		speed:      ctx.Cfg.Schedule.Speed,
	}
}

// AddObserver registers o for generation summaries.
func (c *Coordinator) AddObserver(o GenerationObserver) {
	c.observers = append(c.observers, o)
}

// Init creates the configured populations with unseeded networks.
func (c *Coordinator) Init() error {
	if !c.ctx.Initialized() {
		return fmt.Errorf("sim: context: %w", ErrNotInitialized)
	}
	n := c.ctx.Cfg.Population.Games
	c.pops = make([]*Population, 0, n)
	total := 0
	for i := 0; i < n; i++ {
		p := NewPopulation(c.ctx)
		if err := p.Init(nil); err != nil {
			return err
		}
		c.pops = append(c.pops, p)
		total += p.Size()
	}
	if total == 0 {
		return ErrEmptyPopulation
	}
	c.alive = total
	c.state = StateRunning
	return nil
}

// Step runs one tick. Populations update in creation order; selection
// and any reset happen after all of them. A population error aborts the
// tick before selection.
func (c *Coordinator) Step() error {
	if len(c.pops) == 0 {
		return ErrEmptyPopulation
	}

	c.tick++
	c.roundTick++

	var all []AgentView
	alive := 0
	for _, p := range c.pops {
		c.phase(PhaseObstacles)
		top, err := p.stepObstacles(c.roundTick)
		if err != nil {
			return fmt.Errorf("population %d: %w", p.ID, err)
		}
		c.phase(PhaseAgents)
		n, err := p.stepAgents(top)
		if err != nil {
			return fmt.Errorf("population %d: %w", p.ID, err)
		}
		alive += n
		all = p.appendAgents(all)
		p.Visualize()
	}
	c.alive = alive

	c.phase(PhaseSelection)
	fittest, err := FindFittest(all)
	if err != nil {
		return err
	}
	c.fittest, c.hasFittest = fittest, true
	c.topFitness = max(c.topFitness, fittest.Fitness)
	c.currentFitness = fittest.Fitness

	if alive == 0 {
		c.phase(PhaseReset)
		return c.reset(fittest, all)
	}
	return nil
}

// FindFittest returns the bird with the highest fitness. It stable-sorts
// ascending and takes the last element, so equal fitness resolves to the
// bird that appears latest in agents.
func FindFittest(agents []AgentView) (AgentView, error) {
	if len(agents) == 0 {
		return AgentView{}, ErrEmptyPopulation
	}
	sorted := slices.Clone(agents)
	slices.SortStableFunc(sorted, func(a, b AgentView) int {
		return cmp.Compare(a.Fitness, b.Fitness)
	})
	return sorted[len(sorted)-1], nil
}

func (c *Coordinator) phase(p Phase) {
	if c.OnPhase != nil {
		c.OnPhase(p)
	}
}

func (c *Coordinator) setState(s State) {
	from := c.state
	c.state = s
	if c.OnStateChange != nil {
		c.OnStateChange(from, s)
	}
}

// reset starts the next generation from the fittest bird's layers.
// If any population fails to repopulate, every population is torn down
// and the coordinator stays in StateResetting; it cannot be stepped again.
func (c *Coordinator) reset(fittest AgentView, all []AgentView) error {
	c.setState(StateExtinct)

	summary := GenerationSummary{
		Generation: c.generation,
		Tick:       c.tick,
		RoundTicks: c.roundTick,
		Fitness:    make([]int, len(all)),
		FittestID:  fittest.ID,
		Fittest:    fittest.Fitness,
		TopFitness: c.topFitness,
	}
	for i, a := range all {
		summary.Fitness[i] = a.Fitness
	}

	c.setState(StateResetting)
	c.lastReset = c.tick
	c.roundTick = 0
	c.generation++

	seed := fittest.Network.Layers()
	fittest.Network.Release()
	c.fittest, c.hasFittest = AgentView{}, false

	total := 0
	for _, p := range c.pops {
		p.Reset()
		if err := p.Init(seed); err != nil {
			c.Teardown()
			c.alive = 0
			return fmt.Errorf("resetting population %d: %w", p.ID, err)
		}
		total += p.Size()
	}
	c.alive = total

	c.setState(StateRunning)

	var errs []error
	for _, o := range c.observers {
		if err := o.GenerationEnded(summary); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("generation observers: %w", err)
	}
	return nil
}

// Stats returns the current counters.
func (c *Coordinator) Stats() Stats {
	return Stats{
		Tick:           c.tick,
		RoundTick:      c.roundTick,
		Generation:     c.generation,
		GamesAmount:    len(c.pops),
		TopFitness:     c.topFitness,
		CurrentFitness: c.currentFitness,
		Speed:          c.speed,
		LastReset:      c.lastReset,
		Alive:          c.alive,
	}
}

// Speed returns the number of steps the driver runs per update.
func (c *Coordinator) Speed() int {
	return c.speed
}

// SetSpeed sets the steps per update, clamped to at least 1.
func (c *Coordinator) SetSpeed(speed int) {
	c.speed = max(speed, 1)
}

// Fittest returns the bird selected on the last tick. It reports false
// before the first tick and right after a reset, when the selected bird
// no longer exists.
func (c *Coordinator) Fittest() (AgentView, bool) {
	return c.fittest, c.hasFittest
}

// State returns the lifecycle state. Outside of Step it is StateRunning
// unless a reset failed.
func (c *Coordinator) State() State {
	return c.state
}

// Populations returns the populations in creation order.
func (c *Coordinator) Populations() []*Population {
	return c.pops
}

// Teardown releases every population. The context stays initialized.
func (c *Coordinator) Teardown() {
	for _, p := range c.pops {
		p.Reset()
	}
	c.pops = nil
	c.fittest, c.hasFittest = AgentView{}, false
}
