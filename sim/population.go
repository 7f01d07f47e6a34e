package sim

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flap/neural"
)

// Population is one independent shard of the simulation ("game"):
// its own birds and pipes, both kept in creation order.
type Population struct {
	ID  uint64
	ctx *Context

	birds []ecs.Entity
	pairs []pipePair

	brains map[uint64]Network   // by bird ID
	inputs map[uint64][]float64 // last sensor vector by bird ID
	fire   []bool

	spawned int // pairs spawned this round
}

// NewPopulation creates an empty population with a fresh ID.
func NewPopulation(ctx *Context) *Population {
	return &Population{
		ID:     ctx.IDs.Next(),
		ctx:    ctx,
		brains: make(map[uint64]Network),
		inputs: make(map[uint64][]float64),
		fire:   make([]bool, len(ctx.actuators)),
	}
}

// Init spawns the configured number of birds, each with a network built
// from seed, and the first pipe pair so sensing never finds the field empty.
func (p *Population) Init(seed *neural.Layers) error {
	n := p.ctx.Cfg.Population.BirdsPerGame
	p.birds = make([]ecs.Entity, 0, n)
	for i := 0; i < n; i++ {
		if err := p.spawnBird(seed); err != nil {
			return fmt.Errorf("population %d: %w", p.ID, err)
		}
	}
	p.spawnPair()
	return nil
}

// Reset releases every network and removes all birds and pipes.
func (p *Population) Reset() {
	for _, nn := range p.brains {
		nn.Release()
	}
	world := p.ctx.World
	for _, e := range p.birds {
		world.RemoveEntity(e)
	}
	for _, pair := range p.pairs {
		world.RemoveEntity(pair.top)
		world.RemoveEntity(pair.bottom)
	}

	p.birds = nil
	p.pairs = nil
	clear(p.brains)
	clear(p.inputs)
	p.spawned = 0
}

// stepObstacles spawns, advances and prunes pipes for one tick. roundTick
// is the already incremented round counter. It returns the top pipe of the
// closest pair.
func (p *Population) stepObstacles(roundTick int) (ecs.Entity, error) {
	if roundTick%p.ctx.Cfg.Obstacles.SpawnInterval == 0 {
		p.spawnPair()
	}
	p.advancePipes()
	p.prunePipes()

	top, _, err := p.closestPair()
	return top, err
}

// stepAgents updates every living bird against the closest pair and
// returns the number still alive.
func (p *Population) stepAgents(top ecs.Entity) (int, error) {
	alive := 0
	for _, e := range p.birds {
		_, _, _, bird := p.ctx.birds.Get(e)
		if bird.Dead {
			continue
		}
		ok, err := p.updateBird(e, top)
		if err != nil {
			return 0, err
		}
		if ok {
			alive++
		}
	}
	return alive, nil
}

// Size returns the number of birds, living or dead.
func (p *Population) Size() int {
	return len(p.birds)
}

// Agents returns views of all birds in creation order.
func (p *Population) Agents() []AgentView {
	return p.appendAgents(make([]AgentView, 0, len(p.birds)))
}

func (p *Population) appendAgents(dst []AgentView) []AgentView {
	for _, e := range p.birds {
		dst = append(dst, p.agentView(e))
	}
	return dst
}

func (p *Population) agentView(e ecs.Entity) AgentView {
	pos, vel, body, bird := p.ctx.birds.Get(e)
	var inputs []float64
	if in := p.inputs[bird.ID]; in != nil {
		inputs = append([]float64(nil), in...)
	}
	return AgentView{
		ID:           bird.ID,
		PopulationID: p.ID,
		Left:         pos.Left,
		Top:          pos.Top,
		Width:        body.Width,
		Height:       body.Height,
		Velocity:     vel.Y,
		Fitness:      bird.Fitness,
		Alive:        !bird.Dead,
		Frame:        bird.Frame,
		Inputs:       inputs,
		Network:      p.brains[bird.ID],
	}
}

// Obstacles returns views of all pipes, pair by pair in spawn order,
// top before bottom.
func (p *Population) Obstacles() []PipeView {
	views := make([]PipeView, 0, 2*len(p.pairs))
	for _, pair := range p.pairs {
		views = append(views, p.pipeView(pair.top), p.pipeView(pair.bottom))
	}
	return views
}

// ClosestPair returns the top and bottom pipes with the minimum left edge.
func (p *Population) ClosestPair() (top, bottom PipeView, err error) {
	t, b, err := p.closestPair()
	if err != nil {
		return top, bottom, err
	}
	return p.pipeView(t), p.pipeView(b), nil
}

// Visualize hands the current state to the context's Visualizer.
func (p *Population) Visualize() {
	if p.ctx.Visualizer == nil {
		return
	}
	p.ctx.Visualizer.Visualize(PopulationView{
		ID:        p.ID,
		Agents:    p.Agents(),
		Obstacles: p.Obstacles(),
	})
}
