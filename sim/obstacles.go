package sim

import (
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/flap/components"
	"github.com/pthm-cable/flap/config"
)

// GapPlacer chooses where the gap of a new pipe pair begins.
// pair counts the pairs spawned in the current round, starting at 0.
// The result must lie in [minTop, maxTop].
type GapPlacer interface {
	Name() string
	GapTop(pair int, minTop, maxTop float64) float64
}

// FixedGap centers every gap in the allowed range.
type FixedGap struct{}

func (FixedGap) Name() string {
	return "fixed"
}

func (FixedGap) GapTop(_ int, minTop, maxTop float64) float64 {
	return (minTop + maxTop) / 2
}

// RandomGap places each gap uniformly in the allowed range.
type RandomGap struct {
	rng *rand.Rand
}

// NewRandomGap creates a uniform placer drawing from rng.
func NewRandomGap(rng *rand.Rand) *RandomGap {
	return &RandomGap{rng: rng}
}

func (*RandomGap) Name() string {
	return "random"
}

func (g *RandomGap) GapTop(_ int, minTop, maxTop float64) float64 {
	return minTop + g.rng.Float64()*(maxTop-minTop)
}

// NoiseGap follows a smooth simplex noise track so consecutive gaps
// drift instead of jumping.
type NoiseGap struct {
	noise opensimplex.Noise
	scale float64
}

// NewNoiseGap creates a noise placer. scale is the noise step per pair.
func NewNoiseGap(seed int64, scale float64) *NoiseGap {
	return &NoiseGap{
		noise: opensimplex.NewNormalized(seed),
		scale: scale,
	}
}

func (*NoiseGap) Name() string {
	return "noise"
}

func (g *NoiseGap) GapTop(pair int, minTop, maxTop float64) float64 {
	n := g.noise.Eval2(float64(pair)*g.scale, 0)
	return minTop + clamp01(n)*(maxTop-minTop)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NewGapPlacer resolves a placer by its configured name.
func NewGapPlacer(name string, cfg config.ObstacleConfig, rng *rand.Rand) (GapPlacer, error) {
	switch name {
	case "fixed":
		return FixedGap{}, nil
	case "random":
		return NewRandomGap(rng), nil
	case "noise":
		return NewNoiseGap(rng.Int63(), cfg.NoiseScale), nil
	default:
		return nil, fmt.Errorf("unknown gap placement %q", name)
	}
}

// PrunePolicy decides when a pipe pair leaves its population.
// The most recently spawned pair is never pruned.
type PrunePolicy interface {
	Name() string
	Expired(top, bottom PipeView) bool
}

// KeepAll never removes pipes; they accumulate for the whole generation.
type KeepAll struct{}

func (KeepAll) Name() string {
	return "none"
}

func (KeepAll) Expired(_, _ PipeView) bool {
	return false
}

// PruneOffscreen removes a pair once both pipes are fully past the left edge.
type PruneOffscreen struct{}

func (PruneOffscreen) Name() string {
	return "offscreen"
}

func (PruneOffscreen) Expired(top, bottom PipeView) bool {
	return top.Right() < 0 && bottom.Right() < 0
}

// NewPrunePolicy resolves a prune policy by its configured name.
func NewPrunePolicy(name string) (PrunePolicy, error) {
	switch name {
	case "none":
		return KeepAll{}, nil
	case "offscreen":
		return PruneOffscreen{}, nil
	default:
		return nil, fmt.Errorf("unknown prune policy %q", name)
	}
}

// pipePair holds the entities of one obstacle pair.
type pipePair struct {
	top, bottom ecs.Entity
}

// spawnPair creates a top/bottom pair at the right edge of the field.
func (p *Population) spawnPair() {
	cfg := p.ctx.Cfg
	gap := cfg.Obstacles.GapHeight
	margin := cfg.Obstacles.GapMargin
	floorY := cfg.Derived.FloorY

	gapTop := p.ctx.Gaps.GapTop(p.spawned, margin, floorY-margin-gap)
	p.spawned++

	left := cfg.Field.Width
	width := cfg.Obstacles.Width

	topID := p.ctx.IDs.Next()
	topPos := components.Position{Left: left, Top: 0}
	topBody := components.Body{Width: width, Height: gapTop}
	topPipe := components.Pipe{ID: topID, Kind: components.PipeTop, PairID: topID}
	top := p.ctx.pipes.NewEntity(&topPos, &topBody, &topPipe)

	bottomPos := components.Position{Left: left, Top: gapTop + gap}
	bottomBody := components.Body{Width: width, Height: floorY - (gapTop + gap)}
	bottomPipe := components.Pipe{
		ID:     p.ctx.IDs.Next(),
		Kind:   components.PipeBottom,
		PairID: topID,
		Pair:   top,
	}
	bottom := p.ctx.pipes.NewEntity(&bottomPos, &bottomBody, &bottomPipe)

	p.pairs = append(p.pairs, pipePair{top: top, bottom: bottom})
}

// advancePipes moves every pipe left by the configured speed.
func (p *Population) advancePipes() {
	speed := p.ctx.Cfg.Obstacles.Speed
	for _, pair := range p.pairs {
		topPos, _, _ := p.ctx.pipes.Get(pair.top)
		topPos.Left -= speed
		bottomPos, _, _ := p.ctx.pipes.Get(pair.bottom)
		bottomPos.Left -= speed
	}
}

// prunePipes removes expired pairs, keeping the last one.
func (p *Population) prunePipes() {
	if len(p.pairs) < 2 {
		return
	}
	last := len(p.pairs) - 1
	kept := p.pairs[:0]
	for i, pair := range p.pairs {
		if i != last && p.ctx.Prune.Expired(p.pipeView(pair.top), p.pipeView(pair.bottom)) {
			p.ctx.World.RemoveEntity(pair.top)
			p.ctx.World.RemoveEntity(pair.bottom)
			continue
		}
		kept = append(kept, pair)
	}
	p.pairs = kept
}

// closestPair returns the pipe of each kind with the minimum left edge.
// Ties go to the pair spawned first.
func (p *Population) closestPair() (top, bottom ecs.Entity, err error) {
	if len(p.pairs) == 0 {
		return top, bottom, fmt.Errorf("%w: population %d has no pipes", ErrNoObstacleAvailable, p.ID)
	}

	top, bottom = p.pairs[0].top, p.pairs[0].bottom
	topPos, _, _ := p.ctx.pipes.Get(top)
	bottomPos, _, _ := p.ctx.pipes.Get(bottom)
	minTop, minBottom := topPos.Left, bottomPos.Left

	for _, pair := range p.pairs[1:] {
		if pos, _, _ := p.ctx.pipes.Get(pair.top); pos.Left < minTop {
			top, minTop = pair.top, pos.Left
		}
		if pos, _, _ := p.ctx.pipes.Get(pair.bottom); pos.Left < minBottom {
			bottom, minBottom = pair.bottom, pos.Left
		}
	}
	return top, bottom, nil
}

func (p *Population) pipeView(e ecs.Entity) PipeView {
	pos, body, pipe := p.ctx.pipes.Get(e)
	return PipeView{
		ID:     pipe.ID,
		PairID: pipe.PairID,
		Kind:   pipe.Kind,
		Left:   pos.Left,
		Top:    pos.Top,
		Width:  body.Width,
		Height: body.Height,
	}
}

// gapCenter is the top pipe's bottom edge plus half the gap height.
func (p *Population) gapCenter(top ecs.Entity) float64 {
	pos, body, _ := p.ctx.pipes.Get(top)
	return pos.Top + body.Height + p.ctx.Cfg.Obstacles.GapHeight/2
}
