package sim

import (
	"errors"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/flap/config"
	"github.com/pthm-cable/flap/neural"
)

// stubNetwork echoes its inputs and emits fixed outputs.
type stubNetwork struct {
	outputs  []float64
	inWidth  int // 0 means echo the inputs unchanged
	acts     [][]float64
	released bool
}

func (s *stubNetwork) ForwardPropagate(inputs []float64) error {
	if s.released {
		return neural.ErrReleased
	}
	in := append([]float64(nil), inputs...)
	if s.inWidth > 0 {
		in = make([]float64, s.inWidth)
	}
	s.acts = [][]float64{in, append([]float64(nil), s.outputs...)}
	return nil
}

func (s *stubNetwork) ActivationLayers() [][]float64 {
	return s.acts
}

func (s *stubNetwork) WeightLayers() []*mat.Dense {
	return nil
}

func (s *stubNetwork) Layers() *neural.Layers {
	return &neural.Layers{}
}

func (s *stubNetwork) Release() {
	s.released = true
}

// stubFactory builds stub networks and records the seeds it was given.
type stubFactory struct {
	outputs []float64
	inWidth int
	failAt  int // fail the n-th build (1-based); 0 never fails
	seeds   []*neural.Layers
	built   []*stubNetwork
}

var errBuildFailed = errors.New("build failed")

func (f *stubFactory) NewNetwork(seed *neural.Layers) (Network, error) {
	f.seeds = append(f.seeds, seed)
	if len(f.seeds) == f.failAt {
		return nil, errBuildFailed
	}
	nn := &stubNetwork{outputs: f.outputs, inWidth: f.inWidth}
	f.built = append(f.built, nn)
	return nn, nil
}

// testConfig returns defaults with a small deterministic setup.
func testConfig(t *testing.T, mutate func(*config.Config)) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Population.Games = 1
	cfg.Population.BirdsPerGame = 3
	cfg.Obstacles.GapPlacement = "fixed"
	cfg.Bird.Gravity = 0
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return cfg
}

// newTestCoordinator builds an initialized coordinator whose birds never flap
// unless outputs says otherwise.
func newTestCoordinator(t *testing.T, cfg *config.Config, f *stubFactory) *Coordinator {
	t.Helper()
	if f.outputs == nil {
		f.outputs = []float64{-1}
	}
	ctx, err := NewContext(cfg, rand.New(rand.NewSource(42)), f, nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	if err := ctx.Init(); err != nil {
		t.Fatalf("Context.Init: %v", err)
	}
	c := NewCoordinator(ctx)
	if err := c.Init(); err != nil {
		t.Fatalf("Coordinator.Init: %v", err)
	}
	return c
}

// setBird overwrites the position and velocity of bird i in population p.
func setBird(p *Population, i int, top, vel float64) {
	pos, v, _, _ := p.ctx.birds.Get(p.birds[i])
	pos.Top = top
	v.Y = vel
}
