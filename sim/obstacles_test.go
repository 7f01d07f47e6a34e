package sim

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/pthm-cable/flap/config"
)

func TestSpawnInterval(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) { c.Obstacles.SpawnInterval = 5 })
	c := newTestCoordinator(t, cfg, &stubFactory{})
	p := c.Populations()[0]

	if n := len(p.Obstacles()); n != 2 {
		t.Fatalf("pipes after init = %d, want 2", n)
	}

	// One pair at init, then one at round ticks 5 and 10
	for i := 1; i <= 12; i++ {
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
		wantPairs := 1 + i/5
		if got := len(p.Obstacles()) / 2; got != wantPairs {
			t.Errorf("round tick %d: pairs = %d, want %d", i, got, wantPairs)
		}
	}
}

func TestPipesAdvance(t *testing.T) {
	c := newTestCoordinator(t, testConfig(t, nil), &stubFactory{})
	p := c.Populations()[0]

	for i := 0; i < 3; i++ {
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
	}
	for _, pipe := range p.Obstacles() {
		if pipe.Left != 900-3*2 {
			t.Errorf("pipe %d left = %v, want %v", pipe.ID, pipe.Left, 900-3*2)
		}
	}
}

func TestPairGeometry(t *testing.T) {
	c := newTestCoordinator(t, testConfig(t, nil), &stubFactory{})
	p := c.Populations()[0]

	top, bottom, err := p.ClosestPair()
	if err != nil {
		t.Fatal(err)
	}
	if bottom.PairID != top.ID {
		t.Errorf("bottom.PairID = %d, want %d", bottom.PairID, top.ID)
	}
	if gap := bottom.Top - top.Bottom(); gap != 120 {
		t.Errorf("gap = %v, want 120", gap)
	}
	if bottom.Bottom() != 565 {
		t.Errorf("bottom pipe ends at %v, want the floor at 565", bottom.Bottom())
	}
	if got := p.gapCenter(p.pairs[0].top); got != top.Bottom()+60 {
		t.Errorf("gap center = %v, want %v", got, top.Bottom()+60)
	}
}

func TestClosestPair(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) { c.Obstacles.SpawnInterval = 10 })
	c := newTestCoordinator(t, cfg, &stubFactory{})
	p := c.Populations()[0]

	for i := 0; i < 25; i++ {
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
	}

	top, bottom, err := p.ClosestPair()
	if err != nil {
		t.Fatal(err)
	}
	// The first pair has travelled the furthest
	first := p.Obstacles()[0]
	if top.ID != first.ID {
		t.Errorf("closest top = %d, want %d", top.ID, first.ID)
	}
	if bottom.PairID != first.ID {
		t.Errorf("closest bottom pairs with %d, want %d", bottom.PairID, first.ID)
	}
	for _, pipe := range p.Obstacles() {
		if pipe.Left < top.Left {
			t.Errorf("pipe %d at %v is left of the closest at %v", pipe.ID, pipe.Left, top.Left)
		}
	}
}

func TestClosestPairTieGoesToFirst(t *testing.T) {
	c := newTestCoordinator(t, testConfig(t, nil), &stubFactory{})
	p := c.Populations()[0]
	p.spawnPair() // same left edge as the initial pair

	top, _, err := p.ClosestPair()
	if err != nil {
		t.Fatal(err)
	}
	if want := p.Obstacles()[0].ID; top.ID != want {
		t.Errorf("closest top = %d, want first spawned %d", top.ID, want)
	}
}

func TestNoObstacleAvailable(t *testing.T) {
	c := newTestCoordinator(t, testConfig(t, nil), &stubFactory{})
	p := c.Populations()[0]
	for _, pair := range p.pairs {
		p.ctx.World.RemoveEntity(pair.top)
		p.ctx.World.RemoveEntity(pair.bottom)
	}
	p.pairs = nil

	if _, _, err := p.ClosestPair(); !errors.Is(err, ErrNoObstacleAvailable) {
		t.Errorf("ClosestPair err = %v, want ErrNoObstacleAvailable", err)
	}
	if err := c.Step(); !errors.Is(err, ErrNoObstacleAvailable) {
		t.Errorf("Step err = %v, want ErrNoObstacleAvailable", err)
	}
}

func TestPruneOffscreen(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.Obstacles.Prune = "offscreen"
		c.Obstacles.Speed = 100
		c.Obstacles.SpawnInterval = 5
	})
	c := newTestCoordinator(t, cfg, &stubFactory{})
	p := c.Populations()[0]

	// 900 + 60 width needs 10 ticks at 100/tick to leave the field
	for i := 0; i < 11; i++ {
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
	}
	for _, pipe := range p.Obstacles() {
		if pipe.Right() < 0 && len(p.Obstacles()) > 2 {
			t.Errorf("pipe %d at %v should have been pruned", pipe.ID, pipe.Left)
		}
	}
}

func TestPruneKeepsLastPair(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.Obstacles.Prune = "offscreen"
		c.Obstacles.Speed = 100
		c.Obstacles.SpawnInterval = 1000
	})
	c := newTestCoordinator(t, cfg, &stubFactory{})
	p := c.Populations()[0]

	for i := 0; i < 20; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("tick %d: %v", i+1, err)
		}
	}
	if n := len(p.Obstacles()); n != 2 {
		t.Errorf("pipes = %d, want the last pair kept", n)
	}
}

func TestKeepAllAccumulates(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.Obstacles.Speed = 100
		c.Obstacles.SpawnInterval = 5
	})
	c := newTestCoordinator(t, cfg, &stubFactory{})
	p := c.Populations()[0]

	for i := 0; i < 30; i++ {
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(p.Obstacles()) / 2; got != 7 {
		t.Errorf("pairs = %d, want 7", got)
	}
}

func TestGapPlacers(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	placers := []GapPlacer{FixedGap{}, NewRandomGap(rng), NewNoiseGap(7, 0.35)}

	for _, g := range placers {
		t.Run(g.Name(), func(t *testing.T) {
			for pair := 0; pair < 200; pair++ {
				top := g.GapTop(pair, 50, 395)
				if top < 50 || top > 395 {
					t.Fatalf("pair %d: gap top %v outside [50, 395]", pair, top)
				}
			}
		})
	}
}

func TestNoiseGapDeterministic(t *testing.T) {
	a := NewNoiseGap(11, 0.35)
	b := NewNoiseGap(11, 0.35)
	for pair := 0; pair < 20; pair++ {
		if a.GapTop(pair, 0, 100) != b.GapTop(pair, 0, 100) {
			t.Fatalf("pair %d: same seed produced different gaps", pair)
		}
	}
}

func TestNewGapPlacerUnknown(t *testing.T) {
	if _, err := NewGapPlacer("spiral", config.ObstacleConfig{}, rand.New(rand.NewSource(1))); err == nil {
		t.Error("expected error for unknown placement")
	}
	if _, err := NewPrunePolicy("always"); err == nil {
		t.Error("expected error for unknown prune policy")
	}
}
