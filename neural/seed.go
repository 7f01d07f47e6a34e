package neural

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/pthm-cable/flap/config"
)

// SeedPolicy decides how a new network is derived from the previous
// generation's fittest layers. seed is nil for the first generation.
type SeedPolicy interface {
	Name() string
	Build(seed *Layers, sizes []int, rng *rand.Rand) (*Network, error)
}

// FreshPolicy ignores the seed and initializes randomly.
type FreshPolicy struct{}

func (FreshPolicy) Name() string {
	return "fresh"
}

func (FreshPolicy) Build(_ *Layers, sizes []int, rng *rand.Rand) (*Network, error) {
	return NewNetwork(sizes, rng)
}

// ClonePolicy starts every network bit-identical to the seed.
type ClonePolicy struct{}

func (ClonePolicy) Name() string {
	return "clone"
}

func (ClonePolicy) Build(seed *Layers, sizes []int, rng *rand.Rand) (*Network, error) {
	if seed == nil {
		return NewNetwork(sizes, rng)
	}
	return FromLayers(seed)
}

// PerturbPolicy copies the seed and applies sparse Gaussian mutation.
type PerturbPolicy struct {
	Rate     float64
	Sigma    float64
	BigRate  float64
	BigSigma float64
}

func (PerturbPolicy) Name() string {
	return "perturb"
}

func (p PerturbPolicy) Build(seed *Layers, sizes []int, rng *rand.Rand) (*Network, error) {
	if seed == nil {
		return NewNetwork(sizes, rng)
	}
	nn, err := FromLayers(seed)
	if err != nil {
		return nil, err
	}
	nn.MutateSparse(rng, p.Rate, p.Sigma, p.BigRate, p.BigSigma)
	return nn, nil
}

// NewSeedPolicy resolves a policy by its configured name.
func NewSeedPolicy(name string, mut config.MutationConfig) (SeedPolicy, error) {
	switch name {
	case "fresh":
		return FreshPolicy{}, nil
	case "clone":
		return ClonePolicy{}, nil
	case "perturb":
		return PerturbPolicy{
			Rate:     mut.Rate,
			Sigma:    mut.Sigma,
			BigRate:  mut.BigRate,
			BigSigma: mut.BigSigma,
		}, nil
	default:
		return nil, fmt.Errorf("unknown seed policy %q", name)
	}
}

// Factory builds networks of a fixed shape under one seed policy.
type Factory struct {
	sizes  []int
	policy SeedPolicy
	rng    *rand.Rand
}

// NewFactory creates a factory. Every network it builds has the given layer widths.
func NewFactory(sizes []int, policy SeedPolicy, rng *rand.Rand) *Factory {
	return &Factory{
		sizes:  append([]int(nil), sizes...),
		policy: policy,
		rng:    rng,
	}
}

// NewNetwork builds a network, optionally derived from seed.
func (f *Factory) NewNetwork(seed *Layers) (*Network, error) {
	if seed != nil {
		if got := seed.Sizes(); !slices.Equal(got, f.sizes) {
			return nil, fmt.Errorf("%w: seed layers %v, want %v", ErrShapeMismatch, got, f.sizes)
		}
	}
	return f.policy.Build(seed, f.sizes, f.rng)
}

// NewFactoryFromConfig wires layer sizes and the seed policy from cfg.
func NewFactoryFromConfig(cfg *config.Config, rng *rand.Rand) (*Factory, error) {
	policy, err := NewSeedPolicy(cfg.Neural.SeedPolicy, cfg.Mutation)
	if err != nil {
		return nil, err
	}
	return NewFactory(cfg.Derived.LayerSizes, policy, rng), nil
}
