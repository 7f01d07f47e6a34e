// Package neural provides the feed-forward networks that drive birds.
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInputWidth is returned when ForwardPropagate receives the wrong number of inputs.
	ErrInputWidth = errors.New("input width mismatch")
	// ErrShapeMismatch is returned when seed layers do not match the network shape.
	ErrShapeMismatch = errors.New("layer shape mismatch")
	// ErrReleased is returned when a released network is used.
	ErrReleased = errors.New("network released")
)

// Layers is the transferable state of a network: one weight matrix per
// connection layer and one activation vector per neuron layer.
// Weight matrix l has shape sizes[l+1] x (sizes[l]+1); the last column is the bias.
type Layers struct {
	Weights     []*mat.Dense
	Activations [][]float64
}

// Sizes returns the neuron layer widths described by the weights.
func (l *Layers) Sizes() []int {
	if l == nil || len(l.Weights) == 0 {
		return nil
	}
	sizes := make([]int, 0, len(l.Weights)+1)
	_, c := l.Weights[0].Dims()
	sizes = append(sizes, c-1)
	for _, w := range l.Weights {
		r, _ := w.Dims()
		sizes = append(sizes, r)
	}
	return sizes
}

// Clone creates a deep copy of the layers.
func (l *Layers) Clone() *Layers {
	if l == nil {
		return nil
	}
	clone := &Layers{
		Weights:     make([]*mat.Dense, len(l.Weights)),
		Activations: make([][]float64, len(l.Activations)),
	}
	for i, w := range l.Weights {
		clone.Weights[i] = mat.DenseCopyOf(w)
	}
	for i, a := range l.Activations {
		clone.Activations[i] = append([]float64(nil), a...)
	}
	return clone
}

// Network is a fully connected feed-forward network.
// Hidden layers use tanh; the output layer is linear so its sign carries the decision.
type Network struct {
	sizes       []int
	weights     []*mat.Dense
	activations [][]float64
}

// NewNetwork creates a randomly initialized network with the given layer widths.
func NewNetwork(sizes []int, rng *rand.Rand) (*Network, error) {
	if err := checkSizes(sizes); err != nil {
		return nil, err
	}

	nn := &Network{sizes: append([]int(nil), sizes...)}
	nn.weights = make([]*mat.Dense, len(sizes)-1)
	for l := 0; l < len(sizes)-1; l++ {
		fanIn, fanOut := sizes[l], sizes[l+1]
		// Xavier initialization, biases start at zero
		scale := math.Sqrt(2.0 / float64(fanIn))
		data := make([]float64, fanOut*(fanIn+1))
		for i := 0; i < fanOut; i++ {
			for j := 0; j < fanIn; j++ {
				data[i*(fanIn+1)+j] = rng.NormFloat64() * scale
			}
		}
		nn.weights[l] = mat.NewDense(fanOut, fanIn+1, data)
	}
	nn.activations = zeroActivations(sizes)

	return nn, nil
}

// FromLayers builds a network that starts as an exact copy of l.
func FromLayers(l *Layers) (*Network, error) {
	sizes := l.Sizes()
	if err := checkSizes(sizes); err != nil {
		return nil, err
	}
	for i, w := range l.Weights {
		r, c := w.Dims()
		if r != sizes[i+1] || c != sizes[i]+1 {
			return nil, fmt.Errorf("%w: weight layer %d is %dx%d, want %dx%d",
				ErrShapeMismatch, i, r, c, sizes[i+1], sizes[i]+1)
		}
	}

	clone := l.Clone()
	nn := &Network{
		sizes:   sizes,
		weights: clone.Weights,
	}

	// Seed activations are carried over when they fit, otherwise zeroed
	nn.activations = zeroActivations(sizes)
	if len(clone.Activations) == len(sizes) {
		for i, a := range clone.Activations {
			if len(a) == sizes[i] {
				nn.activations[i] = a
			}
		}
	}

	return nn, nil
}

func checkSizes(sizes []int) error {
	if len(sizes) < 2 {
		return fmt.Errorf("%w: need at least 2 layers, got %d", ErrShapeMismatch, len(sizes))
	}
	for i, s := range sizes {
		if s <= 0 {
			return fmt.Errorf("%w: layer %d has width %d", ErrShapeMismatch, i, s)
		}
	}
	return nil
}

func zeroActivations(sizes []int) [][]float64 {
	acts := make([][]float64, len(sizes))
	for i, s := range sizes {
		acts[i] = make([]float64, s)
	}
	return acts
}

// ForwardPropagate feeds inputs through the network. The results are
// readable through ActivationLayers; the last layer holds the outputs.
func (nn *Network) ForwardPropagate(inputs []float64) error {
	if nn.weights == nil {
		return ErrReleased
	}
	if len(inputs) != nn.sizes[0] {
		return fmt.Errorf("%w: got %d, want %d", ErrInputWidth, len(inputs), nn.sizes[0])
	}

	copy(nn.activations[0], inputs)

	last := len(nn.weights) - 1
	for l, w := range nn.weights {
		prev := nn.activations[l]

		// Append the constant bias input
		in := mat.NewVecDense(len(prev)+1, nil)
		for i, v := range prev {
			in.SetVec(i, v)
		}
		in.SetVec(len(prev), 1)

		var out mat.VecDense
		out.MulVec(w, in)

		dst := nn.activations[l+1]
		for i := range dst {
			v := out.AtVec(i)
			if l != last {
				v = math.Tanh(v)
			}
			dst[i] = v
		}
	}

	return nil
}

// Sizes returns the neuron layer widths.
func (nn *Network) Sizes() []int {
	return append([]int(nil), nn.sizes...)
}

// ActivationLayers returns the activations of the last forward pass,
// inputs first and outputs last. Callers must not modify them.
func (nn *Network) ActivationLayers() [][]float64 {
	return nn.activations
}

// WeightLayers returns the weight matrices. Callers must not modify them.
func (nn *Network) WeightLayers() []*mat.Dense {
	return nn.weights
}

// Layers returns a deep copy of the network state for seeding.
func (nn *Network) Layers() *Layers {
	l := &Layers{Weights: nn.weights, Activations: nn.activations}
	return l.Clone()
}

// Clone creates a deep copy of the network.
func (nn *Network) Clone() *Network {
	l := nn.Layers()
	return &Network{
		sizes:       nn.Sizes(),
		weights:     l.Weights,
		activations: l.Activations,
	}
}

// Release drops the network state. Any further forward pass fails.
func (nn *Network) Release() {
	nn.weights = nil
	nn.activations = nil
}

// MutateSparse applies sparse per-weight mutation.
// rate: probability each weight mutates (biases mutate at half the rate)
// sigma: standard deviation of a normal perturbation
// bigRate: probability that a mutation uses bigSigma instead
// Returns avgAbsDelta: the average absolute delta of all applied mutations.
func (nn *Network) MutateSparse(rng *rand.Rand, rate, sigma, bigRate, bigSigma float64) float64 {
	biasRate := rate * 0.5

	var totalDelta float64
	var count int

	for _, w := range nn.weights {
		_, cols := w.Dims()
		w.Apply(func(_, j int, v float64) float64 {
			p := rate
			if j == cols-1 {
				p = biasRate
			}
			if rng.Float64() >= p {
				return v
			}
			delta := rng.NormFloat64() * sigma
			if rng.Float64() < bigRate {
				delta = rng.NormFloat64() * bigSigma
			}
			totalDelta += math.Abs(delta)
			count++
			return v + delta
		}, w)
	}

	if count == 0 {
		return 0
	}
	return totalDelta / float64(count)
}
