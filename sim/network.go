package sim

import (
	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/flap/neural"
)

// Network is the decision contract a bird's brain satisfies.
// *neural.Network implements it.
type Network interface {
	// ForwardPropagate feeds the sensor vector through the network.
	ForwardPropagate(inputs []float64) error
	// ActivationLayers returns the last pass, inputs first and outputs last.
	ActivationLayers() [][]float64
	WeightLayers() []*mat.Dense
	// Layers returns a copy of the network state usable as a seed.
	Layers() *neural.Layers
	// Release drops the network state. It must be safe to call twice.
	Release()
}

// NetworkFactory builds bird networks, optionally seeded from the
// previous generation's fittest layers (nil for the first generation).
type NetworkFactory interface {
	NewNetwork(seed *neural.Layers) (Network, error)
}

// NetworkFactoryFunc adapts a function to NetworkFactory.
type NetworkFactoryFunc func(seed *neural.Layers) (Network, error)

// NewNetwork calls f.
func (f NetworkFactoryFunc) NewNetwork(seed *neural.Layers) (Network, error) {
	return f(seed)
}

// NeuralFactory wraps a neural.Factory as a NetworkFactory.
func NeuralFactory(f *neural.Factory) NetworkFactory {
	return NetworkFactoryFunc(func(seed *neural.Layers) (Network, error) {
		nn, err := f.NewNetwork(seed)
		if err != nil {
			return nil, err
		}
		return nn, nil
	})
}
