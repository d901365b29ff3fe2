// Package neural provides a minimal multi-layer feed-forward network kept
// as plain data plus free functions. Every autonomous decision-maker in
// the simulation (investors, corporate boards, the news picker) reuses
// this one primitive; none of them get anything fancier than online
// single-sample gradient descent.
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Network is a plain-data multi-layer perceptron. Weights[l][j][i] is the
// weight from input i into neuron j of layer l; Biases[l][j] matches.
// Keeping the type pure data means snapshots serialize the whole thing
// and deserialize it back without any rehydration step.
type Network struct {
	Sizes        []int         `json:"sizes" msgpack:"sizes"`
	FeatureNames []string      `json:"feature_names" msgpack:"feature_names"`
	Weights      [][][]float64 `json:"weights" msgpack:"weights"`
	Biases       [][]float64   `json:"biases" msgpack:"biases"`
}

// New builds a network from ordered layer sizes (first entry is the input
// width). Weights start in a bounded symmetric Xavier-style range drawn
// from the supplied generator; biases start at zero. featureNames is kept
// for introspection only and must match the input width when provided.
func New(rng *rand.Rand, sizes []int, featureNames []string) (*Network, error) {
	if len(sizes) < 2 {
		return nil, errors.New("network needs at least an input and an output layer")
	}
	for _, s := range sizes {
		if s < 1 {
			return nil, fmt.Errorf("invalid layer size %d", s)
		}
	}
	if featureNames != nil && len(featureNames) != sizes[0] {
		return nil, fmt.Errorf("feature names length %d does not match input width %d", len(featureNames), sizes[0])
	}

	layers := len(sizes) - 1
	weights := make([][][]float64, layers)
	biases := make([][]float64, layers)
	for l := 0; l < layers; l++ {
		in, out := sizes[l], sizes[l+1]
		limit := math.Sqrt(6.0 / float64(in+out))
		w := make([][]float64, out)
		for j := range w {
			row := make([]float64, in)
			for i := range row {
				row[i] = (rng.Float64()*2 - 1) * limit
			}
			w[j] = row
		}
		weights[l] = w
		biases[l] = make([]float64, out)
	}

	return &Network{
		Sizes:        sizes,
		FeatureNames: featureNames,
		Weights:      weights,
		Biases:       biases,
	}, nil
}

// InputWidth returns the expected input vector length.
func (n *Network) InputWidth() int {
	return n.Sizes[0]
}

// OutputWidth returns the output vector length.
func (n *Network) OutputWidth() int {
	return n.Sizes[len(n.Sizes)-1]
}

// FeedForward runs the network on one input vector. Deterministic given
// the weights: affine transform plus tanh at every layer, so outputs stay
// in (-1, 1). A wrong input width is a caller bug, reported as an error.
func FeedForward(n *Network, inputs []float64) ([]float64, error) {
	if len(inputs) != n.InputWidth() {
		return nil, fmt.Errorf("input width mismatch: got %d, want %d", len(inputs), n.InputWidth())
	}

	activations := inputs
	for l := range n.Weights {
		next := make([]float64, len(n.Weights[l]))
		for j, row := range n.Weights[l] {
			sum := n.Biases[l][j]
			for i, w := range row {
				sum += w * activations[i]
			}
			next[j] = math.Tanh(sum)
		}
		activations = next
	}
	return activations, nil
}
