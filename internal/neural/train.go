package neural

import (
	"fmt"
	"math"
)

// Backpropagate performs one online gradient-descent step toward targets,
// mutating the network's weights and biases in place. No batching and no
// momentum: each call is one single-sample update, which is all the
// deferred-outcome training loop ever needs.
func Backpropagate(n *Network, inputs, targets []float64, learningRate float64) error {
	if len(inputs) != n.InputWidth() {
		return fmt.Errorf("input width mismatch: got %d, want %d", len(inputs), n.InputWidth())
	}
	if len(targets) != n.OutputWidth() {
		return fmt.Errorf("target width mismatch: got %d, want %d", len(targets), n.OutputWidth())
	}

	layers := len(n.Weights)

	// Forward pass, caching every layer's activations.
	activations := make([][]float64, layers+1)
	activations[0] = inputs
	for l := 0; l < layers; l++ {
		next := make([]float64, len(n.Weights[l]))
		for j, row := range n.Weights[l] {
			sum := n.Biases[l][j]
			for i, w := range row {
				sum += w * activations[l][i]
			}
			next[j] = math.Tanh(sum)
		}
		activations[l+1] = next
	}

	// Output layer deltas: dE/dz for E = 1/2 (a - t)^2 with tanh activation.
	deltas := make([][]float64, layers)
	out := activations[layers]
	outDeltas := make([]float64, len(out))
	for j := range out {
		outDeltas[j] = (out[j] - targets[j]) * (1 - out[j]*out[j])
	}
	deltas[layers-1] = outDeltas

	// Hidden layer deltas, chain rule backwards.
	for l := layers - 2; l >= 0; l-- {
		cur := make([]float64, len(n.Weights[l]))
		for j := range cur {
			var sum float64
			for k, row := range n.Weights[l+1] {
				sum += row[j] * deltas[l+1][k]
			}
			a := activations[l+1][j]
			cur[j] = sum * (1 - a*a)
		}
		deltas[l] = cur
	}

	// Gradient step.
	for l := 0; l < layers; l++ {
		for j, row := range n.Weights[l] {
			for i := range row {
				row[i] -= learningRate * deltas[l][j] * activations[l][i]
			}
			n.Biases[l][j] -= learningRate * deltas[l][j]
		}
	}

	return nil
}

// TrainOutput nudges a single output slot toward target while holding the
// other slots at their current prediction, so only the chosen slot (and
// the hidden weights feeding it) learn from this example. Used by pickers
// whose outputs are independent category scores.
func TrainOutput(n *Network, inputs []float64, slot int, target, learningRate float64) error {
	out, err := FeedForward(n, inputs)
	if err != nil {
		return err
	}
	if slot < 0 || slot >= len(out) {
		return fmt.Errorf("output slot %d out of range [0,%d)", slot, len(out))
	}

	targets := make([]float64, len(out))
	copy(targets, out)
	targets[slot] = target
	return Backpropagate(n, inputs, targets, learningRate)
}
