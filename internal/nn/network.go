package nn

import (
	"math"

	"github.com/fourzero/trainer/internal/domain"
	"github.com/fourzero/trainer/internal/ml"
)

// Network is one head assembled as an ordered sequence of blocks.
type Network struct {
	inputSize int
	blocks    []Block
}

func (n *Network) InputSize() int {
	return n.inputSize
}

func (n *Network) OutputSize() int {
	return n.blocks[len(n.blocks)-1].OutputSize()
}

func (n *Network) Forward(x []float64, train bool) ([]float64, error) {
	if len(x) != n.inputSize {
		return nil, domain.Shapef("feature vector has %v entries, network input is %v", len(x), n.inputSize)
	}
	var out = x
	for _, block := range n.blocks {
		out = block.Forward(out, train)
	}
	return out, nil
}

// Backward distributes the output gradient through the block stack and
// accumulates parameter gradients. It must follow a Forward in train mode.
func (n *Network) Backward(grad []float64) {
	for i := len(n.blocks) - 1; i >= 0; i-- {
		grad = n.blocks[i].Backward(grad)
	}
}

func (n *Network) visitParams(visit func(w *ml.Matrix, g *ml.Gradients)) {
	for _, block := range n.blocks {
		block.VisitParams(visit)
	}
}

func (n *Network) NumParameters() int {
	var count int
	n.visitParams(func(w *ml.Matrix, g *ml.Gradients) {
		count += w.Size()
	})
	return count
}

// FlattenWeights concatenates every parameter in stable registration order.
// Layer topology does not survive the transform; reconstruction needs the
// architecture descriptor.
func (n *Network) FlattenWeights() []float64 {
	var flat = make([]float64, 0, n.NumParameters())
	n.visitParams(func(w *ml.Matrix, g *ml.Gradients) {
		flat = append(flat, w.Data...)
	})
	return flat
}

// SetFlatWeights restores parameters from a flat sequence produced by
// FlattenWeights on a network of the same architecture.
func (n *Network) SetFlatWeights(flat []float64) error {
	if len(flat) != n.NumParameters() {
		return domain.Shapef("flat weights have %v values, network has %v parameters", len(flat), n.NumParameters())
	}
	var offset int
	n.visitParams(func(w *ml.Matrix, g *ml.Gradients) {
		copy(w.Data, flat[offset:offset+w.Size()])
		offset += w.Size()
	})
	return nil
}

// ApplyGradients turns the accumulated per-sample gradients into a batch
// mean, clips the global norm, performs one Adam step per parameter and
// resets the accumulators.
func (n *Network) ApplyGradients(batchSize int, maxNorm, learningRate float64) {
	var scale = 1 / float64(batchSize)
	var sumSquares float64
	n.visitParams(func(w *ml.Matrix, g *ml.Gradients) {
		g.Scale(scale)
		sumSquares += g.SumSquares()
	})
	var norm = math.Sqrt(sumSquares)
	if norm > maxNorm {
		var clip = maxNorm / (norm + 1e-6)
		n.visitParams(func(w *ml.Matrix, g *ml.Gradients) {
			g.Scale(clip)
		})
	}
	n.visitParams(func(w *ml.Matrix, g *ml.Gradients) {
		g.Apply(w, learningRate)
	})
}
