package ml

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MSECost is the value head loss.
type MSECost struct{}

func (*MSECost) Cost(predicted, target float64) float64 {
	var x = predicted - target
	return x * x
}

func (*MSECost) CostPrime(predicted, target float64) float64 {
	return 2 * (predicted - target)
}

// CrossEntropy returns -log p[class] for softmax probabilities p.
func CrossEntropy(probs []float64, class int) float64 {
	return -math.Log(probs[class])
}

// CrossEntropyPrime writes the gradient of the cross-entropy loss with
// respect to the logits: softmax(logits) - onehot(class).
func CrossEntropyPrime(dst, probs []float64, class int) {
	copy(dst, probs)
	dst[class] -= 1
}

// Softmax writes the softmax of logits into dst, shifted by the maximum
// logit for numerical stability.
func Softmax(dst, logits []float64) {
	var max = floats.Max(logits)
	for i, v := range logits {
		dst[i] = math.Exp(v - max)
	}
	floats.Scale(1/floats.Sum(dst), dst)
}
