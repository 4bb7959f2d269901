package ml

import (
	"math"
	"testing"
)

func TestSoftmax(t *testing.T) {
	tests := []struct {
		name     string
		logits   []float64
		wantTop  int
	}{
		{"ordered", []float64{0.1, 0.5, 0.2}, 1},
		{"negative", []float64{-3, -1, -2}, 1},
		{"large", []float64{1000, 999, 998}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var probs = make([]float64, len(tt.logits))
			Softmax(probs, tt.logits)
			var sum float64
			var top int
			for i, p := range probs {
				if p < 0 || p > 1 {
					t.Errorf("probability %v outside [0,1]", p)
				}
				sum += p
				if p > probs[top] {
					top = i
				}
			}
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("probabilities sum to %v, want 1", sum)
			}
			if top != tt.wantTop {
				t.Errorf("largest probability at %v, want %v", top, tt.wantTop)
			}
		})
	}
}

func TestCrossEntropyPrime(t *testing.T) {
	var logits = []float64{0.3, -0.2, 1.1, 0.0}
	var probs = make([]float64, len(logits))
	Softmax(probs, logits)
	var grad = make([]float64, len(logits))
	CrossEntropyPrime(grad, probs, 2)

	var sum float64
	for _, g := range grad {
		sum += g
	}
	if math.Abs(sum) > 1e-9 {
		t.Errorf("logit gradients sum to %v, want 0", sum)
	}
	if grad[2] >= 0 {
		t.Errorf("gradient for the target class is %v, want negative", grad[2])
	}
}

func TestTanhActivation(t *testing.T) {
	var fn TanhActivation
	if got := fn.Sigma(0); got != 0 {
		t.Errorf("Sigma(0) = %v, want 0", got)
	}
	if got := fn.SigmaPrime(0); got != 1 {
		t.Errorf("SigmaPrime(0) = %v, want 1", got)
	}
	if got := fn.Sigma(1000); got > 1 || got < -1 {
		t.Errorf("Sigma(1000) = %v, outside [-1,1]", got)
	}
}

func TestGradientApplyDirection(t *testing.T) {
	var m = NewMatrix(1, 1)
	m.Data[0] = 0.5
	var g = NewGradients(1, 1)
	g.Add(0, 0, 1) // positive gradient must decrease the parameter
	g.Apply(&m, 0.01)
	if m.Data[0] >= 0.5 {
		t.Errorf("parameter is %v after a positive-gradient step, want < 0.5", m.Data[0])
	}
	if g.Data[0].Value != 0 {
		t.Errorf("accumulated gradient not reset after Apply")
	}
}

func TestMatrixRow(t *testing.T) {
	var m = NewMatrix(2, 3)
	m.Set(1, 2, 7)
	if got := m.Get(1, 2); got != 7 {
		t.Errorf("Get(1,2) = %v, want 7", got)
	}
	if got := m.Row(1)[2]; got != 7 {
		t.Errorf("Row(1)[2] = %v, want 7", got)
	}
}
