package nn

import (
	"math/rand"

	"github.com/fourzero/trainer/internal/ml"
)

// Block is one stage of a head's computation graph. Forward caches the state
// Backward needs, so a network processes one sample at a time.
type Block interface {
	Forward(x []float64, train bool) []float64
	Backward(grad []float64) []float64
	VisitParams(visit func(w *ml.Matrix, g *ml.Gradients))
	OutputSize() int
}

// dropout applies inverted dropout in place during training and remembers
// the mask for the backward pass.
type dropout struct {
	rate   float64
	rnd    *rand.Rand
	mask   []float64
	active bool
}

func newDropout(rate float64, size int, rnd *rand.Rand) *dropout {
	if rate == 0 {
		return nil
	}
	return &dropout{
		rate: rate,
		rnd:  rnd,
		mask: make([]float64, size),
	}
}

func (d *dropout) apply(x []float64, train bool) {
	if d == nil {
		return
	}
	if !train {
		d.active = false
		return
	}
	d.active = true
	var keep = 1 - d.rate
	for i := range x {
		if d.rnd.Float64() < d.rate {
			d.mask[i] = 0
		} else {
			d.mask[i] = 1 / keep
		}
		x[i] *= d.mask[i]
	}
}

func (d *dropout) backward(grad []float64) {
	if d == nil || !d.active {
		return
	}
	for i := range grad {
		grad[i] *= d.mask[i]
	}
}
