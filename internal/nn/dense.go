package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/fourzero/trainer/internal/ml"
)

// DenseBlock is a fully connected transform: activation(Wx+b) followed by
// optional dropout.
type DenseBlock struct {
	weights    ml.Matrix
	biases     ml.Matrix
	wGradients ml.Gradients
	bGradients ml.Gradients
	activation ml.IActivationFn
	drop       *dropout

	input  []float64
	prime  []float64
	out    []float64
	inGrad []float64
}

func NewDenseBlock(inputSize, outputSize int, activation ml.IActivationFn, dropRate float64, rnd *rand.Rand) *DenseBlock {
	var d = &DenseBlock{
		weights:    ml.NewMatrix(outputSize, inputSize),
		biases:     ml.NewMatrix(outputSize, 1),
		wGradients: ml.NewGradients(outputSize, inputSize),
		bGradients: ml.NewGradients(outputSize, 1),
		activation: activation,
		drop:       newDropout(dropRate, outputSize, rnd),
		prime:      make([]float64, outputSize),
		out:        make([]float64, outputSize),
		inGrad:     make([]float64, inputSize),
	}
	d.initWeights(rnd)
	return d
}

func (d *DenseBlock) initWeights(rnd *rand.Rand) {
	var inputSize = d.weights.Cols
	var outputSize = d.weights.Rows
	var variance float64
	if _, relu := d.activation.(*ml.ReLuActivation); relu {
		variance = 2.0 / float64(inputSize)
	} else {
		variance = 2.0 / float64(inputSize+outputSize)
	}
	ml.InitUniform(rnd, d.weights.Data, variance)
}

func (d *DenseBlock) Forward(x []float64, train bool) []float64 {
	d.input = x
	for o := range d.out {
		var z = d.biases.Data[o] + floats.Dot(d.weights.Row(o), x)
		d.out[o] = d.activation.Sigma(z)
		d.prime[o] = d.activation.SigmaPrime(z)
	}
	d.drop.apply(d.out, train)
	return d.out
}

func (d *DenseBlock) Backward(grad []float64) []float64 {
	d.drop.backward(grad)
	for i := range d.inGrad {
		d.inGrad[i] = 0
	}
	for o := range grad {
		var delta = grad[o] * d.prime[o]
		d.bGradients.Add(o, 0, delta)
		for i, xi := range d.input {
			d.wGradients.Add(o, i, delta*xi)
		}
		floats.AddScaled(d.inGrad, delta, d.weights.Row(o))
	}
	return d.inGrad
}

func (d *DenseBlock) VisitParams(visit func(w *ml.Matrix, g *ml.Gradients)) {
	visit(&d.weights, &d.wGradients)
	visit(&d.biases, &d.bGradients)
}

func (d *DenseBlock) OutputSize() int {
	return d.weights.Rows
}
