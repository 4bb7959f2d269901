package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/fourzero/trainer/internal/ml"
)

// ResidualBlock is a two-layer transform with an identity skip:
// x + linear(dropout(relu(linear(x)))). Input and output sizes must match.
type ResidualBlock struct {
	first  *DenseBlock
	second *DenseBlock
	out    []float64
	inGrad []float64
}

func NewResidualBlock(size int, dropRate float64, rnd *rand.Rand) *ResidualBlock {
	return &ResidualBlock{
		first:  NewDenseBlock(size, size, &ml.ReLuActivation{}, dropRate, rnd),
		second: NewDenseBlock(size, size, &ml.IdentityActivation{}, dropRate, rnd),
		out:    make([]float64, size),
		inGrad: make([]float64, size),
	}
}

func (r *ResidualBlock) Forward(x []float64, train bool) []float64 {
	var branch = r.second.Forward(r.first.Forward(x, train), train)
	copy(r.out, x)
	floats.Add(r.out, branch)
	return r.out
}

func (r *ResidualBlock) Backward(grad []float64) []float64 {
	// the skip path needs the incoming gradient before the branch blocks
	// mutate it through their dropout masks
	copy(r.inGrad, grad)
	var branchGrad = r.first.Backward(r.second.Backward(grad))
	floats.Add(r.inGrad, branchGrad)
	return r.inGrad
}

func (r *ResidualBlock) VisitParams(visit func(w *ml.Matrix, g *ml.Gradients)) {
	r.first.VisitParams(visit)
	r.second.VisitParams(visit)
}

func (r *ResidualBlock) OutputSize() int {
	return r.second.OutputSize()
}
