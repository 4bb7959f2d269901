package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/fourzero/trainer/internal/domain"
	"github.com/fourzero/trainer/internal/ml"
)

// DefaultAttentionHeads is the fixed head count of the attention block.
const DefaultAttentionHeads = 4

// AttentionBlock is multi-head self-attention over a single feature vector.
// The channel dimension splits into per-head sub-vectors; each head scores
// its query against its key, softmax-normalizes, and takes the weighted sum
// over values. The heads concatenate back through a final projection.
type AttentionBlock struct {
	size     int
	heads    int
	headSize int

	query *DenseBlock
	key   *DenseBlock
	value *DenseBlock
	proj  *DenseBlock

	attnDrop *dropout
	scores   []float64
	weights  []float64
	context  []float64
	vGrad    []float64
}

func NewAttentionBlock(size, heads int, dropRate float64, rnd *rand.Rand) (*AttentionBlock, error) {
	if heads <= 0 {
		heads = DefaultAttentionHeads
	}
	if size%heads != 0 {
		return nil, domain.Shapef("attention over %v channels requires a size divisible by %v heads", size, heads)
	}
	var identity = &ml.IdentityActivation{}
	return &AttentionBlock{
		size:     size,
		heads:    heads,
		headSize: size / heads,
		query:    NewDenseBlock(size, size, identity, 0, rnd),
		key:      NewDenseBlock(size, size, identity, 0, rnd),
		value:    NewDenseBlock(size, size, identity, 0, rnd),
		proj:     NewDenseBlock(size, size, identity, 0, rnd),
		attnDrop: newDropout(dropRate, heads, rnd),
		scores:   make([]float64, heads),
		weights:  make([]float64, heads),
		context:  make([]float64, size),
		vGrad:    make([]float64, size),
	}, nil
}

func (a *AttentionBlock) Forward(x []float64, train bool) []float64 {
	var q = a.query.Forward(x, train)
	var k = a.key.Forward(x, train)
	var v = a.value.Forward(x, train)

	var scale = 1 / math.Sqrt(float64(a.headSize))
	for h := 0; h < a.heads; h++ {
		var lo, hi = h * a.headSize, (h + 1) * a.headSize
		a.scores[h] = floats.Dot(q[lo:hi], k[lo:hi]) * scale
		// a single position attends only to itself, so the softmax over
		// this one score is constant
		a.weights[h] = 1
	}
	a.attnDrop.apply(a.weights, train)

	for h := 0; h < a.heads; h++ {
		var lo, hi = h * a.headSize, (h + 1) * a.headSize
		for i := lo; i < hi; i++ {
			a.context[i] = a.weights[h] * v[i]
		}
	}
	return a.proj.Forward(a.context, train)
}

func (a *AttentionBlock) Backward(grad []float64) []float64 {
	var contextGrad = a.proj.Backward(grad)
	// the softmax of a single score is constant, so no gradient reaches the
	// query and key projections; only the value path carries one
	for h := 0; h < a.heads; h++ {
		var lo, hi = h * a.headSize, (h + 1) * a.headSize
		for i := lo; i < hi; i++ {
			a.vGrad[i] = a.weights[h] * contextGrad[i]
		}
	}
	return a.value.Backward(a.vGrad)
}

func (a *AttentionBlock) VisitParams(visit func(w *ml.Matrix, g *ml.Gradients)) {
	a.query.VisitParams(visit)
	a.key.VisitParams(visit)
	a.value.VisitParams(visit)
	a.proj.VisitParams(visit)
}

func (a *AttentionBlock) OutputSize() int {
	return a.size
}
