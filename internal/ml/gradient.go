package ml

import "math"

const (
	Beta1 = 0.9
	Beta2 = 0.999
)

// Gradient keeps the accumulated raw gradient and the Adam moment estimates
// for a single parameter.
type Gradient struct {
	Value float64
	M1    float64
	M2    float64
}

func (g *Gradient) Calculate(learningRate float64) float64 {

	if g.Value == 0 {
		// nothing to calculate
		return 0
	}

	g.M1 = g.M1*Beta1 + g.Value*(1-Beta1)
	g.M2 = g.M2*Beta2 + (g.Value*g.Value)*(1-Beta2)

	return learningRate * g.M1 / (math.Sqrt(g.M2) + 1e-8)
}

type Gradients struct {
	Data []Gradient
	Rows int
	Cols int
}

func NewGradients(rows, cols int) Gradients {
	return Gradients{
		Data: make([]Gradient, rows*cols),
		Rows: rows,
		Cols: cols,
	}
}

func (g *Gradients) Add(row, col int, delta float64) {
	g.Data[row*g.Cols+col].Value += delta
}

// Scale multiplies the accumulated raw gradients, used to turn per-sample
// sums into a batch mean and to clip by global norm.
func (g *Gradients) Scale(factor float64) {
	for i := range g.Data {
		g.Data[i].Value *= factor
	}
}

func (g *Gradients) SumSquares() float64 {
	var sum float64
	for i := range g.Data {
		var v = g.Data[i].Value
		sum += v * v
	}
	return sum
}

// Apply performs one Adam step on the paired parameter matrix and resets the
// accumulated values.
func (g *Gradients) Apply(m *Matrix, learningRate float64) {
	for i := range g.Data {
		m.Data[i] -= g.Data[i].Calculate(learningRate)
		g.Data[i].Value = 0
	}
}
