package ml

// Matrix stores values in row-major order, so a whole row can be handed to
// gonum vector kernels without copying.
type Matrix struct {
	Data []float64
	Rows int
	Cols int
}

func NewMatrix(rows, cols int) Matrix {
	return Matrix{
		Data: make([]float64, rows*cols),
		Rows: rows,
		Cols: cols,
	}
}

func (m *Matrix) Get(row, col int) float64 {
	return m.Data[row*m.Cols+col]
}

func (m *Matrix) Set(row, col int, value float64) {
	m.Data[row*m.Cols+col] = value
}

func (m *Matrix) Row(row int) []float64 {
	return m.Data[row*m.Cols : (row+1)*m.Cols]
}

func (m *Matrix) Size() int {
	return len(m.Data)
}
