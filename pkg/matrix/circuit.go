package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// CircuitMatrix wraps a real sparse.Matrix (Markowitz-ordered LU) behind
// 0-based indexing. Every Solve orders and factors from scratch.
type CircuitMatrix struct {
	Size     int
	matrix   *sparse.Matrix
	rhs      []float64 // 1-based
	solution []float64 // 1-based
	config   *sparse.Configuration
}

var _ DeviceMatrix = (*CircuitMatrix)(nil)

func NewMatrix(size int) (*CircuitMatrix, error) {
	if size <= 0 {
		return nil, fmt.Errorf("creating sparse matrix: size must be positive, got %d", size)
	}

	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 false,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %v", err)
	}

	return &CircuitMatrix{
		Size:   size,
		matrix: mat,
		rhs:    make([]float64, size+1),
		config: config,
	}, nil
}

// FromCSR loads a compressed matrix and its right-hand side.
func FromCSR(a *CSR, rhs []float64) (*CircuitMatrix, error) {
	m, err := NewMatrix(a.N)
	if err != nil {
		return nil, err
	}
	for i := 0; i < a.N; i++ {
		a.Row(i, func(j int, v float64) {
			m.AddElement(i, j, v)
		})
		m.AddRHS(i, rhs[i])
	}
	return m, nil
}

func (m *CircuitMatrix) AddElement(i, j int, value float64) {
	if i < 0 || j < 0 || i >= m.Size || j >= m.Size {
		panic(fmt.Sprintf("matrix: index out of bounds (i=%d, j=%d, size=%d)", i, j, m.Size))
	}
	m.matrix.GetElement(int64(i+1), int64(j+1)).Real += value
}

func (m *CircuitMatrix) AddRHS(i int, value float64) {
	if i < 0 || i >= m.Size {
		panic(fmt.Sprintf("matrix: rhs index out of bounds (i=%d, size=%d)", i, m.Size))
	}
	m.rhs[i+1] += value
}

func (m *CircuitMatrix) Solve() error {
	var err error

	// Rows without a diagonal entry are common (battery and voltage-drop
	// definitions), so pivots are searched off the diagonal too.
	err = m.matrix.OrderAndFactor(nil, 0, 0, false)
	if err != nil {
		return fmt.Errorf("matrix factorization failed: %v", err)
	}

	m.solution, err = m.matrix.Solve(m.rhs)
	if err != nil {
		return fmt.Errorf("matrix solve failed: %v", err)
	}

	return nil
}

// Solution returns the 0-based solution of the last Solve.
func (m *CircuitMatrix) Solution() []float64 {
	if m.solution == nil {
		return nil
	}
	return m.solution[1:]
}

// SingularAt reports the pivot step where factorization broke down, 0 if none.
func (m *CircuitMatrix) SingularAt() int {
	return int(m.matrix.SingularRow)
}

func (m *CircuitMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
	}
}
