package matrix

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/mat"
)

// CSR is a square compressed sparse row matrix.
type CSR struct {
	N      int
	RowPtr []int
	ColIdx []int
	Val    []float64
}

func (m *CSR) NNZ() int { return len(m.Val) }

func (m *CSR) At(i, j int) float64 {
	for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
		if m.ColIdx[k] == j {
			return m.Val[k]
		}
	}
	return 0
}

// Row calls fn for every stored entry of row i.
func (m *CSR) Row(i int, fn func(j int, v float64)) {
	for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
		fn(m.ColIdx[k], m.Val[k])
	}
}

// MulVec stores A*x into dst.
func (m *CSR) MulVec(dst, x []float64) {
	for i := 0; i < m.N; i++ {
		sum := 0.0
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			sum += m.Val[k] * x[m.ColIdx[k]]
		}
		dst[i] = sum
	}
}

// TransposeMulVec stores A^T*x into dst.
func (m *CSR) TransposeMulVec(dst, x []float64) {
	for i := range dst[:m.N] {
		dst[i] = 0
	}
	for i := 0; i < m.N; i++ {
		xi := x[i]
		if xi == 0 {
			continue
		}
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			dst[m.ColIdx[k]] += m.Val[k] * xi
		}
	}
}

// Residual returns b - A*x.
func (m *CSR) Residual(b, x []float64) []float64 {
	r := make([]float64, m.N)
	m.MulVec(r, x)
	for i := range r {
		r[i] = b[i] - r[i]
	}
	return r
}

// RowScale returns the largest magnitude of every row, 1 for empty rows.
func (m *CSR) RowScale() []float64 {
	scale := make([]float64, m.N)
	for i := 0; i < m.N; i++ {
		scale[i] = maxAbs(m.Val[m.RowPtr[i]:m.RowPtr[i+1]])
		if scale[i] == 0 {
			scale[i] = 1
		}
	}
	return scale
}

// ScaleRows returns a copy with row i divided by scale[i].
func (m *CSR) ScaleRows(scale []float64) *CSR {
	out := &CSR{
		N:      m.N,
		RowPtr: append([]int(nil), m.RowPtr...),
		ColIdx: append([]int(nil), m.ColIdx...),
		Val:    make([]float64, len(m.Val)),
	}
	for i := 0; i < m.N; i++ {
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			out.Val[k] = m.Val[k] / scale[i]
		}
	}
	return out
}

// Dense expands the matrix for gonum.
func (m *CSR) Dense() *mat.Dense {
	d := mat.NewDense(m.N, m.N, nil)
	for i := 0; i < m.N; i++ {
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			d.Set(i, m.ColIdx[k], m.Val[k])
		}
	}
	return d
}

// String prints one equation per row, like CircuitMatrix.PrintSystem.
func (m *CSR) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Sparse system (%dx%d, %d entries):\n", m.N, m.N, m.NNZ())
	for i := 0; i < m.N; i++ {
		fmt.Fprintf(&sb, "  row %d:", i)
		m.Row(i, func(j int, v float64) {
			fmt.Fprintf(&sb, " %+g*x%d", v, j)
		})
		sb.WriteByte('\n')
	}
	return sb.String()
}

// maxAbs is the infinity norm of xs.
func maxAbs[T constraints.Float](xs []T) T {
	var largest T
	for _, x := range xs {
		if a := T(math.Abs(float64(x))); a > largest {
			largest = a
		}
	}
	return largest
}
