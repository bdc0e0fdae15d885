package linsolve

import "github.com/edp1096/circuit-sim/pkg/matrix"

// equilibrate divides every row and its right-hand side by the row's
// largest magnitude. The solution of the scaled system is unchanged.
func equilibrate(a *matrix.CSR, rhs []float64) (*matrix.CSR, []float64) {
	scale := a.RowScale()
	b := make([]float64, len(rhs))
	for i := range rhs {
		b[i] = rhs[i] / scale[i]
	}
	return a.ScaleRows(scale), b
}
