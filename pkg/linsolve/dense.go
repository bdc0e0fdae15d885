package linsolve

import (
	"errors"
	"fmt"

	"github.com/edp1096/circuit-sim/pkg/matrix"
	"gonum.org/v1/gonum/mat"
)

// solveDense factorizes the expanded matrix with partial pivoting. It is
// O(n^3) and meant for cross-checking the sparse strategies.
func solveDense(a *matrix.CSR, rhs []float64) error {
	var lu mat.LU
	lu.Factorize(a.Dense())

	b := mat.NewVecDense(a.N, append([]float64(nil), rhs...))
	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, b); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return fmt.Errorf("%w: condition number %g", ErrSingular, float64(cond))
		}
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}

	for i := range rhs {
		rhs[i] = x.AtVec(i)
	}
	return nil
}
