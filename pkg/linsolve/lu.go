package linsolve

import (
	"fmt"

	"github.com/edp1096/circuit-sim/pkg/matrix"
)

// structural reports the first empty row or column. Such a system has no
// unique solution whatever the values, e.g. a node nothing connects to.
func structural(a *matrix.CSR) error {
	used := make([]bool, a.N)
	for i := 0; i < a.N; i++ {
		if a.RowPtr[i] == a.RowPtr[i+1] {
			return fmt.Errorf("%w: row %d is empty", ErrSingular, i)
		}
		a.Row(i, func(j int, _ float64) { used[j] = true })
	}
	for j, ok := range used {
		if !ok {
			return fmt.Errorf("%w: column %d is empty", ErrSingular, j)
		}
	}
	return nil
}

// solveLU orders and factors a fresh sparse matrix on every call.
func solveLU(a *matrix.CSR, rhs []float64) error {
	if err := structural(a); err != nil {
		return err
	}

	m, err := matrix.FromCSR(a, rhs)
	if err != nil {
		return err
	}
	defer m.Destroy()

	if err := m.Solve(); err != nil {
		if step := m.SingularAt(); step > 0 {
			return fmt.Errorf("%w: no pivot at step %d of %d", ErrSingular, step, a.N)
		}
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}

	copy(rhs, m.Solution())
	return nil
}
