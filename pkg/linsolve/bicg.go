package linsolve

import (
	"fmt"

	"github.com/edp1096/circuit-sim/pkg/matrix"
	"gonum.org/v1/gonum/floats"
)

// solveBiCG runs the biconjugate gradient method on the row-equilibrated
// system, starting from x = 0, with shadow residual r0 + 1.
func solveBiCG(a *matrix.CSR, rhs []float64, tol float64, o Options) error {
	a, b := equilibrate(a, rhs)
	n := a.N

	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		for i := range rhs {
			rhs[i] = 0
		}
		return nil
	}
	target := tol * bnorm

	x := make([]float64, n)
	r := append([]float64(nil), b...)
	rt := make([]float64, n)
	for i := range rt {
		rt[i] = r[i] + 1
	}
	p := append([]float64(nil), r...)
	pt := append([]float64(nil), rt...)
	ap := make([]float64, n)
	atpt := make([]float64, n)

	rho := floats.Dot(rt, r)
	maxIter := o.maxIterations(n)

	for k := 0; k < maxIter; k++ {
		if floats.Norm(r, 2) <= target {
			copy(rhs, x)
			return nil
		}

		a.MulVec(ap, p)
		a.TransposeMulVec(atpt, pt)

		ptap := floats.Dot(pt, ap)
		if ptap == 0 || rho == 0 {
			return fmt.Errorf("%w: bicg breakdown at iteration %d, residual %g", ErrNotConverged, k, floats.Norm(r, 2)/bnorm)
		}
		alpha := rho / ptap

		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, ap)
		floats.AddScaled(rt, -alpha, atpt)

		next := floats.Dot(rt, r)
		beta := next / rho
		rho = next

		for i := range p {
			p[i] = r[i] + beta*p[i]
			pt[i] = rt[i] + beta*pt[i]
		}
	}

	res := floats.Norm(r, 2)
	if res <= target {
		copy(rhs, x)
		return nil
	}
	return fmt.Errorf("%w: bicg residual %g after %d iterations", ErrNotConverged, res/bnorm, maxIter)
}
