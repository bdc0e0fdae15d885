package linsolve

import (
	"fmt"
	"math"

	"github.com/edp1096/circuit-sim/pkg/matrix"
	"gonum.org/v1/gonum/floats"
)

// solveGMRES runs restarted GMRES(m) with modified Gram-Schmidt and Givens
// rotations on the row-equilibrated system, starting from x = 0.
func solveGMRES(a *matrix.CSR, rhs []float64, tol float64, o Options) error {
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

	m := o.restart(n)
	maxIter := o.maxIterations(n)

	x := make([]float64, n)
	w := make([]float64, n)
	h := make([][]float64, m+1)
	for i := range h {
		h[i] = make([]float64, m)
	}
	cs := make([]float64, m)
	sn := make([]float64, m)
	g := make([]float64, m+1)
	y := make([]float64, m)

	res := math.Inf(1)
	for iter := 0; iter < maxIter; {
		r := a.Residual(b, x)
		beta := floats.Norm(r, 2)
		res = beta
		if beta <= target {
			copy(rhs, x)
			return nil
		}

		v := [][]float64{r}
		floats.Scale(1/beta, r)
		for i := range g {
			g[i] = 0
		}
		g[0] = beta

		k := 0
		for j := 0; j < m && iter < maxIter; j++ {
			iter++

			a.MulVec(w, v[j])
			for i := 0; i <= j; i++ {
				h[i][j] = floats.Dot(w, v[i])
				floats.AddScaled(w, -h[i][j], v[i])
			}
			hnext := floats.Norm(w, 2)
			h[j+1][j] = hnext

			for i := 0; i < j; i++ {
				t := cs[i]*h[i][j] + sn[i]*h[i+1][j]
				h[i+1][j] = -sn[i]*h[i][j] + cs[i]*h[i+1][j]
				h[i][j] = t
			}

			d := math.Hypot(h[j][j], hnext)
			if d == 0 {
				return fmt.Errorf("%w: gmres breakdown at iteration %d, residual %g", ErrNotConverged, iter, res/bnorm)
			}
			cs[j] = h[j][j] / d
			sn[j] = hnext / d
			h[j][j] = d
			h[j+1][j] = 0
			g[j+1] = -sn[j] * g[j]
			g[j] = cs[j] * g[j]

			k = j + 1
			res = math.Abs(g[j+1])
			if res <= target || hnext == 0 {
				break
			}
			next := make([]float64, n)
			floats.ScaleTo(next, 1/hnext, w)
			v = append(v, next)
		}

		// Back substitution on the rotated Hessenberg matrix.
		for i := k - 1; i >= 0; i-- {
			sum := g[i]
			for l := i + 1; l < k; l++ {
				sum -= h[i][l] * y[l]
			}
			y[i] = sum / h[i][i]
		}
		for i := 0; i < k; i++ {
			floats.AddScaled(x, y[i], v[i])
		}

		if res <= target {
			copy(rhs, x)
			return nil
		}
	}

	return fmt.Errorf("%w: gmres residual %g after %d iterations", ErrNotConverged, res/bnorm, maxIter)
}
