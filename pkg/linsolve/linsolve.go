// Package linsolve solves the sparse systems assembled by the stamping
// engine. Every strategy overwrites the right-hand side with the solution.
package linsolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edp1096/circuit-sim/pkg/matrix"
)

var (
	ErrSingular      = errors.New("linsolve: matrix is singular")
	ErrNotConverged  = errors.New("linsolve: iterative solve did not converge")
	ErrUnknownMethod = errors.New("linsolve: unknown method")
	ErrDimension     = errors.New("linsolve: dimension mismatch")
)

type Method int

const (
	LUDecomposition Method = iota
	BiconjugateGradient
	GenMinRes
	DenseLU
)

var methodNames = map[Method]string{
	LUDecomposition:     "LUDecomposition",
	BiconjugateGradient: "BiconjugateGradient",
	GenMinRes:           "GenMinRes",
	DenseLU:             "DenseLU",
}

var methodAliases = map[string]Method{
	"lu":                  LUDecomposition,
	"ludecomposition":     LUDecomposition,
	"bicg":                BiconjugateGradient,
	"biconjugategradient": BiconjugateGradient,
	"gmres":               GenMinRes,
	"genminres":           GenMinRes,
	"dense":               DenseLU,
	"denselu":             DenseLU,
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

func ParseMethod(s string) (Method, error) {
	if m, ok := methodAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

func (m Method) MarshalText() ([]byte, error) {
	if _, ok := methodNames[m]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

type Options struct {
	Restart       int // GMRES restart length, 0 selects 100
	MaxIterations int // iterative budget, 0 selects max(100, 10n)
}

type Option func(*Options)

func WithRestart(m int) Option {
	return func(o *Options) { o.Restart = m }
}

func WithMaxIterations(n int) Option {
	return func(o *Options) { o.MaxIterations = n }
}

func (o Options) restart(n int) int {
	m := o.Restart
	if m <= 0 {
		m = 100
	}
	return min(m, n)
}

func (o Options) maxIterations(n int) int {
	if o.MaxIterations > 0 {
		return o.MaxIterations
	}
	return max(100, 10*n)
}

// Solve solves a*x = rhs in place. tol is the relative residual target of
// the iterative strategies; the direct ones ignore it.
func Solve(method Method, a *matrix.CSR, rhs []float64, tol float64, opts ...Option) error {
	if len(rhs) != a.N {
		return fmt.Errorf("%w: rhs %d, matrix %d", ErrDimension, len(rhs), a.N)
	}
	if a.N == 0 {
		return nil
	}

	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	switch method {
	case LUDecomposition:
		return solveLU(a, rhs)
	case BiconjugateGradient:
		return solveBiCG(a, rhs, tol, o)
	case GenMinRes:
		return solveGMRES(a, rhs, tol, o)
	case DenseLU:
		return solveDense(a, rhs)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownMethod, int(method))
	}
}
