package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/edp1096/circuit-sim/pkg/circuit"
)

var ErrNotSettled = errors.New("analysis: circuit did not settle")

// Settle steps s until no node voltage moves more than tol between two
// steps. It returns the number of steps taken.
func Settle(s *Solver, topo *circuit.Topology, cfg Config, maxSteps int, tol float64) (int, error) {
	prev := s.Last(topo).Voltages

	for step := 1; step <= maxSteps; step++ {
		if err := s.Step(cfg.Dt, topo, cfg); err != nil {
			return step, err
		}

		cur := s.Last(topo).Voltages
		if maxDelta(prev, cur) < tol {
			return step, nil
		}
		prev = cur
	}

	return maxSteps, fmt.Errorf("%w within %d steps", ErrNotSettled, maxSteps)
}

func maxDelta(a, b []float64) float64 {
	var d float64
	for i := range a {
		d = math.Max(d, math.Abs(a[i]-b[i]))
	}
	return d
}

// OperatingPoint relaxes the circuit to its steady state by stepping it.
type OperatingPoint struct {
	BaseAnalysis
	Cfg      Config
	MaxSteps int
	Tol      float64

	solver *Solver
	steps  int
}

var _ Analysis = (*OperatingPoint)(nil)

func NewOP(cfg Config, opts ...Option) *OperatingPoint {
	return &OperatingPoint{
		BaseAnalysis: *NewBaseAnalysis(opts...),
		Cfg:          cfg,
		MaxSteps:     10000,
		Tol:          1e-9,
	}
}

func (op *OperatingPoint) Setup(topo *circuit.Topology) error {
	if err := topo.Validate(); err != nil {
		return fmt.Errorf("operating point setup: %w", err)
	}
	if err := op.Cfg.Validate(); err != nil {
		return fmt.Errorf("operating point setup: %w", err)
	}

	op.Topology = topo
	op.solver = New(topo, op.Cfg.NTimesteps, op.options...)
	return nil
}

func (op *OperatingPoint) Execute() error {
	if op.solver == nil {
		return fmt.Errorf("circuit not set")
	}

	steps, err := Settle(op.solver, op.Topology, op.Cfg, op.MaxSteps, op.Tol)
	op.steps = steps
	if err != nil {
		return fmt.Errorf("operating point analysis error: %w", err)
	}

	op.storeResults(op.solver.Last(op.Topology))
	return nil
}

// Steps is the number of relaxation steps the last Execute needed.
func (op *OperatingPoint) Steps() int { return op.steps }

func (op *OperatingPoint) storeResults(out SimOutputs) {
	for name, value := range op.Flatten(out) {
		op.results[name] = []float64{value}
	}
}
