package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/edp1096/circuit-sim/pkg/circuit"
)

var ErrNotBattery = errors.New("analysis: sweep source is not a battery")

// SweepValues lists start, start+incr, ... up to stop inclusive.
func SweepValues(start, stop, incr float64) ([]float64, error) {
	if incr <= 0 || math.IsNaN(start) || math.IsNaN(stop) || stop < start {
		return nil, fmt.Errorf("%w: sweep %g to %g by %g", ErrInvalidConfig, start, stop, incr)
	}

	n := int(math.Floor((stop-start)/incr+1e-9)) + 1
	values := make([]float64, n)
	for i := range values {
		values[i] = start + float64(i)*incr
	}
	return values, nil
}

// Sweep sets the battery at TwoTerminal[source] to each value and settles
// the circuit. topo is not modified; s must have been built for its shape.
func Sweep(s *Solver, topo *circuit.Topology, source int, values []float64, cfg Config, maxSteps int, tol float64) ([]SimOutputs, error) {
	if source < 0 || source >= len(topo.TwoTerminal) {
		return nil, fmt.Errorf("%w: index %d", ErrNotBattery, source)
	}
	if _, ok := topo.TwoTerminal[source].Kind.(circuit.Battery); !ok {
		return nil, fmt.Errorf("%w: component %d is a %s", ErrNotBattery, source, topo.TwoTerminal[source].Kind.Name())
	}

	swept := topo.Clone()
	outputs := make([]SimOutputs, 0, len(values))
	for _, val := range values {
		swept.TwoTerminal[source].Kind = circuit.Battery{Voltage: val}

		if _, err := Settle(s, swept, cfg, maxSteps, tol); err != nil {
			return outputs, fmt.Errorf("convergence error at source %d = %g: %w", source, val, err)
		}
		outputs = append(outputs, s.Last(swept))
	}

	return outputs, nil
}

type DCSweep struct {
	BaseAnalysis
	Source   int
	Values   []float64
	Cfg      Config
	MaxSteps int
	Tol      float64

	solver *Solver
}

var _ Analysis = (*DCSweep)(nil)

func NewDCSweep(source int, start, stop, incr float64, cfg Config, opts ...Option) (*DCSweep, error) {
	values, err := SweepValues(start, stop, incr)
	if err != nil {
		return nil, err
	}

	return &DCSweep{
		BaseAnalysis: *NewBaseAnalysis(opts...),
		Source:       source,
		Values:       values,
		Cfg:          cfg,
		MaxSteps:     10000,
		Tol:          1e-9,
	}, nil
}

func (dc *DCSweep) Setup(topo *circuit.Topology) error {
	if err := topo.Validate(); err != nil {
		return fmt.Errorf("dc sweep setup: %w", err)
	}
	if err := dc.Cfg.Validate(); err != nil {
		return fmt.Errorf("dc sweep setup: %w", err)
	}

	dc.Topology = topo
	dc.solver = New(topo, dc.Cfg.NTimesteps, dc.options...)
	return nil
}

func (dc *DCSweep) Execute() error {
	if dc.solver == nil {
		return fmt.Errorf("circuit not set")
	}

	outputs, err := Sweep(dc.solver, dc.Topology, dc.Source, dc.Values, dc.Cfg, dc.MaxSteps, dc.Tol)
	for i, out := range outputs {
		dc.StoreResult("SWEEP1", dc.Values[i], dc.Flatten(out))
	}
	return err
}
