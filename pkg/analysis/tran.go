package analysis

import (
	"fmt"

	"github.com/edp1096/circuit-sim/pkg/circuit"
)

// Transient steps a fixed dt until Stop, storing every block of every
// window. One Step advances the clock by NTimesteps*Dt.
type Transient struct {
	BaseAnalysis
	Stop float64
	Cfg  Config

	solver *Solver
	time   float64
}

var _ Analysis = (*Transient)(nil)

func NewTransient(stop float64, cfg Config, opts ...Option) *Transient {
	return &Transient{
		BaseAnalysis: *NewBaseAnalysis(opts...),
		Stop:         stop,
		Cfg:          cfg,
	}
}

func (tr *Transient) Setup(topo *circuit.Topology) error {
	if err := topo.Validate(); err != nil {
		return fmt.Errorf("transient setup: %w", err)
	}
	if err := tr.Cfg.Validate(); err != nil {
		return fmt.Errorf("transient setup: %w", err)
	}
	if tr.Stop <= 0 {
		return fmt.Errorf("transient setup: %w: stop time must be positive, got %g", ErrInvalidConfig, tr.Stop)
	}

	tr.Topology = topo
	tr.solver = New(topo, tr.Cfg.NTimesteps, tr.options...)
	tr.time = 0
	return nil
}

func (tr *Transient) Execute() error {
	if tr.solver == nil {
		return fmt.Errorf("circuit not set")
	}

	dt := tr.Cfg.Dt
	eps := dt * 1e-9
	for tr.time < tr.Stop-eps {
		if err := tr.solver.Step(dt, tr.Topology, tr.Cfg); err != nil {
			return fmt.Errorf("transient step at t=%g: %w", tr.time, err)
		}

		for k := 0; k < tr.solver.WindowSize(); k++ {
			t := tr.time + float64(k+1)*dt
			tr.StoreTimeResult(t, tr.Flatten(tr.solver.State(tr.Topology, k)))
		}
		tr.time += float64(tr.solver.WindowSize()) * dt
	}

	return nil
}

// Solver exposes the window after Execute.
func (tr *Transient) Solver() *Solver { return tr.solver }
