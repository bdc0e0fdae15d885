package analysis

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/edp1096/circuit-sim/pkg/circuit"
)

var ErrTopologyChanged = errors.New("analysis: topology shape changed")

// StepStats describes the last Step.
type StepStats struct {
	Iterations int     // Newton iterations spent, including adaptive retries
	Converged  bool    // FinalError fell below NRTolerance
	FinalError float64 // last sum of squared damped updates
	StepSize   float64 // damping factor in effect at the end
}

// SimOutputs is the observable state of one block of the window.
type SimOutputs struct {
	Voltages             []float64    // per node, ground last and 0
	TwoTerminalCurrent   []float64    // per two-terminal component
	ThreeTerminalCurrent [][3]float64 // per transistor: a, b, c terminals
}

// Solver owns the solution window of one topology shape.
type Solver struct {
	mapping circuit.Mapping
	shape   *circuit.Topology
	window  int
	x       []float64
	stats   StepStats
	logger  *slog.Logger
}

type Option func(*Solver)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Solver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New allocates a zeroed window of nTimesteps blocks for topo.
func New(topo *circuit.Topology, nTimesteps int, opts ...Option) *Solver {
	nTimesteps = max(nTimesteps, 1)
	m := circuit.NewMapping(topo)

	s := &Solver{
		mapping: m,
		shape:   topo.Clone(),
		window:  nTimesteps,
		x:       make([]float64, m.VectorSize()*nTimesteps),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Solver) Mapping() circuit.Mapping { return s.mapping }

func (s *Solver) WindowSize() int { return s.window }

func (s *Solver) Stats() StepStats { return s.stats }

// Reset zeroes the window.
func (s *Solver) Reset() {
	clear(s.x)
	s.stats = StepStats{}
}

// Step advances the window by one solve. The previous last block is the
// history of the new window. Newton exhaustion is not an error; see Stats.
func (s *Solver) Step(dt float64, topo *circuit.Topology, cfg Config) error {
	if !s.shape.SameShape(topo) {
		return fmt.Errorf("%w: solver has %d nodes, %d two-terminal, %d three-terminal; got %d, %d, %d",
			ErrTopologyChanged,
			s.shape.NumNodes, len(s.shape.TwoTerminal), len(s.shape.ThreeTerminal),
			topo.NumNodes, len(topo.TwoTerminal), len(topo.ThreeTerminal))
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, dt)
	}

	if cfg.NTimesteps != s.window {
		s.resize(cfg.NTimesteps)
	}

	if s.mapping.VectorSize() == 0 {
		s.stats = StepStats{Converged: true, StepSize: cfg.NRStepSize}
		return nil
	}

	prev := append([]float64(nil), s.lastBlock()...)

	if cfg.Mode == Linear {
		return s.linear(dt, topo, cfg, prev)
	}
	return s.newton(dt, topo, cfg, prev)
}

// State extracts block slice of the window. slice must be in
// [0, WindowSize()).
func (s *Solver) State(topo *circuit.Topology, slice int) SimOutputs {
	if slice < 0 || slice >= s.window {
		panic(fmt.Sprintf("analysis: time slice %d outside window of %d", slice, s.window))
	}

	size := s.mapping.VectorSize()
	block := s.x[slice*size : (slice+1)*size]

	v := s.mapping.State.Voltages()
	out := SimOutputs{
		Voltages:           append([]float64(nil), block[v.Start:v.End]...),
		TwoTerminalCurrent: make([]float64, len(topo.TwoTerminal)),
	}
	if topo.NumNodes > 0 {
		out.Voltages = append(out.Voltages, 0)
	}

	currents := s.mapping.State.Currents()
	for i := range topo.TwoTerminal {
		out.TwoTerminalCurrent[i] = block[currents.Start+i]
	}

	base := currents.Start + len(topo.TwoTerminal)
	for k := range topo.ThreeTerminal {
		iab := block[base+2*k]
		ibc := block[base+2*k+1]
		out.ThreeTerminalCurrent = append(out.ThreeTerminalCurrent, [3]float64{iab, ibc - iab, ibc})
	}

	return out
}

// Last is State of the final block.
func (s *Solver) Last(topo *circuit.Topology) SimOutputs {
	return s.State(topo, s.window-1)
}

func (s *Solver) lastBlock() []float64 {
	size := s.mapping.VectorSize()
	return s.x[(s.window-1)*size : s.window*size]
}

// replicate copies block into every slot of a window.
func (s *Solver) replicate(block []float64) []float64 {
	size := len(block)
	out := make([]float64, size*s.window)
	for k := 0; k < s.window; k++ {
		copy(out[k*size:], block)
	}
	return out
}

func (s *Solver) resize(n int) {
	last := append([]float64(nil), s.lastBlock()...)
	s.logger.Debug("resizing solution window", "from", s.window, "to", n)
	s.window = n
	s.x = s.replicate(last)
}
