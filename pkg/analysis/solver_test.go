package analysis_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"testing"

	"github.com/edp1096/circuit-sim/pkg/analysis"
	"github.com/edp1096/circuit-sim/pkg/circuit"
	"github.com/edp1096/circuit-sim/pkg/linsolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := analysis.DefaultConfig()
	assert.Equal(t, analysis.NewtonRaphson, cfg.Mode)
	assert.Equal(t, linsolve.LUDecomposition, cfg.LinearSolver)
	assert.Equal(t, 2000, cfg.MaxNRIters)
	assert.Equal(t, 0.1, cfg.NRStepSize)
	assert.Equal(t, 1e-6, cfg.NRTolerance)
	assert.Equal(t, 1e-3, cfg.DxSolnTolerance)
	assert.False(t, cfg.AdaptiveStepSize)
	assert.Equal(t, 2, cfg.NTimesteps)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*analysis.Config)
	}{
		{"mode", func(c *analysis.Config) { c.Mode = 7 }},
		{"solver", func(c *analysis.Config) { c.LinearSolver = 9 }},
		{"iterations", func(c *analysis.Config) { c.MaxNRIters = 0 }},
		{"step", func(c *analysis.Config) { c.NRStepSize = 0 }},
		{"nr tolerance", func(c *analysis.Config) { c.NRTolerance = -1 }},
		{"dx tolerance", func(c *analysis.Config) { c.DxSolnTolerance = 0 }},
		{"window", func(c *analysis.Config) { c.NTimesteps = 0 }},
		{"dt", func(c *analysis.Config) { c.Dt = 0 }},
		{"restart", func(c *analysis.Config) { c.GMRESRestart = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := analysis.DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), analysis.ErrInvalidConfig)
		})
	}
}

func TestConfigEncoding(t *testing.T) {
	cfg := analysis.DefaultConfig()
	cfg.Mode = analysis.Linear
	cfg.LinearSolver = linsolve.GenMinRes

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mode":"Linear"`)
	assert.Contains(t, string(data), `"linear_sol":"GenMinRes"`)

	var back analysis.Config
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, cfg, back)

	var fromYAML analysis.Config
	require.NoError(t, yaml.Unmarshal([]byte("mode: newton\nlinear_sol: bicg\nn_timesteps: 3\n"), &fromYAML))
	assert.Equal(t, analysis.NewtonRaphson, fromYAML.Mode)
	assert.Equal(t, linsolve.BiconjugateGradient, fromYAML.LinearSolver)
	assert.Equal(t, 3, fromYAML.NTimesteps)

	_, err = analysis.ParseMode("euler")
	assert.ErrorIs(t, err, analysis.ErrInvalidConfig)
	assert.Equal(t, "Mode(5)", analysis.Mode(5).String())
}

func TestVoltageDivider(t *testing.T) {
	pairs := [][2]float64{{1000, 3000}, {1, 1}, {4.7e3, 10}, {1e6, 2.2e3}, {0.5, 1e5}}
	configs := map[string]analysis.Config{"linear": linearConfig(), "newton": newtonConfig()}

	for name, cfg := range configs {
		for _, p := range pairs {
			topo := divider(10, p[0], p[1])
			s := analysis.New(topo, cfg.NTimesteps)
			require.NoError(t, s.Step(cfg.Dt, topo, cfg))

			want := 10 * p[1] / (p[0] + p[1])
			for k := 0; k < s.WindowSize(); k++ {
				out := s.State(topo, k)
				assert.InEpsilon(t, want, out.Voltages[1], 1e-6, "%s R1=%g R2=%g", name, p[0], p[1])
				assert.InEpsilon(t, 10/(p[0]+p[1]), out.TwoTerminalCurrent[1], 1e-6)
			}
		}
	}
}

func TestStateLayout(t *testing.T) {
	topo := npn()
	s := analysis.New(topo, 2)
	require.NoError(t, s.Step(1e-4, topo, analysis.DefaultConfig()))

	out := s.Last(topo)
	require.Len(t, out.Voltages, 4)
	assert.Zero(t, out.Voltages[3])
	assert.Len(t, out.TwoTerminalCurrent, 3)
	require.Len(t, out.ThreeTerminalCurrent, 1)

	tr := out.ThreeTerminalCurrent[0]
	assert.InDelta(t, tr[2]-tr[0], tr[1], 1e-15)

	assert.Panics(t, func() { s.State(topo, 2) })
	assert.Panics(t, func() { s.State(topo, -1) })
}

func TestKCLConservation(t *testing.T) {
	tests := []struct {
		name  string
		topo  *circuit.Topology
		cfg   analysis.Config
		steps int
	}{
		{"divider", divider(5, 1000, 3000), linearConfig(), 20},
		{"ladder", ladder(), linearConfig(), 20},
		{"rectifier", rectifier(5), linearConfig(), 300},
		{"switched", switched(false), newtonConfig(), 5},
		{"transformer", transformer(), linearConfig(), 5},
		{"npn", npn(), analysis.DefaultConfig(), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := analysis.New(tt.topo, tt.cfg.NTimesteps)
			for i := 0; i < tt.steps; i++ {
				require.NoError(t, s.Step(tt.cfg.Dt, tt.topo, tt.cfg))
			}
			for k := 0; k < s.WindowSize(); k++ {
				for node, sum := range kclResidual(tt.topo, s.State(tt.topo, k)) {
					assert.InDelta(t, 0, sum, 1e-9, "node %d block %d", node, k)
				}
			}
		})
	}
}

func TestTopologyChanged(t *testing.T) {
	topo := divider(5, 1, 1)
	s := analysis.New(topo, 1)

	bigger := topo.Clone()
	bigger.TwoTerminal = append(bigger.TwoTerminal, circuit.TwoTerminal{Nodes: [2]int{0, 2}, Kind: circuit.Resistor{Resistance: 1}})
	assert.ErrorIs(t, s.Step(1e-4, bigger, analysis.DefaultConfig()), analysis.ErrTopologyChanged)

	// Same shape, different values is fine.
	edited := divider(9, 2, 7)
	assert.NoError(t, s.Step(1e-4, edited, linearConfig()))
}

func TestStepRejectsBadInput(t *testing.T) {
	topo := divider(5, 1, 1)
	s := analysis.New(topo, 1)
	assert.ErrorIs(t, s.Step(0, topo, analysis.DefaultConfig()), analysis.ErrInvalidConfig)

	cfg := analysis.DefaultConfig()
	cfg.MaxNRIters = 0
	assert.ErrorIs(t, s.Step(1e-4, topo, cfg), analysis.ErrInvalidConfig)
}

func TestEmptyTopology(t *testing.T) {
	for _, topo := range []*circuit.Topology{{}, {NumNodes: 1}} {
		s := analysis.New(topo, 2)
		require.NoError(t, s.Step(1e-4, topo, analysis.DefaultConfig()))
		assert.True(t, s.Stats().Converged)

		out := s.Last(topo)
		assert.Empty(t, out.TwoTerminalCurrent)
		assert.Empty(t, out.ThreeTerminalCurrent)
		assert.Len(t, out.Voltages, topo.NumNodes)
	}
}

func TestSingularPropagates(t *testing.T) {
	// node 1 floats: nothing ties it to the rest of the circuit
	topo := &circuit.Topology{
		NumNodes: 3,
		TwoTerminal: []circuit.TwoTerminal{
			{Nodes: [2]int{2, 0}, Kind: circuit.Battery{Voltage: 5}},
			{Nodes: [2]int{1, 1}, Kind: circuit.Resistor{Resistance: 10}},
		},
	}
	s := analysis.New(topo, 1)

	err := s.Step(1e-4, topo, analysis.DefaultConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, linsolve.ErrSingular)
	assert.Contains(t, err.Error(), "newton iteration 0")

	err = s.Step(1e-4, topo, linearConfig())
	assert.ErrorIs(t, err, linsolve.ErrSingular)
}

func TestWindowResize(t *testing.T) {
	topo := divider(5, 1000, 3000)
	cfg := linearConfig()
	cfg.NTimesteps = 1

	s := analysis.New(topo, 1)
	require.NoError(t, s.Step(cfg.Dt, topo, cfg))
	assert.Equal(t, 1, s.WindowSize())

	cfg.NTimesteps = 3
	require.NoError(t, s.Step(cfg.Dt, topo, cfg))
	assert.Equal(t, 3, s.WindowSize())
	for k := 0; k < 3; k++ {
		assert.InDelta(t, 3.75, s.State(topo, k).Voltages[1], 1e-9)
	}

	s.Reset()
	assert.Zero(t, s.Last(topo).Voltages[1])
	assert.Equal(t, analysis.StepStats{}, s.Stats())
}

func TestNewtonStats(t *testing.T) {
	topo := divider(5, 1000, 3000)
	s := analysis.New(topo, 2)
	require.NoError(t, s.Step(1e-4, topo, newtonConfig()))

	st := s.Stats()
	assert.True(t, st.Converged)
	assert.Equal(t, 2, st.Iterations)
	assert.Less(t, st.FinalError, 1e-6)
	assert.Equal(t, 1.0, st.StepSize)

	// One damped iteration cannot reach the tolerance; the step still
	// succeeds with the best iterate.
	cfg := analysis.DefaultConfig()
	cfg.MaxNRIters = 1
	s.Reset()
	require.NoError(t, s.Step(1e-4, topo, cfg))
	assert.False(t, s.Stats().Converged)
	assert.Equal(t, 1, s.Stats().Iterations)
	assert.InDelta(t, 0.375, s.Last(topo).Voltages[1], 1e-9)
}

func TestNewtonLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	topo := divider(5, 1000, 3000)
	s := analysis.New(topo, 1, analysis.WithLogger(logger))

	cfg := analysis.DefaultConfig()
	cfg.MaxNRIters = 3
	require.NoError(t, s.Step(1e-4, topo, cfg))
	assert.Contains(t, buf.String(), "newton iteration limit reached")
	assert.Contains(t, buf.String(), "iterations=3")

	buf.Reset()
	require.NoError(t, s.Step(1e-4, topo, newtonConfig()))
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "newton step")
}

func TestLinearModeNonlinearNotice(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	topo := divider(5, 1000, 3000)
	s := analysis.New(topo, 1, analysis.WithLogger(logger))
	require.NoError(t, s.Step(1e-4, topo, linearConfig()))
	assert.NotContains(t, buf.String(), "nonlinear topology")

	topo = rectifier(5)
	s = analysis.New(topo, 1, analysis.WithLogger(logger))
	require.NoError(t, s.Step(1e-4, topo, linearConfig()))
	assert.Contains(t, buf.String(), "linear mode on nonlinear topology")
}

func TestAdaptiveStep(t *testing.T) {
	topo := rectifier(5)
	cfg := analysis.DefaultConfig()
	cfg.AdaptiveStepSize = true

	s := analysis.New(topo, cfg.NTimesteps)
	require.NoError(t, s.Step(cfg.Dt, topo, cfg))

	st := s.Stats()
	assert.True(t, st.Converged)
	assert.LessOrEqual(t, st.StepSize, cfg.NRStepSize)
	assert.InEpsilon(t, 4.3e-3, s.Last(topo).TwoTerminalCurrent[1], 0.05)
}

func TestDeterministic(t *testing.T) {
	run := func() []analysis.SimOutputs {
		var outs []analysis.SimOutputs
		for _, topo := range []*circuit.Topology{npn(), transformer(), rectifier(5)} {
			s := analysis.New(topo, 2)
			for i := 0; i < 3; i++ {
				require.NoError(t, s.Step(1e-4, topo, analysis.DefaultConfig()))
			}
			outs = append(outs, s.State(topo, 0), s.Last(topo))
		}
		return outs
	}

	a, b := run(), run()
	require.Equal(t, len(a), len(b))
	for i := range a {
		for j := range a[i].Voltages {
			assert.Equal(t, math.Float64bits(a[i].Voltages[j]), math.Float64bits(b[i].Voltages[j]))
		}
		assert.Equal(t, a[i].TwoTerminalCurrent, b[i].TwoTerminalCurrent)
	}
}
