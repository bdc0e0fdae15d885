package analysis_test

import (
	"math"
	"testing"

	"github.com/edp1096/circuit-sim/pkg/analysis"
	"github.com/edp1096/circuit-sim/pkg/circuit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransient(t *testing.T) {
	tr := analysis.NewTransient(0.01, linearConfig())
	require.NoError(t, tr.Setup(rc()))
	require.NoError(t, tr.Execute())

	res := tr.GetResults()
	times := res["TIME"]
	require.Len(t, times, 100)
	assert.InDelta(t, 1e-4, times[0], 1e-15)
	assert.InDelta(t, 0.01, times[99], 1e-12)

	for _, key := range []string{"V(0)", "V(1)", "I(0)", "I(1)", "I(2)"} {
		assert.Len(t, res[key], 100, key)
	}
	assert.NotContains(t, res, "V(2)")
	assert.InEpsilon(t, 5*(1-math.Exp(-1)), res["V(1)"][99], 0.01)
	assert.Equal(t, 2, tr.Solver().WindowSize())
}

func TestTransientLabels(t *testing.T) {
	tr := analysis.NewTransient(2e-4, analysis.DefaultConfig())
	tr.SetLabels(analysis.Labels{
		Nodes:         []string{"vcc", "b", "c"},
		TwoTerminal:   []string{"V1", "RB", "RC"},
		ThreeTerminal: []string{"Q1"},
	})
	require.NoError(t, tr.Setup(npn()))
	require.NoError(t, tr.Execute())

	res := tr.GetResults()
	for _, key := range []string{"V(vcc)", "V(b)", "V(c)", "I(RB)", "I(Q1.a)", "I(Q1.b)", "I(Q1.c)"} {
		assert.Contains(t, res, key)
	}
}

func TestTransientSetupErrors(t *testing.T) {
	tr := analysis.NewTransient(0, analysis.DefaultConfig())
	assert.ErrorIs(t, tr.Setup(rc()), analysis.ErrInvalidConfig)

	bad := rc()
	bad.TwoTerminal[1].Nodes = [2]int{0, 7}
	tr = analysis.NewTransient(1, analysis.DefaultConfig())
	assert.ErrorIs(t, tr.Setup(bad), circuit.ErrNodeOutOfRange)

	assert.Error(t, analysis.NewTransient(1, analysis.DefaultConfig()).Execute())
}

func TestStoreTimeResultSkipsRepeats(t *testing.T) {
	ba := analysis.NewBaseAnalysis()
	ba.StoreTimeResult(1e-3, map[string]float64{"V(0)": 1})
	ba.StoreTimeResult(1e-3, map[string]float64{"V(0)": 2})
	ba.StoreTimeResult(1.0001e-3, map[string]float64{"V(0)": 3})

	assert.Equal(t, []float64{1e-3, 1.0001e-3}, ba.GetResults()["TIME"])
	assert.Equal(t, []float64{1, 3}, ba.GetResults()["V(0)"])
}

func TestSettle(t *testing.T) {
	topo := divider(5, 1000, 3000)
	s := analysis.New(topo, 2)
	steps, err := analysis.Settle(s, topo, linearConfig(), 100, 1e-9)
	require.NoError(t, err)
	assert.Equal(t, 2, steps)

	topo = rc()
	s = analysis.New(topo, 2)
	steps, err = analysis.Settle(s, topo, linearConfig(), 10000, 1e-6)
	require.NoError(t, err)
	assert.Greater(t, steps, 100)
	assert.InDelta(t, 5, s.Last(topo).Voltages[1], 1e-3)

	s.Reset()
	steps, err = analysis.Settle(s, topo, linearConfig(), 3, 1e-6)
	assert.ErrorIs(t, err, analysis.ErrNotSettled)
	assert.Equal(t, 3, steps)
}

func TestOperatingPoint(t *testing.T) {
	op := analysis.NewOP(newtonConfig())
	require.NoError(t, op.Setup(divider(5, 1000, 3000)))
	require.NoError(t, op.Execute())

	res := op.GetResults()
	require.Len(t, res["V(1)"], 1)
	assert.InDelta(t, 3.75, res["V(1)"][0], 1e-9)
	assert.InDelta(t, 1.25e-3, res["I(1)"][0], 1e-12)
	assert.Positive(t, op.Steps())
}

func TestSweepValues(t *testing.T) {
	values, err := analysis.SweepValues(0, 1, 0.25)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, values)

	values, err = analysis.SweepValues(0, 0.3, 0.1)
	require.NoError(t, err)
	assert.Len(t, values, 4)

	_, err = analysis.SweepValues(0, 1, 0)
	assert.ErrorIs(t, err, analysis.ErrInvalidConfig)
	_, err = analysis.SweepValues(2, 1, 0.5)
	assert.ErrorIs(t, err, analysis.ErrInvalidConfig)
}

func TestSweep(t *testing.T) {
	topo := divider(5, 1000, 3000)
	s := analysis.New(topo, 2)

	values := []float64{0, 1, 2, 4}
	outs, err := analysis.Sweep(s, topo, 0, values, linearConfig(), 100, 1e-9)
	require.NoError(t, err)
	require.Len(t, outs, len(values))
	for i, v := range values {
		assert.InDelta(t, 0.75*v, outs[i].Voltages[1], 1e-9)
	}

	// the caller's topology is untouched
	assert.Equal(t, circuit.Battery{Voltage: 5}, topo.TwoTerminal[0].Kind)

	_, err = analysis.Sweep(s, topo, 1, values, linearConfig(), 100, 1e-9)
	assert.ErrorIs(t, err, analysis.ErrNotBattery)
	_, err = analysis.Sweep(s, topo, 9, values, linearConfig(), 100, 1e-9)
	assert.ErrorIs(t, err, analysis.ErrNotBattery)
}

func TestDCSweep(t *testing.T) {
	dc, err := analysis.NewDCSweep(0, 0, 10, 2.5, linearConfig())
	require.NoError(t, err)
	require.NoError(t, dc.Setup(divider(5, 1000, 3000)))
	require.NoError(t, dc.Execute())

	res := dc.GetResults()
	assert.Equal(t, []float64{0, 2.5, 5, 7.5, 10}, res["SWEEP1"])
	assert.InDeltaSlice(t, []float64{0, 1.875, 3.75, 5.625, 7.5}, res["V(1)"], 1e-9)
}
