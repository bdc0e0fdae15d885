package circuit_test

import (
	"testing"

	"github.com/edp1096/circuit-sim/pkg/circuit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeNth(t *testing.T) {
	r := circuit.Range{Start: 4, End: 7}
	assert.Equal(t, 3, r.Len())

	idx, ok := r.Nth(0)
	require.True(t, ok)
	assert.Equal(t, 4, idx)

	idx, ok = r.Nth(2)
	require.True(t, ok)
	assert.Equal(t, 6, idx)

	_, ok = r.Nth(3)
	assert.False(t, ok)
	_, ok = r.Nth(-1)
	assert.False(t, ok)

	assert.True(t, r.Contains(5))
	assert.False(t, r.Contains(7))
}

func TestMappingLayout(t *testing.T) {
	topo := &circuit.Topology{
		NumNodes: 4,
		TwoTerminal: []circuit.TwoTerminal{
			{Nodes: [2]int{3, 0}, Kind: circuit.Battery{Voltage: 5}},
			{Nodes: [2]int{0, 1}, Kind: circuit.Resistor{Resistance: 1}},
		},
		ThreeTerminal: []circuit.ThreeTerminal{
			{Nodes: [3]int{3, 1, 2}, Kind: circuit.NTransistor{}},
		},
	}

	m := circuit.NewMapping(topo)

	assert.Equal(t, circuit.Range{Start: 0, End: 4}, m.State.Currents())
	assert.Equal(t, circuit.Range{Start: 4, End: 8}, m.State.VoltageDrops())
	assert.Equal(t, circuit.Range{Start: 8, End: 11}, m.State.Voltages())

	assert.Equal(t, circuit.Range{Start: 0, End: 4}, m.Param.Components())
	assert.Equal(t, circuit.Range{Start: 4, End: 7}, m.Param.CurrentLaws())
	assert.Equal(t, circuit.Range{Start: 7, End: 11}, m.Param.VoltageLaws())

	assert.Equal(t, 11, m.VectorSize())
	assert.Equal(t, 4, m.Slots())
}

func TestMappingSizesAgree(t *testing.T) {
	kinds := []circuit.TwoTerminalKind{
		circuit.Wire{}, circuit.Resistor{Resistance: 1}, circuit.Capacitor{Capacitance: 1},
		circuit.Diode{}, circuit.Battery{Voltage: 1}, circuit.Switch{},
	}

	for nodes := 0; nodes <= 6; nodes++ {
		for n := 0; n <= 12; n++ {
			topo := &circuit.Topology{NumNodes: nodes}
			for i := 0; i < n; i++ {
				if i%4 == 3 {
					topo.ThreeTerminal = append(topo.ThreeTerminal, circuit.ThreeTerminal{Kind: circuit.PTransistor{}})
					continue
				}
				topo.TwoTerminal = append(topo.TwoTerminal, circuit.TwoTerminal{Kind: kinds[i%len(kinds)]})
			}

			m := circuit.NewMapping(topo)
			require.Equal(t, m.State.Size(), m.Param.Size(), "nodes=%d components=%d", nodes, n)

			expectNodes := nodes - 1
			if expectNodes < 0 {
				expectNodes = 0
			}
			assert.Equal(t, expectNodes, m.Param.CurrentLaws().Len())
			assert.Equal(t, m.State.Currents().Len(), m.Param.Components().Len())
			assert.Equal(t, m.State.VoltageDrops().Len(), m.Param.VoltageLaws().Len())
		}
	}
}

func TestMappingEmpty(t *testing.T) {
	m := circuit.NewMapping(&circuit.Topology{})
	assert.Equal(t, 0, m.VectorSize())
	assert.Equal(t, 0, m.Param.CurrentLaws().Len())
}
