package analysis_test

import (
	"github.com/edp1096/circuit-sim/pkg/analysis"
	"github.com/edp1096/circuit-sim/pkg/circuit"
)

// Ground is always the last node.

func divider(v, r1, r2 float64) *circuit.Topology {
	return &circuit.Topology{
		NumNodes: 3,
		TwoTerminal: []circuit.TwoTerminal{
			{Nodes: [2]int{2, 0}, Kind: circuit.Battery{Voltage: v}},
			{Nodes: [2]int{0, 1}, Kind: circuit.Resistor{Resistance: r1}},
			{Nodes: [2]int{1, 2}, Kind: circuit.Resistor{Resistance: r2}},
		},
	}
}

func rc() *circuit.Topology {
	return &circuit.Topology{
		NumNodes: 3,
		TwoTerminal: []circuit.TwoTerminal{
			{Nodes: [2]int{2, 0}, Kind: circuit.Battery{Voltage: 5}},
			{Nodes: [2]int{0, 1}, Kind: circuit.Resistor{Resistance: 1000}},
			{Nodes: [2]int{1, 2}, Kind: circuit.Capacitor{Capacitance: 10e-6}},
		},
	}
}

func rectifier(v float64) *circuit.Topology {
	return &circuit.Topology{
		NumNodes: 3,
		TwoTerminal: []circuit.TwoTerminal{
			{Nodes: [2]int{2, 0}, Kind: circuit.Battery{Voltage: v}},
			{Nodes: [2]int{0, 1}, Kind: circuit.Diode{}},
			{Nodes: [2]int{1, 2}, Kind: circuit.Resistor{Resistance: 1000}},
		},
	}
}

func switched(open bool) *circuit.Topology {
	return &circuit.Topology{
		NumNodes: 4,
		TwoTerminal: []circuit.TwoTerminal{
			{Nodes: [2]int{3, 0}, Kind: circuit.Battery{Voltage: 5}},
			{Nodes: [2]int{0, 1}, Kind: circuit.Switch{Open: open}},
			{Nodes: [2]int{1, 2}, Kind: circuit.Resistor{Resistance: 1000}},
			{Nodes: [2]int{2, 3}, Kind: circuit.Resistor{Resistance: 3000}},
		},
	}
}

func ladder() *circuit.Topology {
	return &circuit.Topology{
		NumNodes: 4,
		TwoTerminal: []circuit.TwoTerminal{
			{Nodes: [2]int{3, 0}, Kind: circuit.Battery{Voltage: 5}},
			{Nodes: [2]int{0, 1}, Kind: circuit.Resistor{Resistance: 1000}},
			{Nodes: [2]int{1, 2}, Kind: circuit.Resistor{Resistance: 2200}},
			{Nodes: [2]int{2, 3}, Kind: circuit.Resistor{Resistance: 4700}},
			{Nodes: [2]int{1, 3}, Kind: circuit.Resistor{Resistance: 10000}},
			{Nodes: [2]int{2, 3}, Kind: circuit.Capacitor{Capacitance: 1e-6}},
		},
	}
}

func npn() *circuit.Topology {
	return &circuit.Topology{
		NumNodes: 4,
		TwoTerminal: []circuit.TwoTerminal{
			{Nodes: [2]int{3, 0}, Kind: circuit.Battery{Voltage: 5}},
			{Nodes: [2]int{0, 1}, Kind: circuit.Resistor{Resistance: 100e3}},
			{Nodes: [2]int{0, 2}, Kind: circuit.Resistor{Resistance: 1e3}},
		},
		ThreeTerminal: []circuit.ThreeTerminal{
			{Nodes: [3]int{3, 1, 2}, Kind: circuit.NTransistor{Beta: 100}},
		},
	}
}

func transformer() *circuit.Topology {
	return &circuit.Topology{
		NumNodes: 4,
		TwoTerminal: []circuit.TwoTerminal{
			{Nodes: [2]int{3, 0}, Kind: circuit.Battery{Voltage: 1}},
			{Nodes: [2]int{0, 1}, Kind: circuit.Resistor{Resistance: 10}},
			{Nodes: [2]int{1, 3}, Kind: circuit.Inductor{Inductance: 1, CoreID: circuit.Core(0)}},
			{Nodes: [2]int{2, 3}, Kind: circuit.Inductor{Inductance: 4, CoreID: circuit.Core(0)}},
			{Nodes: [2]int{2, 3}, Kind: circuit.Resistor{Resistance: 100}},
		},
	}
}

func linearConfig() analysis.Config {
	cfg := analysis.DefaultConfig()
	cfg.Mode = analysis.Linear
	return cfg
}

// newtonConfig takes full Newton steps.
func newtonConfig() analysis.Config {
	cfg := analysis.DefaultConfig()
	cfg.NRStepSize = 1.0
	return cfg
}

// kclResidual sums the currents entering every non-ground node.
func kclResidual(topo *circuit.Topology, out analysis.SimOutputs) []float64 {
	sums := make([]float64, topo.NumNodes)
	for i, c := range topo.TwoTerminal {
		sums[c.Nodes[1]] += out.TwoTerminalCurrent[i]
		sums[c.Nodes[0]] -= out.TwoTerminalCurrent[i]
	}
	for k, c := range topo.ThreeTerminal {
		t := out.ThreeTerminalCurrent[k]
		sums[c.Nodes[0]] += t[0]
		sums[c.Nodes[1]] += t[1]
		sums[c.Nodes[2]] -= t[2]
	}
	return sums[:topo.Ground()]
}
