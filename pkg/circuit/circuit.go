// Package circuit holds the node-indexed description of a circuit and the
// layout of the unknown and equation vectors derived from it.
package circuit

// Topology is the solver's only input besides configuration. Node
// NumNodes-1 is the implicit ground reference with a fixed voltage of 0.
type Topology struct {
	NumNodes      int
	TwoTerminal   []TwoTerminal
	ThreeTerminal []ThreeTerminal
}

// TwoTerminal connects Nodes[0] (begin) to Nodes[1] (end).
type TwoTerminal struct {
	Nodes [2]int
	Kind  TwoTerminalKind
}

// ThreeTerminal terminals are ordered (a, b=base, c).
type ThreeTerminal struct {
	Nodes [3]int
	Kind  ThreeTerminalKind
}

type TwoTerminalKind interface {
	Name() string
	twoTerminal()
}

type ThreeTerminalKind interface {
	Name() string
	threeTerminal()
}

type (
	Wire     struct{}
	Resistor struct{ Resistance float64 }
	Inductor struct {
		Inductance float64
		CoreID     *uint16 // inductors sharing an id form an ideal transformer
	}
	Capacitor     struct{ Capacitance float64 }
	Diode         struct{}
	Battery       struct{ Voltage float64 }
	Switch        struct{ Open bool }
	CurrentSource struct{ Current float64 }
)

// Beta is carried for the editor but not used by the companion model.
type (
	NTransistor struct{ Beta float64 }
	PTransistor struct{ Beta float64 }
)

var (
	_ TwoTerminalKind   = Wire{}
	_ TwoTerminalKind   = Resistor{}
	_ TwoTerminalKind   = Inductor{}
	_ TwoTerminalKind   = Capacitor{}
	_ TwoTerminalKind   = Diode{}
	_ TwoTerminalKind   = Battery{}
	_ TwoTerminalKind   = Switch{}
	_ TwoTerminalKind   = CurrentSource{}
	_ ThreeTerminalKind = NTransistor{}
	_ ThreeTerminalKind = PTransistor{}
)

func (Wire) Name() string          { return "Wire" }
func (Resistor) Name() string      { return "Resistor" }
func (Inductor) Name() string      { return "Inductor" }
func (Capacitor) Name() string     { return "Capacitor" }
func (Diode) Name() string         { return "Diode" }
func (Battery) Name() string       { return "Battery" }
func (Switch) Name() string        { return "Switch" }
func (CurrentSource) Name() string { return "Current Source" }
func (NTransistor) Name() string   { return "N-type Transistor (NPN)" }
func (PTransistor) Name() string   { return "P-type Transistor (PNP)" }

func (Wire) twoTerminal()          {}
func (Resistor) twoTerminal()      {}
func (Inductor) twoTerminal()      {}
func (Capacitor) twoTerminal()     {}
func (Diode) twoTerminal()         {}
func (Battery) twoTerminal()       {}
func (Switch) twoTerminal()        {}
func (CurrentSource) twoTerminal() {}
func (NTransistor) threeTerminal() {}
func (PTransistor) threeTerminal() {}

// Core returns a core id suitable for Inductor.CoreID.
func Core(id uint16) *uint16 {
	return &id
}

// Ground returns the index of the implicit ground node.
func (t *Topology) Ground() int {
	return t.NumNodes - 1
}

type VoltageSource struct {
	Index   int // position in TwoTerminal
	Voltage float64
}

// VoltageSources lists every battery in component order.
func (t *Topology) VoltageSources() []VoltageSource {
	var sources []VoltageSource
	for i, c := range t.TwoTerminal {
		if b, ok := c.Kind.(Battery); ok {
			sources = append(sources, VoltageSource{Index: i, Voltage: b.Voltage})
		}
	}
	return sources
}

// HasNonlinear reports whether any diode or transistor is present.
func (t *Topology) HasNonlinear() bool {
	if len(t.ThreeTerminal) > 0 {
		return true
	}
	for _, c := range t.TwoTerminal {
		if _, ok := c.Kind.(Diode); ok {
			return true
		}
	}
	return false
}

// SameShape reports whether other produces the same vector layout.
func (t *Topology) SameShape(other *Topology) bool {
	return t.NumNodes == other.NumNodes &&
		len(t.TwoTerminal) == len(other.TwoTerminal) &&
		len(t.ThreeTerminal) == len(other.ThreeTerminal)
}

// Clone copies the component slices so the result can be edited freely.
func (t *Topology) Clone() *Topology {
	return &Topology{
		NumNodes:      t.NumNodes,
		TwoTerminal:   append([]TwoTerminal(nil), t.TwoTerminal...),
		ThreeTerminal: append([]ThreeTerminal(nil), t.ThreeTerminal...),
	}
}
