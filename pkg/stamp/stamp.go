// Package stamp assembles the modified nodal system of a topology over a
// window of time-step blocks.
package stamp

import (
	"fmt"

	"github.com/edp1096/circuit-sim/pkg/circuit"
	"github.com/edp1096/circuit-sim/pkg/device"
	"github.com/edp1096/circuit-sim/pkg/matrix"
)

// Stamp builds A and b for nTimesteps consecutive blocks of
// m.VectorSize() rows each. lastIteration spans the whole window and is
// the Newton operating point of the nonlinear devices. lastTimestep is one
// block: the converged state preceding block 0. Later blocks reference the
// block before them through matrix entries, so the window is solved as one
// system.
//
// Node indices must be valid for the topology (see Topology.Validate); an
// out-of-range index panics.
func Stamp(dt float64, m circuit.Mapping, topo *circuit.Topology, lastIteration, lastTimestep []float64, nTimesteps int) (*matrix.CSR, []float64) {
	size := m.VectorSize()
	sys := matrix.NewAssembler(size * nTimesteps)
	cores := device.NewCoreIndex(topo.TwoTerminal)

	for k := 0; k < nTimesteps; k++ {
		b := &block{
			sys:    sys,
			m:      m,
			offset: k * size,
			size:   size,
			iter:   lastIteration[k*size : (k+1)*size],
			prev:   lastTimestep,
			first:  k == 0,
		}
		b.currentLaws(topo)
		b.voltageLaws(topo)
		b.components(dt, topo, cores)
	}

	return sys.Build()
}

type block struct {
	sys    *matrix.Assembler
	m      circuit.Mapping
	offset int
	size   int
	iter   []float64
	prev   []float64
	first  bool
}

func (b *block) add(row, col int, value float64) {
	b.sys.AddElement(b.offset+row, b.offset+col, value)
}

// addPrev stamps onto a column of the preceding block.
func (b *block) addPrev(row, col int, value float64) {
	b.sys.AddElement(b.offset+row, b.offset-b.size+col, value)
}

func (b *block) rhs(row int, value float64) {
	b.sys.AddRHS(b.offset+row, value)
}

func nth(r circuit.Range, i int) int {
	idx, ok := r.Nth(i)
	if !ok {
		panic(fmt.Sprintf("stamp: slot %d outside range [%d,%d)", i, r.Start, r.End))
	}
	return idx
}

func (b *block) current(slot int) int     { return nth(b.m.State.Currents(), slot) }
func (b *block) voltageDrop(slot int) int { return nth(b.m.State.VoltageDrops(), slot) }
func (b *block) law(slot int) int         { return nth(b.m.Param.Components(), slot) }
func (b *block) dropLaw(slot int) int     { return nth(b.m.Param.VoltageLaws(), slot) }

// Ground has neither a voltage column nor a current-law row.
func (b *block) voltage(node int) (int, bool)    { return b.m.State.Voltages().Nth(node) }
func (b *block) currentLaw(node int) (int, bool) { return b.m.Param.CurrentLaws().Nth(node) }

// kcl adds value*I(slot) to the current law of node.
func (b *block) kcl(node, slot int, value float64) {
	if row, ok := b.currentLaw(node); ok {
		b.add(row, b.current(slot), value)
	}
}

// potential adds value*V(node) to row.
func (b *block) potential(row, node int, value float64) {
	if col, ok := b.voltage(node); ok {
		b.add(row, col, value)
	}
}

func (b *block) currentLaws(topo *circuit.Topology) {
	slot := 0
	for _, c := range topo.TwoTerminal {
		begin, end := c.Nodes[0], c.Nodes[1]
		b.kcl(end, slot, 1)
		b.kcl(begin, slot, -1)
		slot++
	}

	for _, c := range topo.ThreeTerminal {
		a, base, col := c.Nodes[0], c.Nodes[1], c.Nodes[2]
		ab, bc := slot, slot+1
		b.kcl(a, ab, 1)
		b.kcl(base, ab, -1)
		b.kcl(base, bc, 1)
		b.kcl(col, bc, -1)
		slot += 2
	}
}

func (b *block) voltageLaws(topo *circuit.Topology) {
	slot := 0
	for _, c := range topo.TwoTerminal {
		begin, end := c.Nodes[0], c.Nodes[1]
		row := b.dropLaw(slot)
		b.add(row, b.voltageDrop(slot), 1)
		b.potential(row, end, 1)
		b.potential(row, begin, -1)
		slot++
	}

	for _, c := range topo.ThreeTerminal {
		a, base, col := c.Nodes[0], c.Nodes[1], c.Nodes[2]

		ab := b.dropLaw(slot)
		b.add(ab, b.voltageDrop(slot), 1)
		b.potential(ab, a, 1)
		b.potential(ab, base, -1)

		bc := b.dropLaw(slot + 1)
		b.add(bc, b.voltageDrop(slot+1), 1)
		b.potential(bc, base, 1)
		b.potential(bc, col, -1)

		slot += 2
	}
}

func (b *block) coefficients(slot int, law device.Coefficients) {
	row := b.law(slot)
	if law.Current != 0 {
		b.add(row, b.current(slot), law.Current)
	}
	if law.VoltageDrop != 0 {
		b.add(row, b.voltageDrop(slot), law.VoltageDrop)
	}
	if law.RHS != 0 {
		b.rhs(row, law.RHS)
	}
}

// companion stamps a backward Euler law whose history term refers to
// column histCol of the previous step.
func (b *block) companion(slot int, law device.Companion, histCol int) {
	if b.first {
		b.coefficients(slot, law.Fold(b.prev[histCol]))
		return
	}
	b.coefficients(slot, law.Coefficients)
	b.addPrev(b.law(slot), histCol, law.History)
}

func (b *block) components(dt float64, topo *circuit.Topology, cores device.CoreIndex) {
	slot := 0
	for i, c := range topo.TwoTerminal {
		switch k := c.Kind.(type) {
		case circuit.Wire:
			w := device.WireLaw()
			row := b.law(slot)
			b.potential(row, c.Nodes[1], w.End)
			b.potential(row, c.Nodes[0], w.Begin)

		case circuit.Resistor:
			b.coefficients(slot, device.ResistorLaw(k.Resistance))

		case circuit.Switch:
			b.coefficients(slot, device.SwitchLaw(k.Open))

		case circuit.Battery:
			b.coefficients(slot, device.BatteryLaw(k.Voltage))

		case circuit.CurrentSource:
			b.coefficients(slot, device.CurrentSourceLaw(k.Current))

		case circuit.Capacitor:
			b.companion(slot, device.CapacitorLaw(dt, k.Capacitance), b.voltageDrop(slot))

		case circuit.Inductor:
			law, couplings := device.InductorLaw(dt, k.Inductance, cores.Others(k.CoreID, i))
			b.companion(slot, law, b.current(slot))
			row := b.law(slot)
			for _, cp := range couplings {
				b.add(row, b.voltageDrop(cp.Index), cp.Coeff)
			}

		case circuit.Diode:
			b.coefficients(slot, device.DiodeLaw(b.iter[b.voltageDrop(slot)]))

		default:
			panic(fmt.Sprintf("stamp: unsupported two-terminal kind %T", c.Kind))
		}
		slot++
	}

	for _, c := range topo.ThreeTerminal {
		switch c.Kind.(type) {
		case circuit.NTransistor, circuit.PTransistor:
			ab, bc := slot, slot+1
			st := device.LegState{
				Vab: b.iter[b.voltageDrop(ab)],
				Vbc: b.iter[b.voltageDrop(bc)],
				Iab: b.iter[b.current(ab)],
				Ibc: b.iter[b.current(bc)],
			}
			lab, lbc := device.TransistorLaw(c.Kind, st)
			b.coefficients(ab, lab)
			b.coefficients(bc, lbc)

		default:
			panic(fmt.Sprintf("stamp: unsupported three-terminal kind %T", c.Kind))
		}
		slot += 2
	}
}
