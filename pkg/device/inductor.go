package device

import (
	"math"
	"slices"

	"github.com/edp1096/circuit-sim/pkg/circuit"
)

// CoreMember is one inductor wound on a shared core.
type CoreMember struct {
	Index      int // position in Topology.TwoTerminal
	Inductance float64
}

// CoreIndex groups inductors by core id. It is derived from the topology
// on every stamp call and never kept between calls.
type CoreIndex map[uint16][]CoreMember

func NewCoreIndex(components []circuit.TwoTerminal) CoreIndex {
	idx := CoreIndex{}
	for i, c := range components {
		ind, ok := c.Kind.(circuit.Inductor)
		if !ok || ind.CoreID == nil {
			continue
		}
		idx[*ind.CoreID] = append(idx[*ind.CoreID], CoreMember{Index: i, Inductance: ind.Inductance})
	}
	return idx
}

// CoreIDs returns the core ids in ascending order.
func (c CoreIndex) CoreIDs() []uint16 {
	ids := make([]uint16, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Others returns the members of core id other than the inductor at self.
func (c CoreIndex) Others(id *uint16, self int) []CoreMember {
	if id == nil {
		return nil
	}
	var others []CoreMember
	for _, m := range c[*id] {
		if m.Index != self {
			others = append(others, m)
		}
	}
	return others
}

// Coupling is a coefficient on another inductor's voltage drop column.
type Coupling struct {
	Index int // position in Topology.TwoTerminal
	Coeff float64
}

// InductorLaw is -L*I + dt*Vd + L*I_prev = 0. For every other inductor on
// the same ideal core, sqrt(L_other) is taken off the dt coefficient and
// sqrt(L) is added on the other inductor's voltage drop.
func InductorLaw(dt, inductance float64, others []CoreMember) (Companion, []Coupling) {
	law := Companion{
		Coefficients: Coefficients{Current: -inductance, VoltageDrop: dt},
		History:      inductance,
	}

	var couplings []Coupling
	for _, o := range others {
		law.VoltageDrop -= math.Sqrt(o.Inductance)
		couplings = append(couplings, Coupling{Index: o.Index, Coeff: math.Sqrt(inductance)})
	}

	return law, couplings
}
