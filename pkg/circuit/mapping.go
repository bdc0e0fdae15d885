package circuit

// Range is a half-open interval [Start, End) of vector indices.
type Range struct {
	Start, End int
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Nth returns the i-th index of the range. It reports false past the end,
// which is how lookups of the ground node are skipped.
func (r Range) Nth(i int) (int, bool) {
	if i < 0 || r.Start+i >= r.End {
		return 0, false
	}
	return r.Start + i, true
}

func (r Range) Contains(idx int) bool {
	return idx >= r.Start && idx < r.End
}

// StateMap lays out the unknown vector: all currents, then all voltage
// drops, then one voltage per non-ground node. Three-terminal components
// contribute two slots to each of the first two blocks (ab, then bc).
type StateMap struct {
	nCurrents, nVoltageDrops, nVoltages int
}

func (m StateMap) Currents() Range {
	return Range{0, m.nCurrents}
}

func (m StateMap) VoltageDrops() Range {
	base := m.nCurrents
	return Range{base, base + m.nVoltageDrops}
}

func (m StateMap) Voltages() Range {
	base := m.nCurrents + m.nVoltageDrops
	return Range{base, base + m.nVoltages}
}

func (m StateMap) Size() int {
	return m.nCurrents + m.nVoltageDrops + m.nVoltages
}

// ParamMap lays out the equation rows: one constitutive law per component
// slot, one current law per non-ground node, one voltage-drop definition
// per component slot.
type ParamMap struct {
	nComponents, nCurrentLaws, nVoltageLaws int
}

func (m ParamMap) Components() Range {
	return Range{0, m.nComponents}
}

func (m ParamMap) CurrentLaws() Range {
	base := m.nComponents
	return Range{base, base + m.nCurrentLaws}
}

func (m ParamMap) VoltageLaws() Range {
	base := m.nComponents + m.nCurrentLaws
	return Range{base, base + m.nVoltageLaws}
}

func (m ParamMap) Size() int {
	return m.nComponents + m.nCurrentLaws + m.nVoltageLaws
}

type Mapping struct {
	State StateMap
	Param ParamMap
}

func NewMapping(t *Topology) Mapping {
	slots := len(t.TwoTerminal) + 2*len(t.ThreeTerminal)
	nodes := t.NumNodes - 1
	if nodes < 0 {
		nodes = 0
	}

	return Mapping{
		State: StateMap{nCurrents: slots, nVoltageDrops: slots, nVoltages: nodes},
		Param: ParamMap{nComponents: slots, nCurrentLaws: nodes, nVoltageLaws: slots},
	}
}

// VectorSize is the length of one time-step block.
func (m Mapping) VectorSize() int {
	return m.State.Size()
}

// Slots is the number of current (and voltage-drop) slots.
func (m Mapping) Slots() int {
	return m.State.nCurrents
}
