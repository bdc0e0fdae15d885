// Package device holds the per-kind constitutive laws stamped into one
// component row. Every law is a pure function of the operating point.
package device

// Coefficients describe the linear(ized) law
//
//	Current*I + VoltageDrop*Vd = RHS
//
// for one component slot.
type Coefficients struct {
	Current     float64
	VoltageDrop float64
	RHS         float64
}

// Companion is the backward Euler law of an energy-storage element.
// History is the coefficient on the previous time step's quantity
// (voltage drop for capacitors, current for inductors). When the previous
// value is known, it moves to the right-hand side, see Fold.
type Companion struct {
	Coefficients
	History float64
}

// Fold moves the history term to the right-hand side using a known
// previous value.
func (c Companion) Fold(prev float64) Coefficients {
	out := c.Coefficients
	out.RHS -= c.History * prev
	return out
}

// NodeCoefficients stamp directly onto the end/begin node voltage columns.
type NodeCoefficients struct {
	End, Begin float64
}

// WireLaw is V_end - V_begin = 0; the current and drop columns are unused.
func WireLaw() NodeCoefficients {
	return NodeCoefficients{End: 1, Begin: -1}
}

// ResistorLaw is Vd - R*I = 0.
func ResistorLaw(resistance float64) Coefficients {
	return Coefficients{Current: -resistance, VoltageDrop: 1}
}

// SwitchLaw forces I = 0 when open and Vd = 0 when closed.
func SwitchLaw(open bool) Coefficients {
	if open {
		return Coefficients{Current: 1}
	}
	return Coefficients{VoltageDrop: 1}
}

// BatteryLaw is -Vd = V, so the end terminal sits V above the begin terminal.
func BatteryLaw(voltage float64) Coefficients {
	return Coefficients{VoltageDrop: -1, RHS: voltage}
}

// CurrentSourceLaw is I = I0.
func CurrentSourceLaw(current float64) Coefficients {
	return Coefficients{Current: 1, RHS: current}
}

// CapacitorLaw is -dt*I + C*Vd - C*Vd_prev = 0.
func CapacitorLaw(dt, capacitance float64) Companion {
	return Companion{
		Coefficients: Coefficients{Current: -dt, VoltageDrop: capacitance},
		History:      -capacitance,
	}
}
