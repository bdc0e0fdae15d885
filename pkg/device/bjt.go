package device

import (
	"github.com/edp1096/circuit-sim/internal/consts"
	"github.com/edp1096/circuit-sim/pkg/circuit"
)

// LegState is the Newton iterate of both transistor legs.
type LegState struct {
	Vab, Vbc float64
	Iab, Ibc float64
}

// Polarity is +1 for NPN and -1 for PNP.
func Polarity(kind circuit.ThreeTerminalKind) float64 {
	if _, ok := kind.(circuit.PTransistor); ok {
		return -1
	}
	return 1
}

// TransistorLaw is a simplified Ebers-Moll companion: two diode legs, each
// fed by a fraction of the other leg's current.
//
//	ab: diode(sign*v_ab) + ar*i_bc
//	bc: diode(-sign*v_bc) + af*i_ab
func TransistorLaw(kind circuit.ThreeTerminalKind, st LegState) (ab, bc Coefficients) {
	sign := Polarity(kind)

	ab = DiodeLaw(sign * st.Vab)
	bc = DiodeLaw(-sign * st.Vbc)

	ab.RHS += consts.BJT_AR * st.Ibc
	bc.RHS += consts.BJT_AF * st.Iab

	return ab, bc
}
