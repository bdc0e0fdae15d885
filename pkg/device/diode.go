package device

import (
	"math"

	"github.com/edp1096/circuit-sim/internal/consts"
)

func thermalVoltage(temp float64) float64 {
	return consts.BOLTZMANN * temp
}

// nvt is n*Vt at room temperature.
var nvt = consts.DIODE_N * thermalVoltage(consts.ROOMTEMP)

// DiodeCurrent is the Shockley law Is*(exp(v/nVt) - 1).
func DiodeCurrent(v float64) float64 {
	return consts.DIODE_IS * (math.Exp(v/nvt) - 1)
}

// DiodeLaw linearizes the junction about the last Newton iterate v0:
//
//	I - g*Vd = Is*(ex - 1) - g*v0,   g = Is/nVt*ex,  ex = exp(v0/nVt)
//
// which is the tangent of DiodeCurrent at v0.
func DiodeLaw(v0 float64) Coefficients {
	ex := math.Exp(v0 / nvt)
	g := consts.DIODE_IS / nvt * ex

	return Coefficients{
		Current:     1,
		VoltageDrop: -g,
		RHS:         consts.DIODE_IS * (ex - 1 - v0*ex/nvt),
	}
}
