package consts

const (
	BOLTZMANN = 8.617e-5 // Boltzmann constant (eV/K)
	KELVIN    = 273.15   // Kelvin temperature (K)
)

// Junction model shared by the diode and both transistor legs.
const (
	ROOMTEMP = KELVIN + 22.0 // 22degC

	DIODE_IS = 171.4352819281e-9 // Saturation current (A)
	DIODE_N  = 2.0               // Emission coefficient

	BJT_AF = 0.98 // Forward injection ratio
	BJT_AR = 0.1  // Reverse injection ratio
)
