package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edp1096/circuit-sim/pkg/linsolve"
)

var ErrInvalidConfig = errors.New("analysis: invalid config")

type Mode int

const (
	NewtonRaphson Mode = iota
	Linear
)

func (m Mode) String() string {
	switch m {
	case NewtonRaphson:
		return "NewtonRaphson"
	case Linear:
		return "Linear"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "newtonraphson", "newton", "nr":
		return NewtonRaphson, nil
	case "linear", "lin":
		return Linear, nil
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
}

func (m Mode) MarshalText() ([]byte, error) {
	if m != NewtonRaphson && m != Linear {
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidConfig, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Config controls one Solver.Step.
type Config struct {
	Mode             Mode            `yaml:"mode" json:"mode"`
	LinearSolver     linsolve.Method `yaml:"linear_sol" json:"linear_sol"`
	MaxNRIters       int             `yaml:"max_nr_iters" json:"max_nr_iters"`
	NRStepSize       float64         `yaml:"nr_step_size" json:"nr_step_size"`
	NRTolerance      float64         `yaml:"nr_tolerance" json:"nr_tolerance"`
	DxSolnTolerance  float64         `yaml:"dx_soln_tolerance" json:"dx_soln_tolerance"`
	AdaptiveStepSize bool            `yaml:"adaptive_step_size" json:"adaptive_step_size"`
	NTimesteps       int             `yaml:"n_timesteps" json:"n_timesteps"`
	Dt               float64         `yaml:"dt" json:"dt"`

	GMRESRestart   int `yaml:"gmres_restart" json:"gmres_restart"`
	MaxLinearIters int `yaml:"max_linear_iters" json:"max_linear_iters"` // 0 lets the backend choose
}

func DefaultConfig() Config {
	return Config{
		Mode:             NewtonRaphson,
		LinearSolver:     linsolve.LUDecomposition,
		MaxNRIters:       2000,
		NRStepSize:       0.1,
		NRTolerance:      1e-6,
		DxSolnTolerance:  1e-3,
		AdaptiveStepSize: false,
		NTimesteps:       2,
		Dt:               1e-4,
		GMRESRestart:     100,
		MaxLinearIters:   0,
	}
}

func (c Config) Validate() error {
	if _, err := c.LinearSolver.MarshalText(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch {
	case c.Mode != NewtonRaphson && c.Mode != Linear:
		return fmt.Errorf("%w: mode %d", ErrInvalidConfig, int(c.Mode))
	case c.MaxNRIters <= 0:
		return fmt.Errorf("%w: max_nr_iters must be positive, got %d", ErrInvalidConfig, c.MaxNRIters)
	case c.NRStepSize <= 0:
		return fmt.Errorf("%w: nr_step_size must be positive, got %g", ErrInvalidConfig, c.NRStepSize)
	case c.NRTolerance <= 0:
		return fmt.Errorf("%w: nr_tolerance must be positive, got %g", ErrInvalidConfig, c.NRTolerance)
	case c.DxSolnTolerance <= 0:
		return fmt.Errorf("%w: dx_soln_tolerance must be positive, got %g", ErrInvalidConfig, c.DxSolnTolerance)
	case c.NTimesteps <= 0:
		return fmt.Errorf("%w: n_timesteps must be positive, got %d", ErrInvalidConfig, c.NTimesteps)
	case c.Dt <= 0:
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	case c.GMRESRestart < 0 || c.MaxLinearIters < 0:
		return fmt.Errorf("%w: negative linear solver budget", ErrInvalidConfig)
	}
	return nil
}

func (c Config) linearOptions() []linsolve.Option {
	return []linsolve.Option{
		linsolve.WithRestart(c.GMRESRestart),
		linsolve.WithMaxIterations(c.MaxLinearIters),
	}
}
