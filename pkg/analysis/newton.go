package analysis

import (
	"fmt"
	"math"

	"github.com/edp1096/circuit-sim/pkg/circuit"
	"github.com/edp1096/circuit-sim/pkg/linsolve"
	"github.com/edp1096/circuit-sim/pkg/stamp"
	"gonum.org/v1/gonum/floats"
)

// dampingFloor bounds adaptive halving relative to the configured step.
const dampingFloor = 1.0 / (1 << 20)

// linear solves the window once, linearized at the previous state.
func (s *Solver) linear(dt float64, topo *circuit.Topology, cfg Config, prev []float64) error {
	x := s.replicate(prev)
	if topo.HasNonlinear() {
		s.logger.Debug("linear mode on nonlinear topology, junctions linearized at the previous state")
	}

	a, b := stamp.Stamp(dt, s.mapping, topo, x, prev, s.window)
	if err := linsolve.Solve(cfg.LinearSolver, a, b, cfg.DxSolnTolerance, cfg.linearOptions()...); err != nil {
		return fmt.Errorf("linear step: %w", err)
	}

	copy(s.x, b)
	s.stats = StepStats{Iterations: 1, Converged: true, StepSize: 1}
	s.logger.Debug("linear step", "size", len(b), "nnz", a.NNZ())
	return nil
}

// newton runs damped Newton-Raphson over the window, seeded with the
// previous state in every block.
func (s *Solver) newton(dt float64, topo *circuit.Topology, cfg Config, prev []float64) error {
	x := s.replicate(prev)
	step := cfg.NRStepSize
	minStep := cfg.NRStepSize * dampingFloor
	lastErr := math.Inf(1)
	stats := StepStats{FinalError: math.Inf(1), StepSize: step}

	for iter := 0; iter < cfg.MaxNRIters; iter++ {
		a, b := stamp.Stamp(dt, s.mapping, topo, x, prev, s.window)

		dx := a.Residual(b, x)
		if err := linsolve.Solve(cfg.LinearSolver, a, dx, cfg.DxSolnTolerance, cfg.linearOptions()...); err != nil {
			return fmt.Errorf("newton iteration %d: %w", iter, err)
		}

		e := damped(dx, step)
		stats.Iterations = iter + 1

		// A halved retry of the same iterate reuses dx; the linearization
		// point has not moved.
		floored := false
		for cfg.AdaptiveStepSize && e > lastErr && iter+1 < cfg.MaxNRIters {
			if step/2 < minStep {
				floored = true
				break
			}
			step /= 2
			iter++
			stats.Iterations = iter + 1
			e = damped(dx, step)
		}

		floats.AddScaled(x, step, dx)
		lastErr = e
		stats.FinalError = e
		stats.StepSize = step

		// A vanishing step makes e small without x getting anywhere.
		if floored {
			s.logger.Warn("newton damping floor reached", "iteration", iter, "step", step, "error", e)
			break
		}
		if e < cfg.NRTolerance {
			stats.Converged = true
			break
		}
	}

	copy(s.x, x)
	s.stats = stats

	if !stats.Converged {
		s.logger.Warn("newton iteration limit reached",
			"iterations", stats.Iterations, "error", stats.FinalError, "tolerance", cfg.NRTolerance)
		return nil
	}
	s.logger.Debug("newton step",
		"iterations", stats.Iterations, "error", stats.FinalError, "step", stats.StepSize)
	return nil
}

// damped is the squared norm of the update actually applied.
func damped(dx []float64, step float64) float64 {
	n := floats.Norm(dx, 2) * step
	return n * n
}
