package circuit

import (
	"errors"
	"fmt"
)

var (
	ErrNodeOutOfRange = errors.New("circuit: node index out of range")
	ErrNilKind        = errors.New("circuit: component kind is nil")
	ErrNegativeNodes  = errors.New("circuit: negative node count")
)

// Validate checks the precondition the stamping engine relies on: every
// referenced node index lies in [0, NumNodes).
func (t *Topology) Validate() error {
	if t.NumNodes < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeNodes, t.NumNodes)
	}

	for i, c := range t.TwoTerminal {
		if c.Kind == nil {
			return fmt.Errorf("two-terminal %d: %w", i, ErrNilKind)
		}
		for _, n := range c.Nodes {
			if n < 0 || n >= t.NumNodes {
				return fmt.Errorf("two-terminal %d (%s): %w: %d not in [0,%d)", i, c.Kind.Name(), ErrNodeOutOfRange, n, t.NumNodes)
			}
		}
	}

	for i, c := range t.ThreeTerminal {
		if c.Kind == nil {
			return fmt.Errorf("three-terminal %d: %w", i, ErrNilKind)
		}
		for _, n := range c.Nodes {
			if n < 0 || n >= t.NumNodes {
				return fmt.Errorf("three-terminal %d (%s): %w: %d not in [0,%d)", i, c.Kind.Name(), ErrNodeOutOfRange, n, t.NumNodes)
			}
		}
	}

	return nil
}
