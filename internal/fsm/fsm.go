// Package fsm provides a small phase machine with an explicit table of
// allowed transitions.
package fsm

import (
	"fmt"
	"slices"
)

// InvariantViolation reports an operation attempted in a phase that does
// not allow it. It is a caller contract error, never a generation failure.
type InvariantViolation struct {
	Op    string
	Phase string
	Want  []string
}

func (e *InvariantViolation) Error() string {
	if len(e.Want) == 0 {
		return fmt.Sprintf("%s: not allowed in phase %s", e.Op, e.Phase)
	}
	return fmt.Sprintf("%s: not allowed in phase %s (want one of %v)", e.Op, e.Phase, e.Want)
}

// Machine tracks the current phase and rejects transitions missing from
// its table.
type Machine[P ~string] struct {
	current P
	table   map[P][]P
}

// New returns a machine starting at initial.
func New[P ~string](initial P, table map[P][]P) *Machine[P] {
	return &Machine[P]{current: initial, table: table}
}

// Current returns the active phase.
func (m *Machine[P]) Current() P {
	return m.current
}

// Is reports whether the machine is in any of the given phases.
func (m *Machine[P]) Is(phases ...P) bool {
	return slices.Contains(phases, m.current)
}

// Can reports whether moving to next is allowed from the current phase.
func (m *Machine[P]) Can(next P) bool {
	return slices.Contains(m.table[m.current], next)
}

// Transition moves to next or returns an *InvariantViolation.
func (m *Machine[P]) Transition(op string, next P) error {
	if !m.Can(next) {
		return &InvariantViolation{Op: op, Phase: string(m.current), Want: []string{"-> " + string(next)}}
	}
	m.current = next
	return nil
}

// Require returns an *InvariantViolation unless the machine is in one of
// the given phases.
func (m *Machine[P]) Require(op string, phases ...P) error {
	if m.Is(phases...) {
		return nil
	}
	want := make([]string, len(phases))
	for i, p := range phases {
		want[i] = string(p)
	}
	return &InvariantViolation{Op: op, Phase: string(m.current), Want: want}
}

// Reset forces the machine back to phase p regardless of the table.
func (m *Machine[P]) Reset(p P) {
	m.current = p
}
