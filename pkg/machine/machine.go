// Package machine defines the immutable problem description consumed by the
// press solvers: a target vector and an ordered catalog of actions.
//
// A Machine carries two views of the same catalog. In the toggle view each
// action flips a fixed set of boolean indicators; in the counter view each
// action adds a fixed non-negative increment to a vector of counters. Both
// views share one index space, so a single button definition seeds both.
package machine

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
)

// ErrInvalid reports a machine or action that violates a structural rule
// (dimension mismatch, index out of range, negative component).
var ErrInvalid = errors.New("invalid machine")

// ToggleVector is a boolean state or target. Index i is true when indicator i is on.
type ToggleVector []bool

// CounterVector is a non-negative counter state or target.
type CounterVector []int

// Action is one entry of a machine's catalog. Actions are immutable; the
// accessors return copies.
type Action struct {
	flips []int // sorted, unique indices toggled by the action
	delta []int // dense increments, len == dimension
}

// NewButton builds an action from a button definition: the listed indices are
// both the flip set and the unit increments of the action.
func NewButton(dim int, indices ...int) (Action, error) {
	if dim < 0 {
		return Action{}, fmt.Errorf("%w: negative dimension %d", ErrInvalid, dim)
	}
	delta := make([]int, dim)
	for _, idx := range indices {
		if idx < 0 || idx >= dim {
			return Action{}, fmt.Errorf("%w: button index %d outside [0,%d)", ErrInvalid, idx, dim)
		}
		delta[idx]++
	}
	flips := make([]int, 0, len(indices))
	for i, d := range delta {
		// Listing an index twice toggles it twice, which is a no-op.
		if d%2 == 1 {
			flips = append(flips, i)
		}
	}
	return Action{flips: flips, delta: delta}, nil
}

// NewCounterAction builds an action from an explicit increment vector. Its
// toggle view flips every index with an odd increment.
func NewCounterAction(delta []int) (Action, error) {
	flips := make([]int, 0, len(delta))
	for i, d := range delta {
		if d < 0 {
			return Action{}, fmt.Errorf("%w: negative increment %d at index %d", ErrInvalid, d, i)
		}
		if d%2 == 1 {
			flips = append(flips, i)
		}
	}
	return Action{flips: flips, delta: slices.Clone(delta)}, nil
}

// Dim returns the dimension of the action's delta.
func (a Action) Dim() int { return len(a.delta) }

// Flips returns the sorted indices toggled by the action.
func (a Action) Flips() []int { return slices.Clone(a.flips) }

// FlipIndices yields the indices toggled by the action in ascending order
// without copying them.
func (a Action) FlipIndices() iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, i := range a.flips {
			if !yield(i) {
				return
			}
		}
	}
}

// Flipped reports whether the action toggles index i.
func (a Action) Flipped(i int) bool {
	_, found := slices.BinarySearch(a.flips, i)
	return found
}

// Delta returns the per-index increments of the action.
func (a Action) Delta() []int { return slices.Clone(a.delta) }

// Increment returns the increment the action applies at index i.
func (a Action) Increment(i int) int { return a.delta[i] }

// IsZero reports whether the action changes nothing in the counter view.
func (a Action) IsZero() bool {
	for _, d := range a.delta {
		if d != 0 {
			return false
		}
	}
	return true
}

// String renders the action in button notation, e.g. "(0,2)".
func (a Action) String() string {
	parts := make([]string, 0, len(a.delta))
	for i, d := range a.delta {
		for k := 0; k < d; k++ {
			parts = append(parts, fmt.Sprint(i))
		}
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Machine owns a toggle target, a counter target and the action catalog
// shared by both. Either target may be absent (nil); the catalog dimension
// must match every target that is present.
type Machine struct {
	toggle  ToggleVector
	counter CounterVector
	actions []Action
	dim     int
}

// New validates and builds a machine. The inputs are copied.
func New(toggle ToggleVector, counter CounterVector, actions []Action) (*Machine, error) {
	dim := -1
	if toggle != nil {
		dim = len(toggle)
	}
	if counter != nil {
		if dim >= 0 && len(counter) != dim {
			return nil, fmt.Errorf("%w: toggle target has %d components, counter target has %d",
				ErrInvalid, dim, len(counter))
		}
		dim = len(counter)
	}
	if dim < 0 {
		return nil, fmt.Errorf("%w: machine has no target", ErrInvalid)
	}
	for i, c := range counter {
		if c < 0 {
			return nil, fmt.Errorf("%w: negative counter target %d at index %d", ErrInvalid, c, i)
		}
	}
	for i, a := range actions {
		if a.Dim() != dim {
			return nil, fmt.Errorf("%w: action %d has dimension %d, machine has %d", ErrInvalid, i, a.Dim(), dim)
		}
	}

	return &Machine{
		toggle:  slices.Clone(toggle),
		counter: slices.Clone(counter),
		actions: slices.Clone(actions),
		dim:     dim,
	}, nil
}

// Dim returns the dimension shared by the targets and actions.
func (m *Machine) Dim() int { return m.dim }

// HasToggle reports whether the machine carries a toggle target.
func (m *Machine) HasToggle() bool { return m.toggle != nil }

// HasCounter reports whether the machine carries a counter target.
func (m *Machine) HasCounter() bool { return m.counter != nil }

// ToggleTarget returns a copy of the toggle target.
func (m *Machine) ToggleTarget() ToggleVector { return slices.Clone(m.toggle) }

// CounterTarget returns a copy of the counter target.
func (m *Machine) CounterTarget() CounterVector { return slices.Clone(m.counter) }

// Actions returns the catalog in order.
func (m *Machine) Actions() []Action { return slices.Clone(m.actions) }

// Action returns catalog entry i.
func (m *Machine) Action(i int) Action { return m.actions[i] }

// ActionCount returns the catalog size.
func (m *Machine) ActionCount() int { return len(m.actions) }

// String returns a compact description, e.g. "Machine{dim: 4, actions: 6}".
func (m *Machine) String() string {
	return fmt.Sprintf("Machine{dim: %d, actions: %d}", m.dim, len(m.actions))
}
