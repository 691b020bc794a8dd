package search

import (
	"encoding/binary"
	"fmt"
	"iter"
	"slices"

	"github.com/gitrdm/presskit/pkg/machine"
)

// State is the capability the engine needs from a domain. Implementations
// are values: Apply returns a fresh state and never mutates the receiver.
type State[S any] interface {
	// Apply returns the state reached by pressing the action with the given
	// catalog index.
	Apply(action int) (S, error)

	// Matches reports whether the state equals the machine's target.
	Matches() bool

	// Relevant yields, in catalog order, the actions worth pressing next.
	Relevant() iter.Seq[int]

	// Key identifies the state vector for deduplication.
	Key() string

	// Compare orders states lexicographically by vector. It breaks ties
	// between frontier entries of equal cost.
	Compare(other S) int
}

type toggleSpace struct {
	target  machine.ToggleVector
	actions []machine.Action
}

// ToggleState is a point in the boolean-toggle domain.
type ToggleState struct {
	space  *toggleSpace
	lights machine.ToggleVector
}

var _ State[ToggleState] = ToggleState{}

// NewToggleState returns the all-off start state of m's toggle domain.
func NewToggleState(m *machine.Machine) (ToggleState, error) {
	if !m.HasToggle() {
		return ToggleState{}, fmt.Errorf("%w: toggle", ErrMissingTarget)
	}
	return ToggleState{
		space:  &toggleSpace{target: m.ToggleTarget(), actions: m.Actions()},
		lights: make(machine.ToggleVector, m.Dim()),
	}, nil
}

// Apply implements State.
func (s ToggleState) Apply(action int) (ToggleState, error) {
	if action < 0 || action >= len(s.space.actions) {
		return ToggleState{}, fmt.Errorf("%w: action %d", machine.ErrInvalid, action)
	}
	next := slices.Clone(s.lights)
	for f := range s.space.actions[action].FlipIndices() {
		next[f] = !next[f]
	}
	return ToggleState{space: s.space, lights: next}, nil
}

// Matches implements State.
func (s ToggleState) Matches() bool { return s.lights.Equal(s.space.target) }

// Relevant implements State using ToggleRelevant.
func (s ToggleState) Relevant() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i, a := range s.space.actions {
			if ToggleRelevant(s.lights, s.space.target, a) && !yield(i) {
				return
			}
		}
	}
}

// Key implements State.
func (s ToggleState) Key() string {
	buf := make([]byte, len(s.lights))
	for i, b := range s.lights {
		if b {
			buf[i] = 1
		}
	}
	return string(buf)
}

// Compare implements State; off sorts before on.
func (s ToggleState) Compare(o ToggleState) int {
	for i := range s.lights {
		if s.lights[i] == o.lights[i] {
			continue
		}
		if !s.lights[i] {
			return -1
		}
		return 1
	}
	return 0
}

type counterSpace struct {
	target  machine.CounterVector
	actions []machine.Action
}

// CounterState is a point in the monotonic-counter domain.
type CounterState struct {
	space    *counterSpace
	counters machine.CounterVector
}

var _ State[CounterState] = CounterState{}

// NewCounterState returns the all-zero start state of m's counter domain.
func NewCounterState(m *machine.Machine) (CounterState, error) {
	if !m.HasCounter() {
		return CounterState{}, fmt.Errorf("%w: counter", ErrMissingTarget)
	}
	return CounterState{
		space:    &counterSpace{target: m.CounterTarget(), actions: m.Actions()},
		counters: make(machine.CounterVector, m.Dim()),
	}, nil
}

// Apply implements State. Landing above the target on any counter means the
// filter let an overshooting action through, which is reported as
// ErrOvershoot.
func (s CounterState) Apply(action int) (CounterState, error) {
	if action < 0 || action >= len(s.space.actions) {
		return CounterState{}, fmt.Errorf("%w: action %d", machine.ErrInvalid, action)
	}
	a := s.space.actions[action]
	next := slices.Clone(s.counters)
	for i := range next {
		next[i] += a.Increment(i)
		if next[i] > s.space.target[i] {
			return CounterState{}, fmt.Errorf("%w: action %d raises counter %d to %d, target %d",
				ErrOvershoot, action, i, next[i], s.space.target[i])
		}
	}
	return CounterState{space: s.space, counters: next}, nil
}

// Matches implements State.
func (s CounterState) Matches() bool { return s.counters.Equal(s.space.target) }

// Relevant implements State using CounterRelevant.
func (s CounterState) Relevant() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i, a := range s.space.actions {
			if CounterRelevant(s.counters, s.space.target, a) && !yield(i) {
				return
			}
		}
	}
}

// Key implements State.
func (s CounterState) Key() string {
	buf := make([]byte, 0, len(s.counters)*2)
	for _, c := range s.counters {
		buf = binary.AppendUvarint(buf, uint64(c))
	}
	return string(buf)
}

// Compare implements State.
func (s CounterState) Compare(o CounterState) int { return slices.Compare(s.counters, o.counters) }
