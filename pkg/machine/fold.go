package machine

import (
	"fmt"
	"slices"
)

// FoldToggle applies the actions named by path, in order, to the zero toggle
// vector and returns the result.
func (m *Machine) FoldToggle(path []int) (ToggleVector, error) {
	out := make(ToggleVector, m.dim)
	for _, idx := range path {
		if idx < 0 || idx >= len(m.actions) {
			return nil, fmt.Errorf("%w: action index %d outside catalog of %d", ErrInvalid, idx, len(m.actions))
		}
		for _, f := range m.actions[idx].flips {
			out[f] = !out[f]
		}
	}
	return out, nil
}

// FoldCounter applies the actions named by path to the zero counter vector.
func (m *Machine) FoldCounter(path []int) (CounterVector, error) {
	out := make(CounterVector, m.dim)
	for _, idx := range path {
		if idx < 0 || idx >= len(m.actions) {
			return nil, fmt.Errorf("%w: action index %d outside catalog of %d", ErrInvalid, idx, len(m.actions))
		}
		for i, d := range m.actions[idx].delta {
			out[i] += d
		}
	}
	return out, nil
}

// FoldPresses applies presses[i] repetitions of action i to the zero counter
// vector. It is the counter fold for a press-count vector instead of a path.
func (m *Machine) FoldPresses(presses []int) (CounterVector, error) {
	if len(presses) != len(m.actions) {
		return nil, fmt.Errorf("%w: %d press counts for %d actions", ErrInvalid, len(presses), len(m.actions))
	}
	out := make(CounterVector, m.dim)
	for a, n := range presses {
		if n < 0 {
			return nil, fmt.Errorf("%w: negative press count %d for action %d", ErrInvalid, n, a)
		}
		for i, d := range m.actions[a].delta {
			out[i] += n * d
		}
	}
	return out, nil
}

// Equal reports whether two toggle vectors hold the same components.
func (v ToggleVector) Equal(o ToggleVector) bool { return slices.Equal(v, o) }

// IsZero reports whether every indicator is off.
func (v ToggleVector) IsZero() bool {
	for _, b := range v {
		if b {
			return false
		}
	}
	return true
}

// String renders the vector in indicator notation, e.g. "[.##.]".
func (v ToggleVector) String() string {
	buf := make([]byte, 0, len(v)+2)
	buf = append(buf, '[')
	for _, b := range v {
		if b {
			buf = append(buf, '#')
		} else {
			buf = append(buf, '.')
		}
	}
	return string(append(buf, ']'))
}

// Equal reports whether two counter vectors hold the same components.
func (v CounterVector) Equal(o CounterVector) bool { return slices.Equal(v, o) }

// IsZero reports whether every counter is zero.
func (v CounterVector) IsZero() bool {
	for _, c := range v {
		if c != 0 {
			return false
		}
	}
	return true
}

// Sum returns the sum of the components.
func (v CounterVector) Sum() int {
	total := 0
	for _, c := range v {
		total += c
	}
	return total
}

// Max returns the largest component, or 0 for an empty vector.
func (v CounterVector) Max() int {
	m := 0
	for _, c := range v {
		if c > m {
			m = c
		}
	}
	return m
}
