package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gitrdm/presskit/pkg/machine"
)

func button(t *testing.T, dim int, idx ...int) machine.Action {
	t.Helper()
	a, err := machine.NewButton(dim, idx...)
	if err != nil {
		t.Fatalf("NewButton(%d, %v): %v", dim, idx, err)
	}
	return a
}

func TestToggleRelevant(t *testing.T) {
	target := machine.ToggleVector{true, false, true}
	state := machine.ToggleVector{true, false, false}

	assert.True(t, ToggleRelevant(state, target, button(t, 3, 2)))
	assert.True(t, ToggleRelevant(state, target, button(t, 3, 0, 2)), "fixes index 2 even though it breaks index 0")
	assert.False(t, ToggleRelevant(state, target, button(t, 3, 0, 1)))
	assert.False(t, ToggleRelevant(state, target, button(t, 3)))
}

func TestCounterRelevant(t *testing.T) {
	target := machine.CounterVector{3, 5, 0}
	state := machine.CounterVector{3, 2, 0}

	tests := []struct {
		name string
		a    machine.Action
		want bool
	}{
		{"raises a short counter", button(t, 3, 1), true},
		{"touches a met counter", button(t, 3, 0, 1), false},
		{"touches a zero target", button(t, 3, 1, 2), false},
		{"changes nothing", button(t, 3), false},
		{"increment fits the gap", button(t, 3, 1, 1, 1), true},
		{"increment overshoots the gap", button(t, 3, 1, 1, 1, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CounterRelevant(state, target, tt.a))
		})
	}
}
