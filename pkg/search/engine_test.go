package search

import (
	"math/bits"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/presskit/pkg/machine"
)

func toggleMachine(t *testing.T, target machine.ToggleVector, buttons ...[]int) *machine.Machine {
	t.Helper()
	actions := make([]machine.Action, len(buttons))
	for i, b := range buttons {
		actions[i] = button(t, len(target), b...)
	}
	m, err := machine.New(target, nil, actions)
	require.NoError(t, err)
	return m
}

func counterMachine(t *testing.T, target machine.CounterVector, deltas ...[]int) *machine.Machine {
	t.Helper()
	actions := make([]machine.Action, len(deltas))
	for i, d := range deltas {
		a, err := machine.NewCounterAction(d)
		require.NoError(t, err)
		actions[i] = a
	}
	m, err := machine.New(nil, target, actions)
	require.NoError(t, err)
	return m
}

func TestToggle_ZeroTarget(t *testing.T) {
	m := toggleMachine(t, machine.ToggleVector{false, false}, []int{0}, []int{1})

	res, err := Toggle(m, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Presses)
	assert.Empty(t, res.Path)
	assert.Equal(t, 1, res.Expanded)
}

func TestToggle_ThreeIndicatorExample(t *testing.T) {
	m := toggleMachine(t, machine.ToggleVector{true, false, true}, []int{0, 1}, []int{1, 2}, []int{0, 2})

	res, err := Toggle(m, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Presses)
	assert.Equal(t, []int{2}, res.Path)

	folded, err := m.FoldToggle(res.Path)
	require.NoError(t, err)
	assert.True(t, folded.Equal(m.ToggleTarget()))
}

func TestToggle_PublishedExample(t *testing.T) {
	// [.##.] (3) (1,3) (2) (2,3) (0,2) (0,1)
	m := toggleMachine(t, machine.ToggleVector{false, true, true, false},
		[]int{3}, []int{1, 3}, []int{2}, []int{2, 3}, []int{0, 2}, []int{0, 1})

	res, err := Toggle(m, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Presses)

	folded, err := m.FoldToggle(res.Path)
	require.NoError(t, err)
	assert.True(t, folded.Equal(m.ToggleTarget()))
}

func TestToggle_Deterministic(t *testing.T) {
	m := toggleMachine(t, machine.ToggleVector{false, true, true, false},
		[]int{3}, []int{1, 3}, []int{2}, []int{2, 3}, []int{0, 2}, []int{0, 1})

	first, err := Toggle(m, 20)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Toggle(m, 20)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestToggle_BudgetThenUnreachable(t *testing.T) {
	// The only action toggles both indicators, so [#.] can never be produced.
	m := toggleMachine(t, machine.ToggleVector{true, false}, []int{0, 1})

	_, err := Toggle(m, 0)
	assert.ErrorIs(t, err, ErrBudgetExceeded)

	_, err = Toggle(m, 1)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.NotErrorIs(t, err, ErrBudgetExceeded)

	_, err = Toggle(m, 50)
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestToggle_EmptyCatalogUnreachable(t *testing.T) {
	m := toggleMachine(t, machine.ToggleVector{true})

	_, err := Toggle(m, 3)
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestToggle_BoundMonotonicity(t *testing.T) {
	m := toggleMachine(t, machine.ToggleVector{true, true, true, true},
		[]int{0}, []int{1}, []int{2}, []int{3}, []int{0, 1, 2})

	for bound := 0; bound < 2; bound++ {
		_, err := Toggle(m, bound)
		require.ErrorIs(t, err, ErrBudgetExceeded, "bound %d", bound)
	}
	for bound := 2; bound < 6; bound++ {
		res, err := Toggle(m, bound)
		require.NoError(t, err, "bound %d", bound)
		assert.Equal(t, 2, res.Presses)
	}
}

func TestRun_NegativeBound(t *testing.T) {
	m := toggleMachine(t, machine.ToggleVector{true}, []int{0})

	_, err := Toggle(m, -1)
	assert.ErrorIs(t, err, ErrInvalidBound)
}

func TestToggle_MissingTarget(t *testing.T) {
	m := counterMachine(t, machine.CounterVector{1}, []int{1})

	_, err := Toggle(m, 1)
	assert.ErrorIs(t, err, ErrMissingTarget)
}

// bruteToggle enumerates every subset of actions; pressing an action twice
// cancels out, so the optimum presses each action at most once.
func bruteToggle(m *machine.Machine) (int, bool) {
	target := m.ToggleTarget()
	n := m.ActionCount()
	best, found := 0, false
	for mask := 0; mask < 1<<n; mask++ {
		var path []int
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				path = append(path, i)
			}
		}
		got, _ := m.FoldToggle(path)
		if got.Equal(target) {
			c := bits.OnesCount(uint(mask))
			if !found || c < best {
				best, found = c, true
			}
		}
	}
	return best, found
}

func TestToggle_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(10, 2025))
	for trial := 0; trial < 60; trial++ {
		dim := 1 + rng.IntN(6)
		target := make(machine.ToggleVector, dim)
		for i := range target {
			target[i] = rng.IntN(2) == 1
		}
		var buttons [][]int
		for a := rng.IntN(7); a > 0; a-- {
			var b []int
			for i := 0; i < dim; i++ {
				if rng.IntN(3) == 0 {
					b = append(b, i)
				}
			}
			buttons = append(buttons, b)
		}
		m := toggleMachine(t, target, buttons...)

		want, ok := bruteToggle(m)
		// 2^dim covers every distinct state, so an unreachable target always
		// exhausts the frontier instead of hitting the bound.
		res, err := Toggle(m, 1<<dim)
		if !ok {
			require.ErrorIs(t, err, ErrUnreachable, "trial %d", trial)
			continue
		}
		require.NoError(t, err, "trial %d", trial)
		assert.Equal(t, want, res.Presses, "trial %d", trial)
		folded, err := m.FoldToggle(res.Path)
		require.NoError(t, err)
		assert.True(t, folded.Equal(target), "trial %d witness", trial)
	}
}

func TestCounter_SmallExample(t *testing.T) {
	m := counterMachine(t, machine.CounterVector{3, 5}, []int{1, 0}, []int{0, 1}, []int{1, 1})

	res, err := Counter(m, 8)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Presses)

	folded, err := m.FoldCounter(res.Path)
	require.NoError(t, err)
	assert.True(t, folded.Equal(m.CounterTarget()))
}

func TestCounter_PublishedExample(t *testing.T) {
	// (3) (1,3) (2) (2,3) (0,2) (0,1) {3,5,4,7}
	m := counterMachine(t, machine.CounterVector{3, 5, 4, 7},
		[]int{0, 0, 0, 1}, []int{0, 1, 0, 1}, []int{0, 0, 1, 0},
		[]int{0, 0, 1, 1}, []int{1, 0, 1, 0}, []int{1, 1, 0, 0})

	res, err := Counter(m, 19)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Presses)
}

func TestCounter_Unreachable(t *testing.T) {
	m := counterMachine(t, machine.CounterVector{1}, []int{2})

	_, err := Counter(m, 5)
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestCounterState_OvershootIsInvariantViolation(t *testing.T) {
	m := counterMachine(t, machine.CounterVector{1, 1}, []int{1, 1})
	root, err := NewCounterState(m)
	require.NoError(t, err)

	once, err := root.Apply(0)
	require.NoError(t, err)
	_, err = once.Apply(0)
	assert.ErrorIs(t, err, ErrOvershoot)
}

func TestRun_HooksObserveSearch(t *testing.T) {
	m := toggleMachine(t, machine.ToggleVector{true, true, false}, []int{0}, []int{1}, []int{2})

	var expands, pushes int
	var solved *Result
	res, err := Toggle(m, 5, WithHooks(Hooks{
		OnExpand: func(Event) { expands++ },
		OnPush:   func(Event) { pushes++ },
		OnSolved: func(r Result) { solved = &r },
	}))
	require.NoError(t, err)
	assert.Equal(t, res.Expanded, expands)
	assert.Positive(t, pushes)
	require.NotNil(t, solved)
	assert.Equal(t, res.Presses, solved.Presses)
}

func TestToggleState_CompareOrdersOffFirst(t *testing.T) {
	m := toggleMachine(t, machine.ToggleVector{true, true}, []int{0}, []int{1})
	root, err := NewToggleState(m)
	require.NoError(t, err)
	a, _ := root.Apply(0) // [#.]
	b, _ := root.Apply(1) // [.#]

	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, 1, a.Compare(b))
	assert.Equal(t, -1, b.Compare(a))
	assert.Equal(t, -1, root.Compare(b))
}
