package ilp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/presskit/pkg/machine"
	"github.com/gitrdm/presskit/pkg/search"
)

func counterMachine(t *testing.T, target []int, deltas ...[]int) *machine.Machine {
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

// bruteForce enumerates every press vector in [0, upper]^n.
func bruteForce(m *machine.Machine, upper int) (int, bool) {
	n := m.ActionCount()
	presses := make([]int, n)
	best, found := 0, false
	var walk func(i, sum int)
	walk = func(i, sum int) {
		if found && sum >= best {
			return
		}
		if i == n {
			got, _ := m.FoldPresses(presses)
			if got.Equal(m.CounterTarget()) {
				best, found = sum, true
			}
			return
		}
		for k := 0; k <= upper; k++ {
			presses[i] = k
			walk(i+1, sum+k)
		}
		presses[i] = 0
	}
	walk(0, 0)
	return best, found
}

func TestReduce(t *testing.T) {
	m := counterMachine(t, []int{3, 5}, []int{1, 0}, []int{0, 1}, []int{1, 1}, []int{4, 0})

	p, err := Reduce(m, 5)
	require.NoError(t, err)
	require.Len(t, p.Vars, 4)
	require.Len(t, p.Constraints, 2)

	assert.Equal(t, Var{Name: "x0", Upper: 5}, p.Vars[0])
	assert.Equal(t, 0, p.Vars[3].Upper, "action overshooting coordinate 0 is pruned")
	assert.Equal(t, Equality{Coeffs: []int{1, 0, 1, 4}, RHS: 3}, p.Constraints[0])
	assert.Equal(t, Equality{Coeffs: []int{0, 1, 1, 0}, RHS: 5}, p.Constraints[1])
	assert.Contains(t, p.String(), "x0 + x2 + 4 x3 = 3")
}

func TestReduce_Errors(t *testing.T) {
	a, err := machine.NewButton(2, 0)
	require.NoError(t, err)
	toggleOnly, err := machine.New(machine.ToggleVector{true, false}, nil, []machine.Action{a})
	require.NoError(t, err)

	_, err = Reduce(toggleOnly, 3)
	assert.ErrorIs(t, err, search.ErrMissingTarget)

	_, err = Reduce(counterMachine(t, []int{1}, []int{1}), -1)
	assert.Error(t, err)
}

func TestSolve_MatchesBruteForce(t *testing.T) {
	tests := []struct {
		name   string
		target []int
		deltas [][]int
	}{
		{"pair", []int{3, 5}, [][]int{{1, 0}, {0, 1}, {1, 1}}},
		{"weighted", []int{4, 6}, [][]int{{2, 0}, {0, 3}, {1, 1}}},
		{"zero", []int{0, 0}, [][]int{{1, 0}}},
		{"three coordinates", []int{2, 3, 2}, [][]int{{1, 1, 0}, {0, 1, 1}, {1, 0, 1}, {0, 1, 0}}},
	}
	for _, tt := range tests {
		for _, b := range []Backend{BackendLP, BackendFD, BackendPB} {
			t.Run(tt.name+"/"+string(b), func(t *testing.T) {
				m := counterMachine(t, tt.target, tt.deltas...)
				upper := m.CounterTarget().Max()

				want, ok := bruteForce(m, upper)
				require.True(t, ok)

				opt, err := NewOptimizer(b)
				require.NoError(t, err)
				res, err := Solve(context.Background(), m, upper, opt)
				require.NoError(t, err)
				assert.Equal(t, want, res.Presses)

				reached, err := m.FoldPresses(res.PerAction)
				require.NoError(t, err)
				assert.True(t, reached.Equal(m.CounterTarget()))
			})
		}
	}
}

func TestSolve_PublishedExample(t *testing.T) {
	m := counterMachine(t, []int{3, 5, 4, 7},
		[]int{0, 0, 0, 1}, []int{0, 1, 0, 1}, []int{0, 0, 1, 0},
		[]int{0, 0, 1, 1}, []int{1, 0, 1, 0}, []int{1, 1, 0, 0})

	for _, opt := range []Optimizer{NewLPOptimizer(), NewFDOptimizer(), NewPBOptimizer()} {
		res, err := Solve(context.Background(), m, 7, opt)
		require.NoError(t, err)
		assert.Equal(t, 10, res.Presses)
	}
}

func TestSolve_Infeasible(t *testing.T) {
	m := counterMachine(t, []int{1}, []int{2})

	for _, opt := range []Optimizer{NewLPOptimizer(), NewFDOptimizer(), NewPBOptimizer()} {
		_, err := Solve(context.Background(), m, 1, opt)
		assert.ErrorIs(t, err, ErrInfeasible)
		assert.NotErrorIs(t, err, ErrSolver)
	}
}

func TestSolve_LargeTargets(t *testing.T) {
	const n = 100000
	m := counterMachine(t, []int{n, n + 7}, []int{1, 0}, []int{0, 1}, []int{1, 1}, []int{2, 1})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := Solve(ctx, m, n+7, NewLPOptimizer())
	require.NoError(t, err)
	// x2+2·x3 cannot exceed n, so n+7 presses is optimal.
	assert.Equal(t, n+7, res.Presses)
}

func TestSolve_NodeLimitIsSolverError(t *testing.T) {
	m := counterMachine(t, []int{7, 9}, []int{1, 0}, []int{0, 1}, []int{1, 1})
	// The relaxation of 2·x0 + x1 = 3 is fractional at the root.
	halves := counterMachine(t, []int{3, 3}, []int{2, 2}, []int{1, 1})

	tests := []struct {
		name string
		m    *machine.Machine
		opt  Optimizer
	}{
		{"fd", m, NewFDOptimizer(WithNodeLimit(1))},
		{"pb", m, NewPBOptimizer(WithNodeLimit(1))},
		{"lp", halves, NewLPOptimizer(WithNodeLimit(1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solve(context.Background(), tt.m, tt.m.CounterTarget().Max(), tt.opt)
			var se *SolverError
			require.ErrorAs(t, err, &se)
			assert.ErrorIs(t, err, ErrSolver)
		})
	}
}

func TestSolve_OptimizerFailures(t *testing.T) {
	m := counterMachine(t, []int{3, 5}, []int{1, 0}, []int{0, 1}, []int{1, 1})
	boom := errors.New("boom")

	tests := []struct {
		name string
		sol  Solution
		err  error
	}{
		{"optimizer error", Solution{}, boom},
		{"non-integral objective", Solution{Status: StatusOptimal, Objective: 5.4, Values: []float64{0, 2, 3}}, nil},
		{"unknown status", Solution{Status: StatusUnknown}, nil},
		{"missing values", Solution{Status: StatusOptimal, Objective: 5}, nil},
		{"values violate equalities", Solution{Status: StatusOptimal, Objective: 5, Values: []float64{5, 0, 0}}, nil},
		{"objective disagrees with values", Solution{Status: StatusOptimal, Objective: 4, Values: []float64{0, 2, 3}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := OptimizerFunc(func(context.Context, *Program) (Solution, error) { return tt.sol, tt.err })

			_, err := Solve(context.Background(), m, 5, opt)
			var se *SolverError
			require.ErrorAs(t, err, &se)
			assert.ErrorIs(t, err, ErrSolver)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestSolve_AcceptsNearIntegralValues(t *testing.T) {
	m := counterMachine(t, []int{3, 5}, []int{1, 0}, []int{0, 1}, []int{1, 1})
	opt := OptimizerFunc(func(context.Context, *Program) (Solution, error) {
		return Solution{Status: StatusOptimal, Objective: 5.0000001, Values: []float64{-1e-9, 2.0000000004, 3}}, nil
	})

	res, err := Solve(context.Background(), m, 5, opt)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Presses)
	assert.Equal(t, []int{0, 2, 3}, res.PerAction)
}

func TestSolve_ContextCanceled(t *testing.T) {
	m := counterMachine(t, []int{7, 9}, []int{1, 0}, []int{0, 1}, []int{1, 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, opt := range []Optimizer{NewLPOptimizer(), NewFDOptimizer(), NewPBOptimizer()} {
		_, err := Solve(ctx, m, 9, opt)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrSolver)
	}
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendLP, b)

	b, err = ParseBackend("pb")
	require.NoError(t, err)
	assert.Equal(t, BackendPB, b)

	_, err = ParseBackend("simplex")
	assert.Error(t, err)
	_, err = NewOptimizer("simplex")
	assert.Error(t, err)
}
