package ilp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveRelaxation(t *testing.T) {
	// minimize x + y subject to x + 2y = 7
	p := &Program{
		Vars:        []Var{{Name: "x", Upper: 7}, {Name: "y", Upper: 7}},
		Constraints: []Equality{{Coeffs: []int{1, 2}, RHS: 7}},
	}

	rel, err := solveRelaxation(p, []int{0, 0}, []int{7, 7})
	require.NoError(t, err)
	require.True(t, rel.feasible)
	assert.InDelta(t, 3.5, rel.objective, 1e-9)
	assert.InDelta(t, 0, rel.x[0], 1e-9)
	assert.InDelta(t, 3.5, rel.x[1], 1e-9)

	// y <= 3 forces x = 1.
	rel, err = solveRelaxation(p, []int{0, 0}, []int{7, 3})
	require.NoError(t, err)
	require.True(t, rel.feasible)
	assert.InDelta(t, 4, rel.objective, 1e-9)

	// y = 0 needs x = 7, above its bound.
	rel, err = solveRelaxation(p, []int{0, 0}, []int{6, 0})
	require.NoError(t, err)
	assert.False(t, rel.feasible)
}

func TestSolveRelaxation_RedundantRows(t *testing.T) {
	p := &Program{
		Vars: []Var{{Name: "x0", Upper: 3}, {Name: "x1", Upper: 3}},
		Constraints: []Equality{
			{Coeffs: []int{2, 1}, RHS: 3},
			{Coeffs: []int{2, 1}, RHS: 3},
		},
	}
	rel, err := solveRelaxation(p, []int{0, 0}, []int{3, 3})
	require.NoError(t, err)
	require.True(t, rel.feasible)
	assert.InDelta(t, 1.5, rel.objective, 1e-9)
}

func TestLPOptimizer_BranchesOnFractions(t *testing.T) {
	p := &Program{
		Vars:        []Var{{Name: "x0", Upper: 3}, {Name: "x1", Upper: 3}},
		Constraints: []Equality{{Coeffs: []int{2, 1}, RHS: 3}},
	}
	sol, err := NewLPOptimizer().Optimize(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, 2.0, sol.Objective)
	assert.Equal(t, []float64{1, 1}, sol.Values)
}

func TestMostFractional(t *testing.T) {
	assert.Equal(t, -1, mostFractional([]float64{1, 2.0000000001, 0}))
	assert.Equal(t, 1, mostFractional([]float64{1.1, 2.5, 0.7}))
}

func TestCheckProgram(t *testing.T) {
	assert.Error(t, checkProgram(&Program{Vars: []Var{{Name: "x", Lower: 2, Upper: 1}}}))
	assert.Error(t, checkProgram(&Program{
		Vars:        []Var{{Name: "x", Upper: 1}},
		Constraints: []Equality{{Coeffs: []int{1, 1}, RHS: 1}},
	}))
}

func TestEncodePB(t *testing.T) {
	p := &Program{
		Vars:        []Var{{Name: "x0", Upper: 5}, {Name: "x1", Lower: 1, Upper: 1}},
		Constraints: []Equality{{Coeffs: []int{1, 1}, RHS: 4}},
	}
	enc := encodePB(p)
	require.False(t, enc.infeasible)
	assert.Equal(t, [][]int{{1, 2, 3}, nil}, enc.bits)
	assert.Equal(t, 1, enc.offset)
	// One bound for x0 <= 5 and the two halves of the equality.
	assert.Len(t, enc.constrs, 3)
	assert.Equal(t, []int{3, 1}, enc.decode(p, []bool{true, true, false}))

	p.Constraints[0].RHS = 9
	assert.True(t, encodePB(p).infeasible)
}
