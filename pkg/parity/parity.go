// Package parity finds minimum toggle solutions with a SAT solver.
//
// Pressing a toggle action twice cancels out, so an optimal solution presses
// each action at most once and the problem is: choose the smallest set of
// actions whose flip sets XOR to the target. Each action becomes one input
// literal, each light an XOR chain over the actions that flip it, and a
// sorting network over the inputs bounds how many may be true. The smallest
// satisfiable bound is the optimum.
package parity

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/gitrdm/presskit/pkg/machine"
	"github.com/gitrdm/presskit/pkg/search"
)

// ErrUnsatisfiable means no subset of actions produces the target.
var ErrUnsatisfiable = errors.New("toggle target is not reachable")

const (
	satisfiable   = 1
	unsatisfiable = -1
)

// Result is a minimum toggle solution.
type Result struct {
	Presses int
	// Pressed lists the actions pressed once, ascending.
	Pressed []int
}

// Solve returns the minimum number of presses that turns the all-off vector
// into m's toggle target. ctx is checked between cardinality bounds.
func Solve(ctx context.Context, m *machine.Machine) (Result, error) {
	if !m.HasToggle() {
		return Result{}, fmt.Errorf("parity: %w: machine has no toggle target", search.ErrMissingTarget)
	}
	target := m.ToggleTarget()
	n := m.ActionCount()
	if n == 0 {
		if !target.IsZero() {
			return Result{}, fmt.Errorf("parity: %w: empty catalog", ErrUnsatisfiable)
		}
		return Result{Pressed: []int{}}, nil
	}

	c := logic.NewCCap(n * (m.Dim() + 1))
	xs := make([]z.Lit, n)
	for a := range xs {
		xs[a] = c.Lit()
	}

	// One literal per light that must be true for the lights to match.
	required := make([]z.Lit, 0, m.Dim())
	for j := range target {
		par := c.F
		for a := range xs {
			if m.Action(a).Flipped(j) {
				par = c.Xor(par, xs[a])
			}
		}
		if !target[j] {
			par = par.Not()
		}
		required = append(required, par)
	}
	cs := c.CardSort(xs)

	g := gini.New()
	c.ToCnf(g)

	for w := 0; w <= n; w++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		g.Assume(required...)
		g.Assume(cs.Leq(w))
		switch g.Solve() {
		case satisfiable:
			res := Result{Pressed: []int{}}
			for a, x := range xs {
				if g.Value(x) {
					res.Pressed = append(res.Pressed, a)
				}
			}
			res.Presses = len(res.Pressed)
			return res, nil
		case unsatisfiable:
			continue
		default:
			return Result{}, fmt.Errorf("parity: solver gave up at bound %d", w)
		}
	}
	return Result{}, fmt.Errorf("parity: %w", ErrUnsatisfiable)
}
