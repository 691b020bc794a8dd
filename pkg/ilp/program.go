// Package ilp reduces a monotonic-counter machine to an integer program and
// hands it to an Optimizer.
//
// The program has one integer variable x[a] in [0, U] per action, one
// equality Σ_a increment[a][j]·x[a] = target[j] per coordinate j, and the
// objective minimize Σ_a x[a]. Programs are solved by an Optimizer: the
// default NewLPOptimizer runs branch and bound over the linear relaxation,
// NewFDOptimizer searches with finite-domain propagation and NewPBOptimizer
// hands a pseudo-Boolean encoding to gophersat.
package ilp

import (
	"fmt"
	"strings"

	"github.com/gitrdm/presskit/pkg/machine"
	"github.com/gitrdm/presskit/pkg/search"
)

// Var is a bounded integer decision variable, x in [Lower, Upper].
type Var struct {
	Name  string
	Lower int
	Upper int
}

// Equality is the constraint Σ Coeffs[i]·x[i] = RHS over all program
// variables. Coeffs has one entry per variable.
type Equality struct {
	Coeffs []int
	RHS    int
}

// Program is an integer program minimizing the sum of its variables.
type Program struct {
	Vars        []Var
	Constraints []Equality
}

// String renders the program in a compact LP-like form.
func (p *Program) String() string {
	var b strings.Builder
	b.WriteString("minimize")
	for i, v := range p.Vars {
		if i > 0 {
			b.WriteString(" +")
		}
		b.WriteString(" " + v.Name)
	}
	b.WriteString("\nsubject to\n")
	for _, c := range p.Constraints {
		var terms []string
		for i, k := range c.Coeffs {
			switch k {
			case 0:
			case 1:
				terms = append(terms, p.Vars[i].Name)
			default:
				terms = append(terms, fmt.Sprintf("%d %s", k, p.Vars[i].Name))
			}
		}
		if len(terms) == 0 {
			terms = []string{"0"}
		}
		fmt.Fprintf(&b, "  %s = %d\n", strings.Join(terms, " + "), c.RHS)
	}
	b.WriteString("bounds\n")
	for _, v := range p.Vars {
		fmt.Fprintf(&b, "  %d <= %s <= %d\n", v.Lower, v.Name, v.Upper)
	}
	return b.String()
}

// Reduce builds the program for m's counter target with per-action bound
// upper. Actions that cannot contribute from the zero state (the counter
// relevance filter rejects them) are fixed to [0, 0] so variable i still
// corresponds to action i.
func Reduce(m *machine.Machine, upper int) (*Program, error) {
	if !m.HasCounter() {
		return nil, fmt.Errorf("ilp: %w: machine has no counter target", search.ErrMissingTarget)
	}
	if upper < 0 {
		return nil, fmt.Errorf("ilp: upper bound %d is negative", upper)
	}
	target := m.CounterTarget()
	zero := make(machine.CounterVector, m.Dim())

	p := &Program{
		Vars:        make([]Var, m.ActionCount()),
		Constraints: make([]Equality, m.Dim()),
	}
	for a := range p.Vars {
		hi := upper
		if !search.CounterRelevant(zero, target, m.Action(a)) {
			hi = 0
		}
		p.Vars[a] = Var{Name: fmt.Sprintf("x%d", a), Upper: hi}
	}
	for j := range p.Constraints {
		coeffs := make([]int, m.ActionCount())
		for a := range coeffs {
			coeffs[a] = m.Action(a).Increment(j)
		}
		p.Constraints[j] = Equality{Coeffs: coeffs, RHS: target[j]}
	}
	return p, nil
}
