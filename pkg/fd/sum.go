package fd

import "fmt"

// LinearSum enforces Σ a[i]*x[i] = t with bounds-consistent propagation.
//
// Propagation:
//   - t is pruned to [SumMin..SumMax], where for a[i] > 0 the term contributes
//     a[i]*min(x[i]) to SumMin and a[i]*max(x[i]) to SumMax, and the roles of
//     min and max swap for a[i] < 0.
//   - each x[k] with a[k] != 0 is pruned so that a[k]*x[k] lies in
//     [min(t) - OtherMax, max(t) - OtherMin], converted to bounds on x[k] with
//     sign-aware ceil/floor division.
//
// The propagator reasons about interval bounds only; holes inside domains are
// not exploited.
type LinearSum struct {
	vars   []*Var
	coeffs []int
	total  *Var
}

var _ PropagationConstraint = (*LinearSum)(nil)

// NewLinearSum builds the constraint Σ coeffs[i]*vars[i] = total.
// An empty vars slice is allowed and forces total = 0.
func NewLinearSum(vars []*Var, coeffs []int, total *Var) (*LinearSum, error) {
	if len(vars) != len(coeffs) {
		return nil, fmt.Errorf("LinearSum: %d vars but %d coeffs", len(vars), len(coeffs))
	}
	if total == nil {
		return nil, fmt.Errorf("LinearSum: total cannot be nil")
	}
	for i, v := range vars {
		if v == nil {
			return nil, fmt.Errorf("LinearSum: vars[%d] is nil", i)
		}
	}
	vc := make([]*Var, len(vars))
	copy(vc, vars)
	cc := make([]int, len(coeffs))
	copy(cc, coeffs)
	return &LinearSum{vars: vc, coeffs: cc, total: total}, nil
}

// Variables implements ModelConstraint.
func (s *LinearSum) Variables() []*Var {
	out := make([]*Var, 0, len(s.vars)+1)
	out = append(out, s.vars...)
	return append(out, s.total)
}

// Type implements ModelConstraint.
func (s *LinearSum) Type() string { return "LinearSum" }

// String implements ModelConstraint.
func (s *LinearSum) String() string {
	return fmt.Sprintf("LinearSum(%d terms = %s)", len(s.vars), s.total.Name())
}

// contribution returns the smallest and largest value of c*x over domain d.
func contribution(c int, d Domain) (lo, hi int) {
	switch {
	case c > 0:
		return c * d.Min(), c * d.Max()
	case c < 0:
		return c * d.Max(), c * d.Min()
	}
	return 0, 0
}

// Propagate implements PropagationConstraint.
func (s *LinearSum) Propagate(solver *Solver, state *State) (*State, error) {
	n := len(s.vars)
	xdom := make([]Domain, n)
	sumMin, sumMax := 0, 0
	for i, v := range s.vars {
		d := solver.GetDomain(state, v.ID())
		if d == nil || d.Count() == 0 {
			return nil, fmt.Errorf("LinearSum: variable %s has empty domain", v.Name())
		}
		xdom[i] = d
		lo, hi := contribution(s.coeffs[i], d)
		sumMin += lo
		sumMax += hi
	}

	tdom := solver.GetDomain(state, s.total.ID())
	if tdom == nil || tdom.Count() == 0 {
		return nil, fmt.Errorf("LinearSum: total %s has empty domain", s.total.Name())
	}
	narrowed := tdom
	if narrowed.Min() < sumMin {
		narrowed = narrowed.RemoveBelow(sumMin)
	}
	if narrowed.Count() > 0 && narrowed.Max() > sumMax {
		narrowed = narrowed.RemoveAbove(sumMax)
	}
	if narrowed.Count() == 0 {
		return nil, fmt.Errorf("LinearSum: total %s outside achievable [%d..%d]", s.total.Name(), sumMin, sumMax)
	}
	state, _ = solver.SetDomain(state, s.total.ID(), narrowed)
	tMin, tMax := narrowed.Min(), narrowed.Max()

	for i := 0; i < n; i++ {
		c := s.coeffs[i]
		if c == 0 {
			continue
		}
		myMin, myMax := contribution(c, xdom[i])
		otherMin := sumMin - myMin
		otherMax := sumMax - myMax

		// c*x[i] ∈ [tMin - otherMax, tMax - otherMin]
		lo := tMin - otherMax
		hi := tMax - otherMin
		var xMin, xMax int
		if c > 0 {
			xMin, xMax = ceilDiv(lo, c), floorDiv(hi, c)
		} else {
			xMin, xMax = ceilDiv(-hi, -c), floorDiv(-lo, -c)
		}

		d := xdom[i]
		if d.Min() < xMin {
			d = d.RemoveBelow(xMin)
		}
		if d.Count() > 0 && d.Max() > xMax {
			d = d.RemoveAbove(xMax)
		}
		if d.Count() == 0 {
			return nil, fmt.Errorf("LinearSum: variable %s has no value in [%d..%d]", s.vars[i].Name(), xMin, xMax)
		}
		state, _ = solver.SetDomain(state, s.vars[i].ID(), d)
	}
	return state, nil
}

// ceilDiv returns ceil(a/b) for b > 0.
func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a > 0 {
		q++
	}
	return q
}

// floorDiv returns floor(a/b) for b > 0.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}
