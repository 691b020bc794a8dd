package ilp

import (
	"context"
	"math/bits"
	"slices"

	"github.com/crillab/gophersat/solver"
)

type pbOptimizer struct {
	limits
}

// NewPBOptimizer returns an Optimizer that encodes each variable in binary,
// x = Lower + Σ 2^k·b_k, turns every equality into a pair of pseudo-Boolean
// constraints and hands the result to gophersat. The optimum is found by
// binary search on a cost constraint, one SAT call per step. A single SAT
// call is not interruptible; ctx and the limits are checked between calls.
func NewPBOptimizer(opts ...Option) Optimizer {
	return &pbOptimizer{limits: newLimits(opts)}
}

// pbTerm is a weighted literal with a positive weight.
type pbTerm struct {
	lit    int
	weight int
}

// atLeast builds Σ weight·lit >= n.
func atLeast(terms []pbTerm, n int) solver.PBConstr {
	c := solver.PBConstr{AtLeast: n}
	for _, t := range terms {
		c.Lits = append(c.Lits, t.lit)
		c.Weights = append(c.Weights, t.weight)
	}
	return c
}

// atMost builds Σ weight·lit <= n as Σ weight·¬lit >= Σ weight - n.
func atMost(terms []pbTerm, n int) solver.PBConstr {
	total := 0
	neg := make([]pbTerm, len(terms))
	for i, t := range terms {
		neg[i] = pbTerm{lit: -t.lit, weight: t.weight}
		total += t.weight
	}
	return atLeast(neg, total-n)
}

func totalWeight(terms []pbTerm) int {
	n := 0
	for _, t := range terms {
		n += t.weight
	}
	return n
}

// pbEncoding is a Program in pseudo-Boolean form. Literal numbers start at 1.
type pbEncoding struct {
	bits       [][]int
	constrs    []solver.PBConstr
	cost       []pbTerm
	offset     int
	infeasible bool
}

func encodePB(p *Program) *pbEncoding {
	enc := &pbEncoding{bits: make([][]int, len(p.Vars))}
	next := 1
	for i, v := range p.Vars {
		width := v.Upper - v.Lower
		var own []pbTerm
		for k := range bits.Len(uint(width)) {
			enc.bits[i] = append(enc.bits[i], next)
			own = append(own, pbTerm{lit: next, weight: 1 << k})
			next++
		}
		if totalWeight(own) > width {
			enc.constrs = append(enc.constrs, atMost(own, width))
		}
		enc.cost = append(enc.cost, own...)
		enc.offset += v.Lower
	}

	for _, c := range p.Constraints {
		rhs := c.RHS
		var terms []pbTerm
		for i, a := range c.Coeffs {
			rhs -= a * p.Vars[i].Lower
			for k, lit := range enc.bits[i] {
				w := a << k
				switch {
				case w > 0:
					terms = append(terms, pbTerm{lit: lit, weight: w})
				case w < 0:
					// w·b = w + |w|·¬b
					terms = append(terms, pbTerm{lit: -lit, weight: -w})
					rhs -= w
				}
			}
		}
		sum := totalWeight(terms)
		switch {
		case rhs < 0 || rhs > sum:
			enc.infeasible = true
			return enc
		case rhs == 0:
			for _, t := range terms {
				enc.constrs = append(enc.constrs, solver.PBConstr{Lits: []int{-t.lit}, AtLeast: 1})
			}
		default:
			enc.constrs = append(enc.constrs, atLeast(terms, rhs))
			if sum > rhs {
				enc.constrs = append(enc.constrs, atMost(terms, rhs))
			}
		}
	}
	return enc
}

// decode reads variable values from a gophersat model. Literals missing from
// the model appear in no constraint and are false.
func (enc *pbEncoding) decode(p *Program, model []bool) []int {
	xs := make([]int, len(p.Vars))
	for i, lits := range enc.bits {
		xs[i] = p.Vars[i].Lower
		for k, lit := range lits {
			if lit-1 < len(model) && model[lit-1] {
				xs[i] += 1 << k
			}
		}
	}
	return xs
}

// Optimize implements Optimizer.
func (o *pbOptimizer) Optimize(ctx context.Context, p *Program) (Solution, error) {
	if err := checkProgram(p); err != nil {
		return Solution{}, err
	}
	parent := ctx
	if o.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeLimit)
		defer cancel()
	}
	if o.monitor != nil {
		defer o.monitor.FinishSearch()
	}

	enc := encodePB(p)
	if enc.infeasible {
		return Solution{Status: StatusInfeasible}, nil
	}

	calls := 0
	// stopped reports whether the search must end now and with what result.
	stopped := func() (Solution, bool) {
		if ctx.Err() != nil || (o.nodeLimit > 0 && calls >= o.nodeLimit) {
			return Solution{Status: StatusLimit}, true
		}
		return Solution{}, false
	}
	// solve looks for a model of cost at most bound; bound < 0 means no cost
	// constraint.
	solve := func(bound int) ([]int, bool) {
		calls++
		if o.monitor != nil {
			o.monitor.RecordNode()
			o.monitor.RecordPropagation()
		}
		cs := enc.constrs
		if bound >= 0 && totalWeight(enc.cost) > bound {
			cs = append(slices.Clone(cs), atMost(enc.cost, bound))
		}
		if len(cs) == 0 {
			return enc.decode(p, nil), true
		}
		s := solver.New(solver.ParsePBConstrs(cs))
		if s.Solve() != solver.Sat {
			if o.monitor != nil {
				o.monitor.RecordBacktrack()
			}
			return nil, false
		}
		return enc.decode(p, s.Model()), true
	}
	cost := func(xs []int) int {
		n := 0
		for _, x := range xs {
			n += x
		}
		return n
	}

	if err := parent.Err(); err != nil {
		return Solution{}, err
	}
	if sol, stop := stopped(); stop {
		return sol, nil
	}
	incumbent, ok := solve(-1)
	if !ok {
		return Solution{Status: StatusInfeasible}, nil
	}
	best := cost(incumbent)
	if o.monitor != nil {
		o.monitor.RecordSolution()
	}

	// Invariant: no solution costs less than lo, incumbent costs best.
	lo := enc.offset
	for lo < best {
		if err := parent.Err(); err != nil {
			return Solution{}, err
		}
		if sol, stop := stopped(); stop {
			return sol, nil
		}
		mid := lo + (best-1-lo)/2
		xs, ok := solve(mid - enc.offset)
		if !ok {
			lo = mid + 1
			continue
		}
		incumbent, best = xs, cost(xs)
		if o.monitor != nil {
			o.monitor.RecordSolution()
		}
	}

	sol := Solution{Status: StatusOptimal, Objective: float64(best), Values: make([]float64, len(incumbent))}
	for i, x := range incumbent {
		sol.Values[i] = float64(x)
	}
	return sol, nil
}
