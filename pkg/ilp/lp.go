package ilp

import (
	"context"
	"fmt"
	"math"
	"slices"
)

type lpOptimizer struct {
	limits
}

// NewLPOptimizer returns an Optimizer that runs depth-first branch and bound
// over the linear relaxation. Each node solves the relaxation with the
// simplex method and splits on the most fractional variable, nearer side
// first. Nodes whose rounded-up relaxation bound cannot beat the incumbent
// are pruned. The work depends on the structure of the program, not on the
// magnitude of its bounds.
func NewLPOptimizer(opts ...Option) Optimizer {
	return &lpOptimizer{limits: newLimits(opts)}
}

type lpNode struct {
	lo, hi []int
	depth  int
}

// Optimize implements Optimizer.
func (o *lpOptimizer) Optimize(ctx context.Context, p *Program) (Solution, error) {
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

	root := lpNode{lo: make([]int, len(p.Vars)), hi: make([]int, len(p.Vars))}
	for i, v := range p.Vars {
		root.lo[i], root.hi[i] = v.Lower, v.Upper
	}
	stack := []lpNode{root}
	best := math.MaxInt
	var incumbent []int
	nodes := 0

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			if parent.Err() != nil {
				return Solution{}, parent.Err()
			}
			return Solution{Status: StatusLimit}, nil
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		nodes++
		if o.nodeLimit > 0 && nodes > o.nodeLimit {
			return Solution{Status: StatusLimit}, nil
		}
		if o.monitor != nil {
			o.monitor.RecordNode()
			o.monitor.RecordDepth(nd.depth)
			o.monitor.RecordPropagation()
		}

		rel, err := solveRelaxation(p, nd.lo, nd.hi)
		if err != nil {
			return Solution{}, err
		}
		if !rel.feasible || int(math.Ceil(rel.objective-IntegralityTolerance)) >= best {
			if o.monitor != nil {
				o.monitor.RecordBacktrack()
			}
			continue
		}

		k := mostFractional(rel.x)
		if k < 0 {
			xs := make([]int, len(rel.x))
			sum := 0
			for i, v := range rel.x {
				xs[i] = int(math.Round(v))
				sum += xs[i]
			}
			if err := satisfies(p, xs); err != nil {
				return Solution{}, fmt.Errorf("rounded relaxation: %w", err)
			}
			if sum < best {
				best, incumbent = sum, xs
				if o.monitor != nil {
					o.monitor.RecordSolution()
				}
			}
			continue
		}

		v := rel.x[k]
		f := int(math.Floor(v))
		down := lpNode{lo: nd.lo, hi: slices.Clone(nd.hi), depth: nd.depth + 1}
		down.hi[k] = f
		up := lpNode{lo: slices.Clone(nd.lo), hi: nd.hi, depth: nd.depth + 1}
		up.lo[k] = f + 1
		// The stack pops the last push first.
		if v-float64(f) < 0.5 {
			stack = append(stack, up, down)
		} else {
			stack = append(stack, down, up)
		}
	}

	if incumbent == nil {
		return Solution{Status: StatusInfeasible}, nil
	}
	sol := Solution{Status: StatusOptimal, Objective: float64(best), Values: make([]float64, len(incumbent))}
	for i, x := range incumbent {
		sol.Values[i] = float64(x)
	}
	return sol, nil
}

// mostFractional returns the variable farthest from an integer, or -1 when
// every value is within IntegralityTolerance of one.
func mostFractional(x []float64) int {
	best, dist := -1, IntegralityTolerance
	for i, v := range x {
		if d := math.Abs(v - math.Round(v)); d > dist {
			best, dist = i, d
		}
	}
	return best
}

// checkProgram rejects malformed bounds and coefficient rows.
func checkProgram(p *Program) error {
	for _, v := range p.Vars {
		if v.Lower < 0 || v.Upper < v.Lower {
			return fmt.Errorf("variable %s has bounds [%d, %d]", v.Name, v.Lower, v.Upper)
		}
	}
	for j, c := range p.Constraints {
		if len(c.Coeffs) != len(p.Vars) {
			return fmt.Errorf("constraint %d has %d coefficients for %d variables", j, len(c.Coeffs), len(p.Vars))
		}
	}
	return nil
}

// satisfies checks xs against every equality and bound of p exactly.
func satisfies(p *Program, xs []int) error {
	for i, v := range p.Vars {
		if xs[i] < v.Lower || xs[i] > v.Upper {
			return fmt.Errorf("%s = %d outside [%d, %d]", v.Name, xs[i], v.Lower, v.Upper)
		}
	}
	for j, c := range p.Constraints {
		lhs := 0
		for i, a := range c.Coeffs {
			lhs += a * xs[i]
		}
		if lhs != c.RHS {
			return fmt.Errorf("equality %d: got %d, want %d", j, lhs, c.RHS)
		}
	}
	return nil
}
