package ilp

import (
	"context"
	"errors"
	"fmt"

	"github.com/gitrdm/presskit/pkg/fd"
)

type fdOptimizer struct {
	limits
}

// NewFDOptimizer returns an Optimizer backed by the fd branch-and-bound
// solver. Each call builds its own model and solver. Variables use interval
// domains, so memory does not grow with the bounds.
func NewFDOptimizer(opts ...Option) Optimizer {
	return &fdOptimizer{limits: newLimits(opts)}
}

// Optimize implements Optimizer.
func (o *fdOptimizer) Optimize(ctx context.Context, p *Program) (Solution, error) {
	if err := checkProgram(p); err != nil {
		return Solution{}, err
	}
	model := fd.NewModel()
	xs := make([]*fd.Var, len(p.Vars))
	sumUpper := 0
	for i, v := range p.Vars {
		xs[i] = model.NewVariableWithName(fd.NewIntervalDomain(v.Lower, v.Upper), v.Name)
		sumUpper += v.Upper
	}
	for j, c := range p.Constraints {
		if c.RHS < 0 {
			return Solution{Status: StatusInfeasible}, nil
		}
		rhs := model.NewVariableWithName(fd.NewIntervalDomain(c.RHS, c.RHS), fmt.Sprintf("rhs%d", j))
		eq, err := fd.NewLinearSum(xs, c.Coeffs, rhs)
		if err != nil {
			return Solution{}, err
		}
		model.AddConstraint(eq)
	}
	ones := make([]int, len(xs))
	for i := range ones {
		ones[i] = 1
	}
	total := model.NewVariableWithName(fd.NewIntervalDomain(0, sumUpper), "total")
	obj, err := fd.NewLinearSum(xs, ones, total)
	if err != nil {
		return Solution{}, err
	}
	model.AddConstraint(obj)

	solver := fd.NewSolver(model)
	if o.monitor != nil {
		solver.SetMonitor(o.monitor)
	}
	var opts []fd.OptimizeOption
	if o.nodeLimit > 0 {
		opts = append(opts, fd.WithNodeLimit(o.nodeLimit))
	}
	if o.timeLimit > 0 {
		opts = append(opts, fd.WithTimeLimit(o.timeLimit))
	}

	values, best, err := solver.SolveOptimal(ctx, total, opts...)
	switch {
	case errors.Is(err, fd.ErrSearchLimitReached), errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return Solution{Status: StatusLimit}, nil
	case err != nil:
		return Solution{}, err
	case values == nil:
		return Solution{Status: StatusInfeasible}, nil
	}

	sol := Solution{Status: StatusOptimal, Objective: float64(best), Values: make([]float64, len(xs))}
	for i, x := range xs {
		sol.Values[i] = float64(values[x.ID()])
	}
	return sol, nil
}
