package ilp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gitrdm/presskit/pkg/machine"
)

// IntegralityTolerance is the largest distance from the nearest integer an
// optimizer value may have and still be accepted.
const IntegralityTolerance = 1e-6

// Status is the outcome an Optimizer reports.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusInfeasible
	// StatusLimit means a node or time limit stopped the optimizer before it
	// proved optimality.
	StatusLimit
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusLimit:
		return "limit"
	}
	return "unknown"
}

// Solution is what an Optimizer returns. Values has one entry per program
// variable. Solvers that work in floating point may report values close to
// but not exactly integral.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
}

// Optimizer solves a Program. Implementations must not retain p.
type Optimizer interface {
	Optimize(ctx context.Context, p *Program) (Solution, error)
}

// OptimizerFunc adapts a function to Optimizer.
type OptimizerFunc func(ctx context.Context, p *Program) (Solution, error)

// Optimize implements Optimizer.
func (f OptimizerFunc) Optimize(ctx context.Context, p *Program) (Solution, error) {
	return f(ctx, p)
}

var (
	// ErrInfeasible means no assignment satisfies every equality.
	ErrInfeasible = errors.New("integer program is infeasible")

	// ErrSolver matches every *SolverError under errors.Is.
	ErrSolver = errors.New("optimizer failure")
)

// SolverError reports a failure of the optimizer that is not a property of
// the model: an internal error, an unexpected status, or a result that is not
// integral or does not satisfy the program.
type SolverError struct {
	Op  string
	Err error
}

func (e *SolverError) Error() string {
	if e.Err == nil {
		return "ilp: " + e.Op
	}
	return "ilp: " + e.Op + ": " + e.Err.Error()
}

func (e *SolverError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrSolver) true for any SolverError.
func (e *SolverError) Is(target error) bool { return target == ErrSolver }

// Result is a verified optimum.
type Result struct {
	Presses int
	// PerAction[a] is how often action a is pressed.
	PerAction []int
	Program   *Program
}

// Solve reduces m with per-action bound upper, delegates to opt and verifies
// the answer. The returned press count is the objective rounded to the
// nearest integer.
func Solve(ctx context.Context, m *machine.Machine, upper int, opt Optimizer) (Result, error) {
	p, err := Reduce(m, upper)
	if err != nil {
		return Result{}, err
	}
	sol, err := opt.Optimize(ctx, p)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, err
		}
		return Result{}, &SolverError{Op: "optimize", Err: err}
	}

	switch sol.Status {
	case StatusOptimal:
	case StatusInfeasible:
		return Result{}, fmt.Errorf("ilp: %w (%d variables, %d equalities)", ErrInfeasible, len(p.Vars), len(p.Constraints))
	default:
		return Result{}, &SolverError{Op: "optimize", Err: fmt.Errorf("unexpected status %s", sol.Status)}
	}

	presses, err := integral(sol.Objective)
	if err != nil {
		return Result{}, &SolverError{Op: "objective", Err: err}
	}
	if len(sol.Values) != len(p.Vars) {
		return Result{}, &SolverError{Op: "values", Err: fmt.Errorf("got %d values for %d variables", len(sol.Values), len(p.Vars))}
	}
	per := make([]int, len(sol.Values))
	sum := 0
	for i, v := range sol.Values {
		n, err := integral(v)
		if err != nil {
			return Result{}, &SolverError{Op: "values", Err: fmt.Errorf("%s: %w", p.Vars[i].Name, err)}
		}
		if n < p.Vars[i].Lower || n > p.Vars[i].Upper {
			return Result{}, &SolverError{Op: "values", Err: fmt.Errorf("%s = %d outside [%d, %d]", p.Vars[i].Name, n, p.Vars[i].Lower, p.Vars[i].Upper)}
		}
		per[i] = n
		sum += n
	}
	if sum != presses {
		return Result{}, &SolverError{Op: "objective", Err: fmt.Errorf("objective %d does not match value sum %d", presses, sum)}
	}
	reached, err := m.FoldPresses(per)
	if err != nil {
		return Result{}, &SolverError{Op: "verify", Err: err}
	}
	if !reached.Equal(m.CounterTarget()) {
		return Result{}, &SolverError{Op: "verify", Err: fmt.Errorf("presses reach %v, want %v", reached, m.CounterTarget())}
	}
	return Result{Presses: presses, PerAction: per, Program: p}, nil
}

// integral rounds v to the nearest integer and rejects values farther than
// IntegralityTolerance from it.
func integral(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("value %v is not finite", v)
	}
	r := math.Round(v)
	if math.Abs(v-r) > IntegralityTolerance {
		return 0, fmt.Errorf("value %v is not integral", v)
	}
	return int(r), nil
}
