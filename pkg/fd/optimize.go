package fd

import (
	"context"
	"errors"
	"time"
)

// OptimizeOption configures SolveOptimal.
type OptimizeOption func(*optConfig)

type optConfig struct {
	timeLimit time.Duration
	nodeLimit int
}

// WithTimeLimit bounds the wall-clock time of the search. When it expires
// the best incumbent, if any, is returned with context.DeadlineExceeded.
func WithTimeLimit(d time.Duration) OptimizeOption {
	return func(c *optConfig) { c.timeLimit = d }
}

// WithNodeLimit bounds the number of branching nodes explored. When reached
// the best incumbent, if any, is returned with ErrSearchLimitReached.
func WithNodeLimit(n int) OptimizeOption {
	return func(c *optConfig) { c.nodeLimit = n }
}

// ErrSearchLimitReached means a configured limit stopped the search before
// optimality was proven. Any returned incumbent is feasible but may not be
// optimal.
var ErrSearchLimitReached = errors.New("search limit reached")

// SolveOptimal minimizes obj over all solutions of the model.
//
// Contract:
//   - On success it returns the values of all model variables (model order)
//     of an optimal solution and the optimal objective value.
//   - If the model has no solution it returns (nil, 0, nil).
//   - If ctx ends or a limit is hit it returns the best incumbent so far (or
//     nil) together with ctx.Err() or ErrSearchLimitReached.
//
// The search is depth-first branch-and-bound over the solver's propagation.
// It branches by splitting the smallest unbound domain in half, lower half
// first, so the tree depth grows with the logarithm of the domain sizes.
// Once an incumbent with objective best exists, every node gets the cutoff
// obj <= best-1 applied to the objective domain before propagation, and
// nodes whose admissible lower bound is not below best are pruned.
func (s *Solver) SolveOptimal(ctx context.Context, obj *Var, opts ...OptimizeOption) ([]int, int, error) {
	cfg := &optConfig{}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	if cfg.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeLimit)
		defer cancel()
	}
	if err := s.model.Validate(); err != nil {
		return nil, 0, err
	}
	if s.monitor != nil {
		defer s.monitor.FinishSearch()
	}

	root, err := s.propagate(nil)
	if err != nil {
		// Root-level inconsistency: no solution exists.
		return nil, 0, nil
	}

	var bestSol []int
	bestVal := 0
	haveIncumbent := false
	nodes := 0

	record := func(st *State) {
		val := s.GetDomain(st, obj.ID()).SingletonValue()
		if !haveIncumbent || val < bestVal {
			bestSol, bestVal, haveIncumbent = s.extractSolution(st), val, true
			if s.monitor != nil {
				s.monitor.RecordSolution()
			}
		}
	}

	cutoff := func(st *State) *State {
		if !haveIncumbent {
			return st
		}
		d := s.GetDomain(st, obj.ID())
		next, _ := s.SetDomain(st, obj.ID(), d.RemoveAtOrAbove(bestVal))
		return next
	}

	pruned := func(st *State) bool {
		lb, ok := s.computeObjectiveBound(st, obj)
		return !ok || (haveIncumbent && lb >= bestVal)
	}

	if s.isComplete(root) {
		record(root)
		return bestSol, bestVal, nil
	}

	// Each frame splits one variable at mid: first x <= mid, then x > mid.
	type frame struct {
		state  *State
		varID  int
		mid    int
		branch int
	}
	split := func(st *State) *frame {
		id := s.selectVariable(st)
		d := s.GetDomain(st, id)
		return &frame{state: st, varID: id, mid: d.Min() + (d.Max()-d.Min())/2}
	}
	stack := []*frame{split(root)}

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			return bestSol, bestVal, ctx.Err()
		default:
		}

		fr := stack[len(stack)-1]
		if fr.branch >= 2 {
			stack = stack[:len(stack)-1]
			if s.monitor != nil {
				s.monitor.RecordBacktrack()
			}
			continue
		}
		dom := s.GetDomain(fr.state, fr.varID)
		var half Domain
		if fr.branch == 0 {
			half = dom.RemoveAbove(fr.mid)
		} else {
			half = dom.RemoveBelow(fr.mid + 1)
		}
		fr.branch++

		nodes++
		if s.monitor != nil {
			s.monitor.RecordNode()
			s.monitor.RecordDepth(len(stack))
		}
		if cfg.nodeLimit > 0 && nodes > cfg.nodeLimit {
			return bestSol, bestVal, ErrSearchLimitReached
		}
		if half.Count() == 0 {
			continue
		}

		child, _ := s.SetDomain(fr.state, fr.varID, half)
		child = cutoff(child)
		if d := s.GetDomain(child, obj.ID()); d.Count() == 0 {
			continue
		}
		propagated, err := s.propagate(child)
		if err != nil || pruned(propagated) {
			continue
		}
		if s.isComplete(propagated) {
			record(propagated)
			continue
		}
		stack = append(stack, split(propagated))
	}

	if !haveIncumbent {
		return nil, 0, nil
	}
	return bestSol, bestVal, nil
}

// computeObjectiveBound returns an admissible lower bound on obj in state.
// When obj is the total of a LinearSum the bound is Σ a[i]*min(x[i]) with
// sign-aware coefficients; otherwise it is the minimum of obj's domain.
// ok is false when some domain is empty.
func (s *Solver) computeObjectiveBound(state *State, obj *Var) (lb int, ok bool) {
	od := s.GetDomain(state, obj.ID())
	if od == nil || od.Count() == 0 {
		return 0, false
	}
	lb = od.Min()
	for _, c := range s.model.Constraints() {
		ls, isSum := c.(*LinearSum)
		if !isSum || ls.total.ID() != obj.ID() {
			continue
		}
		sum := 0
		for i, v := range ls.vars {
			d := s.GetDomain(state, v.ID())
			if d == nil || d.Count() == 0 {
				return 0, false
			}
			lo, _ := contribution(ls.coeffs[i], d)
			sum += lo
		}
		if sum > lb {
			lb = sum
		}
	}
	return lb, true
}
