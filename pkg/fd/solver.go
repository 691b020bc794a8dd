// Solver internals: copy-on-write state chains and fixed-point propagation.
//
// The solver keeps the Model immutable and records every domain change as a
// tiny State node pointing at its parent:
//
//	State3 -> x={5}     (parent: State2)
//	State2 -> y={2,3}   (parent: State1)
//	State1 -> z={0..3}  (parent: nil)
//
// Reading a domain walks the chain to the newest entry for that variable and
// falls back to the model's initial domain. Branching creates a child node;
// backtracking just forgets it.

package fd

import (
	"fmt"
)

// State is one node of a copy-on-write chain of domain changes. The nil
// state means "all variables at their initial domains".
type State struct {
	parent *State
	varID  int
	domain Domain
	depth  int
}

// Depth returns the number of domain changes recorded in the chain.
func (s *State) Depth() int {
	if s == nil {
		return 0
	}
	return s.depth
}

// Solver searches a model. A Solver is not safe for concurrent use; build one
// per goroutine over a shared read-only Model.
type Solver struct {
	model   *Model
	monitor *Monitor
}

// NewSolver returns a solver for model. The model must be fully built.
func NewSolver(model *Model) *Solver {
	return &Solver{model: model}
}

// SetMonitor enables statistics collection.
func (s *Solver) SetMonitor(m *Monitor) { s.monitor = m }

// GetDomain returns the current domain of variable varID in state.
func (s *Solver) GetDomain(state *State, varID int) Domain {
	for cur := state; cur != nil; cur = cur.parent {
		if cur.varID == varID && cur.domain != nil {
			return cur.domain
		}
	}
	if varID >= 0 && varID < len(s.model.variables) {
		return s.model.variables[varID].domain
	}
	return nil
}

// SetDomain returns a child of state in which varID has domain. If domain
// equals the current one, state itself is returned with changed == false.
func (s *Solver) SetDomain(state *State, varID int, domain Domain) (next *State, changed bool) {
	if cur := s.GetDomain(state, varID); cur != nil && cur.Equal(domain) {
		return state, false
	}
	return &State{parent: state, varID: varID, domain: domain, depth: state.Depth() + 1}, true
}

// propagate runs every PropagationConstraint until none of them prunes
// anything. Each effective pass removes at least one value from some domain,
// so the loop cannot run longer than the total domain size.
func (s *Solver) propagate(state *State) (*State, error) {
	var constraints []PropagationConstraint
	for _, mc := range s.model.Constraints() {
		if pc, ok := mc.(PropagationConstraint); ok {
			constraints = append(constraints, pc)
		}
	}
	if len(constraints) == 0 {
		return state, nil
	}
	if s.monitor != nil {
		s.monitor.RecordPropagation()
	}

	limit := 1
	for id := range s.model.variables {
		limit += s.GetDomain(state, id).Count()
	}

	current := state
	for pass := 0; pass < limit; pass++ {
		changed := false
		for _, c := range constraints {
			next, err := c.Propagate(s, current)
			if err != nil {
				return nil, err
			}
			if next != current {
				changed = true
				current = next
			}
		}
		if !changed {
			return current, nil
		}
	}
	return nil, fmt.Errorf("propagation did not reach a fixed point after %d passes", limit)
}

// isComplete reports whether every variable is bound.
func (s *Solver) isComplete(state *State) bool {
	for id := range s.model.variables {
		if !s.GetDomain(state, id).IsSingleton() {
			return false
		}
	}
	return true
}

// extractSolution reads the bound value of every variable in model order.
func (s *Solver) extractSolution(state *State) []int {
	out := make([]int, len(s.model.variables))
	for id := range s.model.variables {
		out[id] = s.GetDomain(state, id).SingletonValue()
	}
	return out
}

// selectVariable picks the unbound variable with the smallest domain, lowest
// ID on ties, or -1 when every variable is bound.
func (s *Solver) selectVariable(state *State) int {
	best, bestCount := -1, 0
	for id := range s.model.variables {
		n := s.GetDomain(state, id).Count()
		if n <= 1 {
			continue
		}
		if best == -1 || n < bestCount {
			best, bestCount = id, n
		}
	}
	return best
}
