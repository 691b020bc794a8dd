package fd

import (
	"fmt"
	"sync"
)

// Var is a finite-domain decision variable. The model stores its initial
// domain; during solving the current domain lives in the solver state and is
// looked up by ID, so a Var never changes once solving begins.
type Var struct {
	id     int
	domain Domain
	name   string
}

// ID returns the variable's index within its model.
func (v *Var) ID() int { return v.id }

// Domain returns the initial domain.
func (v *Var) Domain() Domain { return v.domain }

// Name returns the variable's debugging name.
func (v *Var) Name() string { return v.name }

// String renders the variable with its initial domain.
func (v *Var) String() string { return fmt.Sprintf("%s∈%s", v.name, v.domain) }

// ModelConstraint is a relation posted to a model.
type ModelConstraint interface {
	// Variables returns the variables the constraint mentions.
	Variables() []*Var

	// Type names the constraint kind.
	Type() string

	String() string
}

// PropagationConstraint narrows domains during solving. Propagate returns the
// state unchanged when nothing can be pruned and an error when some domain
// becomes empty.
type PropagationConstraint interface {
	ModelConstraint
	Propagate(solver *Solver, state *State) (*State, error)
}

// Model is a constraint problem: variables with initial domains plus the
// constraints over them. Build it sequentially, then hand it to a Solver.
// A model is read-only during solving.
type Model struct {
	mu          sync.RWMutex
	variables   []*Var
	constraints []ModelConstraint
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}

// NewVariable adds a variable with the given domain.
func (m *Model) NewVariable(domain Domain) *Var {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := len(m.variables)
	v := &Var{id: id, domain: domain, name: fmt.Sprintf("v%d", id)}
	m.variables = append(m.variables, v)
	return v
}

// NewVariableWithName adds a named variable.
func (m *Model) NewVariableWithName(domain Domain, name string) *Var {
	v := m.NewVariable(domain)
	v.name = name
	return v
}

// AddConstraint posts a constraint.
func (m *Model) AddConstraint(c ModelConstraint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.constraints = append(m.constraints, c)
}

// Constraints returns the posted constraints. Do not modify the slice.
func (m *Model) Constraints() []ModelConstraint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.constraints
}

// Validate checks that every variable has a non-empty domain and that every
// constraint refers to variables of this model.
func (m *Model) Validate() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, v := range m.variables {
		if v.domain == nil || v.domain.Count() == 0 {
			return fmt.Errorf("variable %s has empty domain", v.name)
		}
	}
	for _, c := range m.constraints {
		for _, v := range c.Variables() {
			if v.id < 0 || v.id >= len(m.variables) || m.variables[v.id] != v {
				return fmt.Errorf("constraint %s references unknown variable %s", c.Type(), v.name)
			}
		}
	}
	return nil
}

// String summarizes the model.
func (m *Model) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("Model{variables: %d, constraints: %d}", len(m.variables), len(m.constraints))
}
