// Package search finds the minimum number of presses that drive a machine
// from its zero state to its target, using uniform-cost (best-first) search.
//
// # How the search works
//
// The frontier starts with the zero state at cost 0. Each iteration pops the
// cheapest entry; entries whose vector was already expanded are discarded
// (lazy deletion). A popped state equal to the target is the answer: every
// press costs 1, so the first expansion of any vector is cost-optimal.
// Otherwise every action that the domain's applicability filter accepts is
// applied and the child is pushed at cost+1 unless already expanded.
//
// The caller's bound B caps the search: once the cheapest entry costs more
// than B the search stops with ErrBudgetExceeded. An exhausted frontier means
// the target cannot be produced at all and is reported as ErrUnreachable.
//
// The engine is generic over State, so the toggle and counter domains share
// one implementation.
package search

import (
	"errors"
	"fmt"

	"github.com/gitrdm/presskit/pkg/machine"
)

var (
	// ErrBudgetExceeded means no solution costs at most the bound. Retrying
	// with a larger bound may succeed.
	ErrBudgetExceeded = errors.New("press budget exceeded")

	// ErrUnreachable means the frontier was exhausted: no press sequence
	// produces the target.
	ErrUnreachable = errors.New("target unreachable")

	// ErrOvershoot means a counter rose above its target during search. The
	// applicability filter makes this impossible, so it signals a bug.
	ErrOvershoot = errors.New("counter overshoot")

	// ErrMissingTarget means the machine has no target for the requested domain.
	ErrMissingTarget = errors.New("machine has no target for domain")

	// ErrInvalidBound means a negative bound was supplied.
	ErrInvalidBound = errors.New("invalid press bound")
)

// Result is a successful search outcome.
type Result struct {
	// Presses is the minimal number of presses.
	Presses int
	// Path lists the catalog indices pressed, in order. len(Path) == Presses.
	Path []int
	// Expanded counts the distinct states expanded.
	Expanded int
}

// Event describes one frontier operation reported to Hooks.
type Event struct {
	Cost     int // cost of the expanded or pushed state
	Action   int // action that produced the state, -1 for the start state
	Frontier int // frontier size after the operation
}

// Hooks are optional observers of a single search. Nil fields are skipped.
// Hooks run synchronously on the searching goroutine.
type Hooks struct {
	OnExpand func(Event)
	OnPush   func(Event)
	OnSolved func(Result)
}

func (h Hooks) expand(e Event) {
	if h.OnExpand != nil {
		h.OnExpand(e)
	}
}

func (h Hooks) push(e Event) {
	if h.OnPush != nil {
		h.OnPush(e)
	}
}

func (h Hooks) solved(r Result) {
	if h.OnSolved != nil {
		h.OnSolved(r)
	}
}

// Option configures a search call.
type Option func(*options)

type options struct {
	hooks Hooks
}

// WithHooks attaches observers to the search.
func WithHooks(h Hooks) Option {
	return func(o *options) { o.hooks = h }
}

// Run searches from root for a state that Matches, expanding states in
// ascending cost order and never beyond bound presses.
func Run[S State[S]](root S, bound int, opts ...Option) (Result, error) {
	if bound < 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidBound, bound)
	}
	cfg := options{}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	hooks := cfg.hooks

	fr := &frontier[S]{}
	fr.push(&node[S]{state: root, key: root.Key(), action: -1})

	visited := make(map[string]struct{})
	// States generated just past the bound are not pushed. They are kept so an
	// exhausted frontier can still tell "over budget" from "unreachable".
	beyond := make(map[string]struct{})
	expanded := 0

	for fr.Len() > 0 {
		n := fr.pop()
		if _, seen := visited[n.key]; seen {
			continue
		}
		visited[n.key] = struct{}{}
		expanded++
		hooks.expand(Event{Cost: n.cost, Action: n.action, Frontier: fr.Len()})

		if n.state.Matches() {
			res := Result{Presses: n.cost, Path: n.path(), Expanded: expanded}
			hooks.solved(res)
			return res, nil
		}

		for a := range n.state.Relevant() {
			next, err := n.state.Apply(a)
			if err != nil {
				return Result{Expanded: expanded}, fmt.Errorf("search: pressing action %d at cost %d: %w", a, n.cost, err)
			}
			key := next.Key()
			if _, seen := visited[key]; seen {
				continue
			}
			if n.cost+1 > bound {
				beyond[key] = struct{}{}
				continue
			}
			fr.push(&node[S]{state: next, key: key, cost: n.cost + 1, action: a, parent: n})
			hooks.push(Event{Cost: n.cost + 1, Action: a, Frontier: fr.Len()})
		}
	}

	for key := range beyond {
		if _, seen := visited[key]; !seen {
			return Result{Expanded: expanded}, fmt.Errorf("%w: no solution within %d presses", ErrBudgetExceeded, bound)
		}
	}
	return Result{Expanded: expanded}, ErrUnreachable
}

// Toggle finds the minimal presses for m's toggle target.
func Toggle(m *machine.Machine, bound int, opts ...Option) (Result, error) {
	root, err := NewToggleState(m)
	if err != nil {
		return Result{}, err
	}
	return Run(root, bound, opts...)
}

// Counter finds the minimal presses for m's counter target by direct search.
// The state space grows with the product of the targets, so this is meant for
// small instances only.
func Counter(m *machine.Machine, bound int, opts ...Option) (Result, error) {
	root, err := NewCounterState(m)
	if err != nil {
		return Result{}, err
	}
	return Run(root, bound, opts...)
}
