package search

import "github.com/gitrdm/presskit/pkg/machine"

// ToggleRelevant reports whether pressing a from state can fix at least one
// indicator that currently differs from target. It only rules out one-step
// moves that touch nothing useful; optimality comes from the search order.
func ToggleRelevant(state, target machine.ToggleVector, a machine.Action) bool {
	for i := 0; i < a.Dim(); i++ {
		if a.Flipped(i) && state[i] != target[i] {
			return true
		}
	}
	return false
}

// CounterRelevant reports whether pressing a from state moves at least one
// counter that is still short of target while leaving every counter that has
// already reached target untouched. Counters only grow, so touching a met
// counter is an overshoot that can never be undone. Increments larger than
// one must also fit in the remaining gap; for unit increments that is the
// same rule.
//
// state must not exceed target anywhere; callers treat that as an invariant
// violation before consulting the filter.
func CounterRelevant(state, target machine.CounterVector, a machine.Action) bool {
	helps := false
	for i := 0; i < a.Dim(); i++ {
		inc := a.Increment(i)
		if inc == 0 {
			continue
		}
		if state[i]+inc > target[i] {
			return false
		}
		helps = true
	}
	return helps
}
