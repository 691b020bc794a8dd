package search_test

import (
	"fmt"

	"github.com/gitrdm/presskit/pkg/machine"
	"github.com/gitrdm/presskit/pkg/search"
)

// ExampleToggle finds the fewest presses that light indicators 0 and 2.
func ExampleToggle() {
	var actions []machine.Action
	for _, b := range [][]int{{0, 1}, {1, 2}, {0, 2}} {
		a, err := machine.NewButton(3, b...)
		if err != nil {
			panic(err)
		}
		actions = append(actions, a)
	}
	m, err := machine.New(machine.ToggleVector{true, false, true}, nil, actions)
	if err != nil {
		panic(err)
	}

	res, err := search.Toggle(m, m.ActionCount())
	if err != nil {
		panic(err)
	}
	fmt.Printf("presses=%d path=%v\n", res.Presses, res.Path)

	// Output:
	// presses=1 path=[2]
}
