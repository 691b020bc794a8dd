package search

import "container/heap"

// node is a frontier entry. The witness path is recovered by walking parent
// links, so pushing a child costs O(1) regardless of depth.
type node[S State[S]] struct {
	state  S
	key    string
	cost   int
	action int // action pressed to reach this node, -1 at the root
	parent *node[S]
	seq    uint64
}

func (n *node[S]) path() []int {
	out := make([]int, n.cost)
	for cur := n; cur.parent != nil; cur = cur.parent {
		out[cur.cost-1] = cur.action
	}
	return out
}

// frontier is an ascending priority queue ordered by cost, then state
// vector, then insertion order. The order is total, so pops are reproducible.
type frontier[S State[S]] struct {
	items []*node[S]
	next  uint64
}

func (f *frontier[S]) Len() int { return len(f.items) }

func (f *frontier[S]) Less(i, j int) bool {
	a, b := f.items[i], f.items[j]
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if c := a.state.Compare(b.state); c != 0 {
		return c < 0
	}
	return a.seq < b.seq
}

func (f *frontier[S]) Swap(i, j int) { f.items[i], f.items[j] = f.items[j], f.items[i] }

func (f *frontier[S]) Push(x any) { f.items = append(f.items, x.(*node[S])) }

func (f *frontier[S]) Pop() any {
	old := f.items
	n := old[len(old)-1]
	old[len(old)-1] = nil
	f.items = old[:len(old)-1]
	return n
}

func (f *frontier[S]) push(n *node[S]) {
	n.seq = f.next
	f.next++
	heap.Push(f, n)
}

func (f *frontier[S]) pop() *node[S] { return heap.Pop(f).(*node[S]) }
