// Package fd is a small finite-domain constraint solver with exact
// branch-and-bound minimization. It is the optimization backend behind the
// integer-program reduction: variables range over non-negative integers,
// constraints are weighted sums, and the solver proves optimality by
// exhausting the search tree under an incumbent cutoff.
//
// This file defines the Domain abstraction and its bitset implementation.
package fd

import (
	"fmt"
	"math/bits"
	"strings"
)

// Domain is a finite set of non-negative integers a variable may take.
//
// Domains are immutable: every narrowing operation returns a new domain and
// leaves the receiver untouched. That is what lets solver states share
// domains structurally and backtrack by simply dropping state nodes.
type Domain interface {
	// Count returns the number of values. An empty domain (Count() == 0)
	// means the current state is inconsistent.
	Count() int

	// Has reports whether value is in the domain.
	Has(value int) bool

	// IsSingleton reports whether exactly one value remains.
	IsSingleton() bool

	// SingletonValue returns the only value. Only meaningful if IsSingleton.
	SingletonValue() int

	// Min returns the smallest value, or -1 if the domain is empty.
	Min() int

	// Max returns the largest value, or -1 if the domain is empty.
	Max() int

	// MaxValue returns the largest value the domain can represent.
	MaxValue() int

	// RemoveBelow returns a domain without the values < threshold.
	RemoveBelow(threshold int) Domain

	// RemoveAbove returns a domain without the values > threshold.
	RemoveAbove(threshold int) Domain

	// RemoveAtOrAbove returns a domain without the values >= threshold.
	RemoveAtOrAbove(threshold int) Domain

	// IterateValues calls f for every value in ascending order.
	IterateValues(f func(value int))

	// Equal reports whether both domains hold exactly the same values.
	Equal(other Domain) bool

	// String renders the domain, e.g. "{0..4}" or "{1,3}".
	String() string
}

// BitSetDomain stores a domain over [0, maxValue] with one bit per value.
// Bit i of the word array represents value i, so membership, bounds and
// narrowing are word operations.
//
// Memory usage: (maxValue + 64) / 64 * 8 bytes.
type BitSetDomain struct {
	maxValue int
	words    []uint64
}

var _ Domain = (*BitSetDomain)(nil)

func newEmptyBitSet(maxValue int) *BitSetDomain {
	if maxValue < 0 {
		return &BitSetDomain{maxValue: -1}
	}
	return &BitSetDomain{maxValue: maxValue, words: make([]uint64, maxValue/64+1)}
}

// NewRangeDomain returns the domain {lo, ..., hi}. An empty range (hi < lo)
// yields an empty domain that can still represent values up to hi.
func NewRangeDomain(lo, hi int) *BitSetDomain {
	if lo < 0 {
		lo = 0
	}
	d := newEmptyBitSet(hi)
	for v := lo; v <= hi; v++ {
		d.words[v/64] |= 1 << uint(v%64)
	}
	return d
}

// NewSingletonDomain returns the domain {value}.
func NewSingletonDomain(value int) *BitSetDomain {
	return NewRangeDomain(value, value)
}

// NewDomainFromValues returns a domain over [0, maxValue] holding values.
// Values outside that range are ignored.
func NewDomainFromValues(maxValue int, values []int) *BitSetDomain {
	d := newEmptyBitSet(maxValue)
	for _, v := range values {
		if v >= 0 && v <= maxValue {
			d.words[v/64] |= 1 << uint(v%64)
		}
	}
	return d
}

func (d *BitSetDomain) clone() *BitSetDomain {
	words := make([]uint64, len(d.words))
	copy(words, d.words)
	return &BitSetDomain{maxValue: d.maxValue, words: words}
}

// Count implements Domain.
func (d *BitSetDomain) Count() int {
	n := 0
	for _, w := range d.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Has implements Domain.
func (d *BitSetDomain) Has(value int) bool {
	if value < 0 || value > d.maxValue {
		return false
	}
	return d.words[value/64]&(1<<uint(value%64)) != 0
}

// IsSingleton implements Domain.
func (d *BitSetDomain) IsSingleton() bool { return d.Count() == 1 }

// SingletonValue implements Domain.
func (d *BitSetDomain) SingletonValue() int { return d.Min() }

// Min implements Domain.
func (d *BitSetDomain) Min() int {
	for i, w := range d.words {
		if w != 0 {
			return i*64 + bits.TrailingZeros64(w)
		}
	}
	return -1
}

// Max implements Domain.
func (d *BitSetDomain) Max() int {
	for i := len(d.words) - 1; i >= 0; i-- {
		if w := d.words[i]; w != 0 {
			return i*64 + 63 - bits.LeadingZeros64(w)
		}
	}
	return -1
}

// MaxValue implements Domain.
func (d *BitSetDomain) MaxValue() int { return d.maxValue }

// RemoveBelow implements Domain.
func (d *BitSetDomain) RemoveBelow(threshold int) Domain {
	if threshold <= 0 {
		return d
	}
	out := d.clone()
	for i := range out.words {
		lo := i * 64
		switch {
		case lo+64 <= threshold:
			out.words[i] = 0
		case lo < threshold:
			out.words[i] &^= (1 << uint(threshold-lo)) - 1
		}
	}
	return out
}

// RemoveAbove implements Domain.
func (d *BitSetDomain) RemoveAbove(threshold int) Domain {
	if threshold >= d.maxValue {
		return d
	}
	out := d.clone()
	for i := range out.words {
		lo := i * 64
		switch {
		case threshold < lo:
			out.words[i] = 0
		case threshold < lo+63:
			// keep bits 0..threshold-lo
			out.words[i] &= (1 << uint(threshold-lo+1)) - 1
		}
	}
	return out
}

// RemoveAtOrAbove implements Domain.
func (d *BitSetDomain) RemoveAtOrAbove(threshold int) Domain {
	return d.RemoveAbove(threshold - 1)
}

// IterateValues implements Domain.
func (d *BitSetDomain) IterateValues(f func(value int)) {
	for i, w := range d.words {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			f(i*64 + tz)
			w &= w - 1
		}
	}
}

// Values returns the domain as an ascending slice.
func (d *BitSetDomain) Values() []int {
	out := make([]int, 0, d.Count())
	d.IterateValues(func(v int) { out = append(out, v) })
	return out
}

// Equal implements Domain.
func (d *BitSetDomain) Equal(other Domain) bool {
	if o, ok := other.(*BitSetDomain); ok {
		n := len(d.words)
		if len(o.words) > n {
			n = len(o.words)
		}
		for i := 0; i < n; i++ {
			var a, b uint64
			if i < len(d.words) {
				a = d.words[i]
			}
			if i < len(o.words) {
				b = o.words[i]
			}
			if a != b {
				return false
			}
		}
		return true
	}
	if other == nil || d.Count() != other.Count() {
		return false
	}
	same := true
	d.IterateValues(func(v int) {
		if !other.Has(v) {
			same = false
		}
	})
	return same
}

// String implements Domain. Contiguous domains print as a range.
func (d *BitSetDomain) String() string {
	n := d.Count()
	if n == 0 {
		return "{}"
	}
	lo, hi := d.Min(), d.Max()
	if n > 2 && hi-lo+1 == n {
		return fmt.Sprintf("{%d..%d}", lo, hi)
	}
	parts := make([]string, 0, n)
	d.IterateValues(func(v int) { parts = append(parts, fmt.Sprint(v)) })
	return "{" + strings.Join(parts, ",") + "}"
}
