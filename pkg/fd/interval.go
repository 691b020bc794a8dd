package fd

import "fmt"

// IntervalDomain is the contiguous domain {lo, ..., hi}. It stores only its
// bounds, so its size does not depend on the magnitude of its values. The
// domain is empty when hi < lo.
type IntervalDomain struct {
	lo, hi int
}

var _ Domain = IntervalDomain{}

// NewIntervalDomain returns {lo, ..., hi}, clamping lo to 0.
func NewIntervalDomain(lo, hi int) IntervalDomain {
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		return IntervalDomain{lo: 0, hi: -1}
	}
	return IntervalDomain{lo: lo, hi: hi}
}

// Count implements Domain.
func (d IntervalDomain) Count() int {
	if d.hi < d.lo {
		return 0
	}
	return d.hi - d.lo + 1
}

// Has implements Domain.
func (d IntervalDomain) Has(value int) bool { return value >= d.lo && value <= d.hi }

// IsSingleton implements Domain.
func (d IntervalDomain) IsSingleton() bool { return d.lo == d.hi }

// SingletonValue implements Domain.
func (d IntervalDomain) SingletonValue() int { return d.lo }

// Min implements Domain.
func (d IntervalDomain) Min() int {
	if d.Count() == 0 {
		return -1
	}
	return d.lo
}

// Max implements Domain.
func (d IntervalDomain) Max() int {
	if d.Count() == 0 {
		return -1
	}
	return d.hi
}

// MaxValue implements Domain.
func (d IntervalDomain) MaxValue() int { return d.hi }

// RemoveBelow implements Domain.
func (d IntervalDomain) RemoveBelow(threshold int) Domain {
	if threshold <= d.lo {
		return d
	}
	return NewIntervalDomain(threshold, d.hi)
}

// RemoveAbove implements Domain.
func (d IntervalDomain) RemoveAbove(threshold int) Domain {
	if threshold >= d.hi {
		return d
	}
	return NewIntervalDomain(d.lo, threshold)
}

// RemoveAtOrAbove implements Domain.
func (d IntervalDomain) RemoveAtOrAbove(threshold int) Domain {
	return d.RemoveAbove(threshold - 1)
}

// IterateValues implements Domain.
func (d IntervalDomain) IterateValues(f func(value int)) {
	for v := d.lo; v <= d.hi; v++ {
		f(v)
	}
}

// Equal implements Domain.
func (d IntervalDomain) Equal(other Domain) bool {
	if o, ok := other.(IntervalDomain); ok {
		return d.Count() == o.Count() && (d.Count() == 0 || d.lo == o.lo)
	}
	if other == nil || d.Count() != other.Count() {
		return false
	}
	return d.Count() == 0 || (other.Min() == d.lo && other.Max() == d.hi)
}

// String implements Domain.
func (d IntervalDomain) String() string {
	switch d.Count() {
	case 0:
		return "{}"
	case 1:
		return fmt.Sprintf("{%d}", d.lo)
	}
	return fmt.Sprintf("{%d..%d}", d.lo, d.hi)
}
