package ilp

import (
	"fmt"
	"time"

	"github.com/gitrdm/presskit/pkg/fd"
)

// Option configures an optimizer backend.
type Option func(*limits)

type limits struct {
	nodeLimit int
	timeLimit time.Duration
	monitor   *fd.Monitor
}

func newLimits(opts []Option) limits {
	var l limits
	for _, opt := range opts {
		if opt != nil {
			opt(&l)
		}
	}
	return l
}

// WithNodeLimit caps the branch-and-bound nodes of one Optimize call. The
// pseudo-Boolean backend counts SAT calls instead.
func WithNodeLimit(n int) Option {
	return func(l *limits) { l.nodeLimit = n }
}

// WithTimeLimit caps the wall-clock time of one Optimize call.
func WithTimeLimit(d time.Duration) Option {
	return func(l *limits) { l.timeLimit = d }
}

// WithMonitor records search statistics of every call into m.
func WithMonitor(m *fd.Monitor) Option {
	return func(l *limits) { l.monitor = m }
}

// Backend names an Optimizer implementation.
type Backend string

const (
	// BackendLP is branch and bound over the linear relaxation.
	BackendLP Backend = "lp"
	// BackendFD is the finite-domain solver with interval propagation.
	BackendFD Backend = "fd"
	// BackendPB is a pseudo-Boolean encoding solved with gophersat.
	BackendPB Backend = "pb"
)

// ParseBackend accepts "lp", "fd" and "pb". The empty string means BackendLP.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case "":
		return BackendLP, nil
	case BackendLP, BackendFD, BackendPB:
		return b, nil
	}
	return "", fmt.Errorf("unknown optimizer backend %q (want lp, fd or pb)", s)
}

// NewOptimizer returns the backend named b.
func NewOptimizer(b Backend, opts ...Option) (Optimizer, error) {
	switch b {
	case "", BackendLP:
		return NewLPOptimizer(opts...), nil
	case BackendFD:
		return NewFDOptimizer(opts...), nil
	case BackendPB:
		return NewPBOptimizer(opts...), nil
	}
	return nil, fmt.Errorf("unknown optimizer backend %q", string(b))
}
