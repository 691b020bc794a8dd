// Package orchestrator picks a strategy per machine, cross-checks strategies
// where both are affordable, and sums minimal presses over many machines.
//
// Toggle machines are always solved by uniform-cost search, optionally
// verified by the SAT parity oracle. Counter machines whose state space
// Π(target_j+1) is at most the scale limit are solved by both bounded search
// and the integer program, which must agree; larger ones go to the integer
// program alone.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/gitrdm/presskit/internal/logging"
	"github.com/gitrdm/presskit/internal/parallel"
	"github.com/gitrdm/presskit/pkg/ilp"
	"github.com/gitrdm/presskit/pkg/machine"
	"github.com/gitrdm/presskit/pkg/parity"
	"github.com/gitrdm/presskit/pkg/search"
)

// DefaultScaleLimit is used when Config.ScaleLimit is zero.
const DefaultScaleLimit = 20000

// ErrCrossValidation means two exact strategies returned different optima.
var ErrCrossValidation = errors.New("strategies disagree")

// Domain selects which target of a machine to solve.
type Domain string

const (
	DomainToggle  Domain = "toggle"
	DomainCounter Domain = "counter"
)

// ParseDomain accepts "toggle" and "counter".
func ParseDomain(s string) (Domain, error) {
	switch Domain(s) {
	case DomainToggle, DomainCounter:
		return Domain(s), nil
	}
	return "", fmt.Errorf("unknown domain %q", s)
}

// Strategy names how an Outcome was obtained.
type Strategy string

const (
	StrategySearch       Strategy = "search"
	StrategySearchParity Strategy = "search+parity"
	StrategySearchILP    Strategy = "search+ilp"
	StrategyILP          Strategy = "ilp"
)

// Observer receives search hooks and per-machine outcomes.
// *metrics.Recorder implements it.
type Observer interface {
	Hooks(domain string) search.Hooks
	ObserveSolve(domain, strategy string, presses int, err error)
}

// Config controls a Solver. Zero values pick the defaults noted per field.
type Config struct {
	// ToggleBound caps toggle search cost. 0 means the catalog size, which
	// no optimum exceeds, so exhausting it is reported as ErrUnreachable.
	ToggleBound int
	// CounterBound caps counter search cost. 0 means Σ target.
	CounterBound int
	// PressLimit is the per-action bound U of the integer program. 0 means
	// the largest target component.
	PressLimit int
	// ScaleLimit is the largest counter state space searched directly.
	// 0 means DefaultScaleLimit.
	ScaleLimit int
	// VerifyToggle cross-checks toggle search against the parity oracle.
	VerifyToggle bool
	// Workers bounds concurrent solves in Total. 0 means runtime.NumCPU().
	Workers int

	Optimizer ilp.Optimizer // nil means ilp.NewLPOptimizer()
	Logger    *slog.Logger  // nil discards
	Observer  Observer      // nil disables
}

// Outcome is the minimal solution of one machine.
type Outcome struct {
	Presses int
	// Path is a press sequence when search produced the answer.
	Path []int
	// PerAction holds press counts per action when the integer program ran.
	PerAction    []int
	Strategy     Strategy
	CrossChecked bool
}

// Solver solves machines. It holds no per-solve state and is safe for
// concurrent use when its Optimizer is.
type Solver struct {
	cfg Config
	log *slog.Logger
}

// New returns a Solver with cfg's defaults filled in.
func New(cfg Config) *Solver {
	if cfg.Optimizer == nil {
		cfg.Optimizer = ilp.NewLPOptimizer()
	}
	if cfg.ScaleLimit == 0 {
		cfg.ScaleLimit = DefaultScaleLimit
	}
	log := cfg.Logger
	if log == nil {
		log = logging.NewNop()
	}
	return &Solver{cfg: cfg, log: log}
}

func (s *Solver) searchOpts(d Domain) []search.Option {
	if s.cfg.Observer == nil {
		return nil
	}
	return []search.Option{search.WithHooks(s.cfg.Observer.Hooks(string(d)))}
}

func (s *Solver) observe(d Domain, st Strategy, presses int, err error) {
	if s.cfg.Observer != nil {
		s.cfg.Observer.ObserveSolve(string(d), string(st), presses, err)
	}
	if err != nil {
		s.log.Debug("machine failed", "domain", d, "strategy", st, "error", err)
		return
	}
	s.log.Debug("machine solved", "domain", d, "strategy", st, "presses", presses)
}

// Solve dispatches on d.
func (s *Solver) Solve(ctx context.Context, m *machine.Machine, d Domain) (Outcome, error) {
	switch d {
	case DomainToggle:
		return s.SolveToggle(ctx, m)
	case DomainCounter:
		return s.SolveCounter(ctx, m)
	}
	return Outcome{}, fmt.Errorf("unknown domain %q", d)
}

// SolveToggle returns the minimal presses for m's toggle target.
func (s *Solver) SolveToggle(ctx context.Context, m *machine.Machine) (out Outcome, err error) {
	out.Strategy = StrategySearch
	defer func() { s.observe(DomainToggle, out.Strategy, out.Presses, err) }()

	bound := s.cfg.ToggleBound
	if bound == 0 {
		bound = m.ActionCount()
	}
	res, err := search.Toggle(m, bound, s.searchOpts(DomainToggle)...)
	if errors.Is(err, search.ErrBudgetExceeded) && s.cfg.ToggleBound == 0 {
		// An optimum presses each action at most once, so nothing lies
		// beyond the catalog size.
		return out, fmt.Errorf("toggle search: %w: no subset of the %d actions produces the target",
			search.ErrUnreachable, bound)
	}
	if err != nil {
		return out, fmt.Errorf("toggle search: %w", err)
	}
	out.Presses, out.Path = res.Presses, res.Path
	if !s.cfg.VerifyToggle {
		return out, nil
	}

	out.Strategy = StrategySearchParity
	pr, err := parity.Solve(ctx, m)
	if err != nil {
		return out, fmt.Errorf("toggle parity: %w", err)
	}
	if pr.Presses != res.Presses {
		return out, fmt.Errorf("%w: search found %d presses, parity oracle %d", ErrCrossValidation, res.Presses, pr.Presses)
	}
	out.CrossChecked = true
	return out, nil
}

// SolveCounter returns the minimal presses for m's counter target.
func (s *Solver) SolveCounter(ctx context.Context, m *machine.Machine) (out Outcome, err error) {
	out.Strategy = StrategyILP
	defer func() { s.observe(DomainCounter, out.Strategy, out.Presses, err) }()

	if !m.HasCounter() {
		return out, fmt.Errorf("counter: %w", search.ErrMissingTarget)
	}
	target := m.CounterTarget()
	upper := s.cfg.PressLimit
	if upper == 0 {
		upper = target.Max()
	}

	if Scale(target) > s.cfg.ScaleLimit {
		res, err := ilp.Solve(ctx, m, upper, s.cfg.Optimizer)
		if err != nil {
			return out, fmt.Errorf("counter ilp: %w", err)
		}
		out.Presses, out.PerAction = res.Presses, res.PerAction
		return out, nil
	}

	out.Strategy = StrategySearchILP
	bound := s.cfg.CounterBound
	if bound == 0 {
		bound = target.Sum()
	}
	sres, serr := search.Counter(m, bound, s.searchOpts(DomainCounter)...)
	ires, ierr := ilp.Solve(ctx, m, upper, s.cfg.Optimizer)

	switch {
	case serr == nil && ierr == nil:
		if sres.Presses != ires.Presses {
			return out, fmt.Errorf("%w: search found %d presses, integer program %d", ErrCrossValidation, sres.Presses, ires.Presses)
		}
		out.Presses, out.Path, out.PerAction = sres.Presses, sres.Path, ires.PerAction
		out.CrossChecked = true
		return out, nil
	case errors.Is(serr, search.ErrUnreachable) && errors.Is(ierr, ilp.ErrInfeasible):
		return out, fmt.Errorf("counter: %w", ierr)
	case serr == nil && errors.Is(ierr, ilp.ErrInfeasible),
		errors.Is(serr, search.ErrUnreachable) && ierr == nil:
		return out, fmt.Errorf("%w: search: %v, integer program: %v", ErrCrossValidation, serr, ierr)
	case ierr != nil:
		return out, fmt.Errorf("counter ilp: %w", ierr)
	default:
		return out, fmt.Errorf("counter search: %w", serr)
	}
}

// Scale returns Π(target_j+1), the number of counter states at or below
// target, saturating at math.MaxInt.
func Scale(target machine.CounterVector) int {
	s := 1
	for _, t := range target {
		f := t + 1
		if s > math.MaxInt/f {
			return math.MaxInt
		}
		s *= f
	}
	return s
}

// Total solves every machine in domain d on a worker pool and returns the
// sum of minimal presses. The first failure cancels outstanding solves and
// is returned with the machine's zero-based index; no partial sum is reported.
func (s *Solver) Total(ctx context.Context, machines []*machine.Machine, d Domain) (int, error) {
	outs, err := parallel.Map(ctx, s.cfg.Workers, machines, func(ctx context.Context, m *machine.Machine) (Outcome, error) {
		return s.Solve(ctx, m, d)
	})
	if err != nil {
		var ie *parallel.IndexError
		if errors.As(err, &ie) {
			return 0, fmt.Errorf("machine %d: %w", ie.Index, ie.Err)
		}
		return 0, err
	}
	total := 0
	for _, o := range outs {
		total += o.Presses
	}
	s.log.Info("total computed", "domain", d, "machines", len(machines), "presses", total)
	return total, nil
}
