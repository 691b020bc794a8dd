// Package metrics records solver activity as Prometheus metrics.
//
// A Recorder owns a private registry, so several recorders (for example one
// per test) never collide. Search activity arrives through search.Hooks and
// per-machine outcomes through ObserveSolve; optimizer backends share the
// recorder's fd.Monitor, whose statistics are read at scrape time. Nothing is
// registered globally.
package metrics

import (
	"errors"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/gitrdm/presskit/pkg/fd"
	"github.com/gitrdm/presskit/pkg/ilp"
	"github.com/gitrdm/presskit/pkg/search"
)

const namespace = "presskit"

// Outcome labels for SolvesTotal.
const (
	OutcomeSolved  = "solved"
	OutcomeFailed  = "failed"
	OutcomeBudget  = "budget_exceeded"
	OutcomeNoRoute = "unreachable"
)

// Recorder holds the presskit metrics.
type Recorder struct {
	registry *prometheus.Registry
	monitor  *fd.Monitor

	mu    sync.Mutex
	peaks map[string]int

	// ExpansionsTotal counts states expanded by uniform-cost search.
	// Labels: domain (toggle, counter)
	ExpansionsTotal *prometheus.CounterVec

	// PushesTotal counts frontier insertions.
	// Labels: domain
	PushesTotal *prometheus.CounterVec

	// FrontierPeak is the largest frontier seen by any search.
	// Labels: domain
	FrontierPeak *prometheus.GaugeVec

	// SolvesTotal counts machine solves.
	// Labels: domain, strategy, outcome
	SolvesTotal *prometheus.CounterVec

	// Presses is the distribution of minimal press counts.
	// Labels: domain
	Presses *prometheus.HistogramVec

	// Optimizer statistics, read from the monitor on every scrape.
	OptimizerNodes        prometheus.CounterFunc
	OptimizerBacktracks   prometheus.CounterFunc
	OptimizerIncumbents   prometheus.CounterFunc
	OptimizerPropagations prometheus.CounterFunc
	OptimizerMaxDepth     prometheus.GaugeFunc
}

// New returns a Recorder with all metrics registered on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		peaks:    make(map[string]int),
		ExpansionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "expansions_total",
			Help:      "States expanded by uniform-cost search.",
		}, []string{"domain"}),
		PushesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "pushes_total",
			Help:      "States pushed onto the search frontier.",
		}, []string{"domain"}),
		FrontierPeak: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "frontier_peak",
			Help:      "Largest frontier size observed.",
		}, []string{"domain"}),
		SolvesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Machine solves by domain, strategy and outcome.",
		}, []string{"domain", "strategy", "outcome"}),
		Presses: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "presses",
			Help:      "Minimal press count per solved machine.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"domain"}),
	}
	r.monitor = fd.NewMonitor()
	stat := func(read func(fd.Stats) int) func() float64 {
		return func() float64 { return float64(read(r.monitor.Stats())) }
	}
	optimizerOpts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: namespace, Subsystem: "optimizer", Name: name, Help: help}
	}
	r.OptimizerNodes = prometheus.NewCounterFunc(prometheus.CounterOpts(optimizerOpts("nodes_total",
		"Branch-and-bound nodes or SAT calls made by the optimizer.")),
		stat(func(s fd.Stats) int { return s.NodesExplored }))
	r.OptimizerBacktracks = prometheus.NewCounterFunc(prometheus.CounterOpts(optimizerOpts("backtracks_total",
		"Optimizer nodes closed without branching further.")),
		stat(func(s fd.Stats) int { return s.Backtracks }))
	r.OptimizerIncumbents = prometheus.NewCounterFunc(prometheus.CounterOpts(optimizerOpts("incumbents_total",
		"Improving solutions found by the optimizer.")),
		stat(func(s fd.Stats) int { return s.SolutionsFound }))
	r.OptimizerPropagations = prometheus.NewCounterFunc(prometheus.CounterOpts(optimizerOpts("propagations_total",
		"Propagation passes or relaxation solves run by the optimizer.")),
		stat(func(s fd.Stats) int { return s.PropagationCount }))
	r.OptimizerMaxDepth = prometheus.NewGaugeFunc(prometheus.GaugeOpts(optimizerOpts("max_depth",
		"Deepest optimizer search node seen.")),
		stat(func(s fd.Stats) int { return s.MaxDepth }))

	r.registry.MustRegister(r.ExpansionsTotal, r.PushesTotal, r.FrontierPeak, r.SolvesTotal, r.Presses,
		r.OptimizerNodes, r.OptimizerBacktracks, r.OptimizerIncumbents, r.OptimizerPropagations, r.OptimizerMaxDepth)
	return r
}

// Monitor returns the statistics monitor optimizer backends should record
// into, e.g. via ilp.WithMonitor.
func (r *Recorder) Monitor() *fd.Monitor { return r.monitor }

// Hooks returns search hooks that feed this recorder for domain. The hooks
// may be shared by concurrent searches.
func (r *Recorder) Hooks(domain string) search.Hooks {
	expansions := r.ExpansionsTotal.WithLabelValues(domain)
	pushes := r.PushesTotal.WithLabelValues(domain)
	peak := r.FrontierPeak.WithLabelValues(domain)
	return search.Hooks{
		OnExpand: func(search.Event) { expansions.Inc() },
		OnPush: func(e search.Event) {
			pushes.Inc()
			r.mu.Lock()
			if e.Frontier > r.peaks[domain] {
				r.peaks[domain] = e.Frontier
				peak.Set(float64(e.Frontier))
			}
			r.mu.Unlock()
		},
	}
}

// ObserveSolve records the outcome of one machine solve.
func (r *Recorder) ObserveSolve(domain, strategy string, presses int, err error) {
	outcome := OutcomeSolved
	switch {
	case err == nil:
		r.Presses.WithLabelValues(domain).Observe(float64(presses))
	case errors.Is(err, search.ErrBudgetExceeded):
		outcome = OutcomeBudget
	case errors.Is(err, search.ErrUnreachable), errors.Is(err, ilp.ErrInfeasible):
		outcome = OutcomeNoRoute
	default:
		outcome = OutcomeFailed
	}
	r.SolvesTotal.WithLabelValues(domain, strategy, outcome).Inc()
}

// WriteText writes every metric in the Prometheus text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
