package fd

// monitor.go: search statistics for the solver

import (
	"fmt"
	"sync"
	"time"
)

// Stats holds statistics about one or more solver runs.
type Stats struct {
	NodesExplored    int           // branching nodes tried
	Backtracks       int           // frames exhausted and popped
	SolutionsFound   int           // improving incumbents recorded
	PropagationCount int           // fixed-point propagation runs
	MaxDepth         int           // deepest branching stack seen
	SearchTime       time.Duration // time between NewMonitor and the last FinishSearch
}

// String summarizes the statistics on one line.
func (s Stats) String() string {
	return fmt.Sprintf("nodes=%d backtracks=%d solutions=%d propagations=%d depth=%d time=%s",
		s.NodesExplored, s.Backtracks, s.SolutionsFound, s.PropagationCount, s.MaxDepth, s.SearchTime)
}

// Monitor collects Stats. It is safe for concurrent use so several solvers
// may share one.
type Monitor struct {
	mu    sync.Mutex
	stats Stats
	start time.Time
}

// NewMonitor returns a monitor whose clock starts now.
func NewMonitor() *Monitor {
	return &Monitor{start: time.Now()}
}

// Stats returns a copy of the current statistics.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// RecordPropagation counts one propagation run.
func (m *Monitor) RecordPropagation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.PropagationCount++
}

// RecordNode counts one branching node.
func (m *Monitor) RecordNode() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.NodesExplored++
}

// RecordBacktrack counts one backtrack.
func (m *Monitor) RecordBacktrack() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Backtracks++
}

// RecordSolution counts one improving solution.
func (m *Monitor) RecordSolution() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.SolutionsFound++
}

// RecordDepth tracks the maximum depth.
func (m *Monitor) RecordDepth(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if depth > m.stats.MaxDepth {
		m.stats.MaxDepth = depth
	}
}

// FinishSearch stamps the elapsed time.
func (m *Monitor) FinishSearch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.SearchTime = time.Since(m.start)
}
