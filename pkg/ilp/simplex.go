package ilp

import (
	"errors"
	"math"
)

// lpEpsilon is the pivot and reduced-cost tolerance of the simplex method.
const lpEpsilon = 1e-9

// phaseOneTolerance is the largest artificial residue still read as feasible.
const phaseOneTolerance = 1e-6

var errSimplexStalled = errors.New("simplex did not converge")

// relaxation is an optimum of the linear relaxation of a Program.
type relaxation struct {
	feasible  bool
	objective float64
	x         []float64
}

// tableau is a dense simplex tableau in canonical form. Column width holds
// the right-hand side, cost holds the reduced costs with -z in its last
// entry, and basis[i] is the column basic in row i.
type tableau struct {
	rows  [][]float64
	cost  []float64
	basis []int
	width int
}

func (t *tableau) pivot(r, c int) {
	pr := t.rows[r]
	pv := pr[c]
	for k := range pr {
		pr[k] /= pv
	}
	pr[c] = 1
	eliminate := func(row []float64) {
		f := row[c]
		if f == 0 {
			return
		}
		for k := range row {
			row[k] -= f * pr[k]
			if math.Abs(row[k]) < lpEpsilon {
				row[k] = 0
			}
		}
		row[c] = 0
	}
	for i, row := range t.rows {
		if i != r {
			eliminate(row)
		}
	}
	eliminate(t.cost)
	t.basis[r] = c
}

// optimize runs primal simplex with Bland's rule over the columns accepted by
// enter. It reports false when the objective is unbounded.
func (t *tableau) optimize(enter func(col int) bool) (bool, error) {
	limit := 50*(len(t.rows)+t.width) + 1000
	for range limit {
		c := -1
		for k := 0; k < t.width; k++ {
			if t.cost[k] < -lpEpsilon && enter(k) {
				c = k
				break
			}
		}
		if c < 0 {
			return true, nil
		}
		r, best := -1, 0.0
		for i, row := range t.rows {
			if row[c] <= lpEpsilon {
				continue
			}
			ratio := row[t.width] / row[c]
			if r < 0 || ratio < best-lpEpsilon || (math.Abs(ratio-best) <= lpEpsilon && t.basis[i] < t.basis[r]) {
				r, best = i, ratio
			}
		}
		if r < 0 {
			return false, nil
		}
		t.pivot(r, c)
	}
	return false, errSimplexStalled
}

// solveRelaxation minimizes Σ x over A x = b with lo <= x <= hi using a
// two-phase simplex.
//
// Variables are shifted to y = x - lo. Columns are y (n), the slacks of the
// rows y + s = hi - lo (n) and one artificial per equality (m).
func solveRelaxation(p *Program, lo, hi []int) (relaxation, error) {
	n, m := len(p.Vars), len(p.Constraints)
	for i := range n {
		if hi[i] < lo[i] {
			return relaxation{}, nil
		}
	}
	width := 2*n + m
	t := &tableau{
		rows:  make([][]float64, m+n),
		cost:  make([]float64, width+1),
		basis: make([]int, m+n),
		width: width,
	}
	for j, c := range p.Constraints {
		row := make([]float64, width+1)
		b := float64(c.RHS)
		for i, a := range c.Coeffs {
			row[i] = float64(a)
			b -= float64(a) * float64(lo[i])
		}
		if b < 0 {
			for i := range n {
				row[i] = -row[i]
			}
			b = -b
		}
		row[width] = b
		row[2*n+j] = 1
		t.rows[j], t.basis[j] = row, 2*n+j
	}
	for i := range n {
		row := make([]float64, width+1)
		row[i], row[n+i] = 1, 1
		row[width] = float64(hi[i] - lo[i])
		t.rows[m+i], t.basis[m+i] = row, n+i
	}

	// Phase one minimizes the sum of the artificials.
	for j := range m {
		for k := 0; k < 2*n; k++ {
			t.cost[k] -= t.rows[j][k]
		}
		t.cost[width] -= t.rows[j][width]
	}
	if _, err := t.optimize(func(int) bool { return true }); err != nil {
		return relaxation{}, err
	}
	if -t.cost[width] > phaseOneTolerance {
		return relaxation{}, nil
	}
	for i := range t.rows {
		if t.basis[i] < 2*n {
			continue
		}
		for k := 0; k < 2*n; k++ {
			if math.Abs(t.rows[i][k]) > lpEpsilon {
				t.pivot(i, k)
				break
			}
		}
		// A row with no such column is redundant; its artificial stays at zero.
	}

	// Phase two minimizes Σ y.
	clear(t.cost)
	for k := range n {
		t.cost[k] = 1
	}
	for i, row := range t.rows {
		if t.basis[i] >= n {
			continue
		}
		for k := range row {
			t.cost[k] -= row[k]
		}
	}
	bounded, err := t.optimize(func(k int) bool { return k < 2*n })
	if err != nil {
		return relaxation{}, err
	}
	if !bounded {
		return relaxation{}, errors.New("linear relaxation is unbounded")
	}

	res := relaxation{feasible: true, x: make([]float64, n)}
	for i := range n {
		res.x[i] = float64(lo[i])
	}
	for i, row := range t.rows {
		if b := t.basis[i]; b < n {
			res.x[b] += row[width]
		}
	}
	for _, v := range res.x {
		res.objective += v
	}
	return res, nil
}
