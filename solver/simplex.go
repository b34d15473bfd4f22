package solver

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	// simplexTol is the tolerance handed to the simplex implementation.
	simplexTol = 1e-8
	// integerTol is how far a relaxation value may sit from a whole number
	// and still count as integral.
	integerTol = 1e-6
	// maxNodes caps the branch-and-bound tree as a misconfiguration guard.
	maxNodes = 100000
)

// node is one branch-and-bound subproblem: the original problem plus
// per-variable bound tightenings accumulated by branching.
type node struct {
	lower []float64
	upper []float64
}

// Solve optimizes the problem. It returns an error only for malformed
// problems or internal solver failures; infeasibility, unboundedness and
// time-limit hits are reported through the Solution status.
func (p *Problem) Solve() (*Solution, error) {
	n := p.NumVars()
	if n == 0 {
		return nil, fmt.Errorf("problem %q has no variables", p.name)
	}

	var deadline time.Time
	if p.timeLimit > 0 {
		deadline = time.Now().Add(p.timeLimit)
	}

	root := node{lower: make([]float64, n), upper: make([]float64, n)}
	for i := range root.upper {
		root.upper[i] = math.Inf(1)
	}

	// Depth-first branch and bound, floor branch explored first. The
	// exploration order is fixed, so identical problems solve identically.
	stack := []node{root}
	var incumbent []float64
	incumbentObj := math.Inf(1) // minimize-space objective
	nodes := 0

	for len(stack) > 0 {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return &Solution{Status: TimedOut}, nil
		}
		nodes++
		if nodes > maxNodes {
			return nil, fmt.Errorf("problem %q: branch and bound exceeded %d nodes", p.name, maxNodes)
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		obj, x, err := p.solveRelaxation(nd)
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			continue
		case errors.Is(err, lp.ErrUnbounded):
			return &Solution{Status: Unbounded}, nil
		case err != nil:
			return nil, fmt.Errorf("problem %q: %w", p.name, err)
		}

		// The relaxation bounds every solution in this subtree.
		if obj >= incumbentObj-simplexTol {
			continue
		}

		branchVar := p.mostFractional(x)
		if branchVar < 0 {
			// Integral: a new incumbent.
			incumbent = x
			incumbentObj = obj
			continue
		}

		floorBound := math.Floor(x[branchVar])
		ceil := nd.clone()
		ceil.lower[branchVar] = floorBound + 1
		floor := nd.clone()
		floor.upper[branchVar] = floorBound
		stack = append(stack, ceil, floor)
	}

	if incumbent == nil {
		return &Solution{Status: Infeasible}, nil
	}

	values := make([]float64, n)
	copy(values, incumbent)
	for i, isInt := range p.integer {
		if isInt {
			values[i] = math.Round(values[i])
		}
	}
	obj := incumbentObj
	if p.sense == Maximize {
		obj = -obj
	}
	return &Solution{Status: Optimal, Objective: obj, Values: values}, nil
}

func (nd node) clone() node {
	lower := make([]float64, len(nd.lower))
	upper := make([]float64, len(nd.upper))
	copy(lower, nd.lower)
	copy(upper, nd.upper)
	return node{lower: lower, upper: upper}
}

// mostFractional returns the integer variable whose relaxation value is
// farthest from a whole number, or -1 when the point is integral. Ties break
// on the lowest variable index.
func (p *Problem) mostFractional(x []float64) int {
	best := -1
	bestDist := integerTol
	for i, isInt := range p.integer {
		if !isInt {
			continue
		}
		_, frac := math.Modf(x[i])
		dist := math.Min(frac, 1-frac)
		if dist > bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

// solveRelaxation solves the continuous relaxation of the problem under the
// node's variable bounds, in minimize space. It converts the labeled
// constraints into standard form (Ax = b, x >= 0) by adding one slack
// variable per inequality.
func (p *Problem) solveRelaxation(nd node) (obj float64, x []float64, err error) {
	n := p.NumVars()

	type row struct {
		terms []Term
		op    Op
		bound float64
	}
	rows := make([]row, 0, len(p.constraints)+2*n)
	for _, c := range p.constraints {
		rows = append(rows, row{terms: c.Terms, op: c.Op, bound: c.Bound})
	}
	// Branching bounds become plain constraint rows. Non-negativity is
	// implicit in the standard form.
	for i := 0; i < n; i++ {
		v := Variable(i)
		if nd.lower[i] > 0 {
			rows = append(rows, row{terms: []Term{{v, 1}}, op: GreaterEq, bound: nd.lower[i]})
		}
		if !math.IsInf(nd.upper[i], 1) {
			rows = append(rows, row{terms: []Term{{v, 1}}, op: LessEq, bound: nd.upper[i]})
		}
	}

	slacks := 0
	for _, r := range rows {
		if r.op != Equal {
			slacks++
		}
	}

	m := len(rows)
	cols := n + slacks
	a := mat.NewDense(m, cols, nil)
	b := make([]float64, m)
	slack := n
	for i, r := range rows {
		for _, t := range r.terms {
			a.Set(i, int(t.Var), a.At(i, int(t.Var))+t.Coeff)
		}
		b[i] = r.bound
		switch r.op {
		case LessEq:
			a.Set(i, slack, 1)
			slack++
		case GreaterEq:
			a.Set(i, slack, -1)
			slack++
		}
		// The simplex phase-one expects non-negative right-hand sides.
		if b[i] < 0 {
			b[i] = -b[i]
			for j := 0; j < cols; j++ {
				a.Set(i, j, -a.At(i, j))
			}
		}
	}

	c := make([]float64, cols)
	for v, coeff := range p.objective {
		c[v] = coeff
		if p.sense == Maximize {
			c[v] = -coeff
		}
	}

	obj, xs, err := lp.Simplex(c, a, b, simplexTol, nil)
	if err != nil {
		return 0, nil, err
	}
	return obj, xs[:n], nil
}
