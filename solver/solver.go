// Package solver provides a small linear-program solver with optional integer
// variable domains. Problems are built as labeled linear constraints over
// non-negative variables plus a linear objective; integrality is enforced by
// deterministic branch-and-bound over a simplex relaxation.
package solver

import (
	"fmt"
	"time"
)

// Sense is the optimization direction of the objective.
type Sense int

const (
	Maximize Sense = iota
	Minimize
)

// Op is a constraint comparison operator.
type Op int

const (
	LessEq Op = iota
	GreaterEq
	Equal
)

func (o Op) String() string {
	switch o {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	default:
		panic(fmt.Sprintf("unknown op %d", o))
	}
}

// Status is the outcome of a solve.
type Status int

const (
	Optimal Status = iota
	Infeasible
	Unbounded
	TimedOut
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	case TimedOut:
		return "timed out"
	default:
		panic(fmt.Sprintf("unknown status %d", s))
	}
}

// Variable is a handle on a decision variable of one problem.
type Variable int

// Term is one linear term of a constraint or objective.
type Term struct {
	Var   Variable
	Coeff float64
}

// Constraint is a labeled linear inequality or equality.
type Constraint struct {
	Name  string
	Terms []Term
	Op    Op
	Bound float64
}

// Problem is a linear program under construction. All variables are
// non-negative; integer variables additionally take whole values only.
type Problem struct {
	name      string
	sense     Sense
	names     []string
	integer   []bool
	objective map[Variable]float64

	constraints []Constraint
	timeLimit   time.Duration
}

// NewProblem returns an empty problem with the given objective sense.
func NewProblem(name string, sense Sense) *Problem {
	return &Problem{name: name, sense: sense, objective: make(map[Variable]float64)}
}

// NewVar declares a non-negative continuous variable.
func (p *Problem) NewVar(name string) Variable {
	p.names = append(p.names, name)
	p.integer = append(p.integer, false)
	return Variable(len(p.names) - 1)
}

// NewIntVar declares a non-negative integer variable.
func (p *Problem) NewIntVar(name string) Variable {
	v := p.NewVar(name)
	p.integer[v] = true
	return v
}

// SetObjective sets the coefficient of a variable in the objective.
func (p *Problem) SetObjective(v Variable, coeff float64) {
	p.objective[v] = coeff
}

// AddConstraint appends a labeled constraint.
func (p *Problem) AddConstraint(name string, terms []Term, op Op, bound float64) {
	p.constraints = append(p.constraints, Constraint{Name: name, Terms: terms, Op: op, Bound: bound})
}

// SetTimeLimit bounds the wall-clock time of Solve. Zero means no limit.
// Exceeding the limit surfaces as the TimedOut status.
func (p *Problem) SetTimeLimit(d time.Duration) { p.timeLimit = d }

// NumVars returns the number of declared variables.
func (p *Problem) NumVars() int { return len(p.names) }

// Solution is the outcome of solving a problem. Values is only meaningful
// when Status is Optimal; integer variables hold exact whole values.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
}

// Value returns the solved value of a variable.
func (s *Solution) Value(v Variable) float64 { return s.Values[v] }

// IntValue returns the solved value of an integer variable.
func (s *Solution) IntValue(v Variable) int { return int(s.Values[v] + 0.5) }
