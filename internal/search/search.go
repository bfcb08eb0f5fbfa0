// Package search minimises a black-box objective over a bounded
// integer/real box, subject to a scalar constraint violation.
//
// The optimizers here are heuristics. They return the best point they
// visited, which is not guaranteed to be the global optimum.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Optimizer is a replaceable search strategy.
type Optimizer interface {
	Name() string
	// Optimize runs until its own budget is spent or ctx is done. On
	// cancellation it returns the best result so far together with
	// ctx.Err().
	Optimize(ctx context.Context, p Problem) (*Result, error)
}

// Bound is the closed range of one decision variable.
type Bound struct {
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`
	Integer bool    `yaml:"integer" json:"integer"`
}

// Clamp pulls v into the bound, rounding integer variables.
func (b Bound) Clamp(v float64) float64 {
	if b.Integer {
		v = math.Round(v)
	}
	if v < b.Min {
		v = b.Min
	}
	if v > b.Max {
		v = b.Max
	}
	return v
}

func (b Bound) Width() float64 { return b.Max - b.Min }

// ObjectiveFunc returns the cost of x; lower is better.
type ObjectiveFunc func(x []float64) float64

// ConstraintFunc returns the total constraint violation of x; 0 means
// feasible.
type ConstraintFunc func(x []float64) float64

// Problem is everything an optimizer may see. Objective and Constraint
// must be safe for concurrent use.
type Problem struct {
	Bounds     []Bound
	Objective  ObjectiveFunc
	Constraint ConstraintFunc
}

func (p Problem) Validate() error {
	if len(p.Bounds) == 0 {
		return errors.New("problem has no decision variables")
	}
	if p.Objective == nil {
		return errors.New("problem has no objective")
	}
	for i, b := range p.Bounds {
		if math.IsNaN(b.Min) || math.IsNaN(b.Max) || b.Min > b.Max {
			return fmt.Errorf("bound %d: invalid range [%g, %g]", i, b.Min, b.Max)
		}
		if b.Integer && math.Ceil(b.Min) > math.Floor(b.Max) {
			return fmt.Errorf("bound %d: no integer in [%g, %g]", i, b.Min, b.Max)
		}
	}
	return nil
}

// Solution is one evaluated point.
type Solution struct {
	X         []float64 `json:"x"`
	Cost      float64   `json:"cost"`
	Violation float64   `json:"violation"`
}

func (s Solution) Feasible() bool { return s.Violation <= 0 }

// Better reports whether a beats b under the feasibility rules:
// feasible beats infeasible, two feasible points compare by cost, two
// infeasible points compare by violation.
func Better(a, b Solution) bool {
	switch {
	case a.Feasible() && !b.Feasible():
		return true
	case !a.Feasible() && b.Feasible():
		return false
	case a.Feasible():
		return a.Cost < b.Cost
	default:
		return a.Violation < b.Violation
	}
}

// Generation summarises one batch of evaluations.
type Generation struct {
	Index       int      `json:"index"`
	Best        Solution `json:"best"`
	MeanCost    float64  `json:"mean_cost"`
	Feasible    int      `json:"feasible"`
	Evaluations int      `json:"evaluations"`
}

// ProgressFunc is called once per generation from the optimizer's
// goroutine.
type ProgressFunc func(Generation)

type Result struct {
	Optimizer   string       `json:"optimizer"`
	Best        Solution     `json:"best"`
	Evaluations int          `json:"evaluations"`
	History     []Generation `json:"history"`
	// Stopped is true when the run ended on cancellation rather than
	// its budget.
	Stopped bool `json:"stopped"`
}

func summarize(index int, pop []Solution, evaluations int) Generation {
	g := Generation{Index: index, Evaluations: evaluations}
	sum, n := 0.0, 0
	for i, s := range pop {
		if i == 0 || Better(s, g.Best) {
			g.Best = s
		}
		if s.Feasible() {
			g.Feasible++
		}
		if !math.IsInf(s.Cost, 0) && !math.IsNaN(s.Cost) {
			sum += s.Cost
			n++
		}
	}
	if n > 0 {
		g.MeanCost = sum / float64(n)
	}
	g.Best = clone(g.Best)
	return g
}

func clone(s Solution) Solution {
	s.X = append([]float64(nil), s.X...)
	return s
}
