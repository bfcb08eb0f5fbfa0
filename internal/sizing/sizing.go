// Package sizing binds a time series and a parameter set into a search
// problem over equipment counts and initial state of charge.
package sizing

import (
	"errors"
	"fmt"
	"log"
	"math"

	"microgrid-sizer/internal/cost"
	"microgrid-sizer/internal/metrics"
	"microgrid-sizer/internal/model"
	"microgrid-sizer/internal/search"
	"microgrid-sizer/internal/simulation"
)

// Dimension order of the search vector.
const (
	DimPV = iota
	DimStorage
	DimBackup
	DimInitialSOC
	dims
)

// Range is an inclusive search interval.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Bounds limit each decision variable. A zero InitialSOC range means
// "search the storage window".
type Bounds struct {
	PVModules    Range `yaml:"pv_modules" json:"pv_modules"`
	StorageUnits Range `yaml:"storage_units" json:"storage_units"`
	BackupUnits  Range `yaml:"backup_units" json:"backup_units"`
	InitialSOC   Range `yaml:"initial_soc" json:"initial_soc"`
}

// Constraints are the feasibility checks applied to each run.
type Constraints struct {
	// SOCTolerance is how far the state of charge may stray outside
	// [min_soc, max_soc] before the design is infeasible.
	SOCTolerance float64 `yaml:"soc_tolerance" json:"soc_tolerance"`
	// BackupTolerance is the kW the backup may run above the capacity
	// available that step.
	BackupTolerance float64 `yaml:"backup_tolerance_kw" json:"backup_tolerance_kw"`
	// DriftTolerance bounds |final SOC - initial SOC|. Negative disables.
	DriftTolerance float64 `yaml:"drift_tolerance" json:"drift_tolerance"`
	// MaxLPSP is the largest acceptable loss-of-power-supply probability
	// (unmet / demand). 1 disables.
	MaxLPSP float64 `yaml:"max_lpsp" json:"max_lpsp"`
	// InfeasiblePenalty converts violation into cost for ranking.
	InfeasiblePenalty float64 `yaml:"infeasible_penalty" json:"infeasible_penalty"`
}

func DefaultConstraints() Constraints {
	return Constraints{
		SOCTolerance:      1e-6,
		BackupTolerance:   1e-6,
		DriftTolerance:    0.05,
		MaxLPSP:           1,
		InfeasiblePenalty: 1e6,
	}
}

func (c Constraints) Validate() error {
	if c.SOCTolerance < 0 || c.BackupTolerance < 0 {
		return errors.New("constraints soc_tolerance and backup_tolerance_kw must be >= 0")
	}
	if c.MaxLPSP < 0 || c.MaxLPSP > 1 {
		return errors.New("constraints.max_lpsp must be in [0, 1]")
	}
	if c.InfeasiblePenalty < 0 {
		return errors.New("constraints.infeasible_penalty must be >= 0")
	}
	return nil
}

// Violation is one failed check and by how much.
type Violation struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Evaluation is the full picture of one decision.
type Evaluation struct {
	Decision   model.Decision     `json:"decision"`
	Result     *simulation.Result `json:"-"`
	Cost       cost.Breakdown     `json:"cost"`
	Violations []Violation        `json:"violations,omitempty"`
	// Violation is the sum of all violation amounts.
	Violation float64 `json:"violation"`
	// Penalized is Cost.Total plus InfeasiblePenalty * Violation.
	Penalized float64 `json:"penalized"`
}

func (e *Evaluation) Feasible() bool { return e.Violation <= 0 }

// Problem is immutable after NewProblem and safe for concurrent use.
type Problem struct {
	series      model.Series
	sys         model.SystemParams
	engine      *simulation.Engine
	bounds      Bounds
	constraints Constraints
}

func NewProblem(series model.Series, sys model.SystemParams, bounds Bounds, c Constraints) (*Problem, error) {
	engine, err := simulation.New(sys)
	if err != nil {
		return nil, err
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("time series invalid: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if bounds.InitialSOC == (Range{}) {
		bounds.InitialSOC = Range{Min: sys.Storage.MinSOC, Max: sys.Storage.MaxSOC}
	}
	if err := validateBounds(bounds, sys.Storage); err != nil {
		return nil, err
	}
	return &Problem{series: series, sys: sys, engine: engine, bounds: bounds, constraints: c}, nil
}

func validateBounds(b Bounds, st model.StorageParams) error {
	counts := []struct {
		name string
		r    Range
	}{{"pv_modules", b.PVModules}, {"storage_units", b.StorageUnits}, {"backup_units", b.BackupUnits}}
	for _, c := range counts {
		if c.r.Min < 0 || c.r.Min > c.r.Max {
			return fmt.Errorf("bounds.%s must satisfy 0 <= min <= max", c.name)
		}
		if math.Ceil(c.r.Min) > math.Floor(c.r.Max) {
			return fmt.Errorf("bounds.%s contains no whole number", c.name)
		}
	}
	if b.InitialSOC.Min < st.MinSOC || b.InitialSOC.Max > st.MaxSOC || b.InitialSOC.Min > b.InitialSOC.Max {
		return fmt.Errorf("bounds.initial_soc must lie within [%.3f, %.3f]", st.MinSOC, st.MaxSOC)
	}
	return nil
}

func (p *Problem) Series() model.Series       { return p.series }
func (p *Problem) System() model.SystemParams { return p.sys }
func (p *Problem) Constraints() Constraints   { return p.constraints }
func (p *Problem) DecisionBounds() Bounds     { return p.bounds }
func (p *Problem) Engine() *simulation.Engine { return p.engine }

// Bounds returns the search box in dimension order.
func (p *Problem) Bounds() []search.Bound {
	b := make([]search.Bound, dims)
	b[DimPV] = search.Bound{Min: p.bounds.PVModules.Min, Max: p.bounds.PVModules.Max, Integer: true}
	b[DimStorage] = search.Bound{Min: p.bounds.StorageUnits.Min, Max: p.bounds.StorageUnits.Max, Integer: true}
	b[DimBackup] = search.Bound{Min: p.bounds.BackupUnits.Min, Max: p.bounds.BackupUnits.Max, Integer: true}
	b[DimInitialSOC] = search.Bound{Min: p.bounds.InitialSOC.Min, Max: p.bounds.InitialSOC.Max}
	return b
}

// Decode clamps x into the bounds and rounds the counts.
func (p *Problem) Decode(x []float64) model.Decision {
	b := p.Bounds()
	at := func(i int) float64 {
		if i < len(x) {
			return b[i].Clamp(x[i])
		}
		return b[i].Clamp(b[i].Min)
	}
	return model.Decision{
		PVModules:    int(at(DimPV)),
		StorageUnits: int(at(DimStorage)),
		BackupUnits:  int(at(DimBackup)),
		InitialSOC:   at(DimInitialSOC),
	}
}

// Encode is the inverse of Decode for in-bounds decisions.
func Encode(d model.Decision) []float64 {
	x := make([]float64, dims)
	x[DimPV] = float64(d.PVModules)
	x[DimStorage] = float64(d.StorageUnits)
	x[DimBackup] = float64(d.BackupUnits)
	x[DimInitialSOC] = d.InitialSOC
	return x
}

// Evaluate simulates d, prices it and checks the constraints. An
// infeasible design is not an error; only a decision the engine rejects
// outright is.
func (p *Problem) Evaluate(d model.Decision) (*Evaluation, error) {
	res, err := p.engine.Run(d, p.series)
	if err != nil {
		return nil, err
	}
	metrics.SimulationsTotal.Inc()

	ev := &Evaluation{
		Decision: d,
		Result:   res,
		Cost:     cost.Evaluate(d, res, p.sys),
	}
	ev.Violations = p.check(res, ev.Cost)
	for _, v := range ev.Violations {
		ev.Violation += v.Amount
	}
	ev.Penalized = ev.Cost.Total + p.constraints.InfeasiblePenalty*ev.Violation
	return ev, nil
}

func (p *Problem) check(res *simulation.Result, b cost.Breakdown) []Violation {
	c := p.constraints
	st := p.sys.Storage
	t := res.Totals
	var out []Violation

	if v := (st.MinSOC - c.SOCTolerance) - t.MinSOC; v > 0 {
		out = append(out, Violation{Name: "soc_below_min", Amount: v})
	}
	if v := t.MaxSOC - (st.MaxSOC + c.SOCTolerance); v > 0 {
		out = append(out, Violation{Name: "soc_above_max", Amount: v})
	}
	if v := t.MaxBackupOverloadKW - c.BackupTolerance; v > 0 {
		out = append(out, Violation{Name: "backup_over_capacity", Amount: v})
	}
	if c.DriftTolerance >= 0 {
		if v := math.Abs(res.FinalSOC-res.InitialSOC) - c.DriftTolerance; v > 0 {
			out = append(out, Violation{Name: "soc_drift", Amount: v})
		}
	}
	if v := b.LPSP - c.MaxLPSP; v > 0 {
		out = append(out, Violation{Name: "lpsp", Amount: v})
	}
	return out
}

// evaluateVector is shared by Objective and Constraint. Decode keeps
// every vector inside bounds validated by NewProblem, so an error here
// means the engine disagrees with those bounds.
func (p *Problem) evaluateVector(x []float64) *Evaluation {
	ev, err := p.Evaluate(p.Decode(x))
	if err != nil {
		log.Printf("[Sizing] evaluate %v: %v", x, err)
		return nil
	}
	return ev
}

// Objective is the annual cost of x.
func (p *Problem) Objective(x []float64) float64 {
	ev := p.evaluateVector(x)
	if ev == nil {
		return math.Inf(1)
	}
	return ev.Cost.Total
}

// Constraint is the total violation of x; 0 means feasible.
func (p *Problem) Constraint(x []float64) float64 {
	ev := p.evaluateVector(x)
	if ev == nil {
		return math.Inf(1)
	}
	return ev.Violation
}

// SearchProblem adapts p to the optimizer contract.
func (p *Problem) SearchProblem() search.Problem {
	return search.Problem{
		Bounds: p.Bounds(),
		Objective: func(x []float64) float64 {
			metrics.SearchEvaluationsTotal.Inc()
			return p.Objective(x)
		},
		Constraint: p.Constraint,
	}
}
