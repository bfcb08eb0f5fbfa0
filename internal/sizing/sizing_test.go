package sizing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microgrid-sizer/internal/model"
	"microgrid-sizer/internal/search"
)

func testSystem() model.SystemParams {
	return model.SystemParams{
		StepHours: 1,
		PV:        model.PVParams{ModuleKW: 1, Derate: 1},
		Storage: model.StorageParams{
			UnitKWh: 10, ChargeEfficiency: 0.95, DischargeEfficiency: 0.95, MinSOC: 0.2, MaxSOC: 0.9,
		},
		Backup: model.BackupParams{UnitKW: 3, FuelIdleLPerKWh: 0.08, FuelLoadLPerKWh: 0.25},
		Economics: model.EconomicsParams{
			PVCapexPerModule:    400,
			StorageCapexPerUnit: 3000,
			BackupCapexPerUnit:  1500,
			FuelPricePerLitre:   1.5,
			UnmetPenaltyPerKWh:  5,
			DiscountRate:        0.06,
			LifetimeYears:       20,
		},
		Dispatch: model.DispatchParams{Priority: model.PriorityStorageFirst},
	}
}

// day is 24 h of flat 2 kW demand with a midday sun peak.
func day() model.Series {
	s := make(model.Series, 24)
	for h := range s {
		irr := 0.0
		if h >= 6 && h <= 18 {
			irr = 1000 * math.Sin(math.Pi*float64(h-6)/12)
		}
		s[h] = model.Record{Index: h, DemandKW: 2, IrradianceWm2: irr, TemperatureC: 25, BackupAvailable: true}
	}
	return s
}

func testBounds() Bounds {
	return Bounds{
		PVModules:    Range{Min: 0, Max: 12},
		StorageUnits: Range{Min: 0, Max: 2},
		BackupUnits:  Range{Min: 0, Max: 1},
		InitialSOC:   Range{Min: 0.5, Max: 0.5},
	}
}

func newProblem(t *testing.T, c Constraints) *Problem {
	t.Helper()
	p, err := NewProblem(day(), testSystem(), testBounds(), c)
	require.NoError(t, err)
	return p
}

func TestNewProblem_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Series, *model.SystemParams, *Bounds, *Constraints)
		want   string
	}{
		{"bad system", func(_ *model.Series, s *model.SystemParams, _ *Bounds, _ *Constraints) { s.StepHours = 0 }, "system params invalid"},
		{"empty series", func(se *model.Series, _ *model.SystemParams, _ *Bounds, _ *Constraints) { *se = nil }, "time series invalid"},
		{"negative count", func(_ *model.Series, _ *model.SystemParams, b *Bounds, _ *Constraints) { b.PVModules.Min = -1 }, "bounds.pv_modules"},
		{"no whole number", func(_ *model.Series, _ *model.SystemParams, b *Bounds, _ *Constraints) {
			b.BackupUnits = Range{Min: 0.2, Max: 0.4}
		}, "no whole number"},
		{"soc outside window", func(_ *model.Series, _ *model.SystemParams, b *Bounds, _ *Constraints) {
			b.InitialSOC = Range{Min: 0.1, Max: 0.5}
		}, "bounds.initial_soc"},
		{"bad lpsp", func(_ *model.Series, _ *model.SystemParams, _ *Bounds, c *Constraints) { c.MaxLPSP = 2 }, "max_lpsp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, sys, bounds, c := day(), testSystem(), testBounds(), DefaultConstraints()
			tt.mutate(&series, &sys, &bounds, &c)
			_, err := NewProblem(series, sys, bounds, c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewProblem_DefaultSOCRangeIsStorageWindow(t *testing.T) {
	b := testBounds()
	b.InitialSOC = Range{}
	p, err := NewProblem(day(), testSystem(), b, DefaultConstraints())
	require.NoError(t, err)
	assert.Equal(t, Range{Min: 0.2, Max: 0.9}, p.DecisionBounds().InitialSOC)
}

func TestDecodeEncode(t *testing.T) {
	p := newProblem(t, DefaultConstraints())

	d := p.Decode([]float64{3.6, -1, 7, 0.8})
	assert.Equal(t, model.Decision{PVModules: 4, StorageUnits: 0, BackupUnits: 1, InitialSOC: 0.5}, d)

	assert.Equal(t, d, p.Decode(Encode(d)))
	assert.Equal(t, model.Decision{InitialSOC: 0.5}, p.Decode(nil))

	bounds := p.Bounds()
	require.Len(t, bounds, 4)
	assert.True(t, bounds[DimPV].Integer)
	assert.False(t, bounds[DimInitialSOC].Integer)
}

func TestEvaluate_NoEquipmentIsInfeasibleUnderLPSPTarget(t *testing.T) {
	c := DefaultConstraints()
	c.MaxLPSP = 0.1
	p := newProblem(t, c)

	ev, err := p.Evaluate(model.Decision{InitialSOC: 0.5})
	require.NoError(t, err)

	assert.InDelta(t, 1, ev.Cost.LPSP, 1e-12)
	assert.False(t, ev.Feasible())
	require.Len(t, ev.Violations, 1)
	assert.Equal(t, "lpsp", ev.Violations[0].Name)
	assert.InDelta(t, 0.9, ev.Violation, 1e-12)
	assert.InDelta(t, ev.Cost.Total+c.InfeasiblePenalty*0.9, ev.Penalized, 1e-6)
}

func TestEvaluate_DriftViolation(t *testing.T) {
	b := testBounds()
	b.InitialSOC = Range{Min: 0.2, Max: 0.9}
	p, err := NewProblem(day(), testSystem(), b, DefaultConstraints())
	require.NoError(t, err)

	// No PV: storage drains from the top of its window and never refills.
	ev, err := p.Evaluate(model.Decision{StorageUnits: 2, BackupUnits: 1, InitialSOC: 0.9})
	require.NoError(t, err)

	assert.InDelta(t, 0.2, ev.Result.FinalSOC, 1e-9)
	require.Len(t, ev.Violations, 1)
	assert.Equal(t, "soc_drift", ev.Violations[0].Name)
	assert.InDelta(t, 0.65, ev.Violations[0].Amount, 1e-9)

	c := DefaultConstraints()
	c.DriftTolerance = -1
	p, err = NewProblem(day(), testSystem(), b, c)
	require.NoError(t, err)
	ev, err = p.Evaluate(model.Decision{StorageUnits: 2, BackupUnits: 1, InitialSOC: 0.9})
	require.NoError(t, err)
	assert.True(t, ev.Feasible())
}

func TestObjectiveAndConstraintMatchEvaluate(t *testing.T) {
	c := DefaultConstraints()
	c.MaxLPSP = 0.05
	p := newProblem(t, c)

	x := []float64{6, 1, 1, 0.5}
	ev, err := p.Evaluate(p.Decode(x))
	require.NoError(t, err)

	assert.Equal(t, ev.Cost.Total, p.Objective(x))
	assert.Equal(t, ev.Violation, p.Constraint(x))
	assert.GreaterOrEqual(t, p.Objective(x), 0.0)
}

func TestSolve_GridMatchesBruteForce(t *testing.T) {
	c := DefaultConstraints()
	c.MaxLPSP = 0.02
	p := newProblem(t, c)

	sol, err := Solve(context.Background(), p, search.Grid{Workers: 4})
	require.NoError(t, err)
	require.NotNil(t, sol.Best)

	var best search.Solution
	var bestDecision model.Decision
	first := true
	for pv := 0; pv <= 12; pv++ {
		for st := 0; st <= 2; st++ {
			for bk := 0; bk <= 1; bk++ {
				d := model.Decision{PVModules: pv, StorageUnits: st, BackupUnits: bk, InitialSOC: 0.5}
				ev, err := p.Evaluate(d)
				require.NoError(t, err)
				s := search.Solution{Cost: ev.Cost.Total, Violation: ev.Violation}
				if first || search.Better(s, best) {
					best, bestDecision, first = s, d, false
				}
			}
		}
	}

	assert.Equal(t, bestDecision, sol.Best.Decision)
	assert.Equal(t, best.Cost, sol.Best.Cost.Total)
	assert.True(t, sol.Best.Feasible())
	assert.Equal(t, 13*3*2, sol.Search.Evaluations)
}

func TestSolve_Genetic(t *testing.T) {
	p := newProblem(t, DefaultConstraints())
	g := search.DefaultGenetic()
	g.Population = 16
	g.Generations = 8

	sol, err := Solve(context.Background(), p, g)
	require.NoError(t, err)
	require.NotNil(t, sol.Best)

	d := sol.Best.Decision
	assert.True(t, d.PVModules >= 0 && d.PVModules <= 12)
	assert.True(t, d.StorageUnits >= 0 && d.StorageUnits <= 2)
	assert.True(t, d.BackupUnits >= 0 && d.BackupUnits <= 1)
	assert.Equal(t, 0.5, d.InitialSOC)
	assert.Equal(t, 16*8, sol.Search.Evaluations)
}

func TestSolve_CancelledBeforeStart(t *testing.T) {
	p := newProblem(t, DefaultConstraints())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sol, err := Solve(ctx, p, search.DefaultGenetic())
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, sol)
	assert.Nil(t, sol.Best)
}
