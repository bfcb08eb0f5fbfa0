package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microgrid-sizer/internal/model"
	"microgrid-sizer/internal/simulation"
)

func testSystem() model.SystemParams {
	return model.SystemParams{
		StepHours: 1,
		PV:        model.PVParams{ModuleKW: 1, Derate: 1},
		Storage: model.StorageParams{
			UnitKWh: 10, ChargeEfficiency: 1, DischargeEfficiency: 1, MinSOC: 0.2, MaxSOC: 0.9,
		},
		Backup: model.BackupParams{UnitKW: 5},
		Economics: model.EconomicsParams{
			PVCapexPerModule:     300,
			StorageCapexPerUnit:  4000,
			BackupCapexPerUnit:   2500,
			PVOMPerModuleYear:    5,
			StorageOMPerUnitYear: 40,
			BackupOMPerUnitYear:  100,
			BackupOMPerKWh:       0.02,
			FuelPricePerLitre:    1.2,
			UnmetPenaltyPerKWh:   3,
			LifetimeYears:        10,
		},
		Dispatch: model.DispatchParams{Priority: model.PriorityStorageFirst},
	}
}

func result(horizon float64, totals simulation.Totals) *simulation.Result {
	return &simulation.Result{HorizonHours: horizon, Totals: totals}
}

func TestEvaluate_Breakdown(t *testing.T) {
	sys := testSystem()
	d := model.Decision{PVModules: 10, StorageUnits: 2, BackupUnits: 1, InitialSOC: 0.5}
	res := result(876, simulation.Totals{
		DemandKWh:  1000,
		UnmetKWh:   10,
		BackupKWh:  200,
		FuelLitres: 60,
	})

	b := Evaluate(d, res, sys)

	assert.InDelta(t, 3000, b.CapitalPV, 1e-9)
	assert.InDelta(t, 8000, b.CapitalStorage, 1e-9)
	assert.InDelta(t, 2500, b.CapitalBackup, 1e-9)
	assert.InDelta(t, 13500*0.1, b.AnnualizedCapital, 1e-9)
	assert.InDelta(t, 10*5+2*40+100, b.FixedOM, 1e-9)
	assert.InDelta(t, 10, b.AnnualFactor, 1e-12)
	assert.InDelta(t, 600*1.2, b.Fuel, 1e-9)
	assert.InDelta(t, 2000*0.02, b.BackupVariableOM, 1e-9)
	assert.InDelta(t, 100*3, b.UnmetPenalty, 1e-9)
	assert.InDelta(t, b.AnnualizedCapital+b.FixedOM+b.Fuel+b.BackupVariableOM+b.UnmetPenalty, b.Total, 1e-9)

	assert.InDelta(t, 0.01, b.LPSP, 1e-12)
	assert.InDelta(t, 99, b.ReliabilityPct, 1e-9)
	assert.InDelta(t, 1-200.0/990, b.RenewableFraction, 1e-9)
	// The unmet penalty is a shortfall charge, not a supply cost.
	assert.InDelta(t, (b.Total-b.UnmetPenalty)/9900, b.LCOE, 1e-9)

	penalised := sys
	penalised.Economics.UnmetPenaltyPerKWh = 1000
	assert.InDelta(t, b.LCOE, Evaluate(d, res, penalised).LCOE, 1e-9)
}

func TestEvaluate_MonotonicInUnmet(t *testing.T) {
	sys := testSystem()
	d := model.Decision{PVModules: 4, StorageUnits: 1, InitialSOC: 0.5}

	prev := -1.0
	for _, unmet := range []float64{0, 0.5, 1, 10, 100, 500} {
		b := Evaluate(d, result(24, simulation.Totals{DemandKWh: 500, UnmetKWh: unmet}), sys)
		assert.GreaterOrEqual(t, b.Total, prev, "unmet=%g", unmet)
		assert.GreaterOrEqual(t, b.Total, 0.0)
		prev = b.Total
	}
}

func TestEvaluate_ZeroPenaltyStillMonotonic(t *testing.T) {
	sys := testSystem()
	sys.Economics.UnmetPenaltyPerKWh = 0
	d := model.Decision{PVModules: 1, InitialSOC: 0.5}

	low := Evaluate(d, result(24, simulation.Totals{DemandKWh: 10, UnmetKWh: 1}), sys)
	high := Evaluate(d, result(24, simulation.Totals{DemandKWh: 10, UnmetKWh: 5}), sys)
	assert.Equal(t, low.Total, high.Total)
}

func TestEvaluate_EmptyDesignCostsOnlyPenalty(t *testing.T) {
	sys := testSystem()
	b := Evaluate(model.Decision{InitialSOC: 0.5}, result(8760, simulation.Totals{DemandKWh: 100, UnmetKWh: 100}), sys)
	assert.InDelta(t, 300, b.Total, 1e-9)
	assert.Equal(t, 0.0, b.ReliabilityPct)
	assert.Equal(t, 0.0, b.LCOE)
}

func TestEvaluate_WithEngine(t *testing.T) {
	sys := testSystem()
	e, err := simulation.New(sys)
	require.NoError(t, err)

	series := model.Series{
		{Index: 0, DemandKW: 2, IrradianceWm2: 1000, BackupAvailable: true},
		{Index: 1, DemandKW: 6, IrradianceWm2: 0, BackupAvailable: true},
	}
	d := model.Decision{PVModules: 4, StorageUnits: 1, BackupUnits: 1, InitialSOC: 0.5}
	res, err := e.Run(d, series)
	require.NoError(t, err)

	b := Evaluate(d, res, sys)
	assert.InDelta(t, 8760.0/2, b.AnnualFactor, 1e-9)
	assert.Equal(t, 0.0, b.UnmetPenalty)
	assert.InDelta(t, 100, b.ReliabilityPct, 1e-9)
}
