package dispatch

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microgrid-sizer/internal/model"
)

// testSystem uses 1 kW modules with no losses so that irradiance 1000
// gives exactly 1 kWh per module per hour.
func testSystem() model.SystemParams {
	return model.SystemParams{
		StepHours: 1,
		PV:        model.PVParams{ModuleKW: 1, Derate: 1},
		Storage: model.StorageParams{
			UnitKWh:             100,
			ChargeEfficiency:    0.9,
			DischargeEfficiency: 0.9,
			MinSOC:              0.2,
			MaxSOC:              0.9,
		},
		Backup:    model.BackupParams{UnitKW: 5, FuelIdleLPerKWh: 0.08, FuelLoadLPerKWh: 0.25},
		Economics: model.EconomicsParams{LifetimeYears: 20},
		Dispatch:  model.DispatchParams{Priority: model.PriorityStorageFirst},
	}
}

func newDispatcher(t *testing.T, sys model.SystemParams) *Dispatcher {
	t.Helper()
	d, err := New(sys)
	require.NoError(t, err)
	return d
}

func fleet(sys model.SystemParams, pv, storage, backup int) model.Fleet {
	return model.NewFleet(model.Decision{PVModules: pv, StorageUnits: storage, BackupUnits: backup}, sys)
}

func rec(demand, irradiance float64) model.Record {
	return model.Record{DemandKW: demand, IrradianceWm2: irradiance, TemperatureC: 25, BackupAvailable: true}
}

func assertBalanced(t *testing.T, o model.Outcome) {
	t.Helper()
	assert.InDelta(t, o.Outflow(), o.Inflow(), 1e-9, "energy balance at step %d", o.Index)
}

func TestStep_SurplusChargesStorage(t *testing.T) {
	sys := testSystem()
	d := newDispatcher(t, sys)

	// demand 10, renewable 15 => 5 kWh surplus, all stored.
	o, soc := d.Step(0.5, rec(10, 1000), fleet(sys, 15, 1, 0))

	assert.Equal(t, model.ModeSurplus, o.Mode)
	assert.InDelta(t, 15, o.PVAvailableKWh, 1e-9)
	assert.InDelta(t, 10, o.PVToLoadKWh, 1e-9)
	assert.InDelta(t, 5, o.ChargeKWh, 1e-9)
	assert.InDelta(t, 0, o.CurtailedKWh, 1e-9)
	assert.Equal(t, 0.0, o.UnmetKWh)
	assert.InDelta(t, 0.5+5*0.9/100, soc, 1e-9)
	assert.Equal(t, soc, o.SOCEnd)
	assertBalanced(t, o)
}

func TestStep_SurplusNearUpperBoundIsCurtailed(t *testing.T) {
	sys := testSystem()
	d := newDispatcher(t, sys)

	o, soc := d.Step(0.89, rec(10, 1000), fleet(sys, 15, 1, 0))

	// Only 1 kWh of room below 0.9; 1/0.9 kWh accepted at the terminals.
	assert.InDelta(t, 1/0.9, o.ChargeKWh, 1e-9)
	assert.InDelta(t, 5-1/0.9, o.CurtailedKWh, 1e-9)
	assert.InDelta(t, 0.9, soc, 1e-12)
	assert.Equal(t, 0.0, o.UnmetKWh)
	assertBalanced(t, o)
}

func TestStep_StorageAtUpperBoundCurtailsEverything(t *testing.T) {
	sys := testSystem()
	d := newDispatcher(t, sys)

	o, soc := d.Step(0.9, rec(0, 1000), fleet(sys, 4, 1, 0))
	assert.Equal(t, 0.0, o.ChargeKWh)
	assert.InDelta(t, 4, o.CurtailedKWh, 1e-9)
	assert.Equal(t, 0.9, soc)
}

func TestStep_DeficitStorageThenBackupThenUnmet(t *testing.T) {
	sys := testSystem()
	sys.Storage.UnitKWh = 10
	d := newDispatcher(t, sys)

	// Storage at 0.3 of 10 kWh => 1 kWh above floor => 0.9 kWh deliverable.
	o, soc := d.Step(0.3, rec(10, 0), fleet(sys, 0, 1, 1))

	assert.Equal(t, model.ModeDeficit, o.Mode)
	assert.InDelta(t, 0.9, o.DischargeKWh, 1e-9)
	assert.InDelta(t, 5, o.BackupKWh, 1e-9)
	assert.InDelta(t, 10-0.9-5, o.UnmetKWh, 1e-9)
	assert.InDelta(t, 0.2, soc, 1e-12)
	assert.InDelta(t, 0.08*5+0.25*5, o.FuelLitres, 1e-9)
	assertBalanced(t, o)
}

func TestStep_BackupFirst(t *testing.T) {
	sys := testSystem()
	sys.Dispatch.Priority = model.PriorityBackupFirst
	d := newDispatcher(t, sys)

	o, soc := d.Step(0.5, rec(8, 0), fleet(sys, 0, 1, 1))

	assert.InDelta(t, 5, o.BackupKWh, 1e-9)
	assert.InDelta(t, 3, o.DischargeKWh, 1e-9)
	assert.Equal(t, 0.0, o.UnmetKWh)
	assert.InDelta(t, 0.5-3/0.9/100, soc, 1e-9)
	assertBalanced(t, o)
}

func TestStep_ZeroBackupCapacityLeavesDeficitUnmet(t *testing.T) {
	sys := testSystem()
	d := newDispatcher(t, sys)

	o, _ := d.Step(0.2, rec(7, 0), fleet(sys, 0, 1, 0))
	assert.Equal(t, 0.0, o.DischargeKWh)
	assert.Equal(t, 0.0, o.BackupKWh)
	assert.InDelta(t, 7, o.UnmetKWh, 1e-12)
	assertBalanced(t, o)
}

func TestStep_BackupUnavailable(t *testing.T) {
	sys := testSystem()
	d := newDispatcher(t, sys)

	r := rec(4, 0)
	r.BackupAvailable = false
	o, _ := d.Step(0.2, r, fleet(sys, 0, 0, 3))
	assert.Equal(t, 0.0, o.BackupCapacityKW)
	assert.InDelta(t, 4, o.UnmetKWh, 1e-12)
}

func TestStep_BackupQuietHours(t *testing.T) {
	sys := testSystem()
	sys.Dispatch.BackupQuietStart = "22:00"
	sys.Dispatch.BackupQuietEnd = "06:00"
	d := newDispatcher(t, sys)
	f := fleet(sys, 0, 0, 1)

	night := rec(3, 0)
	night.Timestamp = time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	o, _ := d.Step(0.2, night, f)
	assert.InDelta(t, 3, o.UnmetKWh, 1e-12)

	day := rec(3, 0)
	day.Timestamp = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	o, _ = d.Step(0.2, day, f)
	assert.InDelta(t, 3, o.BackupKWh, 1e-12)
	assert.Equal(t, 0.0, o.UnmetKWh)

	// Without timestamps the index is the hour of day.
	byIndex := rec(3, 0)
	byIndex.Index = 2
	o, _ = d.Step(0.2, byIndex, f)
	assert.InDelta(t, 3, o.UnmetKWh, 1e-12)
}

func TestStep_MinimumLoadSurplusChargesStorage(t *testing.T) {
	sys := testSystem()
	sys.Dispatch.Priority = model.PriorityBackupFirst
	sys.Backup.MinLoadFraction = 0.4
	d := newDispatcher(t, sys)

	// 1 kWh needed but a running 5 kW unit must make at least 2 kW.
	o, soc := d.Step(0.5, rec(1, 0), fleet(sys, 0, 1, 1))
	assert.InDelta(t, 2, o.BackupKWh, 1e-9)
	assert.InDelta(t, 1, o.ChargeKWh, 1e-9)
	assert.Equal(t, 0.0, o.DumpKWh)
	assert.InDelta(t, 0.5+0.9/100, soc, 1e-9)
	assertBalanced(t, o)

	// No storage: the excess is dumped.
	o, _ = d.Step(0.5, rec(1, 0), fleet(sys, 0, 0, 1))
	assert.InDelta(t, 1, o.DumpKWh, 1e-9)
	assertBalanced(t, o)
}

func TestStep_StorageFirstHoldsBackForMinimumLoad(t *testing.T) {
	sys := testSystem()
	sys.Backup.MinLoadFraction = 0.4
	d := newDispatcher(t, sys)
	f := fleet(sys, 0, 1, 1)

	// 0.45 kWh deliverable from storage; a 5 kW unit must make 2 kWh.
	const soc0 = 0.205

	tests := []struct {
		name          string
		demand        float64
		wantDischarge float64
		wantCharge    float64
	}{
		// Residual 1.0 after full discharge: storage keeps its energy and
		// absorbs the generator's excess instead.
		{"small residual", 1.45, 0, 0.55},
		// Residual 1.8: storage gives back just enough for the floor.
		{"partial hold back", 2.25, 0.25, 0},
		// Residual above the floor: nothing changes.
		{"residual above floor", 3.45, 0.45, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, soc := d.Step(soc0, rec(tt.demand, 0), f)
			assert.InDelta(t, tt.wantDischarge, o.DischargeKWh, 1e-9)
			assert.InDelta(t, tt.wantCharge, o.ChargeKWh, 1e-9)
			assert.InDelta(t, 0, o.DumpKWh, 1e-9)
			assert.Equal(t, 0.0, o.UnmetKWh)
			assert.GreaterOrEqual(t, o.BackupKWh, 2-1e-9)
			assert.GreaterOrEqual(t, soc, sys.Storage.MinSOC)
			assertBalanced(t, o)
		})
	}
}

func TestStep_StartsOnlyNeededUnits(t *testing.T) {
	sys := testSystem()
	d := newDispatcher(t, sys)

	o, _ := d.Step(0.2, rec(6, 0), fleet(sys, 0, 0, 4))
	// Two 5 kW units running, not four.
	assert.InDelta(t, 0.08*10+0.25*6, o.FuelLitres, 1e-9)
	assert.InDelta(t, 20, o.BackupCapacityKW, 1e-12)
}

func TestStep_ZeroDemandNeverUnmet(t *testing.T) {
	sys := testSystem()
	d := newDispatcher(t, sys)
	f := fleet(sys, 3, 0, 1)

	for _, irr := range []float64{0, 150, 600, 1000} {
		o, _ := d.Step(0.5, rec(0, irr), f)
		assert.Equal(t, 0.0, o.UnmetKWh)
		assert.InDelta(t, o.PVAvailableKWh, o.CurtailedKWh, 1e-12)
	}
}

func TestStep_NoRenewableNoBackup(t *testing.T) {
	sys := testSystem()
	d := newDispatcher(t, sys)
	f := fleet(sys, 0, 1, 0)

	soc := 0.6
	for i := 0; i < 10; i++ {
		deliverable := f.Storage.MaxDischargeKWh(soc, sys.StepHours)
		var o model.Outcome
		o, soc = d.Step(soc, rec(12, 0), f)
		assert.InDelta(t, 12-deliverable, o.UnmetKWh, 1e-9)
	}
}

func TestStep_InvariantsUnderRandomDrivers(t *testing.T) {
	for _, priority := range []model.Priority{model.PriorityStorageFirst, model.PriorityBackupFirst} {
		t.Run(string(priority), func(t *testing.T) {
			sys := testSystem()
			sys.Dispatch.Priority = priority
			sys.Storage.UnitPowerKW = 4
			sys.Backup.MinLoadFraction = 0.3
			d := newDispatcher(t, sys)
			f := fleet(sys, 12, 2, 2)

			rng := rand.New(rand.NewSource(7))
			soc := 0.5
			for i := 0; i < 500; i++ {
				r := rec(rng.Float64()*25, rng.Float64()*1100)
				r.Index = i
				r.BackupAvailable = rng.Intn(5) != 0
				var o model.Outcome
				o, soc = d.Step(soc, r, f)

				assertBalanced(t, o)
				assert.GreaterOrEqual(t, soc, sys.Storage.MinSOC)
				assert.LessOrEqual(t, soc, sys.Storage.MaxSOC)
				assert.GreaterOrEqual(t, o.UnmetKWh, 0.0)
				assert.GreaterOrEqual(t, o.CurtailedKWh, 0.0)
				assert.LessOrEqual(t, o.BackupKW, o.BackupCapacityKW+1e-9)
			}
		})
	}
}

func TestNew_RejectsBadQuietHours(t *testing.T) {
	sys := testSystem()
	sys.Dispatch.BackupQuietStart = "25:00"
	sys.Dispatch.BackupQuietEnd = "06:00"
	_, err := New(sys)
	assert.ErrorContains(t, err, "backup quiet hours")
}
