package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSystem() SystemParams {
	return SystemParams{
		StepHours: 1,
		PV:        PVParams{ModuleKW: 0.4, Derate: 0.9, TempCoeffPerC: -0.004, NOCT: 45},
		Storage:   defaultStorage,
		Backup:    BackupParams{UnitKW: 10, FuelIdleLPerKWh: 0.08, FuelLoadLPerKWh: 0.25},
		Economics: EconomicsParams{DiscountRate: 0.08, LifetimeYears: 20, UnmetPenaltyPerKWh: 5},
		Dispatch:  DispatchParams{Priority: PriorityStorageFirst},
	}
}

func TestSystemParams_Validate(t *testing.T) {
	require.NoError(t, testSystem().Validate())

	s := testSystem()
	s.StepHours = 0
	assert.ErrorContains(t, s.Validate(), "step_hours")

	s = testSystem()
	s.Dispatch.Priority = "grid_first"
	assert.ErrorContains(t, s.Validate(), "dispatch.priority")

	s = testSystem()
	s.Dispatch.BackupQuietStart = "22:00"
	assert.ErrorContains(t, s.Validate(), "backup_quiet")

	s = testSystem()
	s.Economics.FuelPricePerLitre = -1
	assert.ErrorContains(t, s.Validate(), "fuel_price_per_litre")
}

func TestPVParams_ModuleOutputKW(t *testing.T) {
	p := PVParams{ModuleKW: 0.4, Derate: 1}
	// No NOCT: cell at ambient, 25 C => nameplate scaled by irradiance.
	assert.InDelta(t, 0.4, p.ModuleOutputKW(1000, 25), 1e-9)
	assert.InDelta(t, 0.2, p.ModuleOutputKW(500, 25), 1e-9)
	assert.Equal(t, 0.0, p.ModuleOutputKW(0, 25))

	hot := PVParams{ModuleKW: 0.4, Derate: 1, TempCoeffPerC: -0.004, NOCT: 45}
	// Tcell = 25 + 25/800*1000 = 56.25 C
	assert.InDelta(t, 0.4*(1-0.004*31.25), hot.ModuleOutputKW(1000, 25), 1e-9)
}

func TestBackupParams_FuelLitres(t *testing.T) {
	p := BackupParams{UnitKW: 10, FuelIdleLPerKWh: 0.08, FuelLoadLPerKWh: 0.25}
	assert.InDelta(t, 0.08*20+0.25*15, p.FuelLitres(20, 15, 1), 1e-9)
	assert.Equal(t, 0.0, p.FuelLitres(20, 0, 1))
}

func TestEconomics_CapitalRecoveryFactor(t *testing.T) {
	e := EconomicsParams{LifetimeYears: 10}
	assert.InDelta(t, 0.1, e.CapitalRecoveryFactor(), 1e-12)

	e.DiscountRate = 0.08
	e.LifetimeYears = 20
	assert.InDelta(t, 0.10185, e.CapitalRecoveryFactor(), 1e-5)
}

func TestDecision_Validate(t *testing.T) {
	assert.NoError(t, Decision{PVModules: 1, InitialSOC: 0.5}.Validate(defaultStorage))
	assert.Error(t, Decision{PVModules: -1, InitialSOC: 0.5}.Validate(defaultStorage))
	assert.Error(t, Decision{InitialSOC: 0.1}.Validate(defaultStorage))
}

func TestModeFromNet(t *testing.T) {
	assert.Equal(t, ModeSurplus, ModeFromNet(1))
	assert.Equal(t, ModeDeficit, ModeFromNet(-1))
	assert.Equal(t, ModeBalanced, ModeFromNet(0))
}
