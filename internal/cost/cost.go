// Package cost reduces a simulation run to an annual economic cost.
//
// All operating terms are scaled from the simulated horizon to one year
// (8760 h), and capital is annualised with the capital recovery factor,
// so designs are compared on an equivalent annual cost.
package cost

import (
	"math"

	"microgrid-sizer/internal/model"
	"microgrid-sizer/internal/simulation"
)

const hoursPerYear = 8760

// Breakdown is the cost of one design. Money fields are per year unless
// named as present cost.
type Breakdown struct {
	// Present (up-front) capital per equipment class.
	CapitalPV      float64 `json:"capital_pv"`
	CapitalStorage float64 `json:"capital_storage"`
	CapitalBackup  float64 `json:"capital_backup"`

	AnnualizedCapital float64 `json:"annualized_capital"`
	FixedOM           float64 `json:"fixed_om"`
	Fuel              float64 `json:"fuel"`
	BackupVariableOM  float64 `json:"backup_variable_om"`
	UnmetPenalty      float64 `json:"unmet_penalty"`

	// Total is the equivalent annual cost; lower is better.
	Total float64 `json:"total"`

	AnnualFactor      float64 `json:"annual_factor"`
	AnnualDemandKWh   float64 `json:"annual_demand_kwh"`
	AnnualServedKWh   float64 `json:"annual_served_kwh"`
	AnnualUnmetKWh    float64 `json:"annual_unmet_kwh"`
	AnnualFuelLitres  float64 `json:"annual_fuel_litres"`
	LPSP              float64 `json:"lpsp"`
	ReliabilityPct    float64 `json:"reliability_pct"`
	RenewableFraction float64 `json:"renewable_fraction"`
	// LCOE is the cost of supplying energy (Total less the unmet penalty)
	// per served kWh; 0 when nothing is served.
	LCOE float64 `json:"lcoe"`
}

// PresentCapital is the up-front cost of a decision; it depends on the
// decision alone.
func PresentCapital(d model.Decision, e model.EconomicsParams) (pv, storage, backup float64) {
	pv = float64(d.PVModules) * e.PVCapexPerModule
	storage = float64(d.StorageUnits) * e.StorageCapexPerUnit
	backup = float64(d.BackupUnits) * e.BackupCapexPerUnit
	return pv, storage, backup
}

// Evaluate combines capital, operating cost and the unmet-energy penalty
// for a finished run. The result is non-negative for validated params and
// never decreases as unmet energy grows.
func Evaluate(d model.Decision, res *simulation.Result, sys model.SystemParams) Breakdown {
	e := sys.Economics
	b := Breakdown{}

	b.CapitalPV, b.CapitalStorage, b.CapitalBackup = PresentCapital(d, e)
	b.AnnualizedCapital = (b.CapitalPV + b.CapitalStorage + b.CapitalBackup) * e.CapitalRecoveryFactor()
	b.FixedOM = float64(d.PVModules)*e.PVOMPerModuleYear +
		float64(d.StorageUnits)*e.StorageOMPerUnitYear +
		float64(d.BackupUnits)*e.BackupOMPerUnitYear

	if res == nil || res.HorizonHours <= 0 {
		b.Total = b.AnnualizedCapital + b.FixedOM
		return b
	}

	t := res.Totals
	b.AnnualFactor = hoursPerYear / res.HorizonHours
	b.AnnualDemandKWh = t.DemandKWh * b.AnnualFactor
	b.AnnualUnmetKWh = t.UnmetKWh * b.AnnualFactor
	b.AnnualServedKWh = t.ServedKWh() * b.AnnualFactor
	b.AnnualFuelLitres = t.FuelLitres * b.AnnualFactor

	b.Fuel = b.AnnualFuelLitres * e.FuelPricePerLitre
	b.BackupVariableOM = t.BackupKWh * b.AnnualFactor * e.BackupOMPerKWh
	b.UnmetPenalty = b.AnnualUnmetKWh * e.UnmetPenaltyPerKWh

	b.Total = b.AnnualizedCapital + b.FixedOM + b.Fuel + b.BackupVariableOM + b.UnmetPenalty

	if t.DemandKWh > 0 {
		b.LPSP = t.UnmetKWh / t.DemandKWh
	}
	b.ReliabilityPct = 100 * (1 - b.LPSP)
	if served := t.ServedKWh(); served > 0 {
		backupToLoad := math.Max(0, t.BackupKWh-t.DumpKWh)
		b.RenewableFraction = math.Max(0, math.Min(1, 1-backupToLoad/served))
		b.LCOE = (b.Total - b.UnmetPenalty) / b.AnnualServedKWh
	}
	return b
}
