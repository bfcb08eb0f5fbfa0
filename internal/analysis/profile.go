package analysis

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"microgrid-sizer/internal/model"
)

// ColumnStats summarises one input column.
type ColumnStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P05    float64 `json:"p05"`
	P95    float64 `json:"p95"`
}

// Profile is a site-level summary of the time-series input. It does not
// depend on any particular design, so it is a cheap first look before a
// search and a sanity check on the search bounds.
type Profile struct {
	Steps        int       `json:"steps"`
	StepHours    float64   `json:"step_hours"`
	HorizonHours float64   `json:"horizon_hours"`
	Start        time.Time `json:"start,omitempty"`
	End          time.Time `json:"end,omitempty"`

	Demand      ColumnStats `json:"demand_kw"`
	Irradiance  ColumnStats `json:"irradiance_wm2"`
	Temperature ColumnStats `json:"temperature_c"`

	DemandKWh float64 `json:"demand_kwh"`
	// PeakSunHours is irradiation in kWh/m2 per simulated day.
	PeakSunHours float64 `json:"peak_sun_hours"`
	// BackupOutageHours counts steps flagged as backup-unavailable.
	BackupOutageHours float64 `json:"backup_outage_hours"`

	// PVYieldKWhPerModule is one module's output over the horizon.
	PVYieldKWhPerModule float64 `json:"pv_yield_kwh_per_module"`
	// ModulesForEnergyBalance is the fewest modules whose total yield
	// matches total demand, ignoring timing and losses in storage.
	ModulesForEnergyBalance int `json:"modules_for_energy_balance"`
	// LongestDeficitKWh is the largest energy gap of any contiguous run
	// of steps where that balanced array falls short of demand; a rough
	// floor on usable storage for a PV-only design.
	LongestDeficitKWh float64 `json:"longest_deficit_kwh"`
}

func ComputeProfile(series model.Series, sys model.SystemParams) Profile {
	p := Profile{Steps: len(series), StepHours: sys.StepHours}
	if len(series) == 0 {
		return p
	}
	dt := sys.StepHours
	p.HorizonHours = series.HorizonHours(dt)
	p.Start = series[0].Timestamp
	p.End = series[len(series)-1].Timestamp

	demand := series.Demand()
	irr := series.Irradiance()
	temp := make([]float64, len(series))
	perModule := make([]float64, len(series))
	for i, r := range series {
		temp[i] = r.TemperatureC
		perModule[i] = sys.PV.ModuleOutputKW(r.IrradianceWm2, r.TemperatureC)
		if !r.BackupAvailable {
			p.BackupOutageHours += dt
		}
	}

	p.Demand = columnStats(demand)
	p.Irradiance = columnStats(irr)
	p.Temperature = columnStats(temp)

	p.DemandKWh = floats.Sum(demand) * dt
	p.PeakSunHours = floats.Sum(irr) / 1000 * dt / (p.HorizonHours / 24)
	p.PVYieldKWhPerModule = floats.Sum(perModule) * dt

	if p.PVYieldKWhPerModule > 0 {
		p.ModulesForEnergyBalance = int(math.Ceil(p.DemandKWh / p.PVYieldKWhPerModule))
		p.LongestDeficitKWh = longestDeficit(demand, perModule, float64(p.ModulesForEnergyBalance), dt)
	}
	return p
}

func columnStats(xs []float64) ColumnStats {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	cs := ColumnStats{
		Min:  floats.Min(sorted),
		Max:  floats.Max(sorted),
		Mean: stat.Mean(sorted, nil),
		P05:  stat.Quantile(0.05, stat.Empirical, sorted, nil),
		P95:  stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		cs.StdDev = stat.StdDev(sorted, nil)
	}
	return cs
}

// longestDeficit scans runs of net deficit (demand above PV) and returns
// the largest energy shortfall of a single run.
func longestDeficit(demand, perModule []float64, modules, dt float64) float64 {
	worst, run := 0.0, 0.0
	for i := range demand {
		gap := demand[i] - modules*perModule[i]
		if gap > 0 {
			run += gap * dt
			worst = math.Max(worst, run)
			continue
		}
		run = 0
	}
	return worst
}
