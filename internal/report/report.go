// Package report turns an evaluated design into the structured output
// of a run: a JSON summary and the per-timestep chart series.
package report

import (
	"encoding/json"
	"io"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"microgrid-sizer/internal/model"
	"microgrid-sizer/internal/simulation"
	"microgrid-sizer/internal/sizing"
)

type Installed struct {
	PVKW       float64 `json:"pv_kw"`
	StorageKWh float64 `json:"storage_kwh"`
	// StoragePowerKW is 0 when storage power is unlimited.
	StoragePowerKW float64 `json:"storage_power_kw"`
	BackupKW       float64 `json:"backup_kw"`
}

// Costs are rounded to cents; the unrounded breakdown stays available
// through the evaluation.
type Costs struct {
	CapitalPV         decimal.Decimal `json:"capital_pv"`
	CapitalStorage    decimal.Decimal `json:"capital_storage"`
	CapitalBackup     decimal.Decimal `json:"capital_backup"`
	AnnualizedCapital decimal.Decimal `json:"annualized_capital"`
	FixedOM           decimal.Decimal `json:"fixed_om"`
	Fuel              decimal.Decimal `json:"fuel"`
	BackupVariableOM  decimal.Decimal `json:"backup_variable_om"`
	UnmetPenalty      decimal.Decimal `json:"unmet_penalty"`
	Total             decimal.Decimal `json:"total"`
	LCOE              decimal.Decimal `json:"lcoe"`
}

type Energy struct {
	HorizonHours      float64 `json:"horizon_hours"`
	AnnualDemandKWh   float64 `json:"annual_demand_kwh"`
	AnnualServedKWh   float64 `json:"annual_served_kwh"`
	AnnualUnmetKWh    float64 `json:"annual_unmet_kwh"`
	AnnualFuelLitres  float64 `json:"annual_fuel_litres"`
	CurtailedKWh      float64 `json:"curtailed_kwh"`
	DumpKWh           float64 `json:"dump_kwh"`
	BackupRunHours    float64 `json:"backup_run_hours"`
	PeakBackupKW      float64 `json:"peak_backup_kw"`
	LPSP              float64 `json:"lpsp"`
	ReliabilityPct    float64 `json:"reliability_pct"`
	RenewableFraction float64 `json:"renewable_fraction"`
}

type SOCStats struct {
	Initial float64 `json:"initial"`
	Final   float64 `json:"final"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
}

type SearchInfo struct {
	Optimizer       string  `json:"optimizer"`
	Evaluations     int     `json:"evaluations"`
	Generations     int     `json:"generations"`
	Stopped         bool    `json:"stopped"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type Report struct {
	RunID       uuid.UUID `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Decision   model.Decision     `json:"decision"`
	Installed  Installed          `json:"installed"`
	Costs      Costs              `json:"costs"`
	Energy     Energy             `json:"energy"`
	SOC        SOCStats           `json:"soc"`
	Feasible   bool               `json:"feasible"`
	Violations []sizing.Violation `json:"violations,omitempty"`
	Search     *SearchInfo        `json:"search,omitempty"`
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Build assembles a report for ev. sol is nil for a plain simulation.
func Build(sys model.SystemParams, ev *sizing.Evaluation, sol *sizing.Solution) *Report {
	fleet := model.NewFleet(ev.Decision, sys)
	storagePower := fleet.Storage.PowerLimitKW()
	if math.IsInf(storagePower, 1) {
		storagePower = 0
	}

	c := ev.Cost
	r := &Report{
		RunID:       uuid.New(),
		GeneratedAt: time.Now().UTC(),
		Decision:    ev.Decision,
		Installed: Installed{
			PVKW:           float64(ev.Decision.PVModules) * sys.PV.ModuleKW,
			StorageKWh:     fleet.Storage.CapacityKWh(),
			StoragePowerKW: storagePower,
			BackupKW:       fleet.BackupKW,
		},
		Costs: Costs{
			CapitalPV:         money(c.CapitalPV),
			CapitalStorage:    money(c.CapitalStorage),
			CapitalBackup:     money(c.CapitalBackup),
			AnnualizedCapital: money(c.AnnualizedCapital),
			FixedOM:           money(c.FixedOM),
			Fuel:              money(c.Fuel),
			BackupVariableOM:  money(c.BackupVariableOM),
			UnmetPenalty:      money(c.UnmetPenalty),
			Total:             money(c.Total),
			LCOE:              decimal.NewFromFloat(c.LCOE).Round(4),
		},
		Feasible:   ev.Feasible(),
		Violations: ev.Violations,
	}

	if res := ev.Result; res != nil {
		t := res.Totals
		r.Energy = Energy{
			HorizonHours:      res.HorizonHours,
			AnnualDemandKWh:   c.AnnualDemandKWh,
			AnnualServedKWh:   c.AnnualServedKWh,
			AnnualUnmetKWh:    c.AnnualUnmetKWh,
			AnnualFuelLitres:  c.AnnualFuelLitres,
			CurtailedKWh:      t.CurtailedKWh,
			DumpKWh:           t.DumpKWh,
			BackupRunHours:    t.BackupRunHours,
			PeakBackupKW:      t.PeakBackupKW,
			LPSP:              c.LPSP,
			ReliabilityPct:    c.ReliabilityPct,
			RenewableFraction: c.RenewableFraction,
		}
		r.SOC = socStats(res)
	}

	if sol != nil && sol.Search != nil {
		r.Search = &SearchInfo{
			Optimizer:       sol.Search.Optimizer,
			Evaluations:     sol.Search.Evaluations,
			Generations:     len(sol.Search.History),
			Stopped:         sol.Search.Stopped,
			DurationSeconds: sol.Duration.Seconds(),
		}
	}
	return r
}

func socStats(res *simulation.Result) SOCStats {
	s := SOCStats{
		Initial: res.InitialSOC,
		Final:   res.FinalSOC,
		Min:     res.Totals.MinSOC,
		Max:     res.Totals.MaxSOC,
	}
	if len(res.Ledger) == 0 {
		return s
	}
	socs := make([]float64, len(res.Ledger))
	for i, row := range res.Ledger {
		socs[i] = row.SOCEnd
	}
	s.Mean, s.StdDev = stat.MeanStdDev(socs, nil)
	if math.IsNaN(s.StdDev) {
		s.StdDev = 0
	}
	return s
}

func (r *Report) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func (r *Report) WriteJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
