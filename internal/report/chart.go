package report

import (
	"time"

	"microgrid-sizer/internal/simulation"
)

// ChartPoint is one timestep of the plot-ready series. Powers are step
// averages in kW.
type ChartPoint struct {
	Index       int       `json:"index"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
	Mode        string    `json:"mode"`
	SOC         float64   `json:"soc"`
	DemandKW    float64   `json:"demand_kw"`
	PVKW        float64   `json:"pv_kw"`
	CurtailedKW float64   `json:"curtailed_kw"`
	StorageKW   float64   `json:"storage_kw"` // positive = discharging
	BackupKW    float64   `json:"backup_kw"`
	UnmetKW     float64   `json:"unmet_kw"`
}

// Chart converts a ledger into chart points.
func Chart(res *simulation.Result) []ChartPoint {
	if res == nil || res.StepHours <= 0 {
		return nil
	}
	dt := res.StepHours
	out := make([]ChartPoint, 0, len(res.Ledger))
	for _, row := range res.Ledger {
		out = append(out, ChartPoint{
			Index:       row.Index,
			Timestamp:   row.Timestamp,
			Mode:        string(row.Mode),
			SOC:         row.SOCEnd,
			DemandKW:    row.DemandKWh / dt,
			PVKW:        row.PVAvailableKWh / dt,
			CurtailedKW: row.CurtailedKWh / dt,
			StorageKW:   (row.DischargeKWh - row.ChargeKWh) / dt,
			BackupKW:    row.BackupKWh / dt,
			UnmetKW:     row.UnmetKWh / dt,
		})
	}
	return out
}
