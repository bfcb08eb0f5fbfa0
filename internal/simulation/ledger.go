package simulation

import (
	"time"

	"microgrid-sizer/internal/model"
)

// LedgerRow is one row of per-timestep output.
// This is the primary artifact for "what happened" in a simulation run.
type LedgerRow struct {
	model.Outcome

	Timestamp time.Time

	CumUnmetKWh  float64
	CumFuelLitre float64
}

// Totals accumulates the ledger.
type Totals struct {
	DemandKWh      float64
	PVAvailableKWh float64
	PVToLoadKWh    float64
	CurtailedKWh   float64
	ChargeKWh      float64
	DischargeKWh   float64
	BackupKWh      float64
	DumpKWh        float64
	FuelLitres     float64
	UnmetKWh       float64

	// BackupRunHours counts steps with backup output, in hours.
	BackupRunHours float64
	// PeakBackupKW is the highest average backup output of any step.
	PeakBackupKW float64
	// MaxBackupOverloadKW is the worst excess of output over the rating
	// available that step (0 for a well-formed run).
	MaxBackupOverloadKW float64
	// MinSOC/MaxSOC are the extremes reached at step ends.
	MinSOC float64
	MaxSOC float64
}

func (t *Totals) add(o model.Outcome, stepHours float64) {
	t.DemandKWh += o.DemandKWh
	t.PVAvailableKWh += o.PVAvailableKWh
	t.PVToLoadKWh += o.PVToLoadKWh
	t.CurtailedKWh += o.CurtailedKWh
	t.ChargeKWh += o.ChargeKWh
	t.DischargeKWh += o.DischargeKWh
	t.BackupKWh += o.BackupKWh
	t.DumpKWh += o.DumpKWh
	t.FuelLitres += o.FuelLitres
	t.UnmetKWh += o.UnmetKWh
	if o.BackupKWh > 0 {
		t.BackupRunHours += stepHours
	}
	if o.BackupKW > t.PeakBackupKW {
		t.PeakBackupKW = o.BackupKW
	}
	if over := o.BackupKW - o.BackupCapacityKW; over > t.MaxBackupOverloadKW {
		t.MaxBackupOverloadKW = over
	}
	if o.SOCEnd < t.MinSOC {
		t.MinSOC = o.SOCEnd
	}
	if o.SOCEnd > t.MaxSOC {
		t.MaxSOC = o.SOCEnd
	}
}

// ServedKWh is demand actually supplied.
func (t Totals) ServedKWh() float64 {
	return t.DemandKWh - t.UnmetKWh
}

type Result struct {
	Decision     model.Decision
	StepHours    float64
	Ledger       []LedgerRow
	Totals       Totals
	InitialSOC   float64
	FinalSOC     float64
	HorizonHours float64
}
