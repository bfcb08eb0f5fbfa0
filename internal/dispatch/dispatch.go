package dispatch

import (
	"fmt"
	"math"

	"microgrid-sizer/internal/model"
)

// PolicyInfo describes a deficit priority for listings.
type PolicyInfo struct {
	Priority    model.Priority
	Description string
}

// Policies lists the supported deficit priorities.
func Policies() []PolicyInfo {
	return []PolicyInfo{
		{
			Priority:    model.PriorityStorageFirst,
			Description: "Renewables serve load first, storage covers the deficit next, backup runs only for what storage cannot deliver.",
		},
		{
			Priority:    model.PriorityBackupFirst,
			Description: "Renewables serve load first, backup covers the deficit up to its rating, storage discharges only for the remainder.",
		},
	}
}

// Dispatcher evaluates the fixed-priority allocation for one timestep.
// It holds only the immutable parameter set and is safe for concurrent use.
type Dispatcher struct {
	sys   model.SystemParams
	quiet Window
}

func New(sys model.SystemParams) (*Dispatcher, error) {
	w, err := ParseWindow(sys.Dispatch.BackupQuietStart, sys.Dispatch.BackupQuietEnd)
	if err != nil {
		return nil, fmt.Errorf("backup quiet hours: %w", err)
	}
	return &Dispatcher{sys: sys, quiet: w}, nil
}

func (d *Dispatcher) Params() model.SystemParams { return d.sys }

// Step allocates one timestep and returns the outcome and the next SOC.
//
// Surplus renewable energy charges storage up to MaxSOC, the rest is
// curtailed. A deficit is covered by storage and backup in policy order;
// whatever neither can deliver is recorded as unmet. Step never fails.
func (d *Dispatcher) Step(soc float64, rec model.Record, fleet model.Fleet) (model.Outcome, float64) {
	dtH := d.sys.StepHours
	bank := fleet.Storage

	out := model.Outcome{
		Index:     rec.Index,
		DemandKWh: rec.DemandKW * dtH,
		SOCStart:  soc,
	}
	out.PVAvailableKWh = float64(fleet.PVModules) * d.sys.PV.ModuleOutputKW(rec.IrradianceWm2, rec.TemperatureC) * dtH
	out.PVToLoadKWh = math.Min(out.PVAvailableKWh, out.DemandKWh)
	out.Mode = model.ModeFromNet(out.PVAvailableKWh - out.DemandKWh)

	surplus := out.PVAvailableKWh - out.PVToLoadKWh
	deficit := out.DemandKWh - out.PVToLoadKWh

	if surplus > 0 {
		out.ChargeKWh = math.Min(surplus, bank.MaxChargeInputKWh(soc, dtH))
		soc = bank.Charge(soc, out.ChargeKWh)
		out.CurtailedKWh = surplus - out.ChargeKWh
	}

	out.BackupCapacityKW = d.backupCapacityKW(rec, fleet)

	if deficit > 0 {
		switch d.sys.Dispatch.Priority {
		case model.PriorityBackupFirst:
			deficit = d.runBackup(&out, deficit)
			deficit, soc = discharge(&out, bank, soc, deficit, dtH)
		default:
			before := soc
			deficit, soc = discharge(&out, bank, soc, deficit, dtH)
			deficit, soc = d.holdBackForMinLoad(&out, bank, before, soc, deficit)
			deficit = d.runBackup(&out, deficit)
		}
		out.UnmetKWh = deficit
	}

	// Minimum-load surplus from the backup goes into storage when this
	// step did not discharge, otherwise it is dumped.
	if out.DumpKWh > 0 && out.DischargeKWh == 0 {
		absorb := math.Min(out.DumpKWh, bank.MaxChargeInputKWh(soc, dtH))
		if absorb > 0 {
			soc = bank.Charge(soc, absorb)
			out.ChargeKWh += absorb
			out.DumpKWh -= absorb
		}
	}

	out.SOCEnd = soc
	return out, soc
}

// backupCapacityKW is the fleet rating usable this step.
func (d *Dispatcher) backupCapacityKW(rec model.Record, fleet model.Fleet) float64 {
	if fleet.BackupKW <= 0 || !rec.BackupAvailable {
		return 0
	}
	if !d.quiet.Empty() && d.quiet.Contains(minuteOfDay(rec.Timestamp, rec.Index, d.sys.StepHours)) {
		return 0
	}
	return fleet.BackupKW
}

// runBackup covers up to deficitKWh with backup generation, starting only
// as many units as the deficit needs, and returns the remaining deficit.
func (d *Dispatcher) runBackup(out *model.Outcome, deficitKWh float64) float64 {
	dtH := d.sys.StepHours
	capKW := out.BackupCapacityKW
	if capKW <= 0 || deficitKWh <= 0 {
		return deficitKWh
	}
	needKW := math.Min(deficitKWh/dtH, capKW)
	unitKW := d.sys.Backup.UnitKW
	runningKW := math.Min(capKW, math.Ceil(needKW/unitKW)*unitKW)

	outputKW := needKW
	if floor := d.sys.Backup.MinLoadFraction * runningKW; outputKW < floor {
		outputKW = floor
	}

	served := needKW * dtH
	out.BackupKWh = outputKW * dtH
	out.BackupKW = outputKW
	out.DumpKWh = out.BackupKWh - served
	out.FuelLitres = d.sys.Backup.FuelLitres(runningKW, outputKW, dtH)
	return deficitKWh - served
}

// holdBackForMinLoad returns discharge to storage when the residual
// deficit would start a generator whose minimum load exceeds it. The
// generator then serves up to its floor instead of dumping while storage
// drains. socBefore is the SOC before discharge.
func (d *Dispatcher) holdBackForMinLoad(out *model.Outcome, bank model.Bank, socBefore, soc, deficitKWh float64) (float64, float64) {
	if deficitKWh <= 0 || out.DischargeKWh <= 0 || out.BackupCapacityKW <= 0 {
		return deficitKWh, soc
	}
	floorKWh := d.minLoadKWh(out.BackupCapacityKW, deficitKWh)
	if floorKWh <= deficitKWh {
		return deficitKWh, soc
	}
	giveBack := math.Min(out.DischargeKWh, floorKWh-deficitKWh)
	out.DischargeKWh -= giveBack
	if out.DischargeKWh <= 0 {
		out.DischargeKWh = 0
		return deficitKWh + giveBack, socBefore
	}
	return deficitKWh + giveBack, bank.Discharge(socBefore, out.DischargeKWh)
}

// minLoadKWh is the least energy the units started for deficitKWh must
// produce this step.
func (d *Dispatcher) minLoadKWh(capKW, deficitKWh float64) float64 {
	dtH := d.sys.StepHours
	needKW := math.Min(deficitKWh/dtH, capKW)
	unitKW := d.sys.Backup.UnitKW
	runningKW := math.Min(capKW, math.Ceil(needKW/unitKW)*unitKW)
	return d.sys.Backup.MinLoadFraction * runningKW * dtH
}

func discharge(out *model.Outcome, bank model.Bank, soc, deficitKWh, dtH float64) (float64, float64) {
	if deficitKWh <= 0 {
		return deficitKWh, soc
	}
	delivered := math.Min(deficitKWh, bank.MaxDischargeKWh(soc, dtH))
	if delivered <= 0 {
		return deficitKWh, soc
	}
	out.DischargeKWh = delivered
	return deficitKWh - delivered, bank.Discharge(soc, delivered)
}
