package config

import "microgrid-sizer/internal/model"

// MergeSystem overlays non-zero fields from override onto base.
// This is used when loading a system file and then applying overrides
// from the config or an API request. A field cannot be overridden back
// to zero this way; put the zero in the base file instead.
func MergeSystem(base, override model.SystemParams) model.SystemParams {
	out := base
	if override.StepHours != 0 {
		out.StepHours = override.StepHours
	}
	out.PV = mergePV(base.PV, override.PV)
	out.Storage = mergeStorage(base.Storage, override.Storage)
	out.Backup = mergeBackup(base.Backup, override.Backup)
	out.Economics = mergeEconomics(base.Economics, override.Economics)
	out.Dispatch = mergeDispatch(base.Dispatch, override.Dispatch)
	return out
}

func mergePV(out, o model.PVParams) model.PVParams {
	if o.ModuleKW != 0 {
		out.ModuleKW = o.ModuleKW
	}
	if o.Derate != 0 {
		out.Derate = o.Derate
	}
	if o.TempCoeffPerC != 0 {
		out.TempCoeffPerC = o.TempCoeffPerC
	}
	if o.NOCT != 0 {
		out.NOCT = o.NOCT
	}
	return out
}

func mergeStorage(out, o model.StorageParams) model.StorageParams {
	if o.UnitKWh != 0 {
		out.UnitKWh = o.UnitKWh
	}
	if o.UnitPowerKW != 0 {
		out.UnitPowerKW = o.UnitPowerKW
	}
	if o.ChargeEfficiency != 0 {
		out.ChargeEfficiency = o.ChargeEfficiency
	}
	if o.DischargeEfficiency != 0 {
		out.DischargeEfficiency = o.DischargeEfficiency
	}
	if o.MinSOC != 0 {
		out.MinSOC = o.MinSOC
	}
	if o.MaxSOC != 0 {
		out.MaxSOC = o.MaxSOC
	}
	return out
}

func mergeBackup(out, o model.BackupParams) model.BackupParams {
	if o.UnitKW != 0 {
		out.UnitKW = o.UnitKW
	}
	if o.FuelIdleLPerKWh != 0 {
		out.FuelIdleLPerKWh = o.FuelIdleLPerKWh
	}
	if o.FuelLoadLPerKWh != 0 {
		out.FuelLoadLPerKWh = o.FuelLoadLPerKWh
	}
	if o.MinLoadFraction != 0 {
		out.MinLoadFraction = o.MinLoadFraction
	}
	return out
}

func mergeEconomics(out, o model.EconomicsParams) model.EconomicsParams {
	overlay := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	overlay(&out.PVCapexPerModule, o.PVCapexPerModule)
	overlay(&out.StorageCapexPerUnit, o.StorageCapexPerUnit)
	overlay(&out.BackupCapexPerUnit, o.BackupCapexPerUnit)
	overlay(&out.PVOMPerModuleYear, o.PVOMPerModuleYear)
	overlay(&out.StorageOMPerUnitYear, o.StorageOMPerUnitYear)
	overlay(&out.BackupOMPerUnitYear, o.BackupOMPerUnitYear)
	overlay(&out.BackupOMPerKWh, o.BackupOMPerKWh)
	overlay(&out.FuelPricePerLitre, o.FuelPricePerLitre)
	overlay(&out.UnmetPenaltyPerKWh, o.UnmetPenaltyPerKWh)
	overlay(&out.DiscountRate, o.DiscountRate)
	overlay(&out.LifetimeYears, o.LifetimeYears)
	return out
}

func mergeDispatch(out, o model.DispatchParams) model.DispatchParams {
	if o.Priority != "" {
		out.Priority = o.Priority
	}
	if o.BackupQuietStart != "" {
		out.BackupQuietStart = o.BackupQuietStart
	}
	if o.BackupQuietEnd != "" {
		out.BackupQuietEnd = o.BackupQuietEnd
	}
	return out
}
