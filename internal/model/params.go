package model

import (
	"errors"
	"fmt"
	"math"
)

// PVParams describes one PV module. ModuleKW is the rating at standard
// test conditions (1000 W/m2, 25 C cell temperature).
type PVParams struct {
	ModuleKW      float64 `yaml:"module_kw" json:"module_kw"`
	Derate        float64 `yaml:"derate" json:"derate"`
	TempCoeffPerC float64 `yaml:"temp_coeff_per_c" json:"temp_coeff_per_c"`
	NOCT          float64 `yaml:"noct_c" json:"noct_c"`
}

func (p PVParams) Validate() error {
	if p.ModuleKW <= 0 {
		return errors.New("pv.module_kw must be > 0")
	}
	if p.Derate <= 0 || p.Derate > 1 {
		return errors.New("pv.derate must be in (0, 1]")
	}
	if p.TempCoeffPerC > 0 {
		return errors.New("pv.temp_coeff_per_c must be <= 0")
	}
	return nil
}

// ModuleOutputKW returns one module's output for the given plane-of-array
// irradiance (W/m2) and ambient temperature (C).
func (p PVParams) ModuleOutputKW(irradianceWm2, ambientC float64) float64 {
	if irradianceWm2 <= 0 {
		return 0
	}
	cellC := ambientC
	if p.NOCT > 0 {
		cellC = ambientC + (p.NOCT-20)/800*irradianceWm2
	}
	out := p.ModuleKW * p.Derate * (irradianceWm2 / 1000) * (1 + p.TempCoeffPerC*(cellC-25))
	return math.Max(0, out)
}

// BackupParams describes one dispatchable (diesel) generator unit.
// Fuel use follows the usual linear curve:
//
//	litres/h = FuelIdleLPerKWh*rated_kW + FuelLoadLPerKWh*output_kW
//
// and only while the unit is running.
type BackupParams struct {
	UnitKW          float64 `yaml:"unit_kw" json:"unit_kw"`
	FuelIdleLPerKWh float64 `yaml:"fuel_idle_l_per_kwh" json:"fuel_idle_l_per_kwh"`
	FuelLoadLPerKWh float64 `yaml:"fuel_load_l_per_kwh" json:"fuel_load_l_per_kwh"`
	// MinLoadFraction is the lowest output a running generator may hold,
	// as a fraction of the running rating.
	MinLoadFraction float64 `yaml:"min_load_fraction" json:"min_load_fraction"`
}

func (p BackupParams) Validate() error {
	if p.UnitKW < 0 {
		return errors.New("backup.unit_kw must be >= 0")
	}
	if p.FuelIdleLPerKWh < 0 || p.FuelLoadLPerKWh < 0 {
		return errors.New("backup fuel curve coefficients must be >= 0")
	}
	if p.MinLoadFraction < 0 || p.MinLoadFraction >= 1 {
		return errors.New("backup.min_load_fraction must be in [0, 1)")
	}
	return nil
}

// FuelLitres returns fuel burnt producing outputKW for dtH hours on a
// fleet rated ratedKW. A stopped fleet burns nothing.
func (p BackupParams) FuelLitres(ratedKW, outputKW, dtH float64) float64 {
	if outputKW <= 0 || ratedKW <= 0 {
		return 0
	}
	return (p.FuelIdleLPerKWh*ratedKW + p.FuelLoadLPerKWh*outputKW) * dtH
}

// EconomicsParams holds capital, operating and penalty prices.
// Currency is whatever the config author uses; all terms share it.
type EconomicsParams struct {
	PVCapexPerModule     float64 `yaml:"pv_capex_per_module" json:"pv_capex_per_module"`
	StorageCapexPerUnit  float64 `yaml:"storage_capex_per_unit" json:"storage_capex_per_unit"`
	BackupCapexPerUnit   float64 `yaml:"backup_capex_per_unit" json:"backup_capex_per_unit"`
	PVOMPerModuleYear    float64 `yaml:"pv_om_per_module_year" json:"pv_om_per_module_year"`
	StorageOMPerUnitYear float64 `yaml:"storage_om_per_unit_year" json:"storage_om_per_unit_year"`
	BackupOMPerUnitYear  float64 `yaml:"backup_om_per_unit_year" json:"backup_om_per_unit_year"`
	BackupOMPerKWh       float64 `yaml:"backup_om_per_kwh" json:"backup_om_per_kwh"`
	FuelPricePerLitre    float64 `yaml:"fuel_price_per_litre" json:"fuel_price_per_litre"`
	UnmetPenaltyPerKWh   float64 `yaml:"unmet_penalty_per_kwh" json:"unmet_penalty_per_kwh"`
	DiscountRate         float64 `yaml:"discount_rate" json:"discount_rate"`
	LifetimeYears        float64 `yaml:"lifetime_years" json:"lifetime_years"`
}

func (e EconomicsParams) Validate() error {
	prices := map[string]float64{
		"pv_capex_per_module":      e.PVCapexPerModule,
		"storage_capex_per_unit":   e.StorageCapexPerUnit,
		"backup_capex_per_unit":    e.BackupCapexPerUnit,
		"pv_om_per_module_year":    e.PVOMPerModuleYear,
		"storage_om_per_unit_year": e.StorageOMPerUnitYear,
		"backup_om_per_unit_year":  e.BackupOMPerUnitYear,
		"backup_om_per_kwh":        e.BackupOMPerKWh,
		"fuel_price_per_litre":     e.FuelPricePerLitre,
		"unmet_penalty_per_kwh":    e.UnmetPenaltyPerKWh,
	}
	for name, v := range prices {
		if v < 0 {
			return fmt.Errorf("economics.%s must be >= 0", name)
		}
	}
	if e.DiscountRate < 0 {
		return errors.New("economics.discount_rate must be >= 0")
	}
	if e.LifetimeYears <= 0 {
		return errors.New("economics.lifetime_years must be > 0")
	}
	return nil
}

// CapitalRecoveryFactor converts a present cost into an equal annual
// payment over LifetimeYears at DiscountRate.
func (e EconomicsParams) CapitalRecoveryFactor() float64 {
	n := e.LifetimeYears
	i := e.DiscountRate
	if i == 0 {
		return 1 / n
	}
	g := math.Pow(1+i, n)
	return i * g / (g - 1)
}

// Priority selects which source covers a deficit after renewables.
type Priority string

const (
	PriorityStorageFirst Priority = "storage_first"
	PriorityBackupFirst  Priority = "backup_first"
)

func (p Priority) Valid() bool {
	return p == PriorityStorageFirst || p == PriorityBackupFirst
}

// DispatchParams configures the per-timestep allocation policy.
type DispatchParams struct {
	Priority Priority `yaml:"priority" json:"priority"`
	// Optional daily window ("HH:MM") in which the backup source is not
	// allowed to run. Wraps midnight when start > end.
	BackupQuietStart string `yaml:"backup_quiet_start" json:"backup_quiet_start,omitempty"`
	BackupQuietEnd   string `yaml:"backup_quiet_end" json:"backup_quiet_end,omitempty"`
}

// SystemParams is the immutable parameter set shared by every run.
type SystemParams struct {
	StepHours float64         `yaml:"step_hours" json:"step_hours"`
	PV        PVParams        `yaml:"pv" json:"pv"`
	Storage   StorageParams   `yaml:"storage" json:"storage"`
	Backup    BackupParams    `yaml:"backup" json:"backup"`
	Economics EconomicsParams `yaml:"economics" json:"economics"`
	Dispatch  DispatchParams  `yaml:"dispatch" json:"dispatch"`
}

func (s SystemParams) Validate() error {
	if s.StepHours <= 0 {
		return errors.New("step_hours must be > 0")
	}
	if err := s.PV.Validate(); err != nil {
		return err
	}
	if err := s.Storage.Validate(); err != nil {
		return err
	}
	if err := s.Backup.Validate(); err != nil {
		return err
	}
	if err := s.Economics.Validate(); err != nil {
		return err
	}
	if !s.Dispatch.Priority.Valid() {
		return fmt.Errorf("dispatch.priority %q must be %q or %q", s.Dispatch.Priority, PriorityStorageFirst, PriorityBackupFirst)
	}
	if (s.Dispatch.BackupQuietStart == "") != (s.Dispatch.BackupQuietEnd == "") {
		return errors.New("dispatch.backup_quiet_start and backup_quiet_end must be set together")
	}
	return nil
}
