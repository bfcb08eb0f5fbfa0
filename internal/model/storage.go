package model

import (
	"errors"
	"math"
)

// StorageParams defines one battery unit and the bank's operating window.
// Units:
// - UnitKWh: kWh of nameplate energy per unit
// - UnitPowerKW: kW charge/discharge limit per unit (0 = no power limit)
// - Efficiencies: 0..1
// - SOC: fraction 0..1 of bank capacity
type StorageParams struct {
	UnitKWh             float64 `yaml:"unit_kwh" json:"unit_kwh"`
	UnitPowerKW         float64 `yaml:"unit_power_kw" json:"unit_power_kw"`
	ChargeEfficiency    float64 `yaml:"charge_efficiency" json:"charge_efficiency"`
	DischargeEfficiency float64 `yaml:"discharge_efficiency" json:"discharge_efficiency"`
	MinSOC              float64 `yaml:"min_soc" json:"min_soc"`
	MaxSOC              float64 `yaml:"max_soc" json:"max_soc"`
}

func (p StorageParams) Validate() error {
	if p.UnitKWh <= 0 {
		return errors.New("storage.unit_kwh must be > 0")
	}
	if p.UnitPowerKW < 0 {
		return errors.New("storage.unit_power_kw must be >= 0")
	}
	if p.ChargeEfficiency <= 0 || p.ChargeEfficiency > 1 {
		return errors.New("storage.charge_efficiency must be in (0, 1]")
	}
	if p.DischargeEfficiency <= 0 || p.DischargeEfficiency > 1 {
		return errors.New("storage.discharge_efficiency must be in (0, 1]")
	}
	if p.MinSOC < 0 || p.MinSOC > 1 || p.MaxSOC < 0 || p.MaxSOC > 1 || p.MinSOC > p.MaxSOC {
		return errors.New("storage.min_soc/max_soc must satisfy 0<=min_soc<=max_soc<=1")
	}
	return nil
}

// Bank is a sized storage installation: params plus a unit count.
// It carries no SOC; callers own the state and pass it in.
type Bank struct {
	Params StorageParams
	Units  int
}

func (b Bank) CapacityKWh() float64 {
	return float64(b.Units) * b.Params.UnitKWh
}

// PowerLimitKW returns the bank's charge/discharge power limit.
func (b Bank) PowerLimitKW() float64 {
	if b.Params.UnitPowerKW == 0 {
		return math.Inf(1)
	}
	return float64(b.Units) * b.Params.UnitPowerKW
}

// MaxChargeInputKWh is the most energy the bank can accept at its
// terminals over dtH hours, before the charge-efficiency loss.
func (b Bank) MaxChargeInputKWh(soc, dtH float64) float64 {
	capKWh := b.CapacityKWh()
	if capKWh <= 0 {
		return 0
	}
	// Max additional stored energy before hitting MaxSOC.
	storableKWh := (b.Params.MaxSOC - soc) * capKWh
	if storableKWh <= 0 {
		return 0
	}
	limitBySOC := storableKWh / b.Params.ChargeEfficiency
	limitByPower := b.PowerLimitKW() * dtH
	return math.Max(0, math.Min(limitBySOC, limitByPower))
}

// MaxDischargeKWh is the most energy the bank can deliver to the bus
// over dtH hours, after the discharge-efficiency loss.
func (b Bank) MaxDischargeKWh(soc, dtH float64) float64 {
	capKWh := b.CapacityKWh()
	if capKWh <= 0 {
		return 0
	}
	withdrawableKWh := (soc - b.Params.MinSOC) * capKWh
	if withdrawableKWh <= 0 {
		return 0
	}
	limitBySOC := withdrawableKWh * b.Params.DischargeEfficiency
	limitByPower := b.PowerLimitKW() * dtH
	return math.Max(0, math.Min(limitBySOC, limitByPower))
}

// Charge returns the SOC after absorbing inputKWh at the terminals.
func (b Bank) Charge(soc, inputKWh float64) float64 {
	capKWh := b.CapacityKWh()
	if capKWh <= 0 || inputKWh <= 0 {
		return soc
	}
	return b.clampSOC(soc + inputKWh*b.Params.ChargeEfficiency/capKWh)
}

// Discharge returns the SOC after delivering deliveredKWh to the bus.
func (b Bank) Discharge(soc, deliveredKWh float64) float64 {
	capKWh := b.CapacityKWh()
	if capKWh <= 0 || deliveredKWh <= 0 {
		return soc
	}
	return b.clampSOC(soc - deliveredKWh/b.Params.DischargeEfficiency/capKWh)
}

// clampSOC absorbs float drift at the window edges.
func (b Bank) clampSOC(soc float64) float64 {
	if soc < b.Params.MinSOC {
		return b.Params.MinSOC
	}
	if soc > b.Params.MaxSOC {
		return b.Params.MaxSOC
	}
	return soc
}
