package model

// Mode is a human-friendly summary of a timestep's energy position.
// Keep these values stable; they are intended for CSV output.
type Mode string

const (
	ModeSurplus  Mode = "SURPLUS"
	ModeBalanced Mode = "BALANCED"
	ModeDeficit  Mode = "DEFICIT"
)

// ModeFromNet classifies renewable minus demand energy for a step.
func ModeFromNet(netKWh float64) Mode {
	switch {
	case netKWh > 0:
		return ModeSurplus
	case netKWh < 0:
		return ModeDeficit
	default:
		return ModeBalanced
	}
}

// Outcome is what happened in one timestep. Energies are kWh over the
// step. Bus balance, which holds exactly for every outcome:
//
//	PVAvailableKWh + DischargeKWh + BackupKWh + UnmetKWh
//	  = DemandKWh + ChargeKWh + CurtailedKWh + DumpKWh
type Outcome struct {
	Index int
	Mode  Mode

	DemandKWh      float64
	PVAvailableKWh float64
	PVToLoadKWh    float64
	CurtailedKWh   float64

	// ChargeKWh is energy taken from the bus into storage (before losses).
	ChargeKWh float64
	// DischargeKWh is energy delivered from storage to the bus (after losses).
	DischargeKWh float64

	BackupKWh float64
	// BackupKW is the average backup output; BackupCapacityKW is what the
	// fleet could have produced this step (0 when unavailable).
	BackupKW         float64
	BackupCapacityKW float64
	FuelLitres       float64
	// DumpKWh is backup energy forced out by the minimum-load rule that
	// neither load nor storage could absorb.
	DumpKWh float64

	UnmetKWh float64

	SOCStart float64
	SOCEnd   float64
}

// Inflow is everything entering the bus during the step.
func (o Outcome) Inflow() float64 {
	return o.PVAvailableKWh + o.DischargeKWh + o.BackupKWh + o.UnmetKWh
}

// Outflow is everything leaving the bus during the step.
func (o Outcome) Outflow() float64 {
	return o.DemandKWh + o.ChargeKWh + o.CurtailedKWh + o.DumpKWh
}
