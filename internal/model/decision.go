package model

import "fmt"

// Decision is one candidate sizing: equipment counts plus the storage
// state the run starts from.
type Decision struct {
	PVModules    int     `yaml:"pv_modules" json:"pv_modules"`
	StorageUnits int     `yaml:"storage_units" json:"storage_units"`
	BackupUnits  int     `yaml:"backup_units" json:"backup_units"`
	InitialSOC   float64 `yaml:"initial_soc" json:"initial_soc"`
}

// Validate checks the decision against the storage window of p.
func (d Decision) Validate(p StorageParams) error {
	if d.PVModules < 0 || d.StorageUnits < 0 || d.BackupUnits < 0 {
		return fmt.Errorf("equipment counts must be >= 0 (pv=%d storage=%d backup=%d)", d.PVModules, d.StorageUnits, d.BackupUnits)
	}
	if d.InitialSOC < p.MinSOC || d.InitialSOC > p.MaxSOC {
		return fmt.Errorf("initial_soc %.4f must be within [%.4f, %.4f]", d.InitialSOC, p.MinSOC, p.MaxSOC)
	}
	return nil
}

func (d Decision) String() string {
	return fmt.Sprintf("pv=%d storage=%d backup=%d soc0=%.3f", d.PVModules, d.StorageUnits, d.BackupUnits, d.InitialSOC)
}

// Fleet is the sized plant a decision implies.
type Fleet struct {
	PVModules int
	Storage   Bank
	BackupKW  float64
}

func NewFleet(d Decision, p SystemParams) Fleet {
	return Fleet{
		PVModules: d.PVModules,
		Storage:   Bank{Params: p.Storage, Units: d.StorageUnits},
		BackupKW:  float64(d.BackupUnits) * p.Backup.UnitKW,
	}
}
