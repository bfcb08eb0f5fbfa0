package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Record is one timestep of external drivers.
// Powers are averages over the step.
type Record struct {
	Index         int       `json:"index"`
	Timestamp     time.Time `json:"timestamp,omitempty"`
	DemandKW      float64   `json:"demand_kw"`
	IrradianceWm2 float64   `json:"irradiance_wm2"`
	TemperatureC  float64   `json:"temperature_c"`
	// BackupAvailable is false when the backup source cannot run during
	// this step (fuel outage, grid disconnect, maintenance).
	BackupAvailable bool `json:"backup_available"`
}

// Series is the ordered, immutable time-series input.
type Series []Record

// Validate fails fast on shape problems before any simulation starts.
func (s Series) Validate() error {
	if len(s) == 0 {
		return errors.New("time series is empty")
	}
	for i, r := range s {
		if r.Index != s[0].Index+i {
			return fmt.Errorf("record %d: index %d breaks contiguous ordering (expected %d)", i, r.Index, s[0].Index+i)
		}
		for _, c := range []struct {
			name string
			v    float64
		}{
			{"demand_kw", r.DemandKW},
			{"irradiance_wm2", r.IrradianceWm2},
			{"temperature_c", r.TemperatureC},
		} {
			if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
				return fmt.Errorf("record %d: %s must be a finite number, got %g", i, c.name, c.v)
			}
		}
		if r.DemandKW < 0 {
			return fmt.Errorf("record %d: demand_kw must be >= 0, got %g", i, r.DemandKW)
		}
		if r.IrradianceWm2 < 0 {
			return fmt.Errorf("record %d: irradiance_wm2 must be >= 0, got %g", i, r.IrradianceWm2)
		}
	}
	return nil
}

// ExpectSteps reports a mismatch between the configured horizon and the
// loaded data. n <= 0 disables the check.
func (s Series) ExpectSteps(n int) error {
	if n > 0 && len(s) != n {
		return fmt.Errorf("time series has %d steps, config expects %d", len(s), n)
	}
	return nil
}

func (s Series) HorizonHours(stepHours float64) float64 {
	return float64(len(s)) * stepHours
}

func (s Series) DemandKWh(stepHours float64) float64 {
	total := 0.0
	for _, r := range s {
		total += r.DemandKW * stepHours
	}
	return total
}

// Demand returns the demand column, for statistics.
func (s Series) Demand() []float64 {
	out := make([]float64, len(s))
	for i, r := range s {
		out[i] = r.DemandKW
	}
	return out
}

// Irradiance returns the irradiance column, for statistics.
func (s Series) Irradiance() []float64 {
	out := make([]float64, len(s))
	for i, r := range s {
		out[i] = r.IrradianceWm2
	}
	return out
}
