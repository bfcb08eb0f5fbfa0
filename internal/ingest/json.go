package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"microgrid-sizer/internal/model"
)

// jsonRecord mirrors model.Record with pointer fields so that a missing
// index or backup flag can take its default and a missing measurement
// is reported instead of read as zero.
type jsonRecord struct {
	Index           *int      `json:"index"`
	Timestamp       time.Time `json:"timestamp"`
	DemandKW        *float64  `json:"demand_kw"`
	IrradianceWm2   *float64  `json:"irradiance_wm2"`
	TemperatureC    *float64  `json:"temperature_c"`
	BackupAvailable *bool     `json:"backup_available"`
}

// DecodeJSON reads a JSON array of records.
func DecodeJSON(r io.Reader) (model.Series, error) {
	var raw []jsonRecord
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding JSON time series: %w", err)
	}

	series := make(model.Series, 0, len(raw))
	for i, jr := range raw {
		for _, f := range []struct {
			name string
			v    *float64
		}{
			{ColDemand, jr.DemandKW},
			{ColIrradiance, jr.IrradianceWm2},
			{ColTemperature, jr.TemperatureC},
		} {
			if f.v == nil {
				return nil, fmt.Errorf("record %d: missing %s", i, f.name)
			}
		}
		rec := model.Record{
			Index:           i,
			Timestamp:       jr.Timestamp,
			DemandKW:        *jr.DemandKW,
			IrradianceWm2:   *jr.IrradianceWm2,
			TemperatureC:    *jr.TemperatureC,
			BackupAvailable: true,
		}
		if jr.Index != nil {
			rec.Index = *jr.Index
		}
		if jr.BackupAvailable != nil {
			rec.BackupAvailable = *jr.BackupAvailable
		}
		series = append(series, rec)
	}
	return series, nil
}
