package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"microgrid-sizer/internal/model"
)

// Column names accepted in the CSV header. The first column is either
// "index" or "timestamp"; the rest may appear in any order.
const (
	ColIndex           = "index"
	ColTimestamp       = "timestamp"
	ColDemand          = "demand_kw"
	ColIrradiance      = "irradiance_wm2"
	ColTemperature     = "temperature_c"
	ColBackupAvailable = "backup_available"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

type columns struct {
	index, timestamp, demand, irradiance, temperature, backup int
}

// ParseCSV reads a time series.
//
// Expected format:
//
//	index,demand_kw,irradiance_wm2,temperature_c,backup_available
//	0,12.5,0,18.2,true
//
// Every row must carry as many fields as the header. Unlike sensor
// exports, a bad row is a configuration error, not something to skip.
func ParseCSV(r io.Reader) (model.Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("reading CSV header: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	cols, err := parseHeader(header)
	if err != nil {
		return nil, err
	}
	cr.FieldsPerRecord = len(header)

	var series model.Series
	lineNum := 1 // header was line 1
	var prevTS time.Time

	for {
		lineNum++
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}

		rec, err := parseRow(fields, cols, len(series), lineNum)
		if err != nil {
			return nil, err
		}
		if !rec.Timestamp.IsZero() {
			if !prevTS.IsZero() && !rec.Timestamp.After(prevTS) {
				return nil, fmt.Errorf("line %d: timestamp %s is not after %s", lineNum, rec.Timestamp.Format(time.RFC3339), prevTS.Format(time.RFC3339))
			}
			prevTS = rec.Timestamp
		}
		series = append(series, rec)
	}

	if len(series) == 0 {
		return nil, errors.New("CSV has a header but no data rows")
	}
	return series, nil
}

func parseHeader(header []string) (columns, error) {
	cols := columns{index: -1, timestamp: -1, demand: -1, irradiance: -1, temperature: -1, backup: -1}
	if len(header) < 4 {
		return cols, fmt.Errorf("expected at least 4 columns, got %d", len(header))
	}

	seen := map[string]bool{}
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if seen[name] {
			return cols, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true

		switch name {
		case ColIndex:
			cols.index = i
		case ColTimestamp:
			cols.timestamp = i
		case ColDemand:
			cols.demand = i
		case ColIrradiance:
			cols.irradiance = i
		case ColTemperature:
			cols.temperature = i
		case ColBackupAvailable:
			cols.backup = i
		default:
			return cols, fmt.Errorf("unknown column %d %q", i, raw)
		}
	}

	if cols.index != 0 && cols.timestamp != 0 {
		return cols, fmt.Errorf("expected column 0 to be %q or %q, got %q", ColIndex, ColTimestamp, header[0])
	}
	required := []struct {
		name string
		at   int
	}{{ColDemand, cols.demand}, {ColIrradiance, cols.irradiance}, {ColTemperature, cols.temperature}}
	for _, c := range required {
		if c.at < 0 {
			return cols, fmt.Errorf("missing required column %q", c.name)
		}
	}
	return cols, nil
}

func parseRow(fields []string, cols columns, pos, lineNum int) (model.Record, error) {
	rec := model.Record{Index: pos, BackupAvailable: true}

	if cols.index >= 0 {
		v, err := strconv.Atoi(strings.TrimSpace(fields[cols.index]))
		if err != nil {
			return rec, fmt.Errorf("line %d: parsing %s %q: %w", lineNum, ColIndex, fields[cols.index], err)
		}
		rec.Index = v
	}
	if cols.timestamp >= 0 {
		ts, err := parseTime(fields[cols.timestamp])
		if err != nil {
			return rec, fmt.Errorf("line %d: %w", lineNum, err)
		}
		rec.Timestamp = ts
	}

	var err error
	if rec.DemandKW, err = parseFloat(fields, cols.demand, ColDemand, lineNum); err != nil {
		return rec, err
	}
	if rec.IrradianceWm2, err = parseFloat(fields, cols.irradiance, ColIrradiance, lineNum); err != nil {
		return rec, err
	}
	if rec.TemperatureC, err = parseFloat(fields, cols.temperature, ColTemperature, lineNum); err != nil {
		return rec, err
	}

	if cols.backup >= 0 {
		raw := strings.TrimSpace(fields[cols.backup])
		if raw != "" {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return rec, fmt.Errorf("line %d: parsing %s %q: %w", lineNum, ColBackupAvailable, raw, err)
			}
			rec.BackupAvailable = b
		}
	}
	return rec, nil
}

func parseFloat(fields []string, at int, name string, lineNum int) (float64, error) {
	raw := strings.TrimSpace(fields[at])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: parsing %s %q: %w", lineNum, name, raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("line %d: parsing %s %q: not a finite number", lineNum, name, raw)
	}
	return v, nil
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing %s %q: unsupported format", ColTimestamp, raw)
}
