// Package ingest loads the tabular time-series input from CSV or JSON.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"microgrid-sizer/internal/model"
)

// LoadFile picks the decoder from the file extension and validates the
// result, so callers get one error for both syntax and shape problems.
func LoadFile(path string) (model.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var series model.Series
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		series, err = ParseCSV(f)
	case ".json":
		series, err = DecodeJSON(f)
	default:
		return nil, fmt.Errorf("time series %s: unsupported extension %q (want .csv or .json)", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("time series %s: %w", path, err)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("time series %s: %w", path, err)
	}
	return series, nil
}
