package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"microgrid-sizer/internal/api/models"
	"microgrid-sizer/internal/ingest"
	"microgrid-sizer/internal/model"
	"microgrid-sizer/internal/sizing"

	"github.com/gin-gonic/gin"
)

// requestError is an error with the status and code it should be
// reported under.
type requestError struct {
	status int
	code   string
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func invalid(code string, err error) error {
	return &requestError{status: http.StatusBadRequest, code: code, err: err}
}

func detailOf(err error) (int, models.ErrorDetail) {
	var re *requestError
	if errors.As(err, &re) {
		return re.status, models.ErrorDetail{Code: re.code, Message: re.Error()}
	}
	return http.StatusInternalServerError, models.ErrorDetail{Code: "INTERNAL_ERROR", Message: err.Error()}
}

func writeError(c *gin.Context, err error) {
	status, detail := detailOf(err)
	c.JSON(status, models.ErrorResponse{Error: detail})
}

func decodeSeries(in models.SeriesInput) (model.Series, error) {
	return decodeSeriesCached(GetSeriesCache(), in)
}

func decodeSeriesCached(cache *SeriesCache, in models.SeriesInput) (model.Series, error) {
	hasRecords, hasCSV := len(in.Records) > 0, strings.TrimSpace(in.CSV) != ""
	switch {
	case hasRecords && hasCSV:
		return nil, invalid("INVALID_SERIES", errors.New("series: set either records or csv, not both"))
	case !hasRecords && !hasCSV:
		return nil, invalid("INVALID_SERIES", errors.New("series: records or csv is required"))
	}

	key := seriesKey(in)
	if cached, ok := cache.Get(key); ok {
		return cached, nil
	}
	var (
		series model.Series
		err    error
	)
	if hasRecords {
		series, err = ingest.DecodeJSON(bytes.NewReader(in.Records))
	} else {
		series, err = ingest.ParseCSV(strings.NewReader(in.CSV))
	}
	if err != nil {
		return nil, invalid("INVALID_SERIES", err)
	}
	if err := series.Validate(); err != nil {
		return nil, invalid("INVALID_SERIES", err)
	}
	cache.Set(key, series)
	return series, nil
}

// defaultConstraints pre-fills a request so that JSON decoding only
// overrides the keys the client sent.
func defaultConstraints() *sizing.Constraints {
	c := sizing.DefaultConstraints()
	return &c
}

func constraintsOr(c *sizing.Constraints) sizing.Constraints {
	if c == nil {
		return sizing.DefaultConstraints()
	}
	return *c
}

// pointBounds pins the search box to a single decision so a plain
// simulation can reuse the sizing problem.
func pointBounds(d model.Decision) sizing.Bounds {
	pin := func(n int) sizing.Range { return sizing.Range{Min: float64(n), Max: float64(n)} }
	return sizing.Bounds{
		PVModules:    pin(d.PVModules),
		StorageUnits: pin(d.StorageUnits),
		BackupUnits:  pin(d.BackupUnits),
		InitialSOC:   sizing.Range{Min: d.InitialSOC, Max: d.InitialSOC},
	}
}

func newProblem(series model.Series, sys model.SystemParams, b sizing.Bounds, c sizing.Constraints) (*sizing.Problem, error) {
	p, err := sizing.NewProblem(series, sys, b, c)
	if err != nil {
		return nil, invalid("INVALID_CONFIG", fmt.Errorf("building problem: %w", err))
	}
	return p, nil
}
