package models

import (
	"encoding/json"

	"microgrid-sizer/internal/model"
	"microgrid-sizer/internal/search"
	"microgrid-sizer/internal/sizing"
)

// SeriesInput carries the time series inline, either as a JSON array of
// records or as CSV text with the usual header.
type SeriesInput struct {
	Records json.RawMessage `json:"records,omitempty"`
	CSV     string          `json:"csv,omitempty"`
}

// SystemInput selects a preset and/or inline parameters. Non-zero inline
// fields override the preset.
type SystemInput struct {
	Preset string             `json:"preset,omitempty"`
	System model.SystemParams `json:"system,omitempty"`
}

// SimulateRequest represents the request body for one simulation run
type SimulateRequest struct {
	SystemInput
	Series      SeriesInput         `json:"series"`
	Decision    model.Decision      `json:"decision"`
	Constraints *sizing.Constraints `json:"constraints,omitempty"`
	Options     SimulateOptions     `json:"options,omitempty"`
}

type SimulateOptions struct {
	IncludeChart bool `json:"include_chart,omitempty"` // default: false
}

// CompareRequest simulates several decisions on the same inputs
type CompareRequest struct {
	SystemInput
	Series      SeriesInput         `json:"series"`
	Constraints *sizing.Constraints `json:"constraints,omitempty"`
	Variations  []DesignVariation   `json:"variations" binding:"required,min=1"`
}

// DesignVariation is one named decision to compare
type DesignVariation struct {
	Name     string         `json:"name" binding:"required"`
	Decision model.Decision `json:"decision"`
}

// SearchRequest represents the request body for a sizing search
type SearchRequest struct {
	SystemInput
	Series      SeriesInput         `json:"series"`
	Optimizer   string              `json:"optimizer,omitempty"` // "genetic" (default) or "grid"
	Bounds      sizing.Bounds       `json:"bounds"`
	Genetic     *search.Genetic     `json:"genetic,omitempty"`
	Grid        *search.Grid        `json:"grid,omitempty"`
	Constraints *sizing.Constraints `json:"constraints,omitempty"`
	Options     SimulateOptions     `json:"options,omitempty"`
}

// ProfileRequest asks for the input profile of a series
type ProfileRequest struct {
	SystemInput
	Series SeriesInput `json:"series"`
}
