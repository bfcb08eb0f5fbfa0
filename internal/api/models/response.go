package models

import (
	"microgrid-sizer/internal/analysis"
	"microgrid-sizer/internal/report"
	"microgrid-sizer/internal/search"
)

// SimulateResponse represents the response from a simulation run
type SimulateResponse struct {
	Status string              `json:"status"`
	Report *report.Report      `json:"report"`
	Chart  []report.ChartPoint `json:"chart,omitempty"`
}

// CompareResponse ranks the requested variations by penalised cost
type CompareResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Rank      int            `json:"rank"`
	Name      string         `json:"name"`
	Penalized float64        `json:"penalized"`
	Report    *report.Report `json:"report"`
}

// SearchResponse represents a finished (or cancelled) sizing search
type SearchResponse struct {
	ID      string              `json:"id"`
	Status  string              `json:"status"` // "completed" or "stopped"
	Report  *report.Report      `json:"report"`
	History []search.Generation `json:"history,omitempty"`
	Chart   []report.ChartPoint `json:"chart,omitempty"`
}

// ProfileResponse wraps the input profile
type ProfileResponse struct {
	Profile analysis.Profile `json:"profile"`
}

// PresetInfo represents information about a system preset
type PresetInfo struct {
	ID    string      `json:"id"`
	File  string      `json:"file"`
	Specs PresetSpecs `json:"specs"`
}

// PresetSpecs contains the headline numbers of a preset
type PresetSpecs struct {
	StepHours      float64 `json:"step_hours"`
	PVModuleKW     float64 `json:"pv_module_kw"`
	StorageUnitKWh float64 `json:"storage_unit_kwh"`
	BackupUnitKW   float64 `json:"backup_unit_kw"`
	Priority       string  `json:"priority,omitempty"`
}

// PolicyInfo describes a dispatch priority
type PolicyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// OptimizerInfo describes a search strategy and its parameters
type OptimizerInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes an optimizer parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "list"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// StreamEnvelope wraps every websocket message with a type discriminator.
type StreamEnvelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Stream message types
const (
	// Client -> Server
	StreamSearchStart = "search:start"

	// Server -> Client
	StreamSearchProgress = "search:progress"
	StreamSearchDone     = "search:done"
	StreamError          = "error"
)
