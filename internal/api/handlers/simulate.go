package handlers

import (
	"net/http"

	"microgrid-sizer/internal/analysis"
	"microgrid-sizer/internal/api/models"
	"microgrid-sizer/internal/report"
	"microgrid-sizer/internal/sizing"

	"github.com/gin-gonic/gin"
)

// SimulateHandler handles single-design requests
type SimulateHandler struct {
	presets *PresetHandler
}

// NewSimulateHandler creates a new simulate handler
func NewSimulateHandler(presets *PresetHandler) *SimulateHandler {
	return &SimulateHandler{presets: presets}
}

// RunSimulation handles POST /api/v1/simulate
func (h *SimulateHandler) RunSimulation(c *gin.Context) {
	req := models.SimulateRequest{Constraints: defaultConstraints()}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalid("INVALID_REQUEST", err))
		return
	}

	sys, err := h.presets.Resolve(req.SystemInput)
	if err != nil {
		writeError(c, err)
		return
	}
	series, err := decodeSeries(req.Series)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := req.Decision.Validate(sys.Storage); err != nil {
		writeError(c, invalid("INVALID_DECISION", err))
		return
	}
	p, err := newProblem(series, sys, pointBounds(req.Decision), constraintsOr(req.Constraints))
	if err != nil {
		writeError(c, err)
		return
	}

	ev, err := p.Evaluate(req.Decision)
	if err != nil {
		writeError(c, invalid("INVALID_DECISION", err))
		return
	}

	resp := models.SimulateResponse{Status: "completed", Report: report.Build(sys, ev, nil)}
	if req.Options.IncludeChart {
		resp.Chart = report.Chart(ev.Result)
	}
	c.JSON(http.StatusOK, resp)
}

// CompareDesigns handles POST /api/v1/simulate/compare
func (h *SimulateHandler) CompareDesigns(c *gin.Context) {
	req := models.CompareRequest{Constraints: defaultConstraints()}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalid("INVALID_REQUEST", err))
		return
	}

	sys, err := h.presets.Resolve(req.SystemInput)
	if err != nil {
		writeError(c, err)
		return
	}
	series, err := decodeSeries(req.Series)
	if err != nil {
		writeError(c, err)
		return
	}

	names := map[*sizing.Evaluation]string{}
	evals := make([]*sizing.Evaluation, 0, len(req.Variations))
	for _, v := range req.Variations {
		if err := v.Decision.Validate(sys.Storage); err != nil {
			writeError(c, invalid("INVALID_DECISION", err))
			return
		}
		p, err := newProblem(series, sys, pointBounds(v.Decision), constraintsOr(req.Constraints))
		if err != nil {
			writeError(c, err)
			return
		}
		ev, err := p.Evaluate(v.Decision)
		if err != nil {
			writeError(c, invalid("INVALID_DECISION", err))
			return
		}
		names[ev] = v.Name
		evals = append(evals, ev)
	}

	comparison := make([]models.ComparisonResult, 0, len(evals))
	for _, r := range analysis.RankDesigns(evals) {
		comparison = append(comparison, models.ComparisonResult{
			Rank:      r.Rank,
			Name:      names[r.Evaluation],
			Penalized: r.Penalized,
			Report:    report.Build(sys, r.Evaluation, nil),
		})
	}
	c.JSON(http.StatusOK, models.CompareResponse{Comparison: comparison})
}

// ProfileSeries handles POST /api/v1/profile
func (h *SimulateHandler) ProfileSeries(c *gin.Context) {
	var req models.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalid("INVALID_REQUEST", err))
		return
	}
	sys, err := h.presets.Resolve(req.SystemInput)
	if err != nil {
		writeError(c, err)
		return
	}
	series, err := decodeSeries(req.Series)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProfileResponse{Profile: analysis.ComputeProfile(series, sys)})
}
