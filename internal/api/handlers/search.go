package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"microgrid-sizer/internal/api/models"
	"microgrid-sizer/internal/report"
	"microgrid-sizer/internal/search"
	"microgrid-sizer/internal/sizing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// maxGridEvaluations caps grid searches requested over HTTP.
const maxGridEvaluations = 50000

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SearchHandler handles sizing searches
type SearchHandler struct {
	presets *PresetHandler
	store   *SearchStore
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(presets *PresetHandler, store *SearchStore) *SearchHandler {
	return &SearchHandler{presets: presets, store: store}
}

// newSearchRequest pre-fills defaults so that JSON decoding only
// overrides the keys the client sent.
func newSearchRequest() models.SearchRequest {
	g := search.DefaultGenetic()
	return models.SearchRequest{Genetic: &g, Constraints: defaultConstraints()}
}

// RunSearch handles POST /api/v1/search
func (h *SearchHandler) RunSearch(c *gin.Context) {
	req := newSearchRequest()
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalid("INVALID_REQUEST", err))
		return
	}

	resp, err := h.run(c.Request.Context(), req, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetSearch handles GET /api/v1/search/:id
func (h *SearchHandler) GetSearch(c *gin.Context) {
	id := c.Param("id")
	resp, ok := h.store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "SEARCH_NOT_FOUND",
				Message: fmt.Sprintf("no finished search with id %q", id),
			},
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StreamSearch handles GET /api/v1/search/stream. The client sends one
// search:start message; the server answers with search:progress per
// generation and a final search:done (or error). Closing the socket
// cancels the search.
func (h *SearchHandler) StreamSearch(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[SearchHandler] websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	var env struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := conn.ReadJSON(&env); err != nil {
		send(conn, models.StreamError, models.ErrorDetail{Code: "INVALID_MESSAGE", Message: err.Error()})
		return
	}
	if env.Type != models.StreamSearchStart {
		send(conn, models.StreamError, models.ErrorDetail{
			Code:    "INVALID_MESSAGE",
			Message: fmt.Sprintf("expected %q, got %q", models.StreamSearchStart, env.Type),
		})
		return
	}
	req := newSearchRequest()
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		send(conn, models.StreamError, models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()})
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		// Any read error, including a normal close, ends the search.
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	progress := func(g search.Generation) {
		send(conn, models.StreamSearchProgress, g)
	}
	resp, err := h.run(ctx, req, progress)
	if err != nil {
		_, detail := detailOf(err)
		send(conn, models.StreamError, detail)
		return
	}
	send(conn, models.StreamSearchDone, resp)
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func send(conn *websocket.Conn, msgType string, payload interface{}) {
	if err := conn.WriteJSON(models.StreamEnvelope{Type: msgType, Payload: payload}); err != nil {
		log.Printf("[SearchHandler] websocket write error: %v", err)
	}
}

func (h *SearchHandler) run(ctx context.Context, req models.SearchRequest, progress search.ProgressFunc) (*models.SearchResponse, error) {
	sys, err := h.presets.Resolve(req.SystemInput)
	if err != nil {
		return nil, err
	}
	series, err := decodeSeries(req.Series)
	if err != nil {
		return nil, err
	}
	p, err := newProblem(series, sys, req.Bounds, constraintsOr(req.Constraints))
	if err != nil {
		return nil, err
	}
	opt, err := buildOptimizer(req, progress)
	if err != nil {
		return nil, err
	}

	sol, err := sizing.Solve(ctx, p, opt)
	status := "completed"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		if sol == nil || sol.Best == nil {
			return nil, &requestError{status: http.StatusRequestTimeout, code: "SEARCH_CANCELLED", err: err}
		}
		status = "stopped"
	default:
		return nil, invalid("SEARCH_FAILED", err)
	}

	rep := report.Build(sys, sol.Best, sol)
	resp := &models.SearchResponse{
		ID:      rep.RunID.String(),
		Status:  status,
		Report:  rep,
		History: sol.Search.History,
	}
	if req.Options.IncludeChart {
		resp.Chart = report.Chart(sol.Best.Result)
	}
	h.store.Put(resp)
	log.Printf("[SearchHandler] search %s %s: %s", resp.ID, status, sol.Best.Decision)
	return resp, nil
}

func buildOptimizer(req models.SearchRequest, progress search.ProgressFunc) (search.Optimizer, error) {
	switch req.Optimizer {
	case "", "genetic":
		g := search.DefaultGenetic()
		if req.Genetic != nil {
			g = *req.Genetic
		}
		if err := g.Validate(); err != nil {
			return nil, invalid("INVALID_SEARCH", err)
		}
		g.Progress = progress
		return g, nil
	case "grid":
		var g search.Grid
		if req.Grid != nil {
			g = *req.Grid
		}
		if g.MaxEvaluations <= 0 || g.MaxEvaluations > maxGridEvaluations {
			g.MaxEvaluations = maxGridEvaluations
		}
		g.Progress = progress
		return g, nil
	default:
		return nil, invalid("INVALID_SEARCH", fmt.Errorf("optimizer %q must be \"genetic\" or \"grid\"", req.Optimizer))
	}
}
