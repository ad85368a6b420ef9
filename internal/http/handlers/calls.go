package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aira-ai/control-tower/internal/call"
	"github.com/aira-ai/control-tower/internal/fsm"
	"github.com/aira-ai/control-tower/pkg/logging"
)

// CallsHandler serves the monitoring and review projections over call
// sessions. Everything here is read-only.
type CallsHandler struct {
	engine *call.Engine
	logger *logging.Logger
}

// NewCallsHandler creates a calls handler.
func NewCallsHandler(engine *call.Engine, logger *logging.Logger) *CallsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CallsHandler{engine: engine, logger: logger}
}

// Live returns all active calls for live monitoring, newest first.
func (h *CallsHandler) Live(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.engine.ListActive(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// History returns a filtered, paginated list of past calls.
func (h *CallsHandler) History(w http.ResponseWriter, r *http.Request) {
	q := call.HistoryQuery{
		Page:     intQuery(r, "page", 1),
		PageSize: intQuery(r, "page_size", 20),
	}

	query := r.URL.Query()
	if raw := query.Get("status"); raw != "" {
		status := fsm.CallStatus(raw)
		if !fsm.ValidCallStatus(status) {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", raw))
			return
		}
		q.Filter.Status = &status
	}
	if raw := query.Get("exit_reason"); raw != "" {
		reason := fsm.ExitReason(raw)
		if !fsm.ValidExitReason(reason) {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("unknown exit_reason %q", raw))
			return
		}
		q.Filter.ExitReason = &reason
	}
	if raw := query.Get("demo_intent"); raw != "" {
		demo, err := strconv.ParseBool(raw)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "demo_intent must be a boolean")
			return
		}
		q.Filter.DemoIntent = &demo
	}
	if raw := query.Get("date_from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "date_from must be an RFC 3339 timestamp")
			return
		}
		q.Filter.From = &from
	}
	if raw := query.Get("date_to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "date_to must be an RFC 3339 timestamp")
			return
		}
		q.Filter.To = &to
	}

	page, err := h.engine.ListHistory(r.Context(), q)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Detail returns the full call record including its turn timeline.
func (h *CallsHandler) Detail(w http.ResponseWriter, r *http.Request) {
	c, err := h.engine.Get(r.Context(), chi.URLParam(r, "callID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Qualification returns the signal snapshot for a call.
func (h *CallsHandler) Qualification(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.engine.Qualification(r.Context(), chi.URLParam(r, "callID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// Stats returns dashboard counters.
func (h *CallsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.StatsSnapshot(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func intQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
