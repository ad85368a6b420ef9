// Package handlers exposes the control tower's HTTP JSON API: webcall
// session operations, call monitoring and review, FSM introspection, and
// prompt curation.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aira-ai/control-tower/internal/call"
	"github.com/aira-ai/control-tower/internal/fsm"
	"github.com/aira-ai/control-tower/internal/prompt"
	"github.com/aira-ai/control-tower/pkg/logging"
)

// errorResponse is the wire shape for every failure.
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeError maps domain failures onto HTTP statuses. Typed errors are
// caller-facing; anything else is an opaque persistence fault.
func writeError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, call.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Call not found")
	case errors.Is(err, call.ErrNotActive):
		writeDetail(w, http.StatusBadRequest, "Call is not active")
	case errors.Is(err, prompt.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Prompt not found")
	case errors.Is(err, prompt.ErrInvalidState),
		errors.Is(err, prompt.ErrValidation):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, fsm.ErrStateNotFound):
		writeDetail(w, http.StatusNotFound, "FSM state not found")
	default:
		if logger != nil {
			logger.Error("request failed", "error", err)
		}
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
