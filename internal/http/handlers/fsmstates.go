package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aira-ai/control-tower/internal/fsm"
)

// FSMHandler exposes the read-only dialogue-state registry.
type FSMHandler struct {
	registry *fsm.Registry
}

// NewFSMHandler creates an FSM introspection handler.
func NewFSMHandler(registry *fsm.Registry) *FSMHandler {
	if registry == nil {
		registry = fsm.NewRegistry()
	}
	return &FSMHandler{registry: registry}
}

// ListStates returns every state definition.
func (h *FSMHandler) ListStates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.List())
}

// GetState returns one state definition.
func (h *FSMHandler) GetState(w http.ResponseWriter, r *http.Request) {
	info, err := h.registry.Describe(fsm.State(chi.URLParam(r, "state")))
	if err != nil {
		writeError(w, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
