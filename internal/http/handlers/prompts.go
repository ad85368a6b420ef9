package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aira-ai/control-tower/internal/fsm"
	"github.com/aira-ai/control-tower/internal/prompt"
	"github.com/aira-ai/control-tower/pkg/logging"
)

// PromptsHandler exposes the prompt version store for content curation.
type PromptsHandler struct {
	store  *prompt.Store
	logger *logging.Logger
}

// NewPromptsHandler creates a prompts handler.
func NewPromptsHandler(store *prompt.Store, logger *logging.Logger) *PromptsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &PromptsHandler{store: store, logger: logger}
}

type promptCreateRequest struct {
	FSMState fsm.State    `json:"fsm_state"`
	Language fsm.Language `json:"language"`
	Text     string       `json:"text"`
	Notes    string       `json:"notes"`
}

type promptUpdateRequest struct {
	Text  string `json:"text"`
	Notes string `json:"notes"`
}

type promptMarkWeakRequest struct {
	ReplacementText string `json:"replacement_text"`
	Notes           string `json:"notes"`
}

// List returns prompts matching the optional fsm_state/language/status
// filters, in lineage order.
func (h *PromptsHandler) List(w http.ResponseWriter, r *http.Request) {
	var f prompt.Filter

	query := r.URL.Query()
	if raw := query.Get("fsm_state"); raw != "" {
		state := fsm.State(raw)
		if !fsm.ValidState(state) {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("unknown fsm_state %q", raw))
			return
		}
		f.FSMState = &state
	}
	if raw := query.Get("language"); raw != "" {
		language := fsm.Language(raw)
		if !fsm.ValidLanguage(language) {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("unknown language %q", raw))
			return
		}
		f.Language = &language
	}
	if raw := query.Get("status"); raw != "" {
		status := prompt.Status(raw)
		if !prompt.ValidStatus(status) {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", raw))
			return
		}
		f.Status = &status
	}

	prompts, err := h.store.List(r.Context(), f)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, prompts)
}

// Get returns one prompt by id.
func (h *PromptsHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Get(r.Context(), chi.URLParam(r, "promptID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Create adds a new draft to a lineage.
func (h *PromptsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req promptCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.store.Create(r.Context(), req.FSMState, req.Language, req.Text, req.Notes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Update edits a draft in place.
func (h *PromptsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req promptUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.store.Update(r.Context(), chi.URLParam(r, "promptID"), req.Text, req.Notes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// MarkWeak flags a prompt and returns the replacement draft.
func (h *PromptsHandler) MarkWeak(w http.ResponseWriter, r *http.Request) {
	var req promptMarkWeakRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	replacement, err := h.store.MarkWeak(r.Context(), chi.URLParam(r, "promptID"), req.ReplacementText, req.Notes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, replacement)
}

// Publish promotes a draft to active.
func (h *PromptsHandler) Publish(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Publish(r.Context(), chi.URLParam(r, "promptID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
