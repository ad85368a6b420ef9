package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// SystemHandler serves the root/info, health, and audio placeholder routes.
type SystemHandler struct {
	version string
}

// NewSystemHandler creates a system handler.
func NewSystemHandler(version string) *SystemHandler {
	if version == "" {
		version = "1.0.0"
	}
	return &SystemHandler{version: version}
}

// Root returns service identification.
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Aira Control Tower API",
		"version": h.version,
	})
}

// Health reports liveness.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Audio is a placeholder for turn audio retrieval; speech synthesis lives
// outside this service.
func (h *SystemHandler) Audio(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "Audio endpoint placeholder",
		"call_id":    chi.URLParam(r, "callID"),
		"turn_index": chi.URLParam(r, "turnIndex"),
		"note":       "Speech synthesis is handled by an external provider",
	})
}
