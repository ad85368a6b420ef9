package handlers

import (
	"fmt"
	"net/http"

	"github.com/aira-ai/control-tower/internal/call"
	"github.com/aira-ai/control-tower/internal/fsm"
	"github.com/aira-ai/control-tower/pkg/logging"
)

// WebcallHandler drives live webcall sessions through the call engine.
type WebcallHandler struct {
	engine *call.Engine
	logger *logging.Logger
}

// NewWebcallHandler creates a webcall handler.
func NewWebcallHandler(engine *call.Engine, logger *logging.Logger) *WebcallHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebcallHandler{engine: engine, logger: logger}
}

type webcallStartRequest struct {
	TestMode *bool        `json:"test_mode"`
	Language fsm.Language `json:"language"`
}

type webcallStartResponse struct {
	CallID         string    `json:"call_id"`
	SessionID      string    `json:"session_id"`
	InitialMessage string    `json:"initial_message"`
	FSMState       fsm.State `json:"fsm_state"`
	AudioURL       string    `json:"audio_url,omitempty"`
}

type webcallInputRequest struct {
	CallID    string `json:"call_id"`
	UserInput string `json:"user_input"`
}

type webcallInputResponse struct {
	CallID       string    `json:"call_id"`
	AiraResponse string    `json:"aira_response"`
	FSMState     fsm.State `json:"fsm_state"`
	AudioURL     string    `json:"audio_url,omitempty"`
	IsFinal      bool      `json:"is_final"`
}

type webcallEndRequest struct {
	CallID string `json:"call_id"`
}

// Start begins a new webcall session.
func (h *WebcallHandler) Start(w http.ResponseWriter, r *http.Request) {
	req := webcallStartRequest{Language: fsm.DefaultLanguage}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Language != "" && !fsm.ValidLanguage(req.Language) {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("unknown language %q", req.Language))
		return
	}

	testMode := true
	if req.TestMode != nil {
		testMode = *req.TestMode
	}

	result, err := h.engine.Start(r.Context(), req.Language, testMode)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, webcallStartResponse{
		CallID:         result.CallID,
		SessionID:      result.SessionID,
		InitialMessage: result.InitialMessage,
		FSMState:       result.State,
		AudioURL:       audioURL(result.CallID, 0),
	})
}

// Input submits one user utterance and returns the agent's response.
func (h *WebcallHandler) Input(w http.ResponseWriter, r *http.Request) {
	var req webcallInputRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CallID == "" {
		writeDetail(w, http.StatusBadRequest, "call_id is required")
		return
	}

	result, err := h.engine.SubmitInput(r.Context(), req.CallID, req.UserInput)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, webcallInputResponse{
		CallID:       req.CallID,
		AiraResponse: result.Response,
		FSMState:     result.State,
		AudioURL:     audioURL(req.CallID, result.TurnCount-1),
		IsFinal:      result.IsFinal,
	})
}

// End hangs up an active session.
func (h *WebcallHandler) End(w http.ResponseWriter, r *http.Request) {
	var req webcallEndRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CallID == "" {
		writeDetail(w, http.StatusBadRequest, "call_id is required")
		return
	}

	if err := h.engine.End(r.Context(), req.CallID); err != nil {
		switch err {
		case call.ErrNotFound, call.ErrNotActive:
			writeDetail(w, http.StatusNotFound, "Active call not found")
		default:
			writeError(w, h.logger, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Call ended",
		"call_id": req.CallID,
	})
}

// audioURL builds the placeholder reference for a turn's synthesized audio.
func audioURL(callID string, turnIndex int) string {
	return fmt.Sprintf("/api/audio/%s/%d", callID, turnIndex)
}
