// Package fsm holds the closed enumerations that describe a call's dialogue
// flow and the read-only registry of state definitions the engine consults.
package fsm

// State identifies one node in the fixed dialogue-stage graph.
type State string

const (
	StateGreeting          State = "greeting"
	StateLanguageSelection State = "language_selection"
	StateQualification     State = "qualification"
	StateObjectionHandling State = "objection_handling"
	StateDemoOffer         State = "demo_offer"
	StateConfirmation      State = "confirmation"
	StateClosing           State = "closing"
	StateTransfer          State = "transfer"
	StateFallback          State = "fallback"
)

// Language identifies a supported conversation language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSpanish Language = "es"
	LanguageFrench  Language = "fr"
	LanguageGerman  Language = "de"
)

// DefaultLanguage is the fallback when a localized entry is missing.
const DefaultLanguage = LanguageEnglish

// CallStatus represents the lifecycle of a call session.
type CallStatus string

const (
	CallStatusActive      CallStatus = "active"
	CallStatusCompleted   CallStatus = "completed"
	CallStatusFailed      CallStatus = "failed"
	CallStatusTransferred CallStatus = "transferred"
)

// ExitReason categorizes why a session ended.
type ExitReason string

const (
	ExitReasonCompleted   ExitReason = "completed"
	ExitReasonUserHangup  ExitReason = "user_hangup"
	ExitReasonTimeout     ExitReason = "timeout"
	ExitReasonError       ExitReason = "error"
	ExitReasonTransferred ExitReason = "transferred"
	ExitReasonNoResponse  ExitReason = "no_response"
)

// ValidState reports whether s is one of the known dialogue states.
func ValidState(s State) bool {
	switch s {
	case StateGreeting, StateLanguageSelection, StateQualification,
		StateObjectionHandling, StateDemoOffer, StateConfirmation,
		StateClosing, StateTransfer, StateFallback:
		return true
	}
	return false
}

// ValidLanguage reports whether l is one of the supported languages.
func ValidLanguage(l Language) bool {
	switch l {
	case LanguageEnglish, LanguageSpanish, LanguageFrench, LanguageGerman:
		return true
	}
	return false
}

// ValidCallStatus reports whether s is a known call status.
func ValidCallStatus(s CallStatus) bool {
	switch s {
	case CallStatusActive, CallStatusCompleted, CallStatusFailed, CallStatusTransferred:
		return true
	}
	return false
}

// ValidExitReason reports whether r is a known exit reason.
func ValidExitReason(r ExitReason) bool {
	switch r {
	case ExitReasonCompleted, ExitReasonUserHangup, ExitReasonTimeout,
		ExitReasonError, ExitReasonTransferred, ExitReasonNoResponse:
		return true
	}
	return false
}
