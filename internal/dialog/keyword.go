package dialog

import (
	"strings"

	"github.com/aira-ai/control-tower/internal/fsm"
)

// Keyword families scanned case-insensitively, first match wins.
var (
	declineKeywords   = []string{"no", "not interested"}
	demoKeywords      = []string{"demo", "yes", "interested"}
	objectionKeywords = []string{"concern", "expensive", "but"}
)

// KeywordResolver is the placeholder response policy: substring keyword
// routing over a static localized template table. A production deployment
// swaps this for a real classifier behind the same Resolver interface.
type KeywordResolver struct {
	templates templateTable
	override  TextOverride
}

var _ Resolver = (*KeywordResolver)(nil)

// NewKeywordResolver builds the resolver with the built-in template table.
func NewKeywordResolver() *KeywordResolver {
	return &KeywordResolver{templates: defaultTemplates()}
}

// NewKeywordResolverWithOverride builds a resolver whose response text can be
// replaced by curated content. Routing stays keyword-driven.
func NewKeywordResolverWithOverride(override TextOverride) *KeywordResolver {
	return &KeywordResolver{templates: defaultTemplates(), override: override}
}

// Resolve picks the next state and response for one utterance.
//
// Decision order: decline keywords route to closing; demo interest routes to
// demo_offer from qualification and confirmation elsewhere; objection
// keywords route to objection_handling; otherwise the current state's
// canonical successor applies. The chosen state's template supplies the text
// (default-language fallback), and a state with no templates yields a generic
// re-prompt back to qualification.
func (r *KeywordResolver) Resolve(state fsm.State, utterance string, language fsm.Language) Resolution {
	next := r.nextState(state, utterance)

	entry, ok := r.templates.lookup(next, language)
	if !ok {
		return Resolution{Text: fallbackText, Next: fsm.StateQualification}
	}

	text := entry.text
	if r.override != nil {
		if curated, ok := r.override.ActiveText(next, language); ok {
			text = curated
		}
	}
	return Resolution{Text: text, Next: next, IsFinal: entry.final}
}

func (r *KeywordResolver) nextState(state fsm.State, utterance string) fsm.State {
	lower := strings.ToLower(utterance)

	switch {
	case containsAny(lower, declineKeywords):
		return fsm.StateClosing
	case containsAny(lower, demoKeywords):
		if state == fsm.StateQualification {
			return fsm.StateDemoOffer
		}
		return fsm.StateConfirmation
	case containsAny(lower, objectionKeywords):
		return fsm.StateObjectionHandling
	}

	// No keyword matched: follow the state's canonical default successor.
	if entry, ok := r.templates.lookup(state, fsm.DefaultLanguage); ok {
		return entry.next
	}
	return state
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
