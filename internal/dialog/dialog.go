// Package dialog decides what the agent says next. The resolver is a
// deterministic keyword policy behind a narrow interface so a real classifier
// can replace it without touching the call engine.
package dialog

import "github.com/aira-ai/control-tower/internal/fsm"

// Resolution is the outcome of resolving one user utterance.
type Resolution struct {
	Text    string
	Next    fsm.State
	IsFinal bool
}

// Resolver maps (current state, utterance, language) to the agent's response.
// Implementations must be side-effect-free: identical inputs always produce
// identical outputs.
type Resolver interface {
	Resolve(state fsm.State, utterance string, language fsm.Language) Resolution
}

// TextOverride supplies curated response text for a (state, language) pair,
// letting published prompt content replace the built-in templates. Next-state
// routing and finality always come from the built-in table.
type TextOverride interface {
	ActiveText(state fsm.State, language fsm.Language) (string, bool)
}
