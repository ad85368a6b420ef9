package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aira-ai/control-tower/internal/fsm"
)

func TestResolveKeywordRouting(t *testing.T) {
	resolver := NewKeywordResolver()

	tests := []struct {
		name      string
		state     fsm.State
		utterance string
		wantNext  fsm.State
		wantFinal bool
	}{
		{
			name:      "decline ends the conversation",
			state:     fsm.StateQualification,
			utterance: "No thanks",
			wantNext:  fsm.StateClosing,
			wantFinal: true,
		},
		{
			name:      "decline wins over demo interest",
			state:     fsm.StateQualification,
			utterance: "not interested",
			wantNext:  fsm.StateClosing,
			wantFinal: true,
		},
		{
			name:      "demo interest from qualification offers a demo",
			state:     fsm.StateQualification,
			utterance: "I would love a demo",
			wantNext:  fsm.StateDemoOffer,
		},
		{
			name:      "demo interest elsewhere confirms",
			state:     fsm.StateDemoOffer,
			utterance: "yes please",
			wantNext:  fsm.StateConfirmation,
		},
		{
			name:      "objection routes to objection handling",
			state:     fsm.StateQualification,
			utterance: "that sounds expensive",
			wantNext:  fsm.StateObjectionHandling,
		},
		{
			name:      "no keyword follows the canonical successor",
			state:     fsm.StateGreeting,
			utterance: "hello there",
			wantNext:  fsm.StateQualification,
		},
		{
			name:      "confirmation drifts toward closing",
			state:     fsm.StateConfirmation,
			utterance: "that works for me... wait, actually hmm",
			wantNext:  fsm.StateClosing,
			wantFinal: true,
		},
		{
			name:      "keyword match is case-insensitive",
			state:     fsm.StateQualification,
			utterance: "DEMO",
			wantNext:  fsm.StateDemoOffer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := resolver.Resolve(tt.state, tt.utterance, fsm.LanguageEnglish)
			assert.Equal(t, tt.wantNext, res.Next)
			assert.Equal(t, tt.wantFinal, res.IsFinal)
			assert.NotEmpty(t, res.Text)
		})
	}
}

func TestResolveLocalizedText(t *testing.T) {
	resolver := NewKeywordResolver()

	en := resolver.Resolve(fsm.StateQualification, "tell me more about pricing options", fsm.LanguageEnglish)
	es := resolver.Resolve(fsm.StateQualification, "cuéntame más", fsm.LanguageSpanish)

	require.Equal(t, en.Next, es.Next)
	assert.NotEqual(t, en.Text, es.Text)
	assert.Contains(t, es.Text, "industria")
}

func TestResolveUnlocalizedLanguageFallsBackToEnglish(t *testing.T) {
	resolver := NewKeywordResolver()

	res := resolver.Resolve(fsm.StateGreeting, "hi", fsm.LanguageFrench)
	en := resolver.Resolve(fsm.StateGreeting, "hi", fsm.LanguageEnglish)

	assert.Equal(t, en.Text, res.Text)
	assert.Equal(t, en.Next, res.Next)
}

func TestResolveStateWithoutTemplates(t *testing.T) {
	resolver := NewKeywordResolver()

	res := resolver.Resolve(fsm.StateTransfer, "anything at all", fsm.LanguageEnglish)

	assert.Equal(t, fallbackText, res.Text)
	assert.Equal(t, fsm.StateQualification, res.Next)
	assert.False(t, res.IsFinal)
}

type staticOverride struct {
	state    fsm.State
	language fsm.Language
	text     string
}

func (o staticOverride) ActiveText(state fsm.State, language fsm.Language) (string, bool) {
	if state == o.state && language == o.language {
		return o.text, true
	}
	return "", false
}

func TestResolveOverrideReplacesTextOnly(t *testing.T) {
	override := staticOverride{
		state:    fsm.StateDemoOffer,
		language: fsm.LanguageEnglish,
		text:     "Curated demo pitch.",
	}
	resolver := NewKeywordResolverWithOverride(override)

	res := resolver.Resolve(fsm.StateQualification, "show me a demo", fsm.LanguageEnglish)

	assert.Equal(t, "Curated demo pitch.", res.Text)
	assert.Equal(t, fsm.StateDemoOffer, res.Next)
	assert.False(t, res.IsFinal)

	// A different resolved state is untouched by the override.
	other := resolver.Resolve(fsm.StateGreeting, "hello", fsm.LanguageEnglish)
	assert.NotEqual(t, override.text, other.Text)
}

func TestResolveIsDeterministic(t *testing.T) {
	resolver := NewKeywordResolver()

	first := resolver.Resolve(fsm.StateQualification, "we have some concerns", fsm.LanguageEnglish)
	for i := 0; i < 5; i++ {
		again := resolver.Resolve(fsm.StateQualification, "we have some concerns", fsm.LanguageEnglish)
		assert.Equal(t, first, again)
	}
}
