package prompt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aira-ai/control-tower/internal/fsm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(NewInMemoryRepository(), nil, nil)
}

func TestCreateAssignsSequentialVersions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		p, err := store.Create(ctx, fsm.StateGreeting, fsm.LanguageEnglish, "Hello!", "")
		require.NoError(t, err)
		assert.Equal(t, want, p.Version)
		assert.Equal(t, StatusDraft, p.Status)
		assert.Equal(t, DefaultAuthor, p.CreatedBy)
	}

	// a different lineage starts back at 1
	es, err := store.Create(ctx, fsm.StateGreeting, fsm.LanguageSpanish, "¡Hola!", "")
	require.NoError(t, err)
	assert.Equal(t, 1, es.Version)
}

func TestCreateValidatesStateAndLanguage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, fsm.State("limbo"), fsm.LanguageEnglish, "x", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = store.Create(ctx, fsm.StateGreeting, fsm.Language("xx"), "x", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateEditsDraftOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	draft, err := store.Create(ctx, fsm.StateGreeting, fsm.LanguageEnglish, "v1", "first cut")
	require.NoError(t, err)

	updated, err := store.Update(ctx, draft.ID, "v1 revised", "")
	require.NoError(t, err)
	assert.Equal(t, "v1 revised", updated.Text)
	assert.Equal(t, "first cut", updated.Notes, "empty notes keep the existing ones")

	updated, err = store.Update(ctx, draft.ID, "v1 final", "ready")
	require.NoError(t, err)
	assert.Equal(t, "ready", updated.Notes)

	_, err = store.Publish(ctx, draft.ID)
	require.NoError(t, err)

	_, err = store.Update(ctx, draft.ID, "sneaky edit", "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestUpdateMissingPrompt(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Update(context.Background(), "missing", "x", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPublishArchivesPreviousActive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, fsm.StateDemoOffer, fsm.LanguageEnglish, "pitch v1", "")
	require.NoError(t, err)
	_, err = store.Publish(ctx, first.ID)
	require.NoError(t, err)

	second, err := store.Create(ctx, fsm.StateDemoOffer, fsm.LanguageEnglish, "pitch v2", "")
	require.NoError(t, err)
	published, err := store.Publish(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, published.Status)

	// exactly one active remains in the lineage
	active := StatusActive
	state := fsm.StateDemoOffer
	language := fsm.LanguageEnglish
	actives, err := store.List(ctx, Filter{FSMState: &state, Language: &language, Status: &active})
	require.NoError(t, err)
	require.Len(t, actives, 1)
	assert.Equal(t, second.ID, actives[0].ID)

	archived, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, archived.Status)
}

func TestPublishRejectsNonDraft(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	draft, err := store.Create(ctx, fsm.StateClosing, fsm.LanguageEnglish, "bye", "")
	require.NoError(t, err)
	_, err = store.Publish(ctx, draft.ID)
	require.NoError(t, err)

	_, err = store.Publish(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestMarkWeakSpawnsReplacementDraft(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	original, err := store.Create(ctx, fsm.StateObjectionHandling, fsm.LanguageEnglish, "weak copy", "")
	require.NoError(t, err)
	_, err = store.Publish(ctx, original.ID)
	require.NoError(t, err)

	replacement, err := store.MarkWeak(ctx, original.ID, "stronger copy", "")
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, replacement.Status)
	assert.Equal(t, original.Version+1, replacement.Version)
	assert.Equal(t, "stronger copy", replacement.Text)
	assert.Contains(t, replacement.Notes, original.ID)

	weak, err := store.Get(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusWeak, weak.Status)
}

func TestMarkWeakRequiresReplacementText(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p, err := store.Create(ctx, fsm.StateGreeting, fsm.LanguageEnglish, "hi", "")
	require.NoError(t, err)

	_, err = store.MarkWeak(ctx, p.ID, "   ", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMarkWeakCustomNotes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p, err := store.Create(ctx, fsm.StateGreeting, fsm.LanguageEnglish, "hi", "")
	require.NoError(t, err)

	replacement, err := store.MarkWeak(ctx, p.ID, "hello there", "too stiff")
	require.NoError(t, err)
	assert.Equal(t, "too stiff", replacement.Notes)
}

func TestVersionsNeverReused(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, fsm.StateConfirmation, fsm.LanguageEnglish, "v1", "")
	require.NoError(t, err)
	replacement, err := store.MarkWeak(ctx, first.ID, "v2", "")
	require.NoError(t, err)
	assert.Equal(t, 2, replacement.Version)

	third, err := store.Create(ctx, fsm.StateConfirmation, fsm.LanguageEnglish, "v3", "")
	require.NoError(t, err)
	assert.Equal(t, 3, third.Version)
}

func TestActiveTextReflectsPublishedContent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, ok := store.ActiveText(fsm.StateGreeting, fsm.LanguageEnglish)
	assert.False(t, ok)

	draft, err := store.Create(ctx, fsm.StateGreeting, fsm.LanguageEnglish, "Welcome aboard!", "")
	require.NoError(t, err)

	// drafts are invisible to live resolution
	_, ok = store.ActiveText(fsm.StateGreeting, fsm.LanguageEnglish)
	assert.False(t, ok)

	_, err = store.Publish(ctx, draft.ID)
	require.NoError(t, err)

	text, ok := store.ActiveText(fsm.StateGreeting, fsm.LanguageEnglish)
	require.True(t, ok)
	assert.Equal(t, "Welcome aboard!", text)

	// language is part of the lineage key
	_, ok = store.ActiveText(fsm.StateGreeting, fsm.LanguageSpanish)
	assert.False(t, ok)
}

func TestListLineageOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"v1", "v2", "v3"} {
		_, err := store.Create(ctx, fsm.StateGreeting, fsm.LanguageEnglish, text, "")
		require.NoError(t, err)
	}

	state := fsm.StateGreeting
	language := fsm.LanguageEnglish
	prompts, err := store.List(ctx, Filter{FSMState: &state, Language: &language})
	require.NoError(t, err)
	require.Len(t, prompts, 3)
	assert.Equal(t, 3, prompts[0].Version)
	assert.Equal(t, 1, prompts[2].Version)
}
