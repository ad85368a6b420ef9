package prompt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aira-ai/control-tower/internal/dialog"
	"github.com/aira-ai/control-tower/internal/fsm"
	"github.com/aira-ai/control-tower/internal/keymutex"
	"github.com/aira-ai/control-tower/internal/observability/metrics"
	"github.com/aira-ai/control-tower/pkg/logging"
)

// Store enforces the prompt lifecycle per (state, language) lineage: drafts
// may be edited or published, publishing archives the previous active,
// marking weak spawns a replacement draft, and weak/archived rows are never
// edited again. Mutations on one lineage are serialized through a per-key
// mutex; distinct lineages proceed in parallel.
type Store struct {
	repo    Repository
	locks   *keymutex.KeyMutex
	logger  *logging.Logger
	metrics *metrics.PromptMetrics
	now     func() time.Time
}

var _ dialog.TextOverride = (*Store)(nil)

// NewStore builds the prompt version store.
func NewStore(repo Repository, m *metrics.PromptMetrics, logger *logging.Logger) *Store {
	if repo == nil {
		panic("prompt: repository cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		repo:    repo,
		locks:   keymutex.New(),
		logger:  logger.Component("prompt_store"),
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// lineageKey identifies the single-writer scope for a (state, language) pair.
func lineageKey(state fsm.State, language fsm.Language) string {
	return string(state) + "/" + string(language)
}

// Create adds a new draft to the lineage. The version is one above the
// highest existing version, starting at 1 for a fresh lineage.
func (s *Store) Create(ctx context.Context, state fsm.State, language fsm.Language, text, notes string) (*Prompt, error) {
	if !fsm.ValidState(state) {
		return nil, fmt.Errorf("%w: unknown fsm state %q", ErrValidation, state)
	}
	if !fsm.ValidLanguage(language) {
		return nil, fmt.Errorf("%w: unknown language %q", ErrValidation, language)
	}

	key := lineageKey(state, language)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	version, err := s.nextVersion(ctx, state, language)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &Prompt{
		ID:        uuid.NewString(),
		FSMState:  state,
		Language:  language,
		Text:      text,
		Status:    StatusDraft,
		Version:   version,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: DefaultAuthor,
		Notes:     notes,
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("prompt: create: %w", err)
	}

	s.metrics.ObserveLifecycle("create")
	s.logger.Info("prompt created", "prompt_id", p.ID, "fsm_state", state, "language", language, "version", version)
	return p, nil
}

// Update edits a draft's text and notes in place. Any other status fails
// with ErrInvalidState: weak and archived rows are immutable, and active
// content changes must go through a new draft.
func (s *Store) Update(ctx context.Context, id, text, notes string) (*Prompt, error) {
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := lineageKey(target.FSMState, target.Language)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	// Re-read under the lineage lock: the row may have been published or
	// superseded between the first read and lock acquisition.
	target, err = s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Status != StatusDraft {
		return nil, fmt.Errorf("%w: only draft prompts can be edited", ErrInvalidState)
	}

	target.Text = text
	if notes != "" {
		target.Notes = notes
	}
	target.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, target); err != nil {
		return nil, fmt.Errorf("prompt: update %s: %w", id, err)
	}

	s.metrics.ObserveLifecycle("update")
	return target, nil
}

// MarkWeak flags a prompt as underperforming and atomically spawns its
// replacement draft at version+1. The replacement text is required.
func (s *Store) MarkWeak(ctx context.Context, id, replacementText, notes string) (*Prompt, error) {
	if strings.TrimSpace(replacementText) == "" {
		return nil, fmt.Errorf("%w: replacement text is required when marking a prompt as weak", ErrValidation)
	}

	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := lineageKey(target.FSMState, target.Language)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	target, err = s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	target.Status = StatusWeak
	target.UpdatedAt = now

	if notes == "" {
		notes = fmt.Sprintf("Replacement for weak prompt %s", target.ID)
	}
	replacement := &Prompt{
		ID:        uuid.NewString(),
		FSMState:  target.FSMState,
		Language:  target.Language,
		Text:      replacementText,
		Status:    StatusDraft,
		Version:   target.Version + 1,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: DefaultAuthor,
		Notes:     notes,
	}

	if err := s.repo.SaveAll(ctx, []*Prompt{target, replacement}); err != nil {
		return nil, fmt.Errorf("prompt: mark weak %s: %w", id, err)
	}

	s.metrics.ObserveLifecycle("mark_weak")
	s.logger.Info("prompt marked weak",
		"prompt_id", target.ID,
		"replacement_id", replacement.ID,
		"fsm_state", target.FSMState,
		"language", target.Language,
	)
	return replacement, nil
}

// Publish promotes a draft to active. Every currently-active row in the
// lineage is archived in the same atomic write, so readers never observe
// zero or two actives.
func (s *Store) Publish(ctx context.Context, id string) (*Prompt, error) {
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := lineageKey(target.FSMState, target.Language)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	target, err = s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Status != StatusDraft {
		return nil, fmt.Errorf("%w: only draft prompts can be published", ErrInvalidState)
	}

	active := StatusActive
	siblings, err := s.repo.List(ctx, Filter{
		FSMState: &target.FSMState,
		Language: &target.Language,
		Status:   &active,
	})
	if err != nil {
		return nil, fmt.Errorf("prompt: load active siblings: %w", err)
	}

	now := s.now()
	batch := make([]*Prompt, 0, len(siblings)+1)
	for _, sibling := range siblings {
		sibling.Status = StatusArchived
		sibling.UpdatedAt = now
		batch = append(batch, sibling)
	}
	target.Status = StatusActive
	target.UpdatedAt = now
	batch = append(batch, target)

	if err := s.repo.SaveAll(ctx, batch); err != nil {
		return nil, fmt.Errorf("prompt: publish %s: %w", id, err)
	}

	s.metrics.ObserveLifecycle("publish")
	s.logger.Info("prompt published",
		"prompt_id", target.ID,
		"fsm_state", target.FSMState,
		"language", target.Language,
		"version", target.Version,
		"archived", len(siblings),
	)
	return target, nil
}

// Get returns one prompt by id.
func (s *Store) Get(ctx context.Context, id string) (*Prompt, error) {
	return s.repo.Get(ctx, id)
}

// List returns prompts matching the filter in lineage order.
func (s *Store) List(ctx context.Context, f Filter) ([]*Prompt, error) {
	return s.repo.List(ctx, f)
}

// ActiveText returns the published content for a (state, language) pair, if
// any. This is the seam through which curated prompts drive live responses;
// it satisfies dialog.TextOverride.
func (s *Store) ActiveText(state fsm.State, language fsm.Language) (string, bool) {
	active := StatusActive
	prompts, err := s.repo.List(context.Background(), Filter{
		FSMState: &state,
		Language: &language,
		Status:   &active,
	})
	if err != nil {
		s.logger.Warn("active text lookup failed", "fsm_state", state, "language", language, "error", err)
		return "", false
	}
	if len(prompts) == 0 {
		return "", false
	}
	return prompts[0].Text, true
}

func (s *Store) nextVersion(ctx context.Context, state fsm.State, language fsm.Language) (int, error) {
	existing, err := s.repo.List(ctx, Filter{FSMState: &state, Language: &language})
	if err != nil {
		return 0, fmt.Errorf("prompt: load lineage %s/%s: %w", state, language, err)
	}
	max := 0
	for _, p := range existing {
		if p.Version > max {
			max = p.Version
		}
	}
	return max + 1, nil
}
