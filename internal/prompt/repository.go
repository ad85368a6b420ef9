package prompt

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/aira-ai/control-tower/internal/fsm"
)

// Typed failures surfaced to callers.
var (
	// ErrNotFound indicates the referenced prompt id does not exist.
	ErrNotFound = errors.New("prompt: not found")
	// ErrInvalidState indicates an operation against a prompt whose status
	// forbids it, such as editing or publishing a non-draft.
	ErrInvalidState = errors.New("prompt: invalid state")
	// ErrValidation indicates a caller-supplied value failed a precondition.
	ErrValidation = errors.New("prompt: validation failed")
)

// Filter narrows List results. Nil fields match everything.
type Filter struct {
	FSMState *fsm.State
	Language *fsm.Language
	Status   *Status
}

// Matches reports whether a prompt satisfies every set filter field.
func (f Filter) Matches(p *Prompt) bool {
	if f.FSMState != nil && p.FSMState != *f.FSMState {
		return false
	}
	if f.Language != nil && p.Language != *f.Language {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	return true
}

// Repository is the durable keyed storage contract for prompt rows. SaveAll
// writes a batch as one atomic unit: readers observe either none or all of
// the batch, which is what keeps publish's archive-then-activate invisible
// mid-flight.
type Repository interface {
	Save(ctx context.Context, p *Prompt) error
	SaveAll(ctx context.Context, prompts []*Prompt) error
	Get(ctx context.Context, id string) (*Prompt, error)
	List(ctx context.Context, f Filter) ([]*Prompt, error)
}

// InMemoryRepository keeps prompts in a mutex-guarded map for tests and
// local development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	prompts map[string]*Prompt
}

var _ Repository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{prompts: make(map[string]*Prompt)}
}

// Save stores a copy of the prompt.
func (r *InMemoryRepository) Save(_ context.Context, p *Prompt) error {
	if p == nil || p.ID == "" {
		return errors.New("prompt: cannot save prompt without id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts[p.ID] = p.Clone()
	return nil
}

// SaveAll stores every prompt in the batch under one lock acquisition.
func (r *InMemoryRepository) SaveAll(_ context.Context, prompts []*Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range prompts {
		if p == nil || p.ID == "" {
			return errors.New("prompt: cannot save prompt without id")
		}
	}
	for _, p := range prompts {
		r.prompts[p.ID] = p.Clone()
	}
	return nil
}

// Get returns a copy of the stored prompt or ErrNotFound.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prompts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// List returns matching prompts in lineage order.
func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Prompt, 0, len(r.prompts))
	for _, p := range r.prompts {
		if f.Matches(p) {
			out = append(out, p.Clone())
		}
	}
	sortLineageOrder(out)
	return out, nil
}

// sortLineageOrder orders prompts by state, then language, then version
// descending so the newest row of each lineage leads.
func sortLineageOrder(prompts []*Prompt) {
	sort.SliceStable(prompts, func(i, j int) bool {
		a, b := prompts[i], prompts[j]
		if a.FSMState != b.FSMState {
			return a.FSMState < b.FSMState
		}
		if a.Language != b.Language {
			return a.Language < b.Language
		}
		return a.Version > b.Version
	})
}
