package call

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/aira-ai/control-tower/internal/fsm"
)

// Typed failures surfaced to callers. Non-retriable: the caller must change
// the request or the session state before trying again.
var (
	// ErrNotFound indicates the referenced call id does not exist.
	ErrNotFound = errors.New("call: not found")
	// ErrNotActive indicates an operation against a call whose status
	// forbids it, such as submitting input after completion.
	ErrNotActive = errors.New("call: not active")
)

// Filter narrows List results. Nil fields match everything; the date range
// applies to StartTime.
type Filter struct {
	Status     *fsm.CallStatus
	ExitReason *fsm.ExitReason
	DemoIntent *bool
	From       *time.Time
	To         *time.Time
}

// Matches reports whether a call satisfies every set filter field.
func (f Filter) Matches(c *Call) bool {
	if f.Status != nil && c.Status != *f.Status {
		return false
	}
	if f.ExitReason != nil && c.ExitReason != *f.ExitReason {
		return false
	}
	if f.DemoIntent != nil && c.DemoIntent != *f.DemoIntent {
		return false
	}
	if f.From != nil && c.StartTime.Before(*f.From) {
		return false
	}
	if f.To != nil && c.StartTime.After(*f.To) {
		return false
	}
	return true
}

// Repository is the durable keyed storage contract for call records. Save
// writes the whole document; List returns matching calls newest first.
// Implementations do not enforce per-call serialization; the engine does.
type Repository interface {
	Save(ctx context.Context, c *Call) error
	Get(ctx context.Context, id string) (*Call, error)
	List(ctx context.Context, f Filter) ([]*Call, error)
}

// InMemoryRepository keeps calls in a mutex-guarded map. Used by tests and
// local development without external storage.
type InMemoryRepository struct {
	mu    sync.RWMutex
	calls map[string]*Call
}

var _ Repository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{calls: make(map[string]*Call)}
}

// Save stores a deep copy of the call.
func (r *InMemoryRepository) Save(_ context.Context, c *Call) error {
	if c == nil || c.ID == "" {
		return errors.New("call: cannot save call without id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[c.ID] = c.Clone()
	return nil
}

// Get returns a deep copy of the stored call or ErrNotFound.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.calls[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

// List returns matching calls ordered by start time descending.
func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]*Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Call, 0, len(r.calls))
	for _, c := range r.calls {
		if f.Matches(c) {
			out = append(out, c.Clone())
		}
	}
	sortByStartDesc(out)
	return out, nil
}

func sortByStartDesc(calls []*Call) {
	sort.SliceStable(calls, func(i, j int) bool {
		return calls[i].StartTime.After(calls[j].StartTime)
	})
}
