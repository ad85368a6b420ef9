// Package prompt manages the versioned library of response content. Each
// (fsm state, language) pair owns a lineage of prompt rows whose versions
// are assigned at creation and never reused, with at most one active row
// per lineage at any instant.
package prompt

import (
	"time"

	"github.com/aira-ai/control-tower/internal/fsm"
)

// Status is a prompt row's lifecycle stage. Weak and archived are terminal
// for the row itself; a weak prompt's lineage continues through the draft it
// spawned.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusWeak     Status = "weak"
	StatusArchived Status = "archived"
)

// ValidStatus reports whether s is a known prompt status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusActive, StatusWeak, StatusArchived:
		return true
	}
	return false
}

// DefaultAuthor is recorded when no author is supplied.
const DefaultAuthor = "admin"

// Prompt is one versioned row of response content.
type Prompt struct {
	ID        string       `json:"id"`
	FSMState  fsm.State    `json:"fsm_state"`
	Language  fsm.Language `json:"language"`
	Text      string       `json:"text"`
	Status    Status       `json:"status"`
	Version   int          `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	CreatedBy string       `json:"created_by"`
	Notes     string       `json:"notes,omitempty"`
}

// Clone returns a copy so store callers never alias repository state.
func (p *Prompt) Clone() *Prompt {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}
