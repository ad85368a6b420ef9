package call

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aira-ai/control-tower/internal/dialog"
	"github.com/aira-ai/control-tower/internal/fsm"
	"github.com/aira-ai/control-tower/internal/keymutex"
	"github.com/aira-ai/control-tower/internal/observability/metrics"
	"github.com/aira-ai/control-tower/pkg/logging"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Engine drives the per-call state machine. All mutations on one call id are
// serialized through a per-key mutex; operations on distinct ids run in
// parallel. Reads are point-in-time and lock-free.
type Engine struct {
	repo     Repository
	resolver dialog.Resolver
	registry *fsm.Registry
	locks    *keymutex.KeyMutex
	logger   *logging.Logger
	metrics  *metrics.CallMetrics
	now      func() time.Time
}

// NewEngine builds the call session engine.
func NewEngine(repo Repository, resolver dialog.Resolver, registry *fsm.Registry, m *metrics.CallMetrics, logger *logging.Logger) *Engine {
	if repo == nil {
		panic("call: repository cannot be nil")
	}
	if resolver == nil {
		panic("call: resolver cannot be nil")
	}
	if registry == nil {
		registry = fsm.NewRegistry()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		repo:     repo,
		resolver: resolver,
		registry: registry,
		locks:    keymutex.New(),
		logger:   logger.Component("call_engine"),
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// StartResult is returned when a new session begins.
type StartResult struct {
	CallID         string
	SessionID      string
	InitialMessage string
	State          fsm.State
}

// InputResult is returned after one user utterance is processed.
type InputResult struct {
	Response  string
	State     fsm.State
	IsFinal   bool
	TurnCount int
}

// HistoryQuery selects a page of past sessions.
type HistoryQuery struct {
	Page     int
	PageSize int
	Filter   Filter
}

// HistoryPage is one page of session summaries.
type HistoryPage struct {
	Calls      []Summary `json:"calls"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// Stats aggregates dashboard counters over all recorded sessions.
type Stats struct {
	TotalCalls     int `json:"total_calls"`
	ActiveCalls    int `json:"active_calls"`
	CompletedCalls int `json:"completed_calls"`
	DemoIntents    int `json:"demo_intents"`
}

// Start creates a new session at the greeting state, synthesizes the opening
// agent turn via the resolver, and persists the call. It has no precondition.
func (e *Engine) Start(ctx context.Context, language fsm.Language, testMode bool) (*StartResult, error) {
	if !fsm.ValidLanguage(language) {
		language = fsm.DefaultLanguage
	}

	res := e.resolver.Resolve(fsm.StateGreeting, "", language)
	now := e.now()

	c := &Call{
		ID:        uuid.NewString(),
		SessionID: uuid.NewString(),
		Status:    fsm.CallStatusActive,
		FSMState:  fsm.StateGreeting,
		Language:  language,
		TestMode:  testMode,
		StartTime: now,
		Turns: []Turn{{
			ID:        uuid.NewString(),
			Timestamp: now,
			Speaker:   SpeakerAgent,
			Text:      res.Text,
			FSMState:  fsm.StateGreeting,
		}},
		QualificationData: map[string]any{},
		Objections:        []string{},
	}

	if err := e.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("call: start session: %w", err)
	}

	e.metrics.ObserveStarted()
	e.metrics.ObserveTurns(1)
	e.logger.Info("call started", "call_id", c.ID, "language", language, "test_mode", testMode)

	return &StartResult{
		CallID:         c.ID,
		SessionID:      c.SessionID,
		InitialMessage: res.Text,
		State:          fsm.StateGreeting,
	}, nil
}

// SubmitInput appends the user turn at the pre-transition state, resolves the
// agent response, appends the agent turn at the resolved state, merges
// qualification signals, and advances the session. A final resolution
// completes the call. Fails with ErrNotFound for unknown ids and ErrNotActive
// for ended sessions.
func (e *Engine) SubmitInput(ctx context.Context, callID, utterance string) (*InputResult, error) {
	e.locks.Lock(callID)
	defer e.locks.Unlock(callID)

	c, err := e.repo.Get(ctx, callID)
	if err != nil {
		return nil, err
	}
	if c.Status != fsm.CallStatusActive {
		return nil, ErrNotActive
	}

	now := e.now()
	c.Turns = append(c.Turns, Turn{
		ID:        uuid.NewString(),
		Timestamp: now,
		Speaker:   SpeakerUser,
		Text:      utterance,
		FSMState:  c.FSMState,
	})

	res := e.resolver.Resolve(c.FSMState, utterance, c.Language)

	c.Turns = append(c.Turns, Turn{
		ID:        uuid.NewString(),
		Timestamp: now,
		Speaker:   SpeakerAgent,
		Text:      res.Text,
		FSMState:  res.Next,
	})

	signals := ExtractSignals(utterance)
	for key, value := range signals {
		c.QualificationData[key] = value
	}
	if demo, ok := signals[SignalDemoIntent].(bool); ok && demo {
		c.DemoIntent = true
	}

	c.FSMState = res.Next
	if res.IsFinal {
		end := now
		c.Status = fsm.CallStatusCompleted
		c.EndTime = &end
		c.ExitReason = fsm.ExitReasonCompleted
	}

	if err := e.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("call: submit input: %w", err)
	}

	e.metrics.ObserveTurns(2)
	if res.IsFinal {
		e.metrics.ObserveEnded(string(fsm.ExitReasonCompleted))
	}
	e.logger.Info("call input processed",
		"call_id", callID,
		"state", res.Next,
		"is_final", res.IsFinal,
	)

	return &InputResult{
		Response:  res.Text,
		State:     res.Next,
		IsFinal:   res.IsFinal,
		TurnCount: len(c.Turns),
	}, nil
}

// End completes an active session with the user_hangup exit reason. Sessions
// that already ended are not re-endable and report ErrNotFound.
func (e *Engine) End(ctx context.Context, callID string) error {
	e.locks.Lock(callID)
	defer e.locks.Unlock(callID)

	c, err := e.repo.Get(ctx, callID)
	if err != nil {
		return err
	}
	if c.Status != fsm.CallStatusActive {
		return ErrNotFound
	}

	end := e.now()
	c.Status = fsm.CallStatusCompleted
	c.EndTime = &end
	c.ExitReason = fsm.ExitReasonUserHangup

	if err := e.repo.Save(ctx, c); err != nil {
		return fmt.Errorf("call: end session: %w", err)
	}

	e.metrics.ObserveEnded(string(fsm.ExitReasonUserHangup))
	e.logger.Info("call ended", "call_id", callID, "exit_reason", fsm.ExitReasonUserHangup)
	return nil
}

// Get returns the full call record including its turn history.
func (e *Engine) Get(ctx context.Context, callID string) (*Call, error) {
	return e.repo.Get(ctx, callID)
}

// ListActive returns summaries of in-flight sessions, newest first. The scan
// is point-in-time: a session mid-transition may appear in either state.
func (e *Engine) ListActive(ctx context.Context) ([]Summary, error) {
	status := fsm.CallStatusActive
	calls, err := e.repo.List(ctx, Filter{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("call: list active: %w", err)
	}
	return summarize(calls), nil
}

// ListHistory returns a filtered page of session summaries.
func (e *Engine) ListHistory(ctx context.Context, q HistoryQuery) (*HistoryPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	calls, err := e.repo.List(ctx, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("call: list history: %w", err)
	}

	total := len(calls)
	totalPages := (total + q.PageSize - 1) / q.PageSize

	start := (q.Page - 1) * q.PageSize
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}

	return &HistoryPage{
		Calls:      summarize(calls[start:end]),
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Qualification returns the signal snapshot captured for a call.
func (e *Engine) Qualification(ctx context.Context, callID string) (*QualificationSnapshot, error) {
	c, err := e.repo.Get(ctx, callID)
	if err != nil {
		return nil, err
	}
	return &QualificationSnapshot{
		CallID:          c.ID,
		CapturedAnswers: c.QualificationData,
		Objections:      c.Objections,
		DemoIntent:      c.DemoIntent,
		DemoConfirmed:   c.DemoConfirmed,
		Language:        c.Language,
		Timestamp:       c.StartTime,
	}, nil
}

// StatsSnapshot aggregates dashboard counters from the repository.
func (e *Engine) StatsSnapshot(ctx context.Context) (*Stats, error) {
	calls, err := e.repo.List(ctx, Filter{})
	if err != nil {
		return nil, fmt.Errorf("call: stats: %w", err)
	}

	stats := &Stats{TotalCalls: len(calls)}
	for _, c := range calls {
		switch c.Status {
		case fsm.CallStatusActive:
			stats.ActiveCalls++
		case fsm.CallStatusCompleted:
			stats.CompletedCalls++
		}
		if c.DemoIntent {
			stats.DemoIntents++
		}
	}
	return stats, nil
}

func summarize(calls []*Call) []Summary {
	out := make([]Summary, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Summary())
	}
	return out
}
