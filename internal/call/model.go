// Package call owns the lifecycle of conversational sessions: FSM-driven
// turn accumulation, qualification signal extraction, and terminal
// transitions. The engine is the single logical writer per call id.
package call

import (
	"time"

	"github.com/aira-ai/control-tower/internal/fsm"
)

// Speakers recorded on turns.
const (
	SpeakerUser  = "user"
	SpeakerAgent = "aira"
)

// Turn is one utterance appended to a call's history. Turns are append-only:
// never mutated or removed once recorded. FSMState is the state in effect
// when the turn was produced, not the call's current state.
type Turn struct {
	ID        string    `json:"id" dynamodbav:"id"`
	Timestamp time.Time `json:"timestamp" dynamodbav:"timestamp"`
	Speaker   string    `json:"speaker" dynamodbav:"speaker"`
	Text      string    `json:"text" dynamodbav:"text"`
	AudioURL  string    `json:"audio_url,omitempty" dynamodbav:"audioUrl,omitempty"`
	FSMState  fsm.State `json:"fsm_state" dynamodbav:"fsmState"`
}

// Call is one session record. EndTime and ExitReason are set if and only if
// Status is no longer active. Calls are retained for review, never deleted.
type Call struct {
	ID                string         `json:"id" dynamodbav:"callId"`
	SessionID         string         `json:"session_id" dynamodbav:"sessionId"`
	Status            fsm.CallStatus `json:"status" dynamodbav:"status"`
	FSMState          fsm.State      `json:"fsm_state" dynamodbav:"fsmState"`
	Language          fsm.Language   `json:"language" dynamodbav:"language"`
	TestMode          bool           `json:"test_mode" dynamodbav:"testMode"`
	StartTime         time.Time      `json:"start_time" dynamodbav:"startTime"`
	EndTime           *time.Time     `json:"end_time,omitempty" dynamodbav:"endTime,omitempty"`
	ExitReason        fsm.ExitReason `json:"exit_reason,omitempty" dynamodbav:"exitReason,omitempty"`
	Turns             []Turn         `json:"turns" dynamodbav:"turns"`
	QualificationData map[string]any `json:"qualification_data" dynamodbav:"qualificationData"`
	DemoIntent        bool           `json:"demo_intent" dynamodbav:"demoIntent"`
	DemoConfirmed     bool           `json:"demo_confirmed" dynamodbav:"demoConfirmed"`
	Objections        []string       `json:"objections" dynamodbav:"objections"`
}

// Summary is the list-view projection of a call.
type Summary struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"session_id"`
	Status        fsm.CallStatus `json:"status"`
	FSMState      fsm.State      `json:"fsm_state"`
	Language      fsm.Language   `json:"language"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       *time.Time     `json:"end_time,omitempty"`
	ExitReason    fsm.ExitReason `json:"exit_reason,omitempty"`
	DemoIntent    bool           `json:"demo_intent"`
	DemoConfirmed bool           `json:"demo_confirmed"`
	TurnCount     int            `json:"turn_count"`
}

// Summary projects the call into its list-view shape.
func (c *Call) Summary() Summary {
	return Summary{
		ID:            c.ID,
		SessionID:     c.SessionID,
		Status:        c.Status,
		FSMState:      c.FSMState,
		Language:      c.Language,
		StartTime:     c.StartTime,
		EndTime:       c.EndTime,
		ExitReason:    c.ExitReason,
		DemoIntent:    c.DemoIntent,
		DemoConfirmed: c.DemoConfirmed,
		TurnCount:     len(c.Turns),
	}
}

// QualificationSnapshot is the read-only projection of the signals captured
// during a session.
type QualificationSnapshot struct {
	CallID          string         `json:"call_id"`
	CapturedAnswers map[string]any `json:"captured_answers"`
	Objections      []string       `json:"objections"`
	DemoIntent      bool           `json:"demo_intent"`
	DemoConfirmed   bool           `json:"demo_confirmed"`
	Language        fsm.Language   `json:"language"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Clone returns a deep copy so repository callers never share turn slices or
// qualification maps with stored state.
func (c *Call) Clone() *Call {
	if c == nil {
		return nil
	}
	out := *c
	if c.EndTime != nil {
		end := *c.EndTime
		out.EndTime = &end
	}
	out.Turns = make([]Turn, len(c.Turns))
	copy(out.Turns, c.Turns)
	out.QualificationData = make(map[string]any, len(c.QualificationData))
	for k, v := range c.QualificationData {
		out.QualificationData[k] = v
	}
	out.Objections = make([]string, len(c.Objections))
	copy(out.Objections, c.Objections)
	return &out
}
