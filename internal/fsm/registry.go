package fsm

import "errors"

// ErrStateNotFound indicates a lookup for a state outside the closed enum.
var ErrStateNotFound = errors.New("fsm: state not found")

// StateInfo describes one dialogue state: what it is for, which states it may
// legally hand off to, and whether reaching it ends the conversation.
type StateInfo struct {
	State       State   `json:"state"`
	Description string  `json:"description"`
	Transitions []State `json:"transitions"`
	IsTerminal  bool    `json:"is_terminal"`
}

// Registry is the immutable dialogue-state graph. It is built once at startup
// and is safe for unrestricted concurrent reads.
type Registry struct {
	states map[State]StateInfo
	order  []State
}

// NewRegistry builds the registry with the canonical state definitions.
func NewRegistry() *Registry {
	defs := []StateInfo{
		{
			State:       StateGreeting,
			Description: "Initial greeting and introduction",
			Transitions: []State{StateLanguageSelection, StateQualification},
		},
		{
			State:       StateLanguageSelection,
			Description: "Detect or confirm user's preferred language",
			Transitions: []State{StateQualification},
		},
		{
			State:       StateQualification,
			Description: "Gather qualification information from the user",
			Transitions: []State{StateObjectionHandling, StateDemoOffer, StateClosing},
		},
		{
			State:       StateObjectionHandling,
			Description: "Handle user objections and concerns",
			Transitions: []State{StateQualification, StateDemoOffer, StateClosing},
		},
		{
			State:       StateDemoOffer,
			Description: "Offer a product demo to qualified users",
			Transitions: []State{StateConfirmation, StateObjectionHandling, StateClosing},
		},
		{
			State:       StateConfirmation,
			Description: "Confirm demo scheduling details",
			Transitions: []State{StateClosing, StateTransfer},
		},
		{
			State:       StateClosing,
			Description: "End the conversation gracefully",
			Transitions: []State{},
			IsTerminal:  true,
		},
		{
			State:       StateTransfer,
			Description: "Transfer to human agent",
			Transitions: []State{},
			IsTerminal:  true,
		},
		{
			State:       StateFallback,
			Description: "Handle unrecognized inputs",
			Transitions: []State{StateGreeting, StateQualification},
		},
	}

	states := make(map[State]StateInfo, len(defs))
	order := make([]State, 0, len(defs))
	for _, def := range defs {
		states[def.State] = def
		order = append(order, def.State)
	}
	return &Registry{states: states, order: order}
}

// Describe returns the definition of a single state. It fails with
// ErrStateNotFound for names outside the enumeration, which can only be
// reached through external input at the API boundary.
func (r *Registry) Describe(state State) (StateInfo, error) {
	info, ok := r.states[state]
	if !ok {
		return StateInfo{}, ErrStateNotFound
	}
	return copyInfo(info), nil
}

// List returns every state definition in declaration order.
func (r *Registry) List() []StateInfo {
	out := make([]StateInfo, 0, len(r.order))
	for _, s := range r.order {
		out = append(out, copyInfo(r.states[s]))
	}
	return out
}

// IsLegalTransition reports whether the graph declares an edge from one state
// to another. The resolver's keyword heuristics may route outside these edges;
// this exists for observability, not enforcement.
func (r *Registry) IsLegalTransition(from, to State) bool {
	info, ok := r.states[from]
	if !ok {
		return false
	}
	for _, next := range info.Transitions {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a state ends the conversation. Unknown states
// are not terminal.
func (r *Registry) IsTerminal(state State) bool {
	info, ok := r.states[state]
	return ok && info.IsTerminal
}

// copyInfo returns a defensive copy so callers cannot mutate the registry
// through the shared transitions slice.
func copyInfo(info StateInfo) StateInfo {
	transitions := make([]State, len(info.Transitions))
	copy(transitions, info.Transitions)
	info.Transitions = transitions
	return info
}
