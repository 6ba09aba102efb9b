package models

import "time"

// Chat turn roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is a single message in a coaching conversation.
// Turns are immutable once created; the pipeline only reads them.
type ChatTurn struct {
	Text      string    `json:"text"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnResult is what the intake pipeline returns to the chat endpoint.
type TurnResult struct {
	ResponseText   string `json:"response"`
	ProfileUpdated bool   `json:"profile_updated"`
}

// PipelineState is the intake gate's routing decision for one turn.
// It is derived fresh from (profile-exists, turn-count, gate-check,
// confidence) on every turn and never stored, so the state machine
// cannot drift from what the store actually contains.
type PipelineState int

const (
	StateNeedsOnboarding PipelineState = iota
	StateAwaitingOnboardingReply
	StateNeedsClarification
	StateReady
)

func (s PipelineState) String() string {
	switch s {
	case StateNeedsOnboarding:
		return "needs_onboarding"
	case StateAwaitingOnboardingReply:
		return "awaiting_onboarding_reply"
	case StateNeedsClarification:
		return "needs_clarification"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}
