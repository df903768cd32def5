// Package dialogue implements the decision dialogue state machine.
//
// A dialogue moves through three states: awaiting the first question, active
// with n answers collected, and completed. The engine asks a bounded number
// of clarifying questions (the question budget), building each prompt from
// the full accumulated history, then derives a scored recommendation. When
// the reasoning provider fails mid-dialogue the engine substitutes a fixed
// fallback question so the conversation never stalls; a failure during
// finalization is surfaced instead, because a recommendation must never be
// fabricated.
package dialogue

import (
	"errors"

	"github.com/fyrsmithlabs/decisiond/internal/scoring"
)

// DefaultQuestionBudget is the number of clarifying questions asked before
// finalization when no budget is configured.
const DefaultQuestionBudget = 3

// Decision text length bounds, in runes. Bounded to control prompt cost and
// prevent abuse.
const (
	MinDecisionLen = 10
	MaxDecisionLen = 1000
)

var (
	// ErrDecisionLength indicates the decision text is out of bounds.
	// Rejected before any session is created.
	ErrDecisionLength = errors.New("decision text must be between 10 and 1000 characters")

	// ErrAnalysisUnavailable indicates the reasoning provider failed
	// during finalization. The session stays completed; the caller may
	// not receive a fabricated recommendation.
	ErrAnalysisUnavailable = errors.New("analysis unavailable: reasoning provider failed")
)

// Turn is the engine's response to a start or answer submission.
//
// While the dialogue is active, Question and Hint are set and IsFinal is
// false. On the final turn IsFinal is true and Recommendation carries the
// outcome; Analysis is additionally set when the provider returned
// structured multi-criteria data.
type Turn struct {
	ConversationID string            `json:"conversation_id"`
	Question       string            `json:"question,omitempty"`
	Hint           string            `json:"hint,omitempty"`
	IsFinal        bool              `json:"is_final"`
	Recommendation string            `json:"recommendation,omitempty"`
	Analysis       *scoring.Analysis `json:"analysis,omitempty"`
}
