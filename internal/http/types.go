// Package http provides the HTTP API for decisiond.
package http

import "github.com/fyrsmithlabs/decisiond/internal/scoring"

// StartRequest is the request body for POST /api/v1/decision/start.
type StartRequest struct {
	Decision       string `json:"decision"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// AnswerRequest is the request body for POST /api/v1/decision/answer.
type AnswerRequest struct {
	ConversationID string `json:"conversation_id"`
	Answer         string `json:"answer"`
}

// TurnResponse is the response body for both dialogue endpoints. While the
// dialogue is active only question and hint are set; the final turn carries
// the recommendation and, when the provider produced one, the scored
// analysis.
type TurnResponse struct {
	ConversationID string            `json:"conversation_id"`
	Question       string            `json:"question,omitempty"`
	Hint           string            `json:"hint,omitempty"`
	IsFinal        bool              `json:"is_final"`
	Recommendation string            `json:"recommendation,omitempty"`
	Analysis       *scoring.Analysis `json:"analysis,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
