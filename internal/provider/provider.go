// Package provider abstracts the reasoning provider behind a narrow gateway.
//
// The dialogue engine only depends on the Provider interface; the concrete
// gateway speaks to an OpenAI-compatible or Anthropic endpoint through
// langchaingo. Every failure mode (transport error, non-success status,
// timeout, empty completion) normalizes to ErrUnavailable so callers apply
// one fallback policy.
package provider

import (
	"context"
	"errors"
)

// Role selects the system persona for a completion.
type Role string

const (
	// RoleCoach asks clarifying questions during the dialogue.
	RoleCoach Role = "coach"
	// RoleAnalyst produces the final multi-criteria recommendation.
	RoleAnalyst Role = "analyst"
)

// ErrUnavailable indicates the reasoning provider failed or timed out.
var ErrUnavailable = errors.New("reasoning provider unavailable")

// Provider is the completion contract consumed by the dialogue engine.
type Provider interface {
	Complete(ctx context.Context, role Role, prompt string) (string, error)
}

const coachSystemPrompt = `You are an expert decision-making coach.
Ask ONE concise, insightful clarifying question.
Return ONLY the question text.`

const analystSystemPrompt = `You are a world-class decision analyst.
Use multi-criteria decision analysis, risk analysis, and long-term reasoning.
Return structured, actionable recommendations.`

// systemPrompt returns the persona instruction for a role.
func systemPrompt(role Role) string {
	if role == RoleAnalyst {
		return analystSystemPrompt
	}
	return coachSystemPrompt
}
