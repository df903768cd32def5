// Package prompt builds reasoning-provider prompts for the decision dialogue.
//
// Builders are pure functions of the decision text and the accumulated
// question/answer history. The follow-up and final-analysis prompts embed
// the complete ordered history verbatim, never a summary, so the provider
// always sees full context.
package prompt

import (
	"fmt"
	"strings"
)

// Exchange pairs one asked question with its answer.
type Exchange struct {
	Question string
	Answer   string
}

// FirstQuestion builds the prompt requesting the opening clarifying question.
func FirstQuestion(decision string) string {
	var b strings.Builder
	b.WriteString("The user is deciding:\n\n")
	fmt.Fprintf(&b, "%q\n\n", decision)
	b.WriteString("Ask the MOST important first clarifying question.\n")
	b.WriteString("Return ONLY the question text.\n")
	return b.String()
}

// FollowUp builds the prompt requesting the next clarifying question, given
// everything asked and answered so far.
func FollowUp(decision string, history []Exchange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Decision: %s\n\n", decision)
	writeHistory(&b, history)
	b.WriteString("Ask the NEXT most important clarifying question.\n")
	b.WriteString("Return ONLY the question text.\n")
	return b.String()
}

// FinalAnalysis builds the prompt requesting the terminal recommendation.
// The provider is asked for a structured multi-criteria analysis but may
// answer in plain text; the dialogue engine handles both.
func FinalAnalysis(decision string, history []Exchange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Decision: %s\n\n", decision)
	writeHistory(&b, history)
	b.WriteString("Produce a final recommendation for this decision.\n")
	b.WriteString("Identify the candidate options, weigh them against the criteria that matter\n")
	b.WriteString("most given the answers above, and recommend one option.\n\n")
	b.WriteString("Respond with a single JSON object using exactly this shape:\n")
	b.WriteString(`{
  "options": ["option A", "option B"],
  "criteria": [{"name": "...", "weight": 0.5, "description": "..."}],
  "scores": [{"option": "option A", "scores": [8, 6], "total_score": 7.2, "strengths": ["..."], "weaknesses": ["..."]}],
  "recommendation": "the recommended option and why",
  "confidence": 80,
  "reasoning": ["..."],
  "what_would_change": ["..."],
  "considerations": ["..."],
  "timeline": "..."
}`)
	b.WriteString("\n\nEach scores array must have one entry per criterion, in criteria order.\n")
	return b.String()
}

// writeHistory appends the full ordered Q&A transcript.
func writeHistory(b *strings.Builder, history []Exchange) {
	if len(history) == 0 {
		return
	}
	b.WriteString("Previous Q&A:\n")
	for i, ex := range history {
		fmt.Fprintf(b, "Q%d: %s\n", i+1, ex.Question)
		fmt.Fprintf(b, "A%d: %s\n", i+1, ex.Answer)
	}
	b.WriteString("\n")
}
