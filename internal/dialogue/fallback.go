package dialogue

// Phase identifies where in the dialogue a provider call failed.
type Phase int

const (
	// PhaseFirstQuestion is the opening question of a new session.
	PhaseFirstQuestion Phase = iota
	// PhaseFollowUp is any subsequent clarifying question.
	PhaseFollowUp
)

// FallbackPolicy maps a failed questioning-phase provider call to the
// substitute question text. Making the policy an explicit, injectable value
// keeps the substitution visible and testable rather than an incidental
// catch-all. It is never consulted during finalization.
type FallbackPolicy func(phase Phase) string

// DefaultFallbacks is the standard fallback policy.
func DefaultFallbacks(phase Phase) string {
	if phase == PhaseFirstQuestion {
		return "Why is this decision important to you?"
	}
	return "What else should you consider before deciding?"
}
