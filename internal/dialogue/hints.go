package dialogue

import "strings"

// hintRule maps a question keyword to a coaching hint. Rules are checked in
// declaration order and the first match wins; the ordering is an observable
// contract because keywords can co-occur in one question.
type hintRule struct {
	keyword string
	hint    string
}

var hintRules = []hintRule{
	{"why", "What's driving this decision?"},
	{"risk", "What worries you most?"},
	{"time", "Is this urgent or flexible?"},
}

const defaultHint = "Be honest and specific."

// Hint derives a short coaching hint from question text. Hints are a pure
// function of the question and are recomputed on read, never stored.
func Hint(question string) string {
	q := strings.ToLower(question)
	for _, rule := range hintRules {
		if strings.Contains(q, rule.keyword) {
			return rule.hint
		}
	}
	return defaultHint
}
