package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotStructured indicates the provider's finalization response is free
// text rather than a parseable structured analysis. This is a supported
// output mode, not a failure.
var ErrNotStructured = errors.New("response is not a structured analysis")

// Parse extracts an Analysis from a raw provider response.
//
// Providers wrap JSON in markdown fences or surround it with prose often
// enough that strict unmarshaling would reject usable output, so Parse
// isolates the outermost JSON object before decoding. A response with no
// JSON object, undecodable JSON, or a decoded object missing options,
// criteria, or scores yields ErrNotStructured.
func Parse(raw string) (*Analysis, error) {
	body := extractJSON(raw)
	if body == "" {
		return nil, ErrNotStructured
	}

	var a Analysis
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotStructured, err)
	}

	if len(a.Options) == 0 || len(a.Criteria) == 0 || len(a.Scores) == 0 {
		return nil, ErrNotStructured
	}
	return &a, nil
}

// extractJSON returns the outermost {...} object in raw, stripping any
// markdown code fences first.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
