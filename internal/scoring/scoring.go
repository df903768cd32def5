// Package scoring turns a provider-supplied multi-criteria analysis into an
// internally consistent, ranked recommendation.
//
// The reasoning provider's arithmetic is never trusted: totals are always
// recomputed from the per-criterion scores and weights, and the confidence
// band is derived from the separation between the top two options.
package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Confidence band constants. Confidence grows with the score separation
// between the top two options but is clamped so it never reads as
// spuriously certain or useless.
const (
	ConfidenceFloor   = 60
	ConfidenceCeiling = 95
	// DefaultConfidence is reported for the degenerate single-option case.
	DefaultConfidence = 75

	confidenceBase = 70
)

// ErrInvalidAnalysis indicates the candidate analysis cannot be scored.
var ErrInvalidAnalysis = errors.New("invalid analysis")

// Criterion is one weighted dimension of the comparison. Weights are
// relative and need not sum to 1, but must be non-negative.
type Criterion struct {
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// OptionScore holds one option's per-criterion scores. Scores pair with the
// analysis criteria by index.
type OptionScore struct {
	Option     string    `json:"option"`
	Scores     []float64 `json:"scores"`
	TotalScore float64   `json:"total_score"`
	Strengths  []string  `json:"strengths"`
	Weaknesses []string  `json:"weaknesses"`
}

// Analysis is the terminal artifact of a completed dialogue.
type Analysis struct {
	Decision        string        `json:"decision"`
	Options         []string      `json:"options"`
	Criteria        []Criterion   `json:"criteria"`
	Scores          []OptionScore `json:"scores"`
	Recommendation  string        `json:"recommendation"`
	Confidence      int           `json:"confidence"`
	Reasoning       []string      `json:"reasoning,omitempty"`
	WhatWouldChange []string      `json:"what_would_change,omitempty"`
	Considerations  []string      `json:"considerations,omitempty"`
	Timeline        string        `json:"timeline,omitempty"`
}

// Finalize validates the analysis, recomputes all totals, ranks the options,
// and derives confidence. It mutates the analysis in place.
//
// After Finalize, Scores is ordered best-first (ties keep the provider's
// original order), every TotalScore equals the weighted sum of its
// per-criterion scores, and Recommendation names the top-ranked option.
func Finalize(a *Analysis) error {
	if err := validate(a); err != nil {
		return err
	}

	// Recompute totals; upstream arithmetic is ignored.
	for i := range a.Scores {
		total := 0.0
		for j, s := range a.Scores[i].Scores {
			total += s * a.Criteria[j].Weight
		}
		a.Scores[i].TotalScore = total
	}

	// Stable sort: no tiebreak signal exists beyond original order.
	sort.SliceStable(a.Scores, func(i, j int) bool {
		return a.Scores[i].TotalScore > a.Scores[j].TotalScore
	})

	a.Confidence = confidence(a.Scores)

	// The top-ranked option is the recommendation subject. The provider's
	// rationale text is kept when it already names that option.
	top := a.Scores[0].Option
	if a.Recommendation == "" || !strings.Contains(strings.ToLower(a.Recommendation), strings.ToLower(top)) {
		a.Recommendation = top
	}

	return nil
}

// confidence derives the calibrated confidence integer.
//
// Fewer than two options yields the fixed default. Otherwise confidence is
// base + (top total - runner-up total), with the fractional part truncated
// toward zero, clamped to [ConfidenceFloor, ConfidenceCeiling].
func confidence(scores []OptionScore) int {
	if len(scores) < 2 {
		return DefaultConfidence
	}
	diff := scores[0].TotalScore - scores[1].TotalScore
	c := int(confidenceBase + diff)
	if c < ConfidenceFloor {
		return ConfidenceFloor
	}
	if c > ConfidenceCeiling {
		return ConfidenceCeiling
	}
	return c
}

// validate checks the structural requirements for scoring.
func validate(a *Analysis) error {
	if a == nil {
		return fmt.Errorf("%w: nil analysis", ErrInvalidAnalysis)
	}
	if len(a.Options) == 0 {
		return fmt.Errorf("%w: no options", ErrInvalidAnalysis)
	}
	if len(a.Criteria) == 0 {
		return fmt.Errorf("%w: no criteria", ErrInvalidAnalysis)
	}
	if len(a.Scores) == 0 {
		return fmt.Errorf("%w: no scored options", ErrInvalidAnalysis)
	}
	for _, c := range a.Criteria {
		if c.Weight < 0 {
			return fmt.Errorf("%w: criterion %q has negative weight %v", ErrInvalidAnalysis, c.Name, c.Weight)
		}
	}
	for _, s := range a.Scores {
		if len(s.Scores) != len(a.Criteria) {
			return fmt.Errorf("%w: option %q has %d scores for %d criteria",
				ErrInvalidAnalysis, s.Option, len(s.Scores), len(a.Criteria))
		}
	}
	return nil
}
