package ai

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// ReEvaluationThreshold is the edit-distance ratio a change must exceed before a
// poem is sent back to the provider.
const ReEvaluationThreshold = 0.1

// DecideReEvaluation compares the stored body with the new one. A nil previous
// body means the poem is new and always needs evaluation. The ratio is the
// Levenshtein distance over runes divided by the longer body's rune count, and
// re-evaluation is needed only when it is strictly greater than the threshold.
func DecideReEvaluation(previous *string, next string) ReEvaluationDecision {
	if previous == nil {
		return ReEvaluationDecision{Needed: true, DistanceRatio: 1}
	}

	longest := utf8.RuneCountInString(*previous)
	if n := utf8.RuneCountInString(next); n > longest {
		longest = n
	}
	if longest == 0 {
		return ReEvaluationDecision{Needed: false, DistanceRatio: 0}
	}

	distance := levenshtein.ComputeDistance(*previous, next)
	ratio := float64(distance) / float64(longest)

	return ReEvaluationDecision{
		Needed:        ratio > ReEvaluationThreshold,
		DistanceRatio: ratio,
	}
}
