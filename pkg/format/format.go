// Package format renders the single-line results the command layer emits,
// and offers fuzzy suggestions for mistyped verbs.
package format

import (
	"github.com/agnivade/levenshtein"
)

// Result formats a mutation result line: `+ message` on success,
// `! message` on failure.
func Result(ok bool, message string) string {
	if ok {
		return "+ " + message
	}
	return "! " + message
}

// WithPrefix formats a result line with a caller-specified prefix character
// instead of the +/! convention.
func WithPrefix(prefix, message string) string {
	return prefix + " " + message
}

// suggestCutoff is the minimum normalized similarity for a suggestion to be
// offered. Below this, a hint is more likely to mislead than help.
const suggestCutoff = 0.6

// Suggest returns the candidate closest to input by normalized Levenshtein
// similarity, or false when no candidate clears the cutoff.
func Suggest(input string, candidates []string) (string, bool) {
	best := ""
	bestScore := 0.0
	for _, cand := range candidates {
		longest := max(len(input), len(cand))
		if longest == 0 {
			continue
		}
		dist := levenshtein.ComputeDistance(input, cand)
		score := 1.0 - float64(dist)/float64(longest)
		if score > bestScore {
			best, bestScore = cand, score
		}
	}
	if bestScore < suggestCutoff {
		return "", false
	}
	return best, true
}
