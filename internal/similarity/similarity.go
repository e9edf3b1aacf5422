// Package similarity provides the edit-distance primitive behind fuzzy symptom
// matching.
package similarity

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Threshold is the strict lower bound a Ratio must exceed for two phrases to be
// considered similar.
const Threshold = 0.6

// Distance returns the Levenshtein distance between a and b with unit cost for
// insertion, deletion and substitution.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Ratio normalizes Distance into [0, 1]: 1 - distance/max(len(a), len(b)).
// Lengths are counted in runes. Two empty strings are identical.
func Ratio(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(Distance(a, b))/float64(maxLen)
}

// Similar reports whether Ratio(a, b) exceeds Threshold.
func Similar(a, b string) bool {
	return Ratio(a, b) > Threshold
}
