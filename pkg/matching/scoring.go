package matching

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Scorer provides the string and value comparisons used to score candidates
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Levenshtein returns 1 - distance/longest, in [0, 1]
func (s *Scorer) Levenshtein(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}

// TokenSortRatio compares a and b after splitting them into alphanumeric
// tokens and sorting, so word order does not matter.
func (s *Scorer) TokenSortRatio(a, b string) float64 {
	sa, sb := SortedTokens(a), SortedTokens(b)
	if sa == sb {
		return 1.0
	}
	if sa == "" || sb == "" {
		return 0.0
	}
	return s.Levenshtein(sa, sb)
}

// SortedTokens lowercases s, splits on anything that is not a letter or
// digit and joins the sorted tokens with single spaces.
func SortedTokens(s string) string {
	tokens := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// NumericProximity returns 1.0 for equal values, decaying linearly to 0.0 at maxDiff
func (s *Scorer) NumericProximity(a, b, maxDiff float64) float64 {
	if a == b {
		return 1.0
	}

	diff := math.Abs(a - b)
	if diff >= maxDiff {
		return 0.0
	}

	return 1.0 - (diff / maxDiff)
}

// WeightedScore calculates a weighted average of scores
func (s *Scorer) WeightedScore(scores map[string]float64, weights map[string]float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	fields := make([]string, 0, len(scores))
	for field := range scores {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var totalWeight float64
	var weightedSum float64
	for _, field := range fields {
		weight := 1.0
		if w, ok := weights[field]; ok {
			weight = w
		}
		weightedSum += scores[field] * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0.0
	}

	return weightedSum / totalWeight
}

// Round rounds v to the given number of decimal places
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
