// Package resolve implements cross-source entity resolution and schema
// harmonization for the corporate registry pipeline.
package resolve

import (
	"strings"
	"unicode"
)

// NormalizeName canonicalizes a corporate name for identity matching:
// case-fold, strip punctuation, collapse whitespace.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
		// Punctuation and symbols are dropped.
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenOverlapScore scores two normalized names by token overlap. Exact
// equality scores 1.0; containment scores by length ratio.
func tokenOverlapScore(a, b string) float32 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1.0
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		shorter := len(a)
		longer := len(b)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		if longer == 0 {
			return 0
		}
		return float32(shorter) / float32(longer)
	}

	aTokens := strings.Fields(a)
	bTokens := strings.Fields(b)

	matches := 0
	for _, at := range aTokens {
		for _, bt := range bTokens {
			if at == bt {
				matches++
				break
			}
		}
	}

	total := len(aTokens) + len(bTokens)
	if total == 0 {
		return 0
	}
	return float32(matches*2) / float32(total)
}
