package patch

import (
	"strings"
	"unicode"
)

// Normalize trims a line and collapses internal whitespace runs to a
// single space, for fuzzy-matching comparison only — it never affects
// the content actually written to disk (spec.md §4.4).
func Normalize(line string) string {
	fields := strings.FieldsFunc(line, unicode.IsSpace)
	return strings.Join(fields, " ")
}

// Similarity is the asymmetric, cheap character-overlap metric from
// spec.md §4.4: matches / max(len1, len2), where matches counts
// characters of the shorter string found anywhere in the longer one
// (by rune, not by substring position — a bag-of-characters overlap).
func Similarity(a, b string) float64 {
	if a == b {
		if len(a) == 0 {
			return 1.0
		}
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	shorter, longer := ra, rb
	if len(ra) > len(rb) {
		shorter, longer = rb, ra
	}
	maxLen := len(longer)
	if maxLen == 0 {
		return 1.0
	}

	longerCount := make(map[rune]int, len(longer))
	for _, r := range longer {
		longerCount[r]++
	}

	matches := 0
	for _, r := range shorter {
		if longerCount[r] > 0 {
			longerCount[r]--
			matches++
		}
	}
	return float64(matches) / float64(maxLen)
}
