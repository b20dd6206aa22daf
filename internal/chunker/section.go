package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minHeaderLen   = 3
	maxHeaderLen   = 100
	maxHeaderWords = 8
)

var (
	romanMarkers  = []string{"I.", "II.", "III.", "IV.", "V."}
	arabicMarkers = []string{"1.", "2.", "3.", "4.", "5.", "6.", "7.", "8.", "9."}
	letterMarkers = []string{"A.", "B.", "C.", "D.", "E."}

	// matched as lower-case prefixes
	headingKeywords = []string{"chapter", "chapitre", "lesson", "leçon"}

	// matched against the whole line, case-insensitive
	academicHeadings = map[string]struct{}{
		"abstract":          {},
		"introduction":      {},
		"literature review": {},
		"methodology":       {},
		"method":            {},
		"results":           {},
		"discussion":        {},
		"conclusion":        {},
		"references":        {},
		"reference":         {},
	}
)

// IsSectionHeader reports whether a trimmed line looks like a structural heading.
// It is a heuristic; misclassified lines only produce short sections.
func IsSectionHeader(line string) bool {
	n := utf8.RuneCountInString(line)
	if n < minHeaderLen || n > maxHeaderLen {
		return false
	}
	if isUpper(line) && len(strings.Fields(line)) <= maxHeaderWords {
		return true
	}
	if hasAnyPrefix(line, romanMarkers) || hasAnyPrefix(line, arabicMarkers) || hasAnyPrefix(line, letterMarkers) {
		return true
	}
	lower := strings.ToLower(line)
	if hasAnyPrefix(lower, headingKeywords) {
		return true
	}
	_, ok := academicHeadings[lower]
	return ok
}

// isUpper is true when the line has at least one cased letter and none in lower case.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
