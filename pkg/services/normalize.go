package services

import (
	"regexp"
	"strings"
)

var (
	nonWordPattern    = regexp.MustCompile(`[^\w\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	numberPattern     = regexp.MustCompile(`\d+`)
)

// normalizeDescription lowercases, strips punctuation, and collapses
// whitespace so token comparisons are stable across formatting differences.
func normalizeDescription(desc string) string {
	s := strings.ToLower(desc)
	s = nonWordPattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// normalizeSize strips spacing, unifies the dimension separator, and drops
// the mm suffix so "100 x 50mm" and "100×50" compare equal.
func normalizeSize(size string) string {
	s := strings.ToLower(size)
	s = whitespacePattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "×", "x")
	s = strings.ReplaceAll(s, "mm", "")
	return s
}

// unitSynonyms collapses the unit spellings seen across supplier quotes to
// one canonical token per measurement kind.
var unitSynonyms = map[string]string{
	"no":          "no",
	"number":      "no",
	"ea":          "no",
	"each":        "no",
	"m":           "m",
	"meter":       "m",
	"metre":       "m",
	"m2":          "m2",
	"sqm":         "m2",
	"m²":          "m2",
	"squaremeter": "m2",
	"lm":          "lm",
	"linearmeter": "lm",
	"hr":          "hr",
	"hour":        "hr",
	"hrs":         "hr",
	"hours":       "hr",
}

func normalizeUnit(unit string) string {
	s := strings.ToLower(unit)
	s = strings.ReplaceAll(s, ".", "")
	s = whitespacePattern.ReplaceAllString(s, "")
	if canonical, ok := unitSynonyms[s]; ok {
		return canonical
	}
	return s
}

// extractNumbers returns the set of numeric tokens in the raw text. Shared
// numbers (a pipe diameter, an FRL rating) are a strong matching signal.
func extractNumbers(text string) map[string]struct{} {
	nums := numberPattern.FindAllString(text, -1)
	set := make(map[string]struct{}, len(nums))
	for _, n := range nums {
		set[n] = struct{}{}
	}
	return set
}
