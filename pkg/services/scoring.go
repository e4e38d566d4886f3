package services

import (
	"strings"

	"github.com/quotewise/quote-engine/pkg/models"
)

// Score weights. The service+number bonus dominates because a shared service
// facet plus a shared dimension is the strongest signal two free-text lines
// describe the same work.
const (
	weightServiceAndNumber = 0.40
	weightDescription      = 0.35
	weightService          = 0.15
	weightSize             = 0.05
	weightUnit             = 0.05

	// levenshteinMaxLen caps the O(m*n) distance computation; longer
	// descriptions fall back to token similarity.
	levenshteinMaxLen = 200
)

// MatchScore computes the similarity of two line items in [0, 1].
//
// A service facet disagreement (both present, both non-generic, unequal) is a
// veto: the score is 0 no matter how similar the descriptions are, because
// an electrical penetration is never the same scope as a plumbing one.
func MatchScore(item1, item2 *models.LineItem) float64 {
	attrs1 := ExtractAttributes(item1.Description)
	attrs2 := ExtractAttributes(item2.Description)

	service1 := resolveService(attrs1, item1)
	service2 := resolveService(attrs2, item2)

	bothSpecific := service1 != "" && service2 != "" && service1 != "general" && service2 != "general"
	if bothSpecific && service1 != service2 {
		return 0
	}
	sameService := bothSpecific && service1 == service2

	score := 0.0

	numbers1 := extractNumbers(item1.Description)
	numbers2 := extractNumbers(item2.Description)
	if sameService && shareAny(numbers1, numbers2) {
		score += weightServiceAndNumber
	}

	desc1 := normalizeDescription(item1.Description)
	desc2 := normalizeDescription(item2.Description)

	descScore := max3(
		tokenSimilarity(desc1, desc2),
		substringMatch(desc1, desc2),
		levenshteinSimilarity(desc1, desc2)*0.8,
	)
	score += descScore * weightDescription

	if sameService {
		score += weightService
	}

	if attrs1.Size != "" && attrs2.Size != "" && normalizeSize(attrs1.Size) == normalizeSize(attrs2.Size) {
		score += weightSize
	} else if item1.Size != "" && item2.Size != "" && normalizeSize(item1.Size) == normalizeSize(item2.Size) {
		score += weightSize
	}

	if item1.Unit != "" && item2.Unit != "" && normalizeUnit(item1.Unit) == normalizeUnit(item2.Unit) {
		score += weightUnit
	}

	return score
}

// resolveService prefers the facet extracted from the description over the
// structured field, mirroring how ingestion fills the structured field in
// the first place.
func resolveService(attrs Attributes, item *models.LineItem) string {
	s := attrs.Service
	if s == "" {
		s = item.Service
	}
	return strings.ToLower(strings.TrimSpace(s))
}

func shareAny(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// tokenSimilarity is Jaccard similarity over tokens longer than two
// characters, which drops articles and unit noise.
func tokenSimilarity(s1, s2 string) float64 {
	set1 := tokenSet(s1, 2)
	set2 := tokenSet(s2, 2)
	if len(set1) == 0 || len(set2) == 0 {
		return 0
	}

	intersection := 0
	for t := range set1 {
		if _, ok := set2[t]; ok {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string, minLen int) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		if len(t) > minLen {
			set[t] = struct{}{}
		}
	}
	return set
}

// substringMatch returns 0.9 when one normalized description contains the
// other, else the fraction of the first string's significant words that
// overlap a word on the other side.
func substringMatch(s1, s2 string) float64 {
	shorter, longer := s1, s2
	if len(s2) < len(s1) {
		shorter, longer = s2, s1
	}
	if len(shorter) == 0 {
		return 0
	}
	if strings.Contains(longer, shorter) {
		return 0.9
	}

	words1 := significantWords(s1)
	words2 := significantWords(s2)
	if len(words1) == 0 {
		return 0
	}

	matched := 0
	for _, w := range words1 {
		for _, other := range words2 {
			if strings.Contains(other, w) || strings.Contains(w, other) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(words1))
}

func significantWords(s string) []string {
	var words []string
	for _, w := range strings.Fields(s) {
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}

func levenshteinSimilarity(s1, s2 string) float64 {
	if len(s1) == 0 && len(s2) == 0 {
		return 1
	}
	if len(s1) == 0 || len(s2) == 0 {
		return 0
	}

	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen > levenshteinMaxLen {
		return tokenSimilarity(s1, s2)
	}

	return 1 - float64(levenshteinDistance(s1, s2))/float64(maxLen)
}

// levenshteinDistance uses the two-row DP formulation.
func levenshteinDistance(s1, s2 string) int {
	m, n := len(s1), len(s2)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

func minInt(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
