package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchScore_IdenticalItems(t *testing.T) {
	a := makeItem("A", "Fire seal 100mm PVC pipe penetration", 10, 45)
	b := makeItem("B", "Fire seal 100mm PVC pipe penetration", 10, 48)

	score := MatchScore(a, b)
	assert.Greater(t, score, 0.25)
	assert.LessOrEqual(t, score, 1.0)
}

func TestMatchScore_AlwaysInUnitInterval(t *testing.T) {
	items := []string{
		"Fire seal 100mm PVC pipe penetration FRL -/120/120",
		"100mm pipe",
		"",
		"Allowance for builders work in connection",
		"Fire damper 300 x 300mm to mechanical duct",
	}
	for _, d1 := range items {
		for _, d2 := range items {
			a := makeItem("A", d1, 1, 10)
			b := makeItem("B", d2, 1, 10)
			score := MatchScore(a, b)
			assert.GreaterOrEqual(t, score, 0.0, "%q vs %q", d1, d2)
			assert.LessOrEqual(t, score, 1.0, "%q vs %q", d1, d2)
		}
	}
}

func TestMatchScore_ServiceMismatchIsVeto(t *testing.T) {
	// Identical wording apart from the service facet: the veto wins over
	// every other similarity signal.
	a := makeItem("A", "Seal 100mm penetration to riser", 1, 40, withService("Electrical"))
	b := makeItem("B", "Seal 100mm penetration to riser", 1, 40, withService("Plumbing"))

	assert.Zero(t, MatchScore(a, b))
}

func TestMatchScore_GeneralServiceIsNotVetoed(t *testing.T) {
	a := makeItem("A", "Seal 100mm penetration to riser", 1, 40, withService("General"))
	b := makeItem("B", "Seal 100mm penetration to riser", 1, 40, withService("Plumbing"))

	assert.Greater(t, MatchScore(a, b), 0.0)
}

func TestMatchScore_ServiceAndNumberBonus(t *testing.T) {
	// Same extracted service plus a shared numeric token earns the 0.40
	// bonus on top of the 0.15 service bonus.
	a := makeItem("A", "Fire collar to 100mm pipe", 1, 40)
	b := makeItem("B", "Fire collar to 100mm pipe riser", 1, 42)

	score := MatchScore(a, b)
	assert.GreaterOrEqual(t, score, 0.40+0.15)
}

func TestMatchScore_UnitSynonymsCollapse(t *testing.T) {
	a := makeItem("A", "Fire pillow installation", 1, 15, withUnit("ea"))
	b := makeItem("B", "Fire pillow installation", 1, 15, withUnit("No."))
	c := makeItem("C", "Fire pillow installation", 1, 15, withUnit("m2"))

	withSameUnit := MatchScore(a, b)
	withDifferentUnit := MatchScore(a, c)
	assert.InDelta(t, 0.05, withSameUnit-withDifferentUnit, 1e-9)
}

func TestTokenSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, tokenSimilarity("seal pipe penetration", "seal pipe penetration"))
	assert.Zero(t, tokenSimilarity("seal pipe", "collar duct"))
	assert.Zero(t, tokenSimilarity("", "anything"))
	// Tokens of length <= 2 are ignored.
	assert.Zero(t, tokenSimilarity("to of in", "to of in"))
}

func TestSubstringMatch(t *testing.T) {
	assert.Equal(t, 0.9, substringMatch("pipe seal", "fire rated pipe seal to slab"))
	assert.Zero(t, substringMatch("", "anything"))

	// Word-overlap path: "penetration" appears on both sides.
	got := substringMatch("seal penetration opening", "penetration closure works")
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 0.9)
}

func TestLevenshteinSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, levenshteinSimilarity("", ""))
	assert.Zero(t, levenshteinSimilarity("abc", ""))
	assert.Equal(t, 1.0, levenshteinSimilarity("pipe seal", "pipe seal"))

	// One substitution in a four-char string.
	assert.InDelta(t, 0.75, levenshteinSimilarity("pipe", "ripe"), 1e-9)
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("seal", "seal"))
	assert.Equal(t, 1, levenshteinDistance("seal", "seals"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
}

func TestNormalizeUnit(t *testing.T) {
	cases := map[string]string{
		"ea":    "no",
		"Each":  "no",
		"No.":   "no",
		"m²":    "m2",
		"SQM":   "m2",
		"Hrs":   "hr",
		"metre": "m",
		"LM":    "lm",
		"item":  "item", // unknown units pass through
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeUnit(in), "unit %q", in)
	}
}

func TestNormalizeSize(t *testing.T) {
	assert.Equal(t, normalizeSize("100 x 50mm"), normalizeSize("100×50"))
	assert.Equal(t, "150", normalizeSize("150 MM"))
}
