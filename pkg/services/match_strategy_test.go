package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotewise/quote-engine/pkg/models"
)

func TestLocalStrategy_MatchesSimilarItems(t *testing.T) {
	source := []*models.LineItem{
		makeItem("A", "Fire collar to 100mm PVC pipe", 10, 45),
		makeItem("A", "Fire damper to 300x300 duct", 4, 180),
	}
	target := []*models.LineItem{
		makeItem("B", "Fire damper 300x300 to mechanical duct", 4, 175),
		makeItem("B", "Fire collar 100mm PVC pipe penetration", 10, 48),
	}

	s := NewLocalStrategy(0.25, nil)
	matches, err := s.Match(context.Background(), source, target, "A", "B")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, target[1].ID, matches[source[0].ID].Target.ID)
	assert.Equal(t, target[0].ID, matches[source[1].ID].Target.ID)
	for _, m := range matches {
		assert.Greater(t, m.Score, 0.25)
		assert.Equal(t, models.StatusMatched, m.Status)
	}
}

func TestLocalStrategy_EmptyInputs(t *testing.T) {
	s := NewLocalStrategy(0.25, nil)

	matches, err := s.Match(context.Background(), nil, []*models.LineItem{makeItem("B", "x", 1, 1)}, "", "")
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = s.Match(context.Background(), []*models.LineItem{makeItem("A", "x", 1, 1)}, nil, "", "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestLocalStrategy_NeverReusesTarget(t *testing.T) {
	// Three near-identical source items compete for two targets; no target
	// may be assigned twice.
	source := []*models.LineItem{
		makeItem("A", "Fire collar to 100mm pipe", 1, 40),
		makeItem("A", "Fire collar to 100mm pipe", 1, 41),
		makeItem("A", "Fire collar to 100mm pipe", 1, 42),
	}
	target := []*models.LineItem{
		makeItem("B", "Fire collar 100mm pipe", 1, 40),
		makeItem("B", "Fire collar 100mm pipe penetration", 1, 43),
	}

	s := NewLocalStrategy(0.25, nil)
	matches, err := s.Match(context.Background(), source, target, "", "")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	seen := map[uuid.UUID]struct{}{}
	for _, m := range matches {
		_, dup := seen[m.Target.ID]
		assert.False(t, dup, "target assigned twice")
		seen[m.Target.ID] = struct{}{}
	}
}

func TestLocalStrategy_BelowThresholdUnmatched(t *testing.T) {
	source := []*models.LineItem{makeItem("A", "Fire collar to 100mm PVC pipe", 1, 40)}
	target := []*models.LineItem{makeItem("B", "Preliminaries and site establishment", 1, 2000, withUnit("item"))}

	s := NewLocalStrategy(0.25, nil)
	matches, err := s.Match(context.Background(), source, target, "", "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestGreedyPolicy_TieKeepsFirstTarget(t *testing.T) {
	a := makeItem("A", "anchor", 1, 1)
	t1 := makeItem("B", "first", 1, 1)
	t2 := makeItem("B", "second", 1, 1)

	p := &GreedyPolicy{Threshold: 0.25}
	matches := p.Assign(
		[]*models.LineItem{a},
		[][]ScoredCandidate{{
			{Target: t1, Score: 0.8},
			{Target: t2, Score: 0.8},
		}},
	)

	require.Len(t, matches, 1)
	assert.Equal(t, t1.ID, matches[a.ID].Target.ID)
}

func TestGreedyPolicy_SourceOrderWins(t *testing.T) {
	// The first source item takes the shared best target; the second gets
	// the leftover even though its score for the taken target was higher.
	s1 := makeItem("A", "one", 1, 1)
	s2 := makeItem("A", "two", 1, 1)
	t1 := makeItem("B", "t1", 1, 1)
	t2 := makeItem("B", "t2", 1, 1)

	p := &GreedyPolicy{Threshold: 0.25}
	matches := p.Assign(
		[]*models.LineItem{s1, s2},
		[][]ScoredCandidate{
			{{Target: t1, Score: 0.6}, {Target: t2, Score: 0.3}},
			{{Target: t1, Score: 0.9}, {Target: t2, Score: 0.4}},
		},
	)

	require.Len(t, matches, 2)
	assert.Equal(t, t1.ID, matches[s1.ID].Target.ID)
	assert.Equal(t, t2.ID, matches[s2.ID].Target.ID)
}

func TestGreedyPolicy_ThresholdIsExclusive(t *testing.T) {
	a := makeItem("A", "anchor", 1, 1)
	tgt := makeItem("B", "target", 1, 1)

	p := &GreedyPolicy{Threshold: 0.25}
	matches := p.Assign(
		[]*models.LineItem{a},
		[][]ScoredCandidate{{{Target: tgt, Score: 0.25}}},
	)
	assert.Empty(t, matches, "score equal to the threshold must not be accepted")
}
