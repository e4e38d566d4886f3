package services

import (
	"context"

	"github.com/quotewise/quote-engine/pkg/models"
)

// MatchStrategy pairs source items against target items. Strategies are
// tried in order by the matcher; returning an error hands control to the
// next strategy in the chain.
type MatchStrategy interface {
	Name() string
	Match(ctx context.Context, source, target []*models.LineItem, sourceName, targetName string) (models.MatchMap, error)
}

// ScoredCandidate is one cell of the candidate score matrix.
type ScoredCandidate struct {
	Target *models.LineItem
	Score  float64
}

// AssignmentPolicy turns a per-source candidate list (ordered as the target
// list) into an accepted assignment. Policies must never assign one target
// to two sources.
type AssignmentPolicy interface {
	Assign(source []*models.LineItem, candidates [][]ScoredCandidate) models.MatchMap
}

// GreedyPolicy walks source items in input order and takes each item's
// highest-scoring unused target above the threshold. Ties keep the first
// target encountered, so output is deterministic for a given input order.
type GreedyPolicy struct {
	Threshold float64
}

var _ AssignmentPolicy = (*GreedyPolicy)(nil)

func (p *GreedyPolicy) Assign(source []*models.LineItem, candidates [][]ScoredCandidate) models.MatchMap {
	matches := make(models.MatchMap)
	used := make(map[*models.LineItem]struct{})

	for i, item := range source {
		var best *ScoredCandidate
		for j := range candidates[i] {
			c := &candidates[i][j]
			if _, taken := used[c.Target]; taken {
				continue
			}
			if c.Score > p.Threshold && (best == nil || c.Score > best.Score) {
				best = c
			}
		}

		if best != nil {
			matches[item.ID] = models.Match{
				Target: best.Target,
				Score:  best.Score,
				Status: models.StatusMatched,
			}
			used[best.Target] = struct{}{}
		}
	}

	return matches
}

// LocalStrategy scores every source/target pair with MatchScore and hands
// the matrix to the assignment policy. It never fails, which makes it the
// terminal strategy of any chain.
type LocalStrategy struct {
	Policy   AssignmentPolicy
	Observer Observer
}

var _ MatchStrategy = (*LocalStrategy)(nil)

// NewLocalStrategy creates the pattern-matching strategy with a greedy
// assignment policy at the given acceptance threshold.
func NewLocalStrategy(threshold float64, observer Observer) *LocalStrategy {
	if observer == nil {
		observer = NopObserver{}
	}
	return &LocalStrategy{
		Policy:   &GreedyPolicy{Threshold: threshold},
		Observer: observer,
	}
}

func (s *LocalStrategy) Name() string { return "local" }

func (s *LocalStrategy) Match(_ context.Context, source, target []*models.LineItem, _, _ string) (models.MatchMap, error) {
	if len(source) == 0 || len(target) == 0 {
		return models.MatchMap{}, nil
	}

	candidates := make([][]ScoredCandidate, len(source))
	for i, item1 := range source {
		row := make([]ScoredCandidate, len(target))
		for j, item2 := range target {
			row[j] = ScoredCandidate{Target: item2, Score: MatchScore(item1, item2)}
		}
		candidates[i] = row
	}

	matches := s.Policy.Assign(source, candidates)

	for _, item := range source {
		if m, ok := matches[item.ID]; ok {
			s.Observer.MatchAttempted(item.Description, m.Target.Description, m.Score, true)
		} else {
			s.Observer.MatchAttempted(item.Description, "", 0, false)
		}
	}

	return matches, nil
}
