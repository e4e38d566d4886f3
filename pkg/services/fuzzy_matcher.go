package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/quotewise/quote-engine/pkg/config"
	"github.com/quotewise/quote-engine/pkg/models"
)

// Matcher orchestrates the matching strategy chain: the remote strategy for
// large item sets when configured, with the local strategy as the terminal
// fallback. Remote failure is never fatal; the caller always gets a result.
type Matcher struct {
	remote   MatchStrategy
	local    MatchStrategy
	cfg      config.MatcherConfig
	observer Observer
	logger   *zap.Logger
}

// NewMatcher creates a matcher. remote may be nil when the remote service is
// not configured; matching is then purely local.
func NewMatcher(remote MatchStrategy, cfg config.MatcherConfig, observer Observer, logger *zap.Logger) *Matcher {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Matcher{
		remote:   remote,
		local:    NewLocalStrategy(cfg.MatchThreshold, observer),
		cfg:      cfg,
		observer: observer,
		logger:   logger.Named("matcher"),
	}
}

// Match pairs source items against target items one-to-one. Empty input on
// either side yields an empty map.
func (m *Matcher) Match(ctx context.Context, source, target []*models.LineItem, sourceName, targetName string) models.MatchMap {
	if len(source) == 0 || len(target) == 0 {
		return models.MatchMap{}
	}

	if m.remoteEligible(source, target) {
		matches, err := m.remote.Match(ctx, source, target, sourceName, targetName)
		switch {
		case err != nil:
			m.observer.StrategyFellBack(m.remote.Name(), err.Error())
			m.logger.Warn("remote matching failed, falling back to local",
				zap.Error(err))
		case m.acceptRemote(matches, len(source)):
			return matches
		default:
			rate := float64(len(matches)) / float64(len(source))
			m.observer.StrategyFellBack(m.remote.Name(), "match rate below threshold")
			m.logger.Info("remote match rate below threshold, falling back to local",
				zap.Float64("match_rate", rate),
				zap.Float64("min_rate", m.cfg.MinRemoteMatchRate))
		}
	}

	matches, _ := m.local.Match(ctx, source, target, sourceName, targetName)
	return matches
}

func (m *Matcher) remoteEligible(source, target []*models.LineItem) bool {
	return m.remote != nil &&
		len(source) >= m.cfg.MinRemoteItems &&
		len(target) >= m.cfg.MinRemoteItems
}

// acceptRemote gates a remote result: enough coverage, or any matches at all
// when AcceptAnyRemoteMatches is on.
func (m *Matcher) acceptRemote(matches models.MatchMap, sourceCount int) bool {
	matchRate := float64(len(matches)) / float64(sourceCount)
	if matchRate >= m.cfg.MinRemoteMatchRate {
		return true
	}
	return m.cfg.AcceptAnyRemoteMatches && len(matches) > 0
}
