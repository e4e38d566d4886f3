package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/quotewise/quote-engine/pkg/apperrors"
	"github.com/quotewise/quote-engine/pkg/cache"
	"github.com/quotewise/quote-engine/pkg/llm"
	"github.com/quotewise/quote-engine/pkg/models"
	"github.com/quotewise/quote-engine/pkg/retry"
)

const remoteMatchSystemPrompt = `You are an expert construction quantity surveyor specialising in passive fire protection.
You match line items between two supplier quotations for the same scope of work.
Items match when they describe the same physical work: the same service penetration,
the same size range, the same fire rating, even when the wording differs.
Never match items from different service types (electrical vs plumbing vs mechanical).
Respond with JSON only.`

// remoteItem is the trimmed wire form of a line item sent to the matching
// service.
type remoteItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Qty         float64 `json:"qty"`
	Unit        string  `json:"unit,omitempty"`
	Rate        float64 `json:"rate"`
	Total       float64 `json:"total"`
	Section     string  `json:"section,omitempty"`
	Service     string  `json:"service,omitempty"`
	Size        string  `json:"size,omitempty"`
	Reference   string  `json:"reference,omitempty"`
}

type remoteMatch struct {
	Supplier1ID string  `json:"supplier1Id"`
	Supplier2ID string  `json:"supplier2Id"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
}

type remoteMatchResponse struct {
	Success    bool          `json:"success"`
	Matches    []remoteMatch `json:"matches"`
	Confidence float64       `json:"confidence"`
	Stats      struct {
		Supplier1Count int `json:"supplier1Count"`
		Supplier2Count int `json:"supplier2Count"`
		MatchedCount   int `json:"matchedCount"`
	} `json:"stats"`
}

// RemoteStrategy delegates matching to an LLM-backed service. Results are
// cached by item-set fingerprint so re-runs of the same comparison do not
// pay for a second model call.
type RemoteStrategy struct {
	client      llm.LLMClient
	temperature float64
	limiter     *rate.Limiter
	retryCfg    *retry.Config
	store       cache.Store
	logger      *zap.Logger
}

var _ MatchStrategy = (*RemoteStrategy)(nil)

// NewRemoteStrategy creates the remote matching strategy. A nil store
// disables caching.
func NewRemoteStrategy(client llm.LLMClient, temperature float64, limiter *rate.Limiter, store cache.Store, logger *zap.Logger) *RemoteStrategy {
	if store == nil {
		store = cache.NoopStore{}
	}
	return &RemoteStrategy{
		client:      client,
		temperature: temperature,
		limiter:     limiter,
		retryCfg:    retry.DefaultConfig(),
		store:       store,
		logger:      logger.Named("remote_matcher"),
	}
}

func (s *RemoteStrategy) Name() string { return "remote" }

func (s *RemoteStrategy) Match(ctx context.Context, source, target []*models.LineItem, sourceName, targetName string) (models.MatchMap, error) {
	if len(source) == 0 || len(target) == 0 {
		return models.MatchMap{}, nil
	}

	key := matchCacheKey(source, target, s.client.GetModel())

	if cached, found, err := s.store.Get(ctx, key); err == nil && found {
		var resp remoteMatchResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			s.logger.Debug("remote match cache hit", zap.String("key", key))
			return s.toMatchMap(resp, source, target), nil
		}
	}

	prompt := buildMatchPrompt(source, target, sourceName, targetName)

	resp, err := retry.DoWithResult(ctx, s.retryCfg, func() (remoteMatchResponse, error) {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return remoteMatchResponse{}, err
			}
		}

		result, err := s.client.GenerateResponse(ctx, prompt, remoteMatchSystemPrompt, s.temperature)
		if err != nil {
			return remoteMatchResponse{}, err
		}

		parsed, err := llm.ParseJSONResponse[remoteMatchResponse](result.Content)
		if err != nil {
			return remoteMatchResponse{}, fmt.Errorf("%w: %v", apperrors.ErrRemoteMatcherUnavailable, err)
		}
		return parsed, nil
	})
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("%w: service reported failure", apperrors.ErrRemoteMatcherUnavailable)
	}

	if payload, err := json.Marshal(resp); err == nil {
		if err := s.store.Set(ctx, key, string(payload)); err != nil {
			s.logger.Debug("failed to cache remote match result", zap.Error(err))
		}
	}

	s.logger.Info("remote match completed",
		zap.Int("matches", len(resp.Matches)),
		zap.Float64("confidence", resp.Confidence))

	return s.toMatchMap(resp, source, target), nil
}

// toMatchMap resolves wire IDs back to line items, dropping matches that
// reference unknown items and enforcing one-to-one assignment on both sides.
func (s *RemoteStrategy) toMatchMap(resp remoteMatchResponse, source, target []*models.LineItem) models.MatchMap {
	sourceByID := make(map[string]*models.LineItem, len(source))
	for _, item := range source {
		sourceByID[item.ID.String()] = item
	}
	targetByID := make(map[string]*models.LineItem, len(target))
	for _, item := range target {
		targetByID[item.ID.String()] = item
	}

	matches := make(models.MatchMap)
	usedTargets := make(map[uuid.UUID]struct{})

	for _, m := range resp.Matches {
		sourceItem, ok := sourceByID[m.Supplier1ID]
		if !ok {
			s.logger.Debug("remote match references unknown source item", zap.String("id", m.Supplier1ID))
			continue
		}
		targetItem, ok := targetByID[m.Supplier2ID]
		if !ok {
			s.logger.Debug("remote match references unknown target item", zap.String("id", m.Supplier2ID))
			continue
		}
		if _, exists := matches[sourceItem.ID]; exists {
			continue
		}
		if _, taken := usedTargets[targetItem.ID]; taken {
			continue
		}

		matches[sourceItem.ID] = models.Match{
			Target: targetItem,
			Score:  m.Confidence,
			Status: models.StatusMatched,
		}
		usedTargets[targetItem.ID] = struct{}{}
	}

	return matches
}

func buildMatchPrompt(source, target []*models.LineItem, sourceName, targetName string) string {
	if sourceName == "" {
		sourceName = "Supplier 1"
	}
	if targetName == "" {
		targetName = "Supplier 2"
	}

	s1, _ := json.MarshalIndent(toRemoteItems(source), "", "  ")
	s2, _ := json.MarshalIndent(toRemoteItems(target), "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "Match line items from %s against line items from %s.\n\n", sourceName, targetName)
	fmt.Fprintf(&b, "%s items:\n%s\n\n", sourceName, s1)
	fmt.Fprintf(&b, "%s items:\n%s\n\n", targetName, s2)
	b.WriteString(`Return JSON in exactly this shape:
{
  "success": true,
  "matches": [
    {"supplier1Id": "<id>", "supplier2Id": "<id>", "confidence": 0.0, "reason": "<short justification>"}
  ],
  "confidence": 0.0,
  "stats": {"supplier1Count": 0, "supplier2Count": 0, "matchedCount": 0}
}

Rules:
- Each item appears in at most one match.
- confidence is in [0, 1]; only include matches you are confident about.
- Leave genuinely unmatched items out of the matches array.`)

	return b.String()
}

func toRemoteItems(items []*models.LineItem) []remoteItem {
	out := make([]remoteItem, len(items))
	for i, item := range items {
		out[i] = remoteItem{
			ID:          item.ID.String(),
			Description: item.Description,
			Qty:         item.Quantity,
			Unit:        item.Unit,
			Rate:        item.Rate,
			Total:       item.Total,
			Section:     item.Section,
			Service:     item.Service,
			Size:        item.Size,
			Reference:   item.Reference,
		}
	}
	return out
}

// matchCacheKey fingerprints the item sets and model so cache entries are
// invalidated by any change to either list.
func matchCacheKey(source, target []*models.LineItem, model string) string {
	h := sha256.New()
	h.Write([]byte(model))
	for _, item := range source {
		h.Write(item.ID[:])
	}
	h.Write([]byte{0})
	for _, item := range target {
		h.Write(item.ID[:])
	}
	return "quotewise:match:" + hex.EncodeToString(h.Sum(nil))
}
