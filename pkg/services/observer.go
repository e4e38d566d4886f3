// Package services implements the quote reconciliation pipeline: attribute
// extraction, fuzzy matching, multi-supplier comparison, model-rate variance,
// equalisation, and award scoring.
package services

import (
	"go.uber.org/zap"

	"github.com/quotewise/quote-engine/pkg/models"
)

// Observer is the telemetry port for the pipeline. Components report the
// interesting decision points here instead of logging directly, so callers
// can swap in their own sink.
type Observer interface {
	MatchAttempted(source, target string, score float64, accepted bool)
	RowAccepted(row *models.ComparisonRow)
	FillApplied(entry models.EqualisationLogEntry)
	StrategyFellBack(strategy string, reason string)
}

// NopObserver discards all events.
type NopObserver struct{}

var _ Observer = NopObserver{}

func (NopObserver) MatchAttempted(string, string, float64, bool) {}
func (NopObserver) RowAccepted(*models.ComparisonRow)            {}
func (NopObserver) FillApplied(models.EqualisationLogEntry)      {}
func (NopObserver) StrategyFellBack(string, string)              {}

// ZapObserver writes events to a zap logger at debug level, with fallbacks
// surfaced at warn so operators see when the remote matcher degrades.
type ZapObserver struct {
	logger *zap.Logger
}

var _ Observer = (*ZapObserver)(nil)

func NewZapObserver(logger *zap.Logger) *ZapObserver {
	return &ZapObserver{logger: logger.Named("engine")}
}

func (o *ZapObserver) MatchAttempted(source, target string, score float64, accepted bool) {
	o.logger.Debug("match attempted",
		zap.String("source", source),
		zap.String("target", target),
		zap.Float64("score", score),
		zap.Bool("accepted", accepted))
}

func (o *ZapObserver) RowAccepted(row *models.ComparisonRow) {
	o.logger.Debug("row accepted",
		zap.String("row_id", row.ID),
		zap.String("status", string(row.MatchStatus)),
		zap.Int("suppliers_present", len(row.PresentSuppliers())))
}

func (o *ZapObserver) FillApplied(entry models.EqualisationLogEntry) {
	o.logger.Debug("fill applied",
		zap.String("supplier", entry.Supplier),
		zap.String("system_id", entry.SystemID),
		zap.String("source", entry.Source),
		zap.Float64("rate_used", entry.RateUsed))
}

func (o *ZapObserver) StrategyFellBack(strategy string, reason string) {
	o.logger.Warn("matching strategy fell back",
		zap.String("strategy", strategy),
		zap.String("reason", reason))
}
