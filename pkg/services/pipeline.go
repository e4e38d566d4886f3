package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/quotewise/quote-engine/pkg/models"
)

// PipelineResult bundles everything one reconciliation run produces.
type PipelineResult struct {
	Rows         []*models.ComparisonRow   `json:"rows"`
	SectionStats []models.SectionStats     `json:"section_stats"`
	Totals       models.TotalsSummary      `json:"totals"`
	Equalisation models.EqualisationResult `json:"equalisation"`
	Award        models.AwardSummary       `json:"award"`
}

// Pipeline runs the full reconciliation: comparison, model-rate annotation,
// equalisation, and award scoring. Each stage is a pure function of the
// previous stage's output; the pipeline holds no state between runs.
type Pipeline struct {
	comparison   *ComparisonService
	modelRates   *ModelRateService
	equalisation *EqualisationService
	award        *AwardService
	logger       *zap.Logger
}

func NewPipeline(
	comparison *ComparisonService,
	modelRates *ModelRateService,
	equalisation *EqualisationService,
	award *AwardService,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		comparison:   comparison,
		modelRates:   modelRates,
		equalisation: equalisation,
		award:        award,
		logger:       logger.Named("pipeline"),
	}
}

// Run reconciles the given supplier quotes. Fewer than two suppliers with
// items yields an empty result, which is a normal workflow state rather
// than an error.
func (p *Pipeline) Run(ctx context.Context, quotes []models.SupplierQuote, mode models.EqualisationMode) PipelineResult {
	rows := p.comparison.BuildMultiSupplierComparison(ctx, quotes)
	if len(rows) == 0 {
		p.logger.Info("nothing to compare", zap.Int("quotes", len(quotes)))
		return PipelineResult{
			Equalisation: p.equalisation.Equalise(nil, quotes, mode),
			Award:        p.award.BuildSummary(nil, nil, models.EqualisationResult{Mode: mode}),
		}
	}

	p.modelRates.Annotate(ctx, rows)

	eq := p.equalisation.Equalise(rows, quotes, mode)
	award := p.award.BuildSummary(rows, quotes, eq)

	return PipelineResult{
		Rows:         rows,
		SectionStats: CalculateSectionStats(rows, len(quotes)),
		Totals:       CalculateTotalsSummary(rows, len(quotes)),
		Equalisation: eq,
		Award:        award,
	}
}
