package services

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/quotewise/quote-engine/pkg/models"
	"github.com/quotewise/quote-engine/pkg/modelrate"
)

// Model-rate flag boundaries, in percent of absolute variance. Boundary
// values take the tighter flag.
const (
	modelVarianceGreen = 10.0
	modelVarianceAmber = 25.0
)

// ModelRateService annotates comparison rows with reference-rate variance.
// It is a pure row-by-row transform; a failed or empty lookup leaves the row
// flagged NA rather than aborting the run.
type ModelRateService struct {
	provider modelrate.Provider
	logger   *zap.Logger
}

func NewModelRateService(provider modelrate.Provider, logger *zap.Logger) *ModelRateService {
	return &ModelRateService{
		provider: provider,
		logger:   logger.Named("model_rate"),
	}
}

// Annotate looks up the model rate for every system-mapped row and flags
// each present cell GREEN/AMBER/RED by variance, or NA when either the model
// rate or the quoted rate is unknown or non-positive.
func (s *ModelRateService) Annotate(ctx context.Context, rows []*models.ComparisonRow) {
	// One lookup per distinct system per run.
	resolved := make(map[string]modelrate.Result)

	for _, row := range rows {
		if row.SystemID == "" {
			continue
		}

		result, seen := resolved[row.SystemID]
		if !seen {
			var err error
			result, err = s.provider.Lookup(ctx, modelrate.Criteria{
				SystemID: row.SystemID,
				Size:     row.Size,
			})
			if err != nil {
				s.logger.Warn("model rate lookup failed",
					zap.String("system_id", row.SystemID),
					zap.Error(err))
				result = modelrate.Result{}
			}
			resolved[row.SystemID] = result
		}

		if !result.Found() {
			continue
		}

		row.ModelRate = result.Rate
		row.ComponentCount = result.ComponentCount

		for i := range row.Cells {
			cell := &row.Cells[i]
			if !cell.Present() || cell.Rate == nil {
				continue
			}
			variance := (*cell.Rate - *result.Rate) / *result.Rate * 100
			cell.ModelVariancePct = &variance
			cell.Flag = ModelVarianceFlag(variance)
		}
	}
}

// ModelVarianceFlag classifies a model-rate variance percentage.
func ModelVarianceFlag(variancePct float64) models.VarianceFlag {
	abs := math.Abs(variancePct)
	switch {
	case abs <= modelVarianceGreen:
		return models.FlagGreen
	case abs <= modelVarianceAmber:
		return models.FlagAmber
	default:
		return models.FlagRed
	}
}
