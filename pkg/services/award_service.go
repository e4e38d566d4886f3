package services

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/quotewise/quote-engine/pkg/models"
)

// Risk score weights.
const (
	riskWeightRed          = 1.0
	riskWeightAmber        = 0.5
	riskWeightMissingScope = 1.0
	riskWeightLowConf      = 1.0

	// lowConfidenceShare is the fraction of low-confidence matches above
	// which a supplier takes the low-confidence risk penalty.
	lowConfidenceShare = 0.10
)

// AwardService aggregates the comparison and equalisation outputs into a
// risk-scored supplier ranking with recommendations.
type AwardService struct {
	lowConfidenceThreshold float64
	logger                 *zap.Logger
}

func NewAwardService(lowConfidenceThreshold float64, logger *zap.Logger) *AwardService {
	return &AwardService{
		lowConfidenceThreshold: lowConfidenceThreshold,
		logger:                 logger.Named("award"),
	}
}

// BuildSummary scores every supplier and emits the three recommendations.
// Zero suppliers yields a well-formed empty summary, never an error.
func (s *AwardService) BuildSummary(
	rows []*models.ComparisonRow,
	quotes []models.SupplierQuote,
	eq models.EqualisationResult,
) models.AwardSummary {
	systems := distinctSystems(rows)

	summary := models.AwardSummary{
		Suppliers:        []models.SupplierAward{},
		Recommendations:  []models.AwardRecommendation{},
		Confidence:       models.ConfidenceLow,
		TotalSystems:     len(systems),
		EqualisationMode: eq.Mode,
		GeneratedAt:      time.Now().UTC(),
	}
	if len(quotes) == 0 {
		return summary
	}

	varianceSums := make([]float64, len(quotes))
	varianceCounts := make([]int, len(quotes))

	for pos, q := range quotes {
		award := models.SupplierAward{
			Supplier:   q.Supplier,
			TotalItems: len(q.Items),
		}

		quoted := make(map[string]struct{})
		for _, row := range rows {
			if pos >= len(row.Cells) {
				continue
			}
			cell := &row.Cells[pos]
			if !cell.Present() {
				continue
			}

			award.ItemsQuoted++
			if row.SystemID != "" {
				quoted[row.SystemID] = struct{}{}
			}
			switch cell.Flag {
			case models.FlagRed:
				award.RiskFactors.RedCells++
			case models.FlagAmber:
				award.RiskFactors.AmberCells++
			}
			if cell.ModelVariancePct != nil {
				varianceSums[pos] += math.Abs(*cell.ModelVariancePct)
				varianceCounts[pos]++
			}
			if row.MatchStatus == models.StatusMatched && cell.Score < s.lowConfidenceThreshold {
				award.RiskFactors.LowConfidenceItems++
			}
		}

		award.RiskFactors.MissingScope = len(systems) - len(quoted)
		award.RiskFactors.TotalItems = len(q.Items)

		if len(systems) > 0 {
			award.CoveragePercent = float64(len(quoted)) / float64(len(systems)) * 100
		} else {
			award.CoveragePercent = 100
		}

		award.RiskScore = riskWeightRed*float64(award.RiskFactors.RedCells) +
			riskWeightAmber*float64(award.RiskFactors.AmberCells) +
			riskWeightMissingScope*float64(award.RiskFactors.MissingScope)
		if len(q.Items) > 0 &&
			float64(award.RiskFactors.LowConfidenceItems) > lowConfidenceShare*float64(len(q.Items)) {
			award.RiskScore += riskWeightLowConf
		}

		if pos < len(eq.SupplierTotals) {
			award.AdjustedTotal = eq.SupplierTotals[pos].EqualisedTotal
			if added := eq.SupplierTotals[pos].ItemsAdded; added > 0 {
				award.Notes = append(award.Notes, fmt.Sprintf(
					"Equalisation added %d items worth %.2f",
					added, eq.SupplierTotals[pos].Adjustment))
			}
		}
		award.Notes = append(award.Notes, fmt.Sprintf(
			"Quoted %d of %d systems", len(quoted), len(systems)))
		if award.RiskFactors.RedCells > 0 {
			award.Notes = append(award.Notes, fmt.Sprintf(
				"%d rates flagged RED against the model library", award.RiskFactors.RedCells))
		}

		summary.Suppliers = append(summary.Suppliers, award)
	}

	summary.Recommendations = s.recommend(summary.Suppliers)
	summary.Confidence = s.gradeConfidence(summary.Suppliers, varianceSums, varianceCounts)

	s.logger.Info("award summary built",
		zap.Int("suppliers", len(summary.Suppliers)),
		zap.Int("total_systems", summary.TotalSystems),
		zap.String("confidence", string(summary.Confidence)))

	return summary
}

// recommend emits the three award angles. Ties keep the first supplier in
// list order.
func (s *AwardService) recommend(suppliers []models.SupplierAward) []models.AwardRecommendation {
	if len(suppliers) == 0 {
		return []models.AwardRecommendation{}
	}

	bestValue := 0
	lowestRisk := 0
	for i := 1; i < len(suppliers); i++ {
		if suppliers[i].AdjustedTotal < suppliers[bestValue].AdjustedTotal {
			bestValue = i
		}
		if suppliers[i].RiskScore < suppliers[lowestRisk].RiskScore {
			lowestRisk = i
		}
	}

	cheapest := suppliers[bestValue].AdjustedTotal

	balanced := 0
	bestComposite := math.Inf(-1)
	for i, sup := range suppliers {
		priceDiffPct := 0.0
		if cheapest > 0 {
			priceDiffPct = (sup.AdjustedTotal - cheapest) / cheapest * 100
		}
		composite := 0.4*sup.CoveragePercent - 0.3*sup.RiskScore + 0.3*(100-priceDiffPct)
		if composite > bestComposite {
			bestComposite = composite
			balanced = i
		}
	}

	return []models.AwardRecommendation{
		{
			Type:     models.RecommendBestValue,
			Supplier: suppliers[bestValue],
			Reason: fmt.Sprintf("Lowest equalised total at %.2f",
				suppliers[bestValue].AdjustedTotal),
		},
		{
			Type:     models.RecommendLowestRisk,
			Supplier: suppliers[lowestRisk],
			Reason: fmt.Sprintf("Lowest risk score at %.1f (%d red, %d amber, %d missing scope)",
				suppliers[lowestRisk].RiskScore,
				suppliers[lowestRisk].RiskFactors.RedCells,
				suppliers[lowestRisk].RiskFactors.AmberCells,
				suppliers[lowestRisk].RiskFactors.MissingScope),
		},
		{
			Type:     models.RecommendBalanced,
			Supplier: suppliers[balanced],
			Reason: fmt.Sprintf("Best balance of %.0f%% coverage, risk %.1f, and price",
				suppliers[balanced].CoveragePercent,
				suppliers[balanced].RiskScore),
		},
	}
}

// gradeConfidence grades the whole summary from across-supplier averages of
// coverage, risk, and model-rate variance.
func (s *AwardService) gradeConfidence(suppliers []models.SupplierAward, varianceSums []float64, varianceCounts []int) models.AwardConfidence {
	if len(suppliers) == 0 {
		return models.ConfidenceLow
	}

	coverage := 0.0
	risk := 0.0
	varianceSum := 0.0
	varianceCount := 0
	for i, sup := range suppliers {
		coverage += sup.CoveragePercent
		risk += sup.RiskScore
		varianceSum += varianceSums[i]
		varianceCount += varianceCounts[i]
	}
	coverage /= float64(len(suppliers))
	risk /= float64(len(suppliers))

	variance := 0.0
	if varianceCount > 0 {
		variance = varianceSum / float64(varianceCount)
	}

	switch {
	case coverage >= 90 && risk < 30 && variance <= 15:
		return models.ConfidenceHigh
	case coverage < 70 || risk > 60 || variance > 25:
		return models.ConfidenceLow
	default:
		return models.ConfidenceMedium
	}
}

func distinctSystems(rows []*models.ComparisonRow) map[string]struct{} {
	systems := make(map[string]struct{})
	for _, row := range rows {
		if row.SystemID != "" {
			systems[row.SystemID] = struct{}{}
		}
	}
	return systems
}
