package services

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/quotewise/quote-engine/pkg/models"
)

// EqualisationService fills missing scope per supplier so totals compare
// like for like. Fills are additive and every adjustment goes through the
// append-only log, so totals and log stay consistent by construction.
type EqualisationService struct {
	observer Observer
	logger   *zap.Logger
}

func NewEqualisationService(observer Observer, logger *zap.Logger) *EqualisationService {
	if observer == nil {
		observer = NopObserver{}
	}
	return &EqualisationService{
		observer: observer,
		logger:   logger.Named("equalisation"),
	}
}

// systemGroup collects the comparison rows mapped to one canonical system.
type systemGroup struct {
	systemID    string
	systemLabel string
	rows        []*models.ComparisonRow
}

// Equalise synthesizes one fill per (supplier, uncovered system). A system
// with no derivable fill rate is skipped for that supplier, recorded by
// absence from the log rather than a synthetic zero.
func (s *EqualisationService) Equalise(rows []*models.ComparisonRow, quotes []models.SupplierQuote, mode models.EqualisationMode) models.EqualisationResult {
	result := models.EqualisationResult{
		SupplierTotals:  make([]models.SupplierTotal, len(quotes)),
		EqualisationLog: []models.EqualisationLogEntry{},
		Mode:            mode,
	}

	for i, q := range quotes {
		original := 0.0
		for _, item := range q.Items {
			original += item.Total
		}
		result.SupplierTotals[i] = models.SupplierTotal{
			Supplier:       q.Supplier,
			OriginalTotal:  original,
			EqualisedTotal: original,
		}
	}

	for _, group := range groupBySystem(rows) {
		rate, source, ok := fillRate(group, mode)
		if !ok {
			s.logger.Debug("no fill rate derivable, system left un-equalised",
				zap.String("system_id", group.systemID),
				zap.String("mode", string(mode)))
			continue
		}

		for pos := range quotes {
			if supplierCovers(group, pos) {
				continue
			}

			entry := models.EqualisationLogEntry{
				Supplier:    quotes[pos].Supplier,
				SystemID:    group.systemID,
				SystemLabel: group.systemLabel,
				Reason:      fmt.Sprintf("No items quoted for system %s", systemName(group)),
				Source:      source,
				RateUsed:    rate,
				Quantity:    1,
				Total:       rate,
			}
			result.EqualisationLog = append(result.EqualisationLog, entry)
			result.SupplierTotals[pos].EqualisedTotal += entry.Total
			result.SupplierTotals[pos].ItemsAdded++
			s.observer.FillApplied(entry)
		}
	}

	for i := range result.SupplierTotals {
		st := &result.SupplierTotals[i]
		st.Adjustment = st.EqualisedTotal - st.OriginalTotal
		if st.OriginalTotal > 0 {
			st.AdjustmentPct = st.Adjustment / st.OriginalTotal * 100
		}
	}

	s.logger.Info("equalisation complete",
		zap.String("mode", string(mode)),
		zap.Int("fills", len(result.EqualisationLog)))

	return result
}

// groupBySystem collects mapped rows per canonical system in first-seen
// order; unmapped rows cannot be equalised and are skipped.
func groupBySystem(rows []*models.ComparisonRow) []*systemGroup {
	byID := make(map[string]*systemGroup)
	var groups []*systemGroup

	for _, row := range rows {
		if row.SystemID == "" {
			continue
		}
		g, ok := byID[row.SystemID]
		if !ok {
			g = &systemGroup{systemID: row.SystemID, systemLabel: row.SystemLabel}
			byID[row.SystemID] = g
			groups = append(groups, g)
		}
		if g.systemLabel == "" {
			g.systemLabel = row.SystemLabel
		}
		g.rows = append(g.rows, row)
	}

	return groups
}

// supplierCovers reports whether the supplier at pos quoted any item under
// the system.
func supplierCovers(group *systemGroup, pos int) bool {
	for _, row := range group.rows {
		if pos < len(row.Cells) && row.Cells[pos].Present() {
			return true
		}
	}
	return false
}

// fillRate derives the one fill rate for a whole system group. MODEL mode
// uses the group's model rate; PEER_MEDIAN the median of positive quoted
// rates, taking the lower-middle element for even counts so the fill is
// always a rate somebody actually quoted.
func fillRate(group *systemGroup, mode models.EqualisationMode) (float64, string, bool) {
	switch mode {
	case models.ModeModel:
		for _, row := range group.rows {
			if row.ModelRate != nil && *row.ModelRate > 0 {
				return *row.ModelRate, string(models.ModeModel), true
			}
		}
		return 0, "", false

	case models.ModePeerMedian:
		var rates []float64
		for _, row := range group.rows {
			for i := range row.Cells {
				if row.Cells[i].Present() && row.Cells[i].Rate != nil {
					rates = append(rates, *row.Cells[i].Rate)
				}
			}
		}
		if len(rates) == 0 {
			return 0, "", false
		}
		sort.Float64s(rates)
		return rates[(len(rates)-1)/2], string(models.ModePeerMedian), true

	default:
		return 0, "", false
	}
}

func systemName(group *systemGroup) string {
	if group.systemLabel != "" {
		return group.systemLabel
	}
	return group.systemID
}
