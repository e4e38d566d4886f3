package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quotewise/quote-engine/pkg/llm"
	"github.com/quotewise/quote-engine/pkg/models"
)

// Peer-variance classification boundaries, in percent. Boundary values land
// in the tighter bucket.
const (
	peerVarianceGood     = 5.0
	peerVarianceModerate = 10.0
)

// ComparisonService aligns 2-5 supplier quotes into one comparison table,
// anchored on the first supplier's items.
type ComparisonService struct {
	matcher  *Matcher
	pool     *llm.WorkerPool[cellMatch]
	observer Observer
	logger   *zap.Logger
}

// cellMatch is one pairwise match outcome destined for a specific row/cell.
type cellMatch struct {
	anchorIdx   int
	supplierIdx int
	match       *models.Match
}

// NewComparisonService creates the comparator. maxConcurrent bounds the
// parallel pairwise matcher calls.
func NewComparisonService(matcher *Matcher, maxConcurrent int, observer Observer, logger *zap.Logger) *ComparisonService {
	if observer == nil {
		observer = NopObserver{}
	}
	return &ComparisonService{
		matcher:  matcher,
		pool:     llm.NewWorkerPool[cellMatch](maxConcurrent, logger),
		observer: observer,
		logger:   logger.Named("comparison"),
	}
}

// BuildMultiSupplierComparison builds one row per anchor item plus orphan
// rows for non-anchor items no anchor item claimed. Fewer than two suppliers
// with items is a normal "nothing to compare" state and yields nil.
//
// The pairwise matcher calls share no state and run concurrently; results
// are merged by (row, supplier) index so completion order never affects the
// output.
func (s *ComparisonService) BuildMultiSupplierComparison(ctx context.Context, quotes []models.SupplierQuote) []*models.ComparisonRow {
	if len(quotes) < 2 {
		return nil
	}
	active := 0
	for _, q := range quotes {
		if len(q.Items) > 0 {
			active++
		}
	}
	if active < 2 {
		return nil
	}

	anchor := quotes[0].Items

	var work []llm.WorkItem[cellMatch]
	for a, anchorItem := range anchor {
		for i := 1; i < len(quotes); i++ {
			if len(quotes[i].Items) == 0 {
				continue
			}
			work = append(work, llm.WorkItem[cellMatch]{
				ID: fmt.Sprintf("%d/%d", a, i),
				Execute: func(ctx context.Context) (cellMatch, error) {
					matches := s.matcher.Match(ctx,
						[]*models.LineItem{anchorItem}, quotes[i].Items,
						quotes[0].Supplier, quotes[i].Supplier)
					cm := cellMatch{anchorIdx: a, supplierIdx: i}
					if m, ok := matches[anchorItem.ID]; ok {
						cm.match = &m
					}
					return cm, nil
				},
			})
		}
	}

	// Merge into a deterministic (row, supplier) grid.
	grid := make([]map[int]*models.Match, len(anchor))
	for i := range grid {
		grid[i] = make(map[int]*models.Match)
	}
	for _, res := range s.pool.Process(ctx, work) {
		if res.Err != nil {
			continue
		}
		if res.Result.match != nil {
			grid[res.Result.anchorIdx][res.Result.supplierIdx] = res.Result.match
		}
	}

	used := make([]map[uuid.UUID]struct{}, len(quotes))
	for i := range used {
		used[i] = make(map[uuid.UUID]struct{})
	}

	rows := make([]*models.ComparisonRow, 0, len(anchor))
	for a, anchorItem := range anchor {
		row := newRowFromItem(anchorItem.ID.String(), anchorItem, len(quotes))
		row.MatchStatus = models.StatusMatched
		row.VarianceLevel = models.VarianceExact
		row.Cells[0] = itemCell(anchorItem, 1.0)
		used[0][anchorItem.ID] = struct{}{}

		for i := 1; i < len(quotes); i++ {
			m := grid[a][i]
			if m == nil {
				continue
			}
			row.Cells[i] = itemCell(m.Target, m.Score)
			used[i][m.Target.ID] = struct{}{}
		}

		applyPeerVariance(row)
		s.observer.RowAccepted(row)
		rows = append(rows, row)
	}

	// Non-anchor items nothing claimed become orphan rows, missing from the
	// anchor supplier's scope.
	for i := 1; i < len(quotes); i++ {
		for _, item := range quotes[i].Items {
			if _, taken := used[i][item.ID]; taken {
				continue
			}
			row := newRowFromItem(fmt.Sprintf("missing-%d-%s", i, item.ID), item, len(quotes))
			row.MatchStatus = models.MissingSupplier(1)
			row.VarianceLevel = models.VarianceMissing
			row.Cells[i] = itemCell(item, 0)
			row.Notes = fmt.Sprintf("Only quoted by %s", quotes[i].Supplier)
			s.observer.RowAccepted(row)
			rows = append(rows, row)
		}
	}

	s.logger.Info("built multi-supplier comparison",
		zap.Int("suppliers", len(quotes)),
		zap.Int("anchor_items", len(anchor)),
		zap.Int("rows", len(rows)))

	return rows
}

// BuildComparisonRows is the two-supplier path: one full matcher call over
// both lists, then a row per source item and per unclaimed target item,
// sorted by section and description.
func (s *ComparisonService) BuildComparisonRows(ctx context.Context, quote1, quote2 models.SupplierQuote) []*models.ComparisonRow {
	matches := s.matcher.Match(ctx, quote1.Items, quote2.Items, quote1.Supplier, quote2.Supplier)
	usedTargets := matches.TargetIDs()

	var rows []*models.ComparisonRow

	for _, item1 := range quote1.Items {
		if m, ok := matches[item1.ID]; ok {
			row := newRowFromItem(item1.ID.String()+"-"+m.Target.ID.String(), item1, 2)
			row.MatchStatus = models.StatusMatched
			row.MatchScore = m.Score
			row.Cells[0] = itemCell(item1, 1.0)
			row.Cells[1] = itemCell(m.Target, m.Score)
			row.RateVariance = variancePercent(item1.Rate, m.Target.Rate)
			row.TotalVariance = variancePercent(item1.Total, m.Target.Total)
			row.VarianceLevel = peerVarianceLevel(row.RateVariance)
			s.observer.RowAccepted(row)
			rows = append(rows, row)
			continue
		}

		row := newRowFromItem(item1.ID.String()+"-missing", item1, 2)
		row.MatchStatus = models.MissingSupplier(2)
		row.VarianceLevel = models.VarianceMissing
		row.Cells[0] = itemCell(item1, 1.0)
		row.Notes = fmt.Sprintf("Not quoted by %s", supplierLabel(quote2.Supplier, 2))
		s.observer.RowAccepted(row)
		rows = append(rows, row)
	}

	for _, item2 := range quote2.Items {
		if _, taken := usedTargets[item2.ID]; taken {
			continue
		}
		row := newRowFromItem("missing-"+item2.ID.String(), item2, 2)
		row.MatchStatus = models.MissingSupplier(1)
		row.VarianceLevel = models.VarianceMissing
		row.Cells[1] = itemCell(item2, 0)
		row.Notes = fmt.Sprintf("Not quoted by %s", supplierLabel(quote1.Supplier, 1))
		s.observer.RowAccepted(row)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Section != rows[j].Section {
			return rows[i].Section < rows[j].Section
		}
		return rows[i].Description < rows[j].Description
	})

	return rows
}

func supplierLabel(name string, position int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("Supplier %d", position)
}

func newRowFromItem(id string, item *models.LineItem, suppliers int) *models.ComparisonRow {
	return &models.ComparisonRow{
		ID:          id,
		Section:     item.Section,
		Description: item.Description,
		Size:        item.Size,
		Unit:        item.Unit,
		Quantity:    item.Quantity,
		SystemID:    item.SystemID,
		SystemLabel: item.SystemLabel,
		Cells:       make([]models.SupplierCell, suppliers),
	}
}

func itemCell(item *models.LineItem, score float64) models.SupplierCell {
	cell := models.SupplierCell{
		Item:     item,
		Quantity: item.Quantity,
		Unit:     item.Unit,
		Score:    score,
		Flag:     models.FlagNA,
	}
	if item.Rate > 0 {
		rate := item.Rate
		cell.Rate = &rate
	}
	if item.Total > 0 {
		total := item.Total
		cell.Total = &total
	}
	return cell
}

// applyPeerVariance computes, for rows with two or more usable rates, the
// maximum absolute deviation from the mean rate as a percentage.
func applyPeerVariance(row *models.ComparisonRow) {
	var rates []float64
	for i := range row.Cells {
		if row.Cells[i].Rate != nil {
			rates = append(rates, *row.Cells[i].Rate)
		}
	}
	if len(rates) < 2 {
		return
	}

	mean := 0.0
	for _, r := range rates {
		mean += r
	}
	mean /= float64(len(rates))
	if mean == 0 {
		return
	}

	maxDev := 0.0
	for _, r := range rates {
		dev := math.Abs((r - mean) / mean * 100)
		if dev > maxDev {
			maxDev = dev
		}
	}

	row.RateVariance = &maxDev
	row.VarianceLevel = peerVarianceLevel(&maxDev)
}

// variancePercent is the deviation of other from base as a percentage of
// base. Nil when either side is unknown or non-positive; an unknown rate is
// never treated as zero.
func variancePercent(base, other float64) *float64 {
	if base <= 0 || other <= 0 {
		return nil
	}
	v := (other - base) / base * 100
	return &v
}

// peerVarianceLevel classifies spread between peers. Boundary values take
// the tighter bucket.
func peerVarianceLevel(variance *float64) models.VarianceLevel {
	if variance == nil {
		return models.VarianceMissing
	}
	abs := math.Abs(*variance)
	switch {
	case abs <= peerVarianceGood:
		return models.VarianceGood
	case abs <= peerVarianceModerate:
		return models.VarianceModerate
	default:
		return models.VarianceHigh
	}
}

// CalculateSectionStats aggregates rows by section.
func CalculateSectionStats(rows []*models.ComparisonRow, suppliers int) []models.SectionStats {
	bySection := make(map[string][]*models.ComparisonRow)
	var order []string
	for _, row := range rows {
		if _, seen := bySection[row.Section]; !seen {
			order = append(order, row.Section)
		}
		bySection[row.Section] = append(bySection[row.Section], row)
	}
	sort.Strings(order)

	stats := make([]models.SectionStats, 0, len(order))
	for _, section := range order {
		sectionRows := bySection[section]

		st := models.SectionStats{
			Section:        section,
			SupplierTotals: make([]float64, suppliers),
		}

		varianceSum := 0.0
		for _, row := range sectionRows {
			if row.MatchStatus == models.StatusMatched {
				st.LinesCompared++
				if row.RateVariance != nil {
					varianceSum += math.Abs(*row.RateVariance)
				}
			} else {
				st.LinesMissing++
			}
			for i := range row.Cells {
				if i < suppliers && row.Cells[i].Total != nil {
					st.SupplierTotals[i] += *row.Cells[i].Total
				}
			}
		}
		if st.LinesCompared > 0 {
			st.AverageRateVariance = varianceSum / float64(st.LinesCompared)
		}

		stats = append(stats, st)
	}

	return stats
}

// CalculateTotalsSummary condenses the comparison into per-supplier grand
// totals and headline variance figures.
func CalculateTotalsSummary(rows []*models.ComparisonRow, suppliers int) models.TotalsSummary {
	summary := models.TotalsSummary{
		SupplierGrandTotals: make([]float64, suppliers),
	}

	matchedAnchorTotal := 0.0
	weightedVarianceSum := 0.0

	for _, row := range rows {
		for i := range row.Cells {
			if i < suppliers && row.Cells[i].Total != nil {
				summary.SupplierGrandTotals[i] += *row.Cells[i].Total
			}
		}

		if row.MatchStatus == models.StatusMatched {
			summary.MatchedCount++
			if row.Cells[0].Total != nil && row.RateVariance != nil {
				matchedAnchorTotal += *row.Cells[0].Total
				weightedVarianceSum += *row.Cells[0].Total * *row.RateVariance
			}
		} else {
			summary.MissingCount++
		}
	}

	if suppliers >= 2 {
		summary.TotalValueDiff = summary.SupplierGrandTotals[1] - summary.SupplierGrandTotals[0]
		summary.OverallVariancePct = variancePercent(
			summary.SupplierGrandTotals[0], summary.SupplierGrandTotals[1])
	}
	if matchedAnchorTotal > 0 {
		summary.WeightedAvgDiffPct = weightedVarianceSum / matchedAnchorTotal
	}

	return summary
}
