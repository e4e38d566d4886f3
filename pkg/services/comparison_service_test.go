package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quotewise/quote-engine/pkg/models"
)

func newTestComparison() *ComparisonService {
	matcher := NewMatcher(nil, matcherConfig(), nil, zap.NewNop())
	return NewComparisonService(matcher, 4, nil, zap.NewNop())
}

func TestBuildMultiSupplierComparison_AlignsThreeSuppliers(t *testing.T) {
	collarA := makeItem("A", "Fire collar to 100mm PVC pipe", 10, 45, withSystem("SYS-1", "100mm pipe collar"))
	damperA := makeItem("A", "Fire damper to 300x300 duct", 4, 180, withSystem("SYS-2", "300x300 damper"))

	quotes := []models.SupplierQuote{
		quoteOf("A", collarA, damperA),
		quoteOf("B",
			makeItem("B", "Fire collar 100mm PVC pipe penetration", 10, 48),
			makeItem("B", "Fire damper 300x300 to mechanical duct", 4, 175)),
		quoteOf("C",
			makeItem("C", "Fire collar to 100mm PVC pipe riser", 10, 50)),
	}

	rows := newTestComparison().BuildMultiSupplierComparison(context.Background(), quotes)
	require.Len(t, rows, 2)

	collarRow := rows[0]
	assert.Equal(t, models.StatusMatched, collarRow.MatchStatus)
	assert.Equal(t, "SYS-1", collarRow.SystemID)
	assert.Equal(t, []int{0, 1, 2}, collarRow.PresentSuppliers())
	assert.Equal(t, 45.0, *collarRow.Cells[0].Rate)
	assert.Equal(t, 48.0, *collarRow.Cells[1].Rate)
	assert.Equal(t, 50.0, *collarRow.Cells[2].Rate)

	damperRow := rows[1]
	assert.Equal(t, []int{0, 1}, damperRow.PresentSuppliers())
}

func TestBuildMultiSupplierComparison_OrphanRows(t *testing.T) {
	quotes := []models.SupplierQuote{
		quoteOf("A", makeItem("A", "Fire collar to 100mm PVC pipe", 10, 45)),
		quoteOf("B",
			makeItem("B", "Fire collar 100mm PVC pipe", 10, 48),
			makeItem("B", "Intumescent sealant to control joints", 50, 12)),
	}

	rows := newTestComparison().BuildMultiSupplierComparison(context.Background(), quotes)
	require.Len(t, rows, 2)

	orphan := rows[1]
	assert.Equal(t, models.MissingSupplier(1), orphan.MatchStatus)
	assert.Equal(t, models.VarianceMissing, orphan.VarianceLevel)
	assert.False(t, orphan.Cells[0].Present())
	assert.True(t, orphan.Cells[1].Present())
}

func TestBuildMultiSupplierComparison_TooFewSuppliers(t *testing.T) {
	svc := newTestComparison()

	assert.Nil(t, svc.BuildMultiSupplierComparison(context.Background(), nil))
	assert.Nil(t, svc.BuildMultiSupplierComparison(context.Background(), []models.SupplierQuote{
		quoteOf("A", makeItem("A", "x", 1, 1)),
	}))
	// Two suppliers but only one with items is still nothing to compare.
	assert.Nil(t, svc.BuildMultiSupplierComparison(context.Background(), []models.SupplierQuote{
		quoteOf("A", makeItem("A", "x", 1, 1)),
		quoteOf("B"),
	}))
}

func TestPeerVariance_MaxDeviationFromMean(t *testing.T) {
	row := &models.ComparisonRow{Cells: make([]models.SupplierCell, 3)}
	for i, rate := range []float64{90, 100, 110} {
		r := rate
		row.Cells[i] = models.SupplierCell{Item: makeItem("S", "x", 1, rate), Rate: &r}
	}

	applyPeerVariance(row)
	require.NotNil(t, row.RateVariance)
	// Mean 100; the widest deviation is 10%.
	assert.InDelta(t, 10.0, *row.RateVariance, 1e-9)
	assert.Equal(t, models.VarianceModerate, row.VarianceLevel)
}

func TestPeerVariance_SingleRateLeftAlone(t *testing.T) {
	r := 100.0
	row := &models.ComparisonRow{
		VarianceLevel: models.VarianceExact,
		Cells:         []models.SupplierCell{{Item: makeItem("S", "x", 1, 100), Rate: &r}, {}},
	}

	applyPeerVariance(row)
	assert.Nil(t, row.RateVariance)
	assert.Equal(t, models.VarianceExact, row.VarianceLevel)
}

func TestPeerVarianceLevel_BoundariesTakeTighterBucket(t *testing.T) {
	level := func(v float64) models.VarianceLevel { return peerVarianceLevel(&v) }

	assert.Equal(t, models.VarianceGood, level(5.0))
	assert.Equal(t, models.VarianceModerate, level(5.0001))
	assert.Equal(t, models.VarianceModerate, level(10.0))
	assert.Equal(t, models.VarianceHigh, level(10.0001))
	assert.Equal(t, models.VarianceGood, level(-5.0))
	assert.Equal(t, models.VarianceMissing, peerVarianceLevel(nil))
}

func TestVariancePercent_NilOnNonPositiveRates(t *testing.T) {
	assert.Nil(t, variancePercent(0, 50))
	assert.Nil(t, variancePercent(50, 0))
	assert.Nil(t, variancePercent(-10, 50))

	v := variancePercent(100, 110)
	require.NotNil(t, v)
	assert.InDelta(t, 10.0, *v, 1e-9)
}

func TestBuildComparisonRows_TwoSupplierPath(t *testing.T) {
	quote1 := quoteOf("Alpha",
		makeItem("Alpha", "Fire collar to 100mm PVC pipe", 10, 45, withSection("Level 1")),
		makeItem("Alpha", "Batt and sealant to 200mm duct riser", 5, 80, withSection("Level 2")))
	quote2 := quoteOf("Beta",
		makeItem("Beta", "Fire collar 100mm PVC pipe penetration", 10, 50, withSection("Level 1")),
		makeItem("Beta", "Preliminaries and site establishment", 1, 2500, withSection("General"), withUnit("item")))

	rows := newTestComparison().BuildComparisonRows(context.Background(), quote1, quote2)
	require.Len(t, rows, 3)

	// Sorted by section: General, Level 1, Level 2.
	assert.Equal(t, models.MissingSupplier(1), rows[0].MatchStatus)
	assert.Contains(t, rows[0].Notes, "Alpha")

	matched := rows[1]
	assert.Equal(t, models.StatusMatched, matched.MatchStatus)
	require.NotNil(t, matched.RateVariance)
	assert.InDelta(t, 11.11, *matched.RateVariance, 0.01)
	assert.Equal(t, models.VarianceHigh, matched.VarianceLevel)

	unmatched := rows[2]
	assert.Equal(t, models.MissingSupplier(2), unmatched.MatchStatus)
	assert.Contains(t, unmatched.Notes, "Beta")
	assert.Nil(t, unmatched.RateVariance)
}

func TestCalculateSectionStats(t *testing.T) {
	quotes := []models.SupplierQuote{
		quoteOf("A",
			makeItem("A", "Fire collar to 100mm PVC pipe", 10, 45, withSection("L1")),
			makeItem("A", "Fire damper to 300x300 duct", 4, 180, withSection("L2"))),
		quoteOf("B",
			makeItem("B", "Fire collar 100mm PVC pipe", 10, 48, withSection("L1"))),
	}

	rows := newTestComparison().BuildMultiSupplierComparison(context.Background(), quotes)
	stats := CalculateSectionStats(rows, 2)
	require.Len(t, stats, 2)

	assert.Equal(t, "L1", stats[0].Section)
	assert.Equal(t, 1, stats[0].LinesCompared)
	assert.InDelta(t, 450.0, stats[0].SupplierTotals[0], 1e-9)
	assert.InDelta(t, 480.0, stats[0].SupplierTotals[1], 1e-9)
}

func TestCalculateTotalsSummary(t *testing.T) {
	quotes := []models.SupplierQuote{
		quoteOf("A", makeItem("A", "Fire collar to 100mm PVC pipe", 10, 100)),
		quoteOf("B", makeItem("B", "Fire collar 100mm PVC pipe", 10, 110)),
	}

	rows := newTestComparison().BuildMultiSupplierComparison(context.Background(), quotes)
	summary := CalculateTotalsSummary(rows, 2)

	assert.InDelta(t, 1000.0, summary.SupplierGrandTotals[0], 1e-9)
	assert.InDelta(t, 1100.0, summary.SupplierGrandTotals[1], 1e-9)
	assert.InDelta(t, 100.0, summary.TotalValueDiff, 1e-9)
	require.NotNil(t, summary.OverallVariancePct)
	assert.InDelta(t, 10.0, *summary.OverallVariancePct, 1e-9)
	assert.Equal(t, 1, summary.MatchedCount)
	assert.Zero(t, summary.MissingCount)
}
