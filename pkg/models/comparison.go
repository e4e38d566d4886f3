package models

// VarianceFlag classifies a quoted rate against the model reference rate.
type VarianceFlag string

const (
	FlagGreen VarianceFlag = "GREEN"
	FlagAmber VarianceFlag = "AMBER"
	FlagRed   VarianceFlag = "RED"
	FlagNA    VarianceFlag = "NA"
)

// VarianceLevel classifies spread between peer suppliers on one row.
type VarianceLevel string

const (
	VarianceExact    VarianceLevel = "exact"
	VarianceGood     VarianceLevel = "good"
	VarianceModerate VarianceLevel = "moderate"
	VarianceHigh     VarianceLevel = "high"
	VarianceMissing  VarianceLevel = "missing"
)

// SupplierCell is one supplier's slot on a comparison row. Item is nil when
// the supplier quoted nothing for the row's canonical unit.
type SupplierCell struct {
	Item     *LineItem `json:"item,omitempty"`
	Quantity float64   `json:"quantity,omitempty"`
	Unit     string    `json:"unit,omitempty"`
	Rate     *float64  `json:"rate,omitempty"`
	Total    *float64  `json:"total,omitempty"`

	// Score is the match confidence that placed the item in this slot.
	// The anchor supplier's own items carry 1.0.
	Score float64 `json:"score,omitempty"`

	// Model-rate comparison, filled by the model-rate pass. VariancePct is
	// nil whenever either side's rate is unknown or non-positive.
	ModelVariancePct *float64     `json:"model_variance_pct,omitempty"`
	Flag             VarianceFlag `json:"flag,omitempty"`
}

// Present reports whether the supplier quoted an item in this slot.
func (c *SupplierCell) Present() bool {
	return c.Item != nil
}

// ComparisonRow is one canonical unit of comparison: a matched group of line
// items, or an orphan quoted by a subset of suppliers. Cells is indexed by
// supplier position; a supplier appears at most once per row.
type ComparisonRow struct {
	ID          string `json:"id"`
	Section     string `json:"section,omitempty"`
	Description string `json:"description"`
	Size        string `json:"size,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Quantity    float64 `json:"quantity"`

	SystemID    string `json:"system_id,omitempty"`
	SystemLabel string `json:"system_label,omitempty"`

	Cells []SupplierCell `json:"cells"`

	MatchStatus MatchStatus `json:"match_status"`
	MatchScore  float64     `json:"match_score,omitempty"`

	// Peer spread across present suppliers: maximum absolute deviation from
	// the mean rate, as a percentage. Nil with fewer than two usable rates.
	RateVariance  *float64      `json:"rate_variance,omitempty"`
	TotalVariance *float64      `json:"total_variance,omitempty"`
	VarianceLevel VarianceLevel `json:"variance_level"`

	// Reference rate shared by the whole row, from the model-rate lookup.
	ModelRate      *float64 `json:"model_rate,omitempty"`
	ComponentCount *int     `json:"component_count,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// PresentSuppliers returns the positions of suppliers with data on this row.
func (r *ComparisonRow) PresentSuppliers() []int {
	var present []int
	for i := range r.Cells {
		if r.Cells[i].Present() {
			present = append(present, i)
		}
	}
	return present
}

// SectionStats aggregates comparison rows by quote section.
type SectionStats struct {
	Section             string    `json:"section"`
	LinesCompared       int       `json:"lines_compared"`
	LinesMissing        int       `json:"lines_missing"`
	AverageRateVariance float64   `json:"average_rate_variance"`
	SupplierTotals      []float64 `json:"supplier_totals"`
}

// TotalsSummary condenses a comparison into supplier grand totals and the
// headline variance numbers a caller needs to explain the comparison.
type TotalsSummary struct {
	SupplierGrandTotals []float64 `json:"supplier_grand_totals"`
	// OverallVariancePct is the second supplier's grand total against the
	// first supplier's, as a percentage of the first. Nil when the first
	// supplier's total is not positive.
	OverallVariancePct *float64 `json:"overall_variance_pct,omitempty"`
	TotalValueDiff     float64  `json:"total_value_diff"`
	// WeightedAvgDiffPct weights each matched row's rate variance by the
	// anchor supplier's line total.
	WeightedAvgDiffPct float64 `json:"weighted_avg_diff_pct"`
	MatchedCount       int     `json:"matched_count"`
	MissingCount       int     `json:"missing_count"`
}
