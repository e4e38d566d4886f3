package models

// EqualisationMode selects where fill rates for missing scope come from.
type EqualisationMode string

const (
	// ModeModel fills gaps with the system's model reference rate.
	ModeModel EqualisationMode = "MODEL"
	// ModePeerMedian fills gaps with the median of rates actually quoted
	// by the suppliers who priced the system.
	ModePeerMedian EqualisationMode = "PEER_MEDIAN"
)

// EqualisationLogEntry records one synthesized fill. Entries are append-only;
// the audit log and the supplier totals stay consistent because totals are
// only ever adjusted through a logged fill.
type EqualisationLogEntry struct {
	Supplier    string  `json:"supplier"`
	SystemID    string  `json:"system_id"`
	SystemLabel string  `json:"system_label"`
	Reason      string  `json:"reason"`
	Source      string  `json:"source"`
	RateUsed    float64 `json:"rate_used"`
	Quantity    float64 `json:"quantity"`
	Total       float64 `json:"total"`
}

// SupplierTotal carries a supplier's quoted total and its equalised total
// after gap filling.
type SupplierTotal struct {
	Supplier       string  `json:"supplier"`
	OriginalTotal  float64 `json:"original_total"`
	EqualisedTotal float64 `json:"equalised_total"`
	Adjustment     float64 `json:"adjustment"`
	AdjustmentPct  float64 `json:"adjustment_pct"`
	ItemsAdded     int     `json:"items_added"`
}

// EqualisationResult is the full outcome of one equalisation run.
type EqualisationResult struct {
	SupplierTotals  []SupplierTotal        `json:"supplier_totals"`
	EqualisationLog []EqualisationLogEntry `json:"equalisation_log"`
	Mode            EqualisationMode       `json:"mode"`
}
