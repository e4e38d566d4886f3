package models

import "time"

// RecommendationType identifies the angle a recommendation optimises for.
type RecommendationType string

const (
	RecommendBestValue  RecommendationType = "BEST_VALUE"
	RecommendLowestRisk RecommendationType = "LOWEST_RISK"
	RecommendBalanced   RecommendationType = "BALANCED"
)

// AwardConfidence grades how much trust the numbers behind a summary deserve.
type AwardConfidence string

const (
	ConfidenceHigh   AwardConfidence = "HIGH"
	ConfidenceMedium AwardConfidence = "MEDIUM"
	ConfidenceLow    AwardConfidence = "LOW"
)

// RiskFactors breaks a supplier's risk score into its contributing counts.
type RiskFactors struct {
	RedCells           int `json:"red_cells"`
	AmberCells         int `json:"amber_cells"`
	MissingScope       int `json:"missing_scope"`
	LowConfidenceItems int `json:"low_confidence_items"`
	TotalItems         int `json:"total_items"`
}

// SupplierAward is the per-supplier aggregate computed fresh each run.
type SupplierAward struct {
	Supplier        string      `json:"supplier"`
	AdjustedTotal   float64     `json:"adjusted_total"`
	RiskScore       float64     `json:"risk_score"`
	RiskFactors     RiskFactors `json:"risk_factors"`
	CoveragePercent float64     `json:"coverage_percent"`
	ItemsQuoted     int         `json:"items_quoted"`
	TotalItems      int         `json:"total_items"`
	Notes           []string    `json:"notes,omitempty"`
}

// AwardRecommendation names one supplier for one recommendation type, with a
// reason built from the same numbers the scoring used.
type AwardRecommendation struct {
	Type     RecommendationType `json:"type"`
	Supplier SupplierAward      `json:"supplier"`
	Reason   string             `json:"reason"`
}

// AwardSummary is the final ranked output of a reconciliation run. It is a
// plain serialisable structure; persistence is the caller's job.
type AwardSummary struct {
	Suppliers        []SupplierAward       `json:"suppliers"`
	Recommendations  []AwardRecommendation `json:"recommendations"`
	Confidence       AwardConfidence       `json:"confidence"`
	TotalSystems     int                   `json:"total_systems"`
	EqualisationMode EqualisationMode      `json:"equalisation_mode"`
	GeneratedAt      time.Time             `json:"generated_at"`
}
