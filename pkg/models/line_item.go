package models

import (
	"strconv"

	"github.com/google/uuid"
)

// LineItem is one quoted row from one supplier's quote. Items are created by
// the ingestion collaborator and consumed read-only by the engine; nothing in
// this package mutates them after load.
type LineItem struct {
	ID          uuid.UUID `json:"id"`
	QuoteID     uuid.UUID `json:"quote_id"`
	Supplier    string    `json:"supplier"`
	Description string    `json:"description"`

	// Structured facets from the ingestion step. Empty means "no signal",
	// which downstream matching treats differently from an explicit value.
	Section  string `json:"section,omitempty"`
	Service  string `json:"service,omitempty"`
	Size     string `json:"size,omitempty"`
	FRR      string `json:"frr,omitempty"`
	Subclass string `json:"subclass,omitempty"`

	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit,omitempty"`
	Rate      float64 `json:"rate"`
	Total     float64 `json:"total"`
	Reference string  `json:"reference,omitempty"`

	// Canonical system mapping attached by the external mapping step.
	// Empty SystemID means the item is unmapped.
	SystemID    string `json:"system_id,omitempty"`
	SystemLabel string `json:"system_label,omitempty"`
}

// Mapped reports whether the item has been mapped to a canonical system.
func (li *LineItem) Mapped() bool {
	return li.SystemID != ""
}

// SupplierQuote is one supplier's ordered item list, the unit the comparison
// pipeline operates on.
type SupplierQuote struct {
	Supplier string      `json:"supplier"`
	Items    []*LineItem `json:"items"`
}

// MatchStatus tags how a comparison row was reconciled across suppliers.
type MatchStatus string

const (
	StatusMatched   MatchStatus = "matched"
	StatusUnmatched MatchStatus = "unmatched"
)

// MissingSupplier returns the status tag for a row where the supplier at the
// given 1-based position quoted nothing.
func MissingSupplier(position int) MatchStatus {
	return MatchStatus("missing_supplier" + strconv.Itoa(position))
}

// Match pairs a source line item with its best target-side counterpart.
type Match struct {
	Target *LineItem   `json:"target"`
	Score  float64     `json:"score"`
	Status MatchStatus `json:"status"`
}

// MatchMap maps source item IDs to their accepted matches. Unmatched items
// are absent from the map, never present with a nil entry.
type MatchMap map[uuid.UUID]Match

// TargetIDs returns the set of target item IDs consumed by the map.
func (m MatchMap) TargetIDs() map[uuid.UUID]struct{} {
	ids := make(map[uuid.UUID]struct{}, len(m))
	for _, match := range m {
		ids[match.Target.ID] = struct{}{}
	}
	return ids
}
