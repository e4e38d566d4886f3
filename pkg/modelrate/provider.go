// Package modelrate resolves benchmark model rates for fire-protection
// systems from a rate library (CSV table or remote API).
package modelrate

import (
	"context"
	"strings"
)

// Criteria identifies a system whose model rate is wanted. SystemID alone is
// sufficient when the quote line is already mapped; the facet fields let a
// provider resolve unmapped lines.
type Criteria struct {
	SystemID string `json:"system_id,omitempty"`
	Size     string `json:"size,omitempty"`
	FRR      string `json:"frr,omitempty"`
	Service  string `json:"service,omitempty"`
	Subclass string `json:"subclass,omitempty"`
}

// Result carries the resolved rate. Both fields are nil when the library has
// no entry for the criteria; callers must treat that as "no benchmark", never
// as a zero rate.
type Result struct {
	Rate           *float64 `json:"rate"`
	ComponentCount *int     `json:"component_count"`
}

// Found reports whether a usable rate was resolved.
func (r Result) Found() bool {
	return r.Rate != nil && *r.Rate > 0
}

// Provider looks up model rates. Implementations must return a zero Result
// and nil error for unknown criteria, reserving errors for lookup failures.
type Provider interface {
	Lookup(ctx context.Context, criteria Criteria) (Result, error)
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
