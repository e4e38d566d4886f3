package modelrate

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"
)

// Entry is one row of the rate library.
type Entry struct {
	SystemID       string
	SizeBucket     string
	FRR            string
	Service        string
	Subclass       string
	ComponentCount int
	ModelRate      float64
}

// Table is an in-memory rate library keyed by system ID, with a facet-based
// fallback for lines that were never mapped to a system.
type Table struct {
	bySystem map[string]Entry
	entries  []Entry
	logger   *zap.Logger
}

var _ Provider = (*Table)(nil)

// NewTable builds a table from entries. Later duplicates of a system ID win.
func NewTable(entries []Entry, logger *zap.Logger) *Table {
	bySystem := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if e.SystemID != "" {
			bySystem[normalizeKey(e.SystemID)] = e
		}
	}
	return &Table{
		bySystem: bySystem,
		entries:  entries,
		logger:   logger.Named("modelrate"),
	}
}

// LoadCSV reads a rate library from a CSV file with the header
// systemId,sizeBucket,frr,service,subclass,componentCount,modelRate.
func LoadCSV(path string, logger *zap.Logger) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rate library: %w", err)
	}
	defer f.Close()

	entries, err := parseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate library %s: %w", path, err)
	}

	logger.Info("loaded model rate library",
		zap.String("path", path),
		zap.Int("entries", len(entries)))

	return NewTable(entries, logger), nil
}

func parseCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[normalizeKey(name)] = i
	}
	for _, required := range []string{"systemid", "modelrate"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		if i, ok := col[name]; ok && i < len(record) {
			return record[i]
		}
		return ""
	}

	var entries []Entry
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		rate, err := strconv.ParseFloat(field(record, "modelrate"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid modelRate: %w", line, err)
		}

		count := 0
		if raw := field(record, "componentcount"); raw != "" {
			count, err = strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid componentCount: %w", line, err)
			}
		}

		entries = append(entries, Entry{
			SystemID:       field(record, "systemid"),
			SizeBucket:     field(record, "sizebucket"),
			FRR:            field(record, "frr"),
			Service:        field(record, "service"),
			Subclass:       field(record, "subclass"),
			ComponentCount: count,
			ModelRate:      rate,
		})
	}

	return entries, nil
}

// Lookup resolves a rate by system ID first, falling back to an exact match
// on service, size bucket and FRR for unmapped lines.
func (t *Table) Lookup(_ context.Context, criteria Criteria) (Result, error) {
	if criteria.SystemID != "" {
		if e, ok := t.bySystem[normalizeKey(criteria.SystemID)]; ok {
			return entryResult(e), nil
		}
	}

	if criteria.Service != "" {
		for _, e := range t.entries {
			if normalizeKey(e.Service) == normalizeKey(criteria.Service) &&
				normalizeKey(e.SizeBucket) == normalizeKey(criteria.Size) &&
				normalizeKey(e.FRR) == normalizeKey(criteria.FRR) {
				return entryResult(e), nil
			}
		}
	}

	return Result{}, nil
}

func entryResult(e Entry) Result {
	if e.ModelRate <= 0 {
		return Result{}
	}
	rate := e.ModelRate
	res := Result{Rate: &rate}
	if e.ComponentCount > 0 {
		count := e.ComponentCount
		res.ComponentCount = &count
	}
	return res
}
