package dataprocessing

import (
	"fmt"
	"strings"

	"sspyviz/pkg/contracts/domain"
)

// SchemaError reports columns an operation needs that the table lacks.
// Missing lists every absent column, not only the first one found. When the
// columns are PAQ aliases, Attributes holds the matching semantic names.
type SchemaError struct {
	Operation  string
	Missing    []string
	Attributes []string
	Reason     string
}

func (e *SchemaError) Error() string {
	names := make([]string, len(e.Missing))
	for i, col := range e.Missing {
		names[i] = col
		if i < len(e.Attributes) && e.Attributes[i] != "" && e.Attributes[i] != col {
			names[i] = fmt.Sprintf("%s (%s)", e.Attributes[i], col)
		}
	}
	msg := fmt.Sprintf("%s: missing required columns: %s", e.Operation, strings.Join(names, ", "))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// RangeConfigError reports an unusable PAQ value range
type RangeConfigError struct {
	Range domain.ValueRange
}

func (e *RangeConfigError) Error() string {
	return fmt.Sprintf("invalid PAQ range: min %g must be less than max %g", e.Range.Min, e.Range.Max)
}

// AliasError reports an invalid PAQ alias mapping
type AliasError struct {
	Attribute string
	Column    string
	Problem   string
}

func (e *AliasError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("PAQ alias for %s: %s", e.Attribute, e.Problem)
	}
	return fmt.Sprintf("PAQ alias %s=%q: %s", e.Attribute, e.Column, e.Problem)
}

// FilterError reports a query condition that cannot be parsed or applied
type FilterError struct {
	Condition string
	Problem   string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid filter %q: %s", e.Condition, e.Problem)
}

// CheckRange returns a RangeConfigError when r is not a proper interval
func CheckRange(r domain.ValueRange) error {
	if !(r.Min < r.Max) {
		return &RangeConfigError{Range: r}
	}
	return nil
}

// CheckAliases rejects empty and duplicated column names
func CheckAliases(aliases domain.PAQAliases) error {
	seen := make(map[string]domain.PAQ, domain.PAQCount)
	for _, p := range domain.AllPAQs {
		col := aliases[p]
		if strings.TrimSpace(col) == "" {
			return &AliasError{Attribute: p.String(), Problem: "column name is empty"}
		}
		if prev, ok := seen[col]; ok {
			return &AliasError{Attribute: p.String(), Column: col, Problem: "already mapped to " + prev.String()}
		}
		seen[col] = p
	}
	return nil
}

// requireColumns returns a SchemaError naming every column absent from the table
func requireColumns(op string, table *domain.Table, columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !table.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Operation: op, Missing: missing}
	}
	return nil
}

// paqColumnIndexes resolves the aliased PAQ columns once per call
func paqColumnIndexes(op string, table *domain.Table, aliases domain.PAQAliases) ([domain.PAQCount]int, error) {
	var idx [domain.PAQCount]int
	var missing, attrs []string
	for _, p := range domain.AllPAQs {
		idx[p] = table.ColumnIndex(aliases[p])
		if idx[p] < 0 {
			missing = append(missing, aliases[p])
			attrs = append(attrs, p.String())
		}
	}
	if len(missing) > 0 {
		return idx, &SchemaError{Operation: op, Missing: missing, Attributes: attrs}
	}
	return idx, nil
}
